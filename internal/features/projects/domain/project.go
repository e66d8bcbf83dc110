package domain

import "time"

// Project is a saved generation result.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Prompt    string    `json:"prompt"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Draft is the input for saving a project.
type Draft struct {
	Name   string
	Code   string
	Prompt string
	Model  string
}
