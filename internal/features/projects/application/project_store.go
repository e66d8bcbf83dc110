package application

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"codecraft/backend/internal/features/projects/domain"
)

const (
	defaultMaxProjects = 50
	maxNameLength      = 50
)

// ProjectStore keeps the project history of one session, newest first.
type ProjectStore interface {
	// Save records draft unless it matches the newest project's code and prompt.
	Save(draft domain.Draft) (domain.Project, bool)
	List() []domain.Project
	Get(id string) (domain.Project, bool)
	Delete(id string) bool
	Clear()
}

// memoryProjectStore is the in-memory implementation of ProjectStore.
type memoryProjectStore struct {
	mu       sync.RWMutex
	projects []domain.Project
	max      int
	now      func() time.Time
}

// NewProjectStore creates a store that keeps at most max projects. max <= 0
// uses the default.
func NewProjectStore(max int) ProjectStore {
	if max <= 0 {
		max = defaultMaxProjects
	}
	return &memoryProjectStore{max: max, now: time.Now}
}

func (s *memoryProjectStore) Save(draft domain.Draft) (domain.Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.projects) > 0 {
		newest := s.projects[0]
		if newest.Code == draft.Code && newest.Prompt == draft.Prompt {
			return newest, false
		}
	}

	now := s.now()
	name := strings.TrimSpace(draft.Name)
	if name == "" {
		name = projectName(draft.Prompt)
	}
	p := domain.Project{
		ID:        uuid.NewString(),
		Name:      name,
		Code:      draft.Code,
		Prompt:    draft.Prompt,
		Model:     draft.Model,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.projects = append([]domain.Project{p}, s.projects...)
	if len(s.projects) > s.max {
		s.projects = s.projects[:s.max]
	}
	return p, true
}

func (s *memoryProjectStore) List() []domain.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Project, len(s.projects))
	copy(out, s.projects)
	return out
}

func (s *memoryProjectStore) Get(id string) (domain.Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.projects {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Project{}, false
}

func (s *memoryProjectStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.projects {
		if p.ID == id {
			s.projects = append(s.projects[:i], s.projects[i+1:]...)
			return true
		}
	}
	return false
}

func (s *memoryProjectStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects = nil
}

func projectName(prompt string) string {
	name := strings.Join(strings.Fields(prompt), " ")
	if name == "" {
		return "Untitled project"
	}
	runes := []rune(name)
	if len(runes) > maxNameLength {
		return strings.TrimSpace(string(runes[:maxNameLength])) + "..."
	}
	return name
}
