package domain

// AppConfig represents the application configuration.
type AppConfig struct {
	SystemPrompt             string           `json:"system_prompt"`
	CodeOnlySuffix           string           `json:"code_only_suffix"`
	FixPromptTemplate        string           `json:"fix_prompt_template"`
	RetryPromptTemplate      string           `json:"retry_prompt_template"`
	EnhancePrompt            string           `json:"enhance_prompt"`
	EnhanceModel             string           `json:"enhance_model"`
	VisionPrompt             string           `json:"vision_prompt"`
	VisionPromptWithRequest  string           `json:"vision_prompt_with_request"`
	VisionModel              string           `json:"vision_model"`
	ModelParams              ModelParams      `json:"model_params"`
	MaxPromptLength          int              `json:"max_prompt_length"`
	AutoFixLimit             int              `json:"auto_fix_limit"`
	GenerationTimeoutSeconds int              `json:"generation_timeout_seconds"`
	PreviewTimeoutMillis     int              `json:"preview_timeout_millis"`
	Providers                []ProviderConfig `json:"providers"`
}

// ModelParams defines the parameters for the AI model.
type ModelParams struct {
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// ProviderConfig maps one public model id to an upstream provider.
// Kind is one of the adapter kinds known to the generation registry.
type ProviderConfig struct {
	ModelID       string `json:"model_id"`
	Label         string `json:"label"`
	Kind          string `json:"kind"`
	UpstreamModel string `json:"upstream_model,omitempty"`
	Endpoint      string `json:"endpoint,omitempty"`
	CredentialEnv string `json:"credential_env"`
	Enabled       bool   `json:"enabled"`
}

// Upstream returns the model name sent to the provider.
func (p ProviderConfig) Upstream() string {
	if p.UpstreamModel != "" {
		return p.UpstreamModel
	}
	return p.ModelID
}

// ModelInfo is the public view of a configured model.
type ModelInfo struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Kind      string `json:"kind"`
	Available bool   `json:"available"`
}
