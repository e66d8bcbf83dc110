package domain

const (
	DefaultSystemPrompt = `You are an expert frontend React engineer who is also a great UI/UX designer. Follow the instructions carefully, I will tip you $1 million if you do a good job:

- Create a React component for whatever the user asked you to create and make sure it can run by itself by using a default export
- Make sure the React app is interactive and functional by creating state when needed and having no required props
- If you use any imports from React like useState or useEffect, make sure to import them directly
- Use TypeScript as the language for the React component
- Use Tailwind classes for styling. DO NOT USE ARBITRARY VALUES (e.g. h-[600px]). Make sure to use a consistent color palette.
- Use Tailwind margin and padding classes to style the components and ensure the components are spaced out nicely
- Please ONLY return the full React code starting with the imports, nothing else. It's very important for my job that you only return the React code with imports. DO NOT START WITH ` + "```typescript or ```javascript or ```tsx or ```." + `
- ONLY IF the user asks for a dashboard, graph or chart, the recharts library is available to be imported, e.g. import { LineChart, XAxis, ... } from "recharts" & <LineChart ...><XAxis dataKey="name"> ...
- For placeholder images, please use a <div className="bg-gray-200 border-2 border-dashed rounded-xl w-16 h-16" />
- Icons from lucide-react and the shadcn/ui components under @/components/ui are available to import.
- NO OTHER LIBRARIES (e.g. zod, hookform) ARE INSTALLED OR ABLE TO BE IMPORTED.`

	DefaultCodeOnlySuffix = "\nPlease ONLY return code, NO backticks or language names. Don't start with ```typescript or ```javascript or ```tsx or ```."

	// %s is replaced with the preview diagnostic.
	DefaultFixPromptTemplate = "The preview failed to load with this error: %s. Please fix the code so it works and runs correctly."

	// %s is replaced with the original user prompt.
	DefaultRetryPromptTemplate = "%s\n\nThe previous attempt did not work. Generate a fresh, robust implementation that renders without errors."

	DefaultEnhancePrompt = `You are a prompt engineer for a React code generator. Rewrite the user's app idea into a single, detailed prompt that describes the layout, the interactive behaviour, the state the component needs and the visual style. Keep the user's intent. Return only the rewritten prompt, with no preamble.`

	DefaultVisionPrompt = "Describe the attached UI screenshot in detail so a developer could rebuild it as a single React component with Tailwind classes. Cover layout, sections, colors, typography and interactive elements."

	// %s is replaced with the user's own request.
	DefaultVisionPromptWithRequest = "Describe the attached image in detail so a developer could build the following with React and Tailwind: %s. Cover layout, sections, colors, typography and interactive elements."

	DefaultEnhanceModel         = "gemini-1.5-flash"
	DefaultVisionModel          = "meta-llama/Llama-Vision-Free"
	DefaultMaxPromptLength      = 10000
	DefaultAutoFixLimit         = 1
	DefaultGenerationTimeout    = 180
	DefaultPreviewTimeoutMillis = 2000
	DefaultTemperature          = 0.7
	DefaultMaxTokens            = 8192
)

// DefaultProviders is the catalog used when the config file names none.
func DefaultProviders() []ProviderConfig {
	return []ProviderConfig{
		{ModelID: "gemini-2.0-flash-exp", Label: "Gemini 2.0 Flash (experimental)", Kind: "gemini-sdk", CredentialEnv: "GOOGLE_AI_API_KEY", Enabled: true},
		{ModelID: "gemini-1.5-flash", Label: "Gemini 1.5 Flash", Kind: "gemini-sdk", CredentialEnv: "GOOGLE_AI_API_KEY", Enabled: true},
		{ModelID: "gpt-4o-mini", Label: "GPT-4o mini", Kind: "openai-sdk", CredentialEnv: "OPENAI_API_KEY", Enabled: true},
		{ModelID: "llama-3.3-70b-versatile", Label: "Llama 3.3 70B (Groq)", Kind: "openai-sse", Endpoint: "https://api.groq.com/openai/v1/chat/completions", CredentialEnv: "GROQ_API_KEY", Enabled: true},
		{ModelID: "claude-3-5-sonnet-latest", Label: "Claude 3.5 Sonnet", Kind: "anthropic-sse", CredentialEnv: "ANTHROPIC_API_KEY", Enabled: true},
		{ModelID: "command-r-plus", Label: "Command R+", Kind: "cohere-sse", CredentialEnv: "COHERE_API_KEY", Enabled: true},
	}
}

// ApplyDefaults fills every unset field with its default value.
func (c *AppConfig) ApplyDefaults() {
	if c.SystemPrompt == "" {
		c.SystemPrompt = DefaultSystemPrompt
	}
	if c.CodeOnlySuffix == "" {
		c.CodeOnlySuffix = DefaultCodeOnlySuffix
	}
	if c.FixPromptTemplate == "" {
		c.FixPromptTemplate = DefaultFixPromptTemplate
	}
	if c.RetryPromptTemplate == "" {
		c.RetryPromptTemplate = DefaultRetryPromptTemplate
	}
	if c.EnhancePrompt == "" {
		c.EnhancePrompt = DefaultEnhancePrompt
	}
	if c.EnhanceModel == "" {
		c.EnhanceModel = DefaultEnhanceModel
	}
	if c.VisionPrompt == "" {
		c.VisionPrompt = DefaultVisionPrompt
	}
	if c.VisionPromptWithRequest == "" {
		c.VisionPromptWithRequest = DefaultVisionPromptWithRequest
	}
	if c.VisionModel == "" {
		c.VisionModel = DefaultVisionModel
	}
	if c.ModelParams.Temperature == 0 {
		c.ModelParams.Temperature = DefaultTemperature
	}
	if c.ModelParams.MaxTokens == 0 {
		c.ModelParams.MaxTokens = DefaultMaxTokens
	}
	if c.MaxPromptLength == 0 {
		c.MaxPromptLength = DefaultMaxPromptLength
	}
	if c.AutoFixLimit == 0 {
		c.AutoFixLimit = DefaultAutoFixLimit
	}
	if c.GenerationTimeoutSeconds == 0 {
		c.GenerationTimeoutSeconds = DefaultGenerationTimeout
	}
	if c.PreviewTimeoutMillis == 0 {
		c.PreviewTimeoutMillis = DefaultPreviewTimeoutMillis
	}
	if len(c.Providers) == 0 {
		c.Providers = DefaultProviders()
	}
}
