package provider

// Supported provider type constants
const (
	Gemini = "gemini"
	Ollama = "ollama"
	OpenAI = "openai"
)

// SupportedProviders returns the list of all supported provider type names.
func SupportedProviders() []string {
	return []string{Gemini, Ollama, OpenAI}
}
