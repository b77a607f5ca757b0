package domain

// Service identifies which transcription backend handles requests.
type Service string

const (
	ServiceLocal      Service = "local"
	ServiceCloudflare Service = "cloudflare"
	ServiceAzure      Service = "azure"
	ServiceOpenAI     Service = "openai"
)

// KnownServices is the allow-list accepted by the bridge.
var KnownServices = []Service{ServiceLocal, ServiceCloudflare, ServiceAzure, ServiceOpenAI}

// IsKnownService reports whether name is on the service allow-list.
func IsKnownService(name string) bool {
	for _, s := range KnownServices {
		if string(s) == name {
			return true
		}
	}
	return false
}

// ModelDescriptor is one usable model file found in the models directory,
// joined with its static catalog metadata. Regenerated on every scan.
type ModelDescriptor struct {
	Name        string `json:"name"`
	SavePath    string `json:"savePath"`
	Label       string `json:"label,omitempty"`
	SizeLabel   string `json:"sizeLabel,omitempty"`
	URL         string `json:"url,omitempty"`
	Description string `json:"description,omitempty"`
}

// Settings contains persisted runtime configuration. Owned by the settings
// store; components read and update it only through config.Store.
type Settings struct {
	Service         Service           `json:"service"`
	Model           string            `json:"model,omitempty"`
	AvailableModels []ModelDescriptor `json:"availableModels,omitempty"`
	ModelsDir       string            `json:"modelsDir,omitempty"`
	LibraryDir      string            `json:"libraryDir,omitempty"`
	CacheDir        string            `json:"cacheDir,omitempty"`

	// Cloud backend credentials; unused when Service is local.
	OpenAIKey           string `json:"openaiKey,omitempty"`
	CloudflareAccountID string `json:"cloudflareAccountId,omitempty"`
	CloudflareToken     string `json:"cloudflareToken,omitempty"`
	AzureKey            string `json:"azureKey,omitempty"`
	AzureRegion         string `json:"azureRegion,omitempty"`
}

// Configuration is what the bridge returns to the host UI: current settings
// plus whether the local executable passed its smoke test.
type Configuration struct {
	Settings
	Ready bool `json:"ready"`
}
