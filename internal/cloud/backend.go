// Package cloud implements the non-local transcription services selectable
// through configuration. Each backend uploads a finished audio file to one
// hosted API; all process orchestration stays in the whisper package.
package cloud

import (
	"context"
	"fmt"

	"github.com/sarnaz1304/everyone-can-use-english/internal/domain"
)

// Result is a provider-neutral transcription response.
type Result struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

// Backend is a pluggable hosted transcription service.
type Backend interface {
	Transcribe(ctx context.Context, audioPath string) (Result, error)
}

// ForService builds the backend for a configured non-local service.
func ForService(settings domain.Settings) (Backend, error) {
	switch settings.Service {
	case domain.ServiceOpenAI:
		if settings.OpenAIKey == "" {
			return nil, fmt.Errorf("openai service selected but no API key configured")
		}
		return NewOpenAIBackend(settings.OpenAIKey), nil
	case domain.ServiceCloudflare:
		if settings.CloudflareAccountID == "" || settings.CloudflareToken == "" {
			return nil, fmt.Errorf("cloudflare service selected but account or token missing")
		}
		return NewCloudflareBackend(settings.CloudflareAccountID, settings.CloudflareToken), nil
	case domain.ServiceAzure:
		if settings.AzureKey == "" || settings.AzureRegion == "" {
			return nil, fmt.Errorf("azure service selected but key or region missing")
		}
		return NewAzureBackend(settings.AzureKey, settings.AzureRegion), nil
	default:
		return nil, fmt.Errorf("no cloud backend for service %q", settings.Service)
	}
}
