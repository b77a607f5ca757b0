package cloud

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIBackend transcribes audio through the OpenAI Whisper API.
type OpenAIBackend struct {
	client *openai.Client
}

// NewOpenAIBackend creates an OpenAI-backed transcription service.
func NewOpenAIBackend(apiKey string) *OpenAIBackend {
	return &OpenAIBackend{client: openai.NewClient(apiKey)}
}

// Transcribe uploads the audio file and returns the transcription text.
func (b *OpenAIBackend) Transcribe(ctx context.Context, audioPath string) (Result, error) {
	resp, err := b.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: audioPath,
	})
	if err != nil {
		return Result{}, fmt.Errorf("openai transcription: %w", err)
	}

	return Result{Text: resp.Text, Language: resp.Language}, nil
}
