package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// AzureBackend transcribes audio through the Azure Speech REST API.
type AzureBackend struct {
	apiKey  string
	region  string
	baseURL string
	client  *http.Client
}

// NewAzureBackend creates an Azure Speech transcription service.
func NewAzureBackend(apiKey, region string) *AzureBackend {
	return &AzureBackend{
		apiKey:  apiKey,
		region:  region,
		baseURL: fmt.Sprintf("https://%s.stt.speech.microsoft.com", region),
		client:  &http.Client{Timeout: 10 * time.Minute},
	}
}

// NewAzureBackendForTests creates a backend against a test server.
func NewAzureBackendForTests(apiKey, region, baseURL string, client *http.Client) *AzureBackend {
	return &AzureBackend{apiKey: apiKey, region: region, baseURL: baseURL, client: client}
}

type azureResponse struct {
	RecognitionStatus string `json:"RecognitionStatus"`
	DisplayText       string `json:"DisplayText"`
}

// Transcribe posts raw wav bytes to the short-audio recognition endpoint.
func (b *AzureBackend) Transcribe(ctx context.Context, audioPath string) (Result, error) {
	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return Result{}, fmt.Errorf("read audio file: %w", err)
	}

	url := b.baseURL + "/speech/recognition/conversation/cognitiveservices/v1?language=en-US"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(audio))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", b.apiKey)
	req.Header.Set("Content-Type", "audio/wav; codecs=audio/pcm; samplerate=16000")
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("azure request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(resp.Body)
		return Result{}, fmt.Errorf("azure http %d: %s", resp.StatusCode, string(detail))
	}

	var parsed azureResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Result{}, fmt.Errorf("decode azure response: %w", err)
	}
	if parsed.RecognitionStatus != "Success" {
		return Result{}, fmt.Errorf("azure recognition status: %s", parsed.RecognitionStatus)
	}

	return Result{Text: parsed.DisplayText, Language: "en"}, nil
}
