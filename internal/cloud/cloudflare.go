package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// cloudflareModel is the Workers AI whisper model used for transcription.
const cloudflareModel = "@cf/openai/whisper"

// CloudflareBackend transcribes audio through Cloudflare Workers AI.
// POST https://api.cloudflare.com/client/v4/accounts/{account}/ai/run/{model}
type CloudflareBackend struct {
	accountID string
	apiToken  string
	baseURL   string
	client    *http.Client
}

// NewCloudflareBackend creates a Workers AI transcription service.
func NewCloudflareBackend(accountID, apiToken string) *CloudflareBackend {
	return &CloudflareBackend{
		accountID: accountID,
		apiToken:  apiToken,
		baseURL:   "https://api.cloudflare.com/client/v4",
		client:    &http.Client{Timeout: 10 * time.Minute},
	}
}

// NewCloudflareBackendForTests creates a backend against a test server.
func NewCloudflareBackendForTests(accountID, apiToken, baseURL string, client *http.Client) *CloudflareBackend {
	return &CloudflareBackend{
		accountID: accountID,
		apiToken:  apiToken,
		baseURL:   baseURL,
		client:    client,
	}
}

type cloudflareEnvelope struct {
	Success bool            `json:"success"`
	Errors  []any           `json:"errors"`
	Result  json.RawMessage `json:"result"`
}

type cloudflareResult struct {
	Text string `json:"text"`
}

// Transcribe uploads the audio file as multipart form data.
func (b *CloudflareBackend) Transcribe(ctx context.Context, audioPath string) (Result, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return Result{}, fmt.Errorf("open audio file: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return Result{}, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return Result{}, err
	}
	if err := writer.Close(); err != nil {
		return Result{}, err
	}

	url := fmt.Sprintf("%s/accounts/%s/ai/run/%s", b.baseURL, b.accountID, cloudflareModel)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Authorization", "Bearer "+b.apiToken)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := b.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("cloudflare request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(resp.Body)
		return Result{}, fmt.Errorf("cloudflare http %d: %s", resp.StatusCode, string(detail))
	}

	var envelope cloudflareEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return Result{}, fmt.Errorf("decode cloudflare response: %w", err)
	}
	if !envelope.Success {
		return Result{}, fmt.Errorf("cloudflare response not successful: %s", string(envelope.Result))
	}

	var parsed cloudflareResult
	if err := json.Unmarshal(envelope.Result, &parsed); err != nil {
		return Result{}, fmt.Errorf("cloudflare unexpected result: %w", err)
	}

	return Result{Text: parsed.Text}, nil
}
