package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/zombor/pdfswift/internal/imaging"
)

const (
	DefaultOllamaURL   = "http://localhost:11434"
	DefaultOllamaModel = "llava"
)

// OllamaFactory creates workers that transcribe through a local Ollama vision model.
// Recommended models:
//   - llava:1.6 (best balance of accuracy and speed)
//   - qwen2-vl:7b (good OCR capabilities)
//   - llava-phi3 (smaller, faster, but less accurate)
type OllamaFactory struct {
	baseURL string
	model   string
	timeout time.Duration
}

// NewOllamaFactory creates an Ollama worker factory
func NewOllamaFactory(baseURL, model string) *OllamaFactory {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	if model == "" {
		model = DefaultOllamaModel
	}
	return &OllamaFactory{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		timeout: 120 * time.Second, // vision models are slow on CPU
	}
}

func (f *OllamaFactory) Name() string { return "ollama" }

// NewWorker returns a worker with its own HTTP transport
func (f *OllamaFactory) NewWorker(ctx context.Context, language string) (Worker, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	return &ollamaWorker{
		baseURL:   f.baseURL,
		model:     f.model,
		language:  language,
		transport: transport,
		client:    &http.Client{Timeout: f.timeout, Transport: transport},
	}, nil
}

type ollamaWorker struct {
	baseURL   string
	model     string
	language  string
	transport *http.Transport
	client    *http.Client
}

// ollamaChatRequest represents the request body for Ollama's chat API
type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

// ollamaChatResponse represents the response from Ollama's chat API
type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

func (w *ollamaWorker) Recognize(ctx context.Context, img imaging.Image, progress ProgressFunc) (string, error) {
	if len(img.Data) == 0 {
		return "", fmt.Errorf("image has no data")
	}

	reqBody := ollamaChatRequest{
		Model:  w.model,
		Stream: false,
		Messages: []ollamaMessage{
			{
				Role:    "system",
				Content: fmt.Sprintf("You are an OCR engine. The document language is %s.", w.language),
			},
			{
				Role:    "user",
				Content: transcriptionPrompt,
				Images:  []string{base64.StdEncoding.EncodeToString(img.Data)},
			},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/api/chat", w.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	progress(0.2)

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling ollama API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama API error (status %d): %s", resp.StatusCode, string(body))
	}
	progress(0.9)

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	return cleanTranscript(chatResp.Message.Content), nil
}

// Terminate drops the worker's pooled connections
func (w *ollamaWorker) Terminate() error {
	w.transport.CloseIdleConnections()
	return nil
}
