package ocr

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/zombor/pdfswift/internal/imaging"
)

const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiFactory creates workers that transcribe through Google Gemini. It sends the
// capture off the device, so it is only used when configured explicitly.
type GeminiFactory struct {
	apiKey string
	model  string
}

// NewGeminiFactory creates a Gemini worker factory
func NewGeminiFactory(apiKey, model string) (*GeminiFactory, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiFactory{apiKey: apiKey, model: model}, nil
}

func (f *GeminiFactory) Name() string { return "gemini" }

// NewWorker opens a Gemini client owned by the worker
func (f *GeminiFactory) NewWorker(ctx context.Context, language string) (Worker, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(f.apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	model := client.GenerativeModel(f.model)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{
			genai.Text(fmt.Sprintf("You are an OCR engine. The document language is %s.", language)),
		},
	}
	return &geminiWorker{client: client, model: model}, nil
}

type geminiWorker struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func (w *geminiWorker) Recognize(ctx context.Context, img imaging.Image, progress ProgressFunc) (string, error) {
	if len(img.Data) == 0 {
		return "", fmt.Errorf("image has no data")
	}

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	// genai.ImageData expects the format suffix (e.g. "jpeg"), not the MIME type
	parts := []genai.Part{
		genai.ImageData(img.Format, img.Data),
		genai.Text(transcriptionPrompt),
	}
	progress(0.2)

	resp, err := w.model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}
	progress(0.9)

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response from gemini")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	return cleanTranscript(text.String()), nil
}

// Terminate closes the Gemini client
func (w *geminiWorker) Terminate() error {
	return w.client.Close()
}
