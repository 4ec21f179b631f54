package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.5-flash"

// Gemini is a Transport backed by the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

var _ Transport = (*Gemini)(nil)

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: api key not set")
	}

	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Generate(ctx context.Context, req Request) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0.1)),
	}

	if req.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}

	if req.Native {
		config.ResponseMIMEType = "application/json"
		config.ResponseJsonSchema = req.Schema
	}

	var parts []*genai.Part
	if req.File != nil {
		parts = append(parts, genai.NewPartFromURI(req.File.URI, req.File.MIMEType))
	}

	parts = append(parts, genai.NewPartFromText(req.Prompt))

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		if req.Native && isResponseFormatError(err) {
			return "", fmt.Errorf("%w: %v", ErrResponseFormatUnsupported, err)
		}

		return "", fmt.Errorf("gemini generation failed: %w", err)
	}

	return result.Text(), nil
}

func (g *Gemini) Upload(ctx context.Context, data []byte, mimeType string) (*FileRef, error) {
	file, err := g.client.Files.Upload(ctx, bytes.NewReader(data), &genai.UploadFileConfig{MIMEType: mimeType})
	if err != nil {
		return nil, fmt.Errorf("uploading file: %w", err)
	}

	return &FileRef{URI: file.URI, MIMEType: file.MIMEType}, nil
}

// isResponseFormatError detects models that reject a JSON response schema.
func isResponseFormatError(err error) bool {
	msg := strings.ToLower(err.Error())

	for _, marker := range []string{"response_mime_type", "response_schema", "responsejsonschema", "response_json_schema", "responsemimetype"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}

	return false
}
