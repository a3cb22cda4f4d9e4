package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"civicledger/backend/internal/apperr"
)

// GeminiClient calls the Gemini generateContent endpoint.
type GeminiClient struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
	log     logrus.FieldLogger
}

func NewGeminiClient(apiKey, model, baseURL string, timeout time.Duration, log logrus.FieldLogger) *GeminiClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GeminiClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents          []geminiContent        `json:"contents"`
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	GenerationConfig  map[string]interface{} `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Classify asks the model to route a raw complaint.
func (c *GeminiClient) Classify(ctx context.Context, rawText, location string) (*Triage, error) {
	prompt := fmt.Sprintf("Analyze the following citizen complaint submitted for the location: '%s'. "+
		"Original complaint: '%s'. Reply strictly in the requested JSON structure.", location, rawText)

	schema := map[string]interface{}{
		"type": "OBJECT",
		"properties": map[string]interface{}{
			"classification":     map[string]string{"type": "STRING"},
			"department_id":      map[string]string{"type": "STRING"},
			"raw_text_processed": map[string]string{"type": "STRING"},
			"professional_text":  map[string]string{"type": "STRING"},
		},
		"required": []string{"classification", "department_id", "raw_text_processed", "professional_text"},
	}

	var t Triage
	if err := c.generate(ctx, triageSystemPrompt(), []geminiPart{{Text: prompt}}, schema, &t); err != nil {
		return nil, err
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// ValidateEvidence scores how well a citizen photo matches the classification.
func (c *GeminiClient) ValidateEvidence(ctx context.Context, classification string, image []byte, contentType string) (*VisionScore, error) {
	prompt := fmt.Sprintf("The reported grievance classification is: '%s'. "+
		"Rate the visual relevance of the image to this classification.", classification)
	return c.score(ctx, evidenceInstruction, prompt, image, contentType)
}

// ScoreResolution scores an officer's after-photo for the grievance.
func (c *GeminiClient) ScoreResolution(ctx context.Context, classification string, image []byte, contentType, location, officerID string) (*VisionScore, error) {
	prompt := fmt.Sprintf("Grievance type: '%s'. Officer ID: %s. "+
		"The officer claims the issue is resolved at %s. Score the after image.", classification, officerID, location)
	return c.score(ctx, auditInstruction, prompt, image, contentType)
}

func (c *GeminiClient) score(ctx context.Context, instruction, prompt string, image []byte, contentType string) (*VisionScore, error) {
	if len(image) == 0 {
		return nil, apperr.Newf(apperr.ErrInvalidInput, "image is empty")
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}
	schema := map[string]interface{}{
		"type": "OBJECT",
		"properties": map[string]interface{}{
			"score":   map[string]string{"type": "NUMBER"},
			"message": map[string]string{"type": "STRING"},
		},
		"required": []string{"score", "message"},
	}
	parts := []geminiPart{
		{Text: prompt},
		{InlineData: &geminiInlineData{MimeType: contentType, Data: base64.StdEncoding.EncodeToString(image)}},
	}

	var p visionPayload
	if err := c.generate(ctx, instruction, parts, schema, &p); err != nil {
		return nil, err
	}
	return p.toScore()
}

// generate posts one request and decodes the first candidate's JSON text into out.
func (c *GeminiClient) generate(ctx context.Context, instruction string, parts []geminiPart, schema map[string]interface{}, out interface{}) error {
	if c.apiKey == "" {
		return apperr.Newf(apperr.ErrExternalService, "gemini api key is not configured")
	}

	body, err := json.Marshal(geminiRequest{
		Contents:          []geminiContent{{Parts: parts}},
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: instruction}}},
		GenerationConfig: map[string]interface{}{
			"responseMimeType": "application/json",
			"responseSchema":   schema,
		},
	})
	if err != nil {
		return fmt.Errorf("gemini: marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, url.PathEscape(c.model), url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("gemini: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WithError(err).Warn("Gemini request failed")
		return apperr.Wrap(apperr.ErrExternalService, fmt.Errorf("gemini request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.WithFields(logrus.Fields{"status": resp.StatusCode, "body": string(snippet)}).Warn("Gemini returned an error status")
		return apperr.Newf(apperr.ErrExternalService, "gemini status %d", resp.StatusCode)
	}

	var gr geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return apperr.Wrap(apperr.ErrExternalService, fmt.Errorf("gemini: decode envelope: %w", err))
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return apperr.Newf(apperr.ErrExternalService, "gemini returned no candidates")
	}

	text := gr.Candidates[0].Content.Parts[0].Text
	dec := json.NewDecoder(strings.NewReader(text))
	if err := dec.Decode(out); err != nil {
		return apperr.Wrap(apperr.ErrExternalService, fmt.Errorf("gemini: decode model output: %w", err))
	}
	return nil
}
