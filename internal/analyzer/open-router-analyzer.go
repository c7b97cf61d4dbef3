package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/BerylCAtieno/document-scanner-api/internal/models"
	"github.com/BerylCAtieno/document-scanner-api/internal/utils"
)

const defaultEndpoint = "https://openrouter.ai/api/v1/chat/completions"

// maxPromptText bounds the document text sent to the model, in runes.
const maxPromptText = 4000

const systemPrompt = "You extract structured fields from scanned business documents. " +
	"Answer with a single JSON object and nothing else."

// Analyzer pulls type-specific fields out of extracted document text.
type Analyzer interface {
	Analyze(ctx context.Context, docType models.DocumentType, text string) (*models.LLMAnalysisResult, error)
}

type openRouterAnalyzer struct {
	apiKey   string
	model    string
	endpoint string
	logger   *utils.Logger
	client   *http.Client
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewOpenRouterAnalyzer(apiKey, model string, logger *utils.Logger) Analyzer {
	return newOpenRouterAnalyzer(apiKey, model, defaultEndpoint, logger)
}

func newOpenRouterAnalyzer(apiKey, model, endpoint string, logger *utils.Logger) *openRouterAnalyzer {
	return &openRouterAnalyzer{
		apiKey:   apiKey,
		model:    model,
		endpoint: endpoint,
		logger:   logger,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

// fieldsByType lists the fields requested for each document category.
var fieldsByType = map[models.DocumentType][]string{
	models.DocumentTypeResume:  {"full_name", "email", "phone", "skills", "total_experience_years"},
	models.DocumentTypeInvoice: {"invoice_number", "invoice_date", "vendor", "total_amount", "currency"},
	models.DocumentTypeChallan: {"challan_number", "challan_date", "consignor", "consignee", "items"},
}

func buildPrompt(docType models.DocumentType, text string) string {
	if runes := []rune(text); len(runes) > maxPromptText {
		text = string(runes[:maxPromptText]) + "..."
	}

	keys := make([]string, 0, len(fieldsByType[docType]))
	for _, f := range fieldsByType[docType] {
		keys = append(keys, fmt.Sprintf("%q: ...", f))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Extract the following fields from this %s.\n\n", strings.ToLower(docType.Label()))
	fmt.Fprintf(&b, "Document text:\n%s\n\n", text)
	fmt.Fprintf(&b, "Reply as {\"fields\": {%s}} and use null for anything that is not present.", strings.Join(keys, ", "))
	return b.String()
}

func (a *openRouterAnalyzer) Analyze(ctx context.Context, docType models.DocumentType, text string) (*models.LLMAnalysisResult, error) {
	content, err := a.complete(ctx, buildPrompt(docType, text))
	if err != nil {
		return nil, err
	}

	var result models.LLMAnalysisResult
	if err := json.Unmarshal([]byte(extractJSON(content)), &result); err != nil {
		a.logger.Error("Unparseable field analysis", "document_type", docType, "content", content)
		return nil, fmt.Errorf("model reply is not JSON: %w", err)
	}

	for k, v := range result.Fields {
		if v == nil {
			delete(result.Fields, k)
		}
	}

	a.logger.Debug("Field analysis complete", "document_type", docType, "fields", len(result.Fields))
	return &result, nil
}

// complete sends a single-turn chat request and returns the first choice.
func (a *openRouterAnalyzer) complete(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build completion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read completion response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		a.logger.Error("OpenRouter request rejected", "status", resp.StatusCode, "body", string(body))
		return "", fmt.Errorf("OpenRouter returned status %d", resp.StatusCode)
	}

	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("failed to decode completion response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("OpenRouter error: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("completion response has no choices")
	}

	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

// extractJSON strips a surrounding markdown code fence, if any.
func extractJSON(content string) string {
	if !strings.HasPrefix(content, "```") {
		return content
	}

	nl := strings.IndexByte(content, '\n')
	if nl < 0 {
		return content
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(content[nl+1:]), "```"))
}
