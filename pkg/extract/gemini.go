package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"linkdeck-backend/internal/ingest/domain"
	"linkdeck-backend/pkg/httpx"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	geminiModel          = "gemini-2.5-flash"
)

const extractionPrompt = `You are a newsletter content extractor. The input is the HTML body of a newsletter email.

Extract the content links: articles, posts, videos, papers the newsletter is recommending or announcing.
Exclude unsubscribe links, profile/account links, tracking pixels, social footer links, and sponsor boilerplate.

For each content link return its URL and a short description of what it points to.
Return JSON matching the response schema. If there are no content links, return {"links": []}.

EMAIL HTML:
%s`

// GeminiExtractor is the model-based fallback stage. It issues a
// structured-output generateContent call and schema-validates the response.
type GeminiExtractor struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewGeminiExtractor(apiKey string, logger *zap.Logger) *GeminiExtractor {
	return &GeminiExtractor{
		apiKey:     apiKey,
		baseURL:    defaultGeminiBaseURL,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	ResponseMimeType string          `json:"responseMimeType"`
	ResponseSchema   json.RawMessage `json:"responseSchema"`
}

var linksSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"links": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"url": {"type": "string"},
					"description": {"type": "string"}
				},
				"required": ["url"]
			}
		}
	},
	"required": ["links"]
}`)

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type extractedPayload struct {
	Links []struct {
		URL         string `json:"url"`
		Description string `json:"description"`
	} `json:"links"`
}

// Extract asks the model for the content links of one email. Provider
// failures map to LLMError; any "no usable output" condition maps to
// ParseError with the raw response attached.
func (g *GeminiExtractor) Extract(ctx context.Context, msg *domain.InboundMessage) ([]domain.ExtractedLink, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: fmt.Sprintf(extractionPrompt, msg.HTML)}}},
		},
		GenerationConfig: geminiGenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   linksSchema,
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &domain.LLMError{Message: "marshal gemini request", Cause: err}
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, geminiModel, g.apiKey)

	var resp geminiResponse
	if err := httpx.DoJSON(ctx, g.httpClient, http.MethodPost, url, nil, bytes.NewReader(payload), &resp); err != nil {
		var statusErr *httpx.StatusError
		if errors.As(err, &statusErr) {
			return nil, &domain.LLMError{Message: fmt.Sprintf("gemini api status %d", statusErr.Status), Cause: statusErr}
		}
		return nil, &domain.LLMError{Message: "gemini request failed", Cause: err}
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, &domain.ParseError{Message: "gemini returned no candidates"}
	}
	raw := resp.Candidates[0].Content.Parts[0].Text

	var parsed extractedPayload
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, &domain.ParseError{Message: "gemini output is not valid JSON", RawResponse: raw}
	}
	if parsed.Links == nil {
		return nil, &domain.ParseError{Message: "gemini output missing links field", RawResponse: raw}
	}

	links := make([]domain.ExtractedLink, 0, len(parsed.Links))
	for _, l := range parsed.Links {
		if l.URL == "" {
			continue
		}
		links = append(links, domain.ExtractedLink{URL: l.URL, Description: l.Description})
	}

	g.logger.Debug("model extraction completed", zap.String("gmail_id", msg.GmailID), zap.Int("links", len(links)))
	return links, nil
}
