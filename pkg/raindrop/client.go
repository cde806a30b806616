package raindrop

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"linkdeck-backend/internal/ingest/domain"
	"linkdeck-backend/pkg/httpx"
	"linkdeck-backend/pkg/token"
)

const defaultBaseURL = "https://api.raindrop.io/rest"

// Client saves links to the Raindrop bookmark API. It shares the mail
// client's shape: bearer token through the lifecycle manager, rate-limit-only
// retry, classification into the save-side error taxonomy.
type Client struct {
	baseURL    string
	tokens     *token.Manager
	httpClient *http.Client
	retry      httpx.RetryPolicy
	logger     *zap.Logger
}

func NewClient(baseURL string, tokens *token.Manager, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		tokens:     tokens,
		httpClient: &http.Client{},
		retry:      httpx.DefaultRetryPolicy(),
		logger:     logger,
	}
}

type saveRequest struct {
	Link    string `json:"link"`
	Title   string `json:"title"`
	Excerpt string `json:"excerpt"`
}

type saveResponse struct {
	Item struct {
		ID json.Number `json:"_id"`
	} `json:"item"`
}

// Save stores one bookmark and returns the provider's item id.
func (c *Client) Save(ctx context.Context, url, title, excerpt string) (string, error) {
	payload, err := json.Marshal(saveRequest{Link: url, Title: title, Excerpt: excerpt})
	if err != nil {
		return "", err
	}

	var itemID string
	err = httpx.WithRetry(ctx, c.retry, c.logger, func(ctx context.Context) error {
		return c.tokens.WithFreshToken(ctx, func(ctx context.Context, accessToken string) error {
			header := http.Header{}
			header.Set("Authorization", "Bearer "+accessToken)

			var resp saveResponse
			err := httpx.DoJSON(ctx, c.httpClient, http.MethodPost, c.baseURL+"/v1/raindrop", header, bytes.NewReader(payload), &resp)
			if err != nil {
				return classifySave(err, url)
			}
			itemID = resp.Item.ID.String()
			return nil
		})
	})
	if err != nil {
		return "", err
	}

	c.logger.Info("saved bookmark", zap.String("url", url), zap.String("item_id", itemID))
	return itemID, nil
}

func classifySave(err error, url string) error {
	var tagged domain.TaggedError
	if errors.As(err, &tagged) {
		return err
	}

	var statusErr *httpx.StatusError
	if !errors.As(err, &statusErr) {
		return &domain.NetworkError{Message: "raindrop request failed", Cause: err}
	}

	switch statusErr.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &domain.AuthError{Message: "raindrop rejected credentials"}
	case http.StatusTooManyRequests:
		return &domain.RateLimitedError{RetryAfter: statusErr.RetryAfter}
	default:
		return &domain.SaveFailedError{URL: url, Message: statusErr.Error()}
	}
}
