package gmail

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"linkdeck-backend/internal/ingest/domain"
	"linkdeck-backend/pkg/httpx"
	"linkdeck-backend/pkg/token"
)

const gmailUser = "me"

// Client wraps the Gmail REST API for newsletter ingestion. Every operation
// runs under the token lifecycle manager and the shared narrow retry policy:
// only rate-limit errors are retried, anything else propagates on the first
// failure.
type Client struct {
	tokens *token.Manager
	retry  httpx.RetryPolicy
	logger *zap.Logger

	// endpoint overrides the Gmail API base URL in tests.
	endpoint string
}

func NewClient(tokens *token.Manager, logger *zap.Logger) *Client {
	return &Client{
		tokens: tokens,
		retry:  httpx.DefaultRetryPolicy(),
		logger: logger,
	}
}

func (c *Client) newService(ctx context.Context, accessToken string) (*gmail.Service, error) {
	opts := []option.ClientOption{
		option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})),
	}
	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.endpoint))
	}
	return gmail.NewService(ctx, opts...)
}

// ListMessages returns the ids of unread messages from the given sender
// patterns, newest first per upstream ordering. Empty result is an empty
// slice, not an error.
func (c *Client) ListMessages(ctx context.Context, senderPatterns []string, maxResults int64) ([]string, error) {
	query := buildQuery(senderPatterns)

	var ids []string
	err := httpx.WithRetry(ctx, c.retry, c.logger, func(ctx context.Context) error {
		return c.tokens.WithFreshToken(ctx, func(ctx context.Context, accessToken string) error {
			srv, err := c.newService(ctx, accessToken)
			if err != nil {
				return &domain.NetworkError{Message: "create gmail service", Cause: err}
			}

			resp, err := srv.Users.Messages.List(gmailUser).Q(query).MaxResults(maxResults).Context(ctx).Do()
			if err != nil {
				return classify(err, "")
			}

			ids = make([]string, 0, len(resp.Messages))
			for _, msg := range resp.Messages {
				ids = append(ids, msg.Id)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug("listed messages", zap.String("query", query), zap.Int("count", len(ids)))
	return ids, nil
}

// GetMessageFull fetches one message in full format and decodes it. A 404 on
// the message id maps to MessageNotFoundError.
func (c *Client) GetMessageFull(ctx context.Context, messageID string) (*domain.InboundMessage, error) {
	var decoded *domain.InboundMessage
	err := httpx.WithRetry(ctx, c.retry, c.logger, func(ctx context.Context) error {
		return c.tokens.WithFreshToken(ctx, func(ctx context.Context, accessToken string) error {
			srv, err := c.newService(ctx, accessToken)
			if err != nil {
				return &domain.NetworkError{Message: "create gmail service", Cause: err}
			}

			msg, err := srv.Users.Messages.Get(gmailUser, messageID).Format("full").Context(ctx).Do()
			if err != nil {
				return classify(err, messageID)
			}

			decoded = decodeMessage(msg)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return decoded, nil
}

// MarkAsRead removes the UNREAD label from a message.
func (c *Client) MarkAsRead(ctx context.Context, messageID string) error {
	return httpx.WithRetry(ctx, c.retry, c.logger, func(ctx context.Context) error {
		return c.tokens.WithFreshToken(ctx, func(ctx context.Context, accessToken string) error {
			srv, err := c.newService(ctx, accessToken)
			if err != nil {
				return &domain.NetworkError{Message: "create gmail service", Cause: err}
			}

			req := &gmail.ModifyMessageRequest{RemoveLabelIds: []string{"UNREAD"}}
			if _, err := srv.Users.Messages.Modify(gmailUser, messageID, req).Context(ctx).Do(); err != nil {
				return classify(err, messageID)
			}
			return nil
		})
	})
}

// buildQuery composes the unread-newsletter search. A single pattern is
// inlined as from:X; multiple patterns become a from:(X OR Y) disjunction.
func buildQuery(senderPatterns []string) string {
	switch len(senderPatterns) {
	case 0:
		return "is:unread"
	case 1:
		return "is:unread from:" + senderPatterns[0]
	default:
		return "is:unread from:(" + strings.Join(senderPatterns, " OR ") + ")"
	}
}

func decodeMessage(msg *gmail.Message) *domain.InboundMessage {
	received := time.Now()
	if msg.InternalDate > 0 {
		received = time.UnixMilli(msg.InternalDate)
	}

	inbound := &domain.InboundMessage{
		GmailID:    msg.Id,
		ReceivedAt: received,
	}
	if msg.Payload == nil {
		return inbound
	}

	inbound.From = getHeader(msg.Payload.Headers, "From")
	inbound.Subject = getHeader(msg.Payload.Headers, "Subject")
	inbound.HTML = findHTMLBody(msg.Payload)
	return inbound
}

func getHeader(headers []*gmail.MessagePartHeader, name string) string {
	for _, header := range headers {
		if strings.EqualFold(header.Name, name) {
			return header.Value
		}
	}
	return ""
}

// findHTMLBody locates the first text/html part by depth-first search over
// the MIME tree, falling back to the single top-level body.
func findHTMLBody(payload *gmail.MessagePart) string {
	if html := findHTMLPart(payload.Parts); html != "" {
		return html
	}
	if payload.Body != nil && payload.Body.Data != "" {
		if data, err := base64.URLEncoding.DecodeString(payload.Body.Data); err == nil {
			return string(data)
		}
	}
	return ""
}

func findHTMLPart(parts []*gmail.MessagePart) string {
	for _, part := range parts {
		if part.MimeType == "text/html" && part.Body != nil && part.Body.Data != "" {
			if data, err := base64.URLEncoding.DecodeString(part.Body.Data); err == nil {
				return string(data)
			}
		}
		if html := findHTMLPart(part.Parts); html != "" {
			return html
		}
	}
	return ""
}
