package token

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// OAuthRefresher performs the refresh_token grant against an OAuth token
// endpoint via golang.org/x/oauth2.
type OAuthRefresher struct {
	conf *oauth2.Config
}

// NewOAuthRefresher builds a refresher for the given client. An empty
// tokenURL targets Google's endpoint.
func NewOAuthRefresher(clientID, clientSecret, tokenURL string) *OAuthRefresher {
	if tokenURL == "" {
		tokenURL = google.Endpoint.TokenURL
	}
	return &OAuthRefresher{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
		},
	}
}

func (r *OAuthRefresher) Refresh(ctx context.Context, refreshToken string) (Credential, error) {
	src := r.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return Credential{}, fmt.Errorf("refresh token grant: %w", err)
	}
	return Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	}, nil
}
