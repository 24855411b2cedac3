package api

import (
	"context"

	"github.com/agrinos/plantclassifier/session"
	"golang.org/x/oauth2"
)

type sessionTokenSource struct {
	ctx    context.Context
	client *Client
}

// TokenSource exposes the stored session as an oauth2.TokenSource so other
// HTTP clients (oauth2.NewClient) share its credentials. An access token whose
// exp claim has passed is renewed through the same refresh path as a 401.
func (c *Client) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &sessionTokenSource{ctx: ctx, client: c}
}

func (ts *sessionTokenSource) Token() (*oauth2.Token, error) {
	s, ok := ts.client.store.Read(ts.ctx)
	if !ok {
		return nil, ErrNotSignedIn
	}
	tok := toOAuth2Token(s.Credentials)
	if tok.Valid() || !s.Credentials.HasRefreshToken() {
		return tok, nil
	}
	creds, err := ts.client.renew(ts.ctx, s.Credentials)
	if err != nil {
		return nil, err
	}
	return toOAuth2Token(creds), nil
}

func toOAuth2Token(creds session.Credentials) *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		TokenType:    "Bearer",
	}
	if exp, ok := creds.AccessTokenExpiry(); ok {
		tok.Expiry = exp
	}
	return tok
}
