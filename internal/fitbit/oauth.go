package fitbit

import (
	"context"
	"errors"
	"net/http"

	"github.com/windoze95/nickate-skill/internal/models"
	"golang.org/x/oauth2"
)

// Scopes requested when authorizing the skill.
var Scopes = []string{"nutrition", "profile"}

// oauthConfig builds the OAuth2 config. Fitbit wants the client credentials
// as HTTP Basic auth on the token endpoint.
func (c *Client) oauthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.authURL,
			TokenURL:  c.baseURL + "/oauth2/token",
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
}

// RefreshToken exchanges the stored refresh token for a new token pair.
// It performs exactly one request.
func (c *Client) RefreshToken(ctx context.Context, creds models.Credentials) (*oauth2.Token, error) {
	conf := c.oauthConfig(creds.ClientID, creds.ClientSecret, "")
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	tok, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: creds.RefreshToken}).Token()
	if err != nil {
		return nil, tokenError("refresh", err)
	}
	return tok, nil
}

// AuthCodeURL returns the Fitbit consent page URL for the authorization
// code flow.
func (c *Client) AuthCodeURL(clientID, redirectURL, state string) string {
	return c.oauthConfig(clientID, "", redirectURL).AuthCodeURL(state)
}

// ExchangeCode trades an authorization code for the first token pair.
func (c *Client) ExchangeCode(ctx context.Context, clientID, clientSecret, redirectURL, code string) (*oauth2.Token, error) {
	conf := c.oauthConfig(clientID, clientSecret, redirectURL)
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, tokenError("exchange", err)
	}
	return tok, nil
}

// tokenError sorts token endpoint failures into the package error types.
func tokenError(op string, err error) error {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) {
		return &TransportError{Op: op, Err: err}
	}

	status := 0
	if re.Response != nil {
		status = re.Response.StatusCode
	}
	if status == http.StatusBadRequest || status == http.StatusUnauthorized {
		return &AuthorizationError{Op: op, Body: string(re.Body)}
	}
	return &RemoteRejection{Op: op, StatusCode: status, Body: string(re.Body)}
}
