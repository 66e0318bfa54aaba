package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	sheetsapi "google.golang.org/api/sheets/v4"
)

func serviceAccountCredentials(ctx context.Context, data []byte) (*google.Credentials, error) {
	creds, err := google.CredentialsFromJSON(ctx, data, sheetsapi.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}
	return creds, nil
}

// userToken mirrors the authorized-user token file written by the OAuth
// installed-app flow.
type userToken struct {
	Token        string    `json:"token"`
	RefreshToken string    `json:"refresh_token"`
	TokenURI     string    `json:"token_uri"`
	ClientID     string    `json:"client_id"`
	ClientSecret string    `json:"client_secret"`
	Expiry       time.Time `json:"expiry"`
}

func userTokenSource(ctx context.Context, data []byte) (oauth2.TokenSource, error) {
	var tok userToken
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("parse oauth token file: %w", err)
	}
	if tok.RefreshToken == "" && tok.Token == "" {
		return nil, errors.New("oauth token file has neither token nor refresh_token")
	}

	endpoint := google.Endpoint
	if tok.TokenURI != "" {
		endpoint.TokenURL = tok.TokenURI
	}

	cfg := &oauth2.Config{
		ClientID:     tok.ClientID,
		ClientSecret: tok.ClientSecret,
		Endpoint:     endpoint,
		Scopes:       []string{sheetsapi.SpreadsheetsScope},
	}
	return cfg.TokenSource(ctx, &oauth2.Token{
		AccessToken:  tok.Token,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}), nil
}
