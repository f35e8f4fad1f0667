package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// Google user info structure
type GoogleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
}

// GoogleProvider runs the authorization-code flow against Google.
type GoogleProvider struct {
	config      *oauth2.Config
	userInfoURL string
}

func NewGoogleProvider(clientID, clientSecret, callbackURL string) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
	}
}

func (g *GoogleProvider) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state)
}

// Exchange trades an authorization code for the user's Google profile.
func (g *GoogleProvider) Exchange(ctx context.Context, code string) (FederatedProfile, error) {
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return FederatedProfile{}, fmt.Errorf("exchange code: %w", err)
	}

	resp, err := g.config.Client(ctx, token).Get(g.userInfoURL)
	if err != nil {
		return FederatedProfile{}, fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return FederatedProfile{}, fmt.Errorf("fetch user info: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return FederatedProfile{}, fmt.Errorf("read user info: %w", err)
	}

	var info GoogleUserInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return FederatedProfile{}, fmt.Errorf("parse user info: %w", err)
	}

	name := info.Name
	if name == "" && (info.GivenName != "" || info.FamilyName != "") {
		name = info.GivenName + " " + info.FamilyName
	}
	return FederatedProfile{
		ID:      info.ID,
		Email:   info.Email,
		Name:    name,
		Picture: info.Picture,
	}, nil
}
