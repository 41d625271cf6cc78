package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	githuboauth "golang.org/x/oauth2/github"

	"github.com/riiansmart/taskflow/internal/identity"
	"github.com/riiansmart/taskflow/internal/logger"
)

const (
	providerName = "github"

	userURL   = "https://api.github.com/user"
	emailsURL = "https://api.github.com/user/emails"
)

// Provider implements OAuth authentication against GitHub. GitHub has
// no OIDC id_token, so identity facts come from the user API instead.
type Provider struct {
	oauthConfig *oauth2.Config
}

func New(
	clientID string,
	clientSecret string,
	redirectURL string,
) (*Provider, error) {

	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil, errors.New("github oauth config missing required fields")
	}

	oauthCfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     githuboauth.Endpoint,
		Scopes: []string{
			"read:user",
			"user:email",
		},
	}

	return &Provider{oauthConfig: oauthCfg}, nil
}

// Name returns the provider identifier used by the registry.
func (p *Provider) Name() string {
	return providerName
}

// AuthCodeURL builds the OAuth authorization URL with PKCE parameters.
func (p *Provider) AuthCodeURL(state string, codeChallenge string) string {
	return p.oauthConfig.AuthCodeURL(
		state,
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}

func (p *Provider) ExchangeCode(
	ctx context.Context,
	code string,
	codeVerifier string,
) (*identity.ProviderClaims, error) {

	token, err := p.oauthConfig.Exchange(
		ctx,
		code,
		oauth2.SetAuthURLParam("code_verifier", codeVerifier),
	)
	if err != nil {
		return nil, fmt.Errorf("github token exchange failed: %w", err)
	}

	client := p.oauthConfig.Client(ctx, token)

	var user struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := getJSON(ctx, client, userURL, &user); err != nil {
		return nil, fmt.Errorf("github user fetch failed: %w", err)
	}
	if user.ID == 0 {
		return nil, errors.New("github user response missing id")
	}

	email := user.Email
	emailVerified := false

	// the profile email is often hidden; the emails endpoint carries
	// the primary address with its verification status
	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := getJSON(ctx, client, emailsURL, &emails); err == nil {
		for _, e := range emails {
			if e.Primary {
				email = e.Email
				emailVerified = e.Verified
				break
			}
		}
	}

	if email == "" {
		return nil, errors.New("github account has no resolvable email")
	}

	name := user.Name
	if name == "" {
		name = user.Login
	}

	logger.Info("github identity fetched", map[string]any{
		"email_verified": emailVerified,
	})

	return &identity.ProviderClaims{
		Provider:      providerName,
		Subject:       strconv.FormatInt(user.ID, 10),
		Email:         email,
		Name:          name,
		EmailVerified: emailVerified,
	}, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
