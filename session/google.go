package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/cppla/postfeed/config"
	"github.com/cppla/postfeed/utils"
)

const (
	ProviderGoogle = "google"

	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	stateTTL          = 10 * time.Minute
)

var (
	ErrProviderDisabled = errors.New("google sign-in is not configured")
	ErrMissingCode      = errors.New("missing code or state")
	ErrInvalidState     = errors.New("invalid or expired state")
)

// Profile is what an identity provider tells us about the user.
type Profile struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"id"`
}

// DisplayName prefers the name, then the email, then the subject id.
func (p Profile) DisplayName() string {
	for _, v := range []string{p.Name, p.Email, p.Subject} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// GoogleProvider runs the OAuth code flow against Google.
type GoogleProvider struct {
	conf        *oauth2.Config
	userInfoURL string
	states      *utils.StateStore
	// client overrides the transport for token and userinfo calls.
	client *http.Client
}

// NewGoogleProvider returns ErrProviderDisabled when no client credentials are configured.
func NewGoogleProvider(cfg config.AppConfig, states *utils.StateStore) (*GoogleProvider, error) {
	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
		return nil, ErrProviderDisabled
	}
	conf := &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  fmt.Sprintf("%s/api/v1/auth/google/callback", strings.TrimRight(cfg.OAuthRedirectBase, "/")),
		Scopes:       []string{"openid", "profile", "email"},
		Endpoint:     google.Endpoint,
	}
	return newGoogleProvider(conf, googleUserInfoURL, states, nil), nil
}

func newGoogleProvider(conf *oauth2.Config, userInfoURL string, states *utils.StateStore, client *http.Client) *GoogleProvider {
	if states == nil {
		states = utils.NewStateStore(nil)
	}
	return &GoogleProvider{conf: conf, userInfoURL: userInfoURL, states: states, client: client}
}

// AuthURL returns the consent page URL carrying a fresh single-use state.
func (g *GoogleProvider) AuthURL(ctx context.Context) string {
	state := uuid.NewString()
	g.states.Save(ctx, state, stateTTL)
	return g.conf.AuthCodeURL(state)
}

// Complete checks the state, exchanges the code and fetches the profile.
func (g *GoogleProvider) Complete(ctx context.Context, code, state string) (Profile, error) {
	if code == "" || state == "" {
		return Profile{}, ErrMissingCode
	}
	if !g.states.Consume(ctx, state) {
		return Profile{}, ErrInvalidState
	}
	if g.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, g.client)
	}

	token, err := g.conf.Exchange(ctx, code)
	if err != nil {
		return Profile{}, fmt.Errorf("exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return Profile{}, err
	}
	resp, err := g.conf.Client(ctx, token).Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("google user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("google user info request failed: %s", resp.Status)
	}
	var p Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return Profile{}, fmt.Errorf("decode google user info: %w", err)
	}
	return p, nil
}
