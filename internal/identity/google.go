package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	usecaseAccount "raisevoice/internal/usecase/account"
)

const googleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// GoogleVerifier validates Google ID tokens against the tokeninfo endpoint
// and extracts the attested profile.
type GoogleVerifier struct {
	client   *http.Client
	clientID string
	endpoint string
}

func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{
		client:   &http.Client{Timeout: 10 * time.Second},
		clientID: clientID,
		endpoint: googleTokenInfoURL,
	}
}

type tokenInfo struct {
	Audience      string `json:"aud"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (v *GoogleVerifier) Verify(ctx context.Context, provider, assertion string) (*usecaseAccount.Profile, error) {
	if provider != "google" {
		return nil, fmt.Errorf("unsupported identity provider: %s", provider)
	}

	reqURL := v.endpoint + "?id_token=" + url.QueryEscape(assertion)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build tokeninfo request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to verify token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token rejected by provider: status %d", resp.StatusCode)
	}

	var info tokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode tokeninfo response: %w", err)
	}

	if v.clientID != "" && info.Audience != v.clientID {
		return nil, fmt.Errorf("token issued for a different client")
	}
	if info.EmailVerified != "true" || info.Email == "" {
		return nil, fmt.Errorf("token carries no verified email")
	}

	profile := &usecaseAccount.Profile{
		Email: info.Email,
		Name:  info.Name,
	}
	if info.Picture != "" {
		picture := info.Picture
		profile.AvatarURL = &picture
	}

	return profile, nil
}
