// internal/common/auth/google.go
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"marketplace-workers/internal/common/errors"
	commonhttp "marketplace-workers/internal/common/http"
)

const tokenInfoEndpoint = "https://oauth2.googleapis.com/tokeninfo"

// GoogleVerifier validates Google ID tokens via the tokeninfo endpoint.
type GoogleVerifier struct {
	clientID   string
	audiences  []string
	httpClient *commonhttp.Client
	endpoint   string
}

// TokenClaims holds the subset of ID token claims the marketplace cares about.
type TokenClaims struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"-"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	Audience      string `json:"aud"`
	Issuer        string `json:"iss"`
	ExpiresAt     int64  `json:"-"`
}

type tokenInfoResponse struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	Audience      string `json:"aud"`
	Issuer        string `json:"iss"`
	Expiry        string `json:"exp"`
	Error         string `json:"error_description"`
}

// NewGoogleVerifier creates a verifier bound to the given OAuth client ID.
// Additional audiences (e.g. the iOS and Android client IDs) may be passed
// so tokens minted for any mobile client are accepted.
func NewGoogleVerifier(clientID string, extraAudiences ...string) *GoogleVerifier {
	audiences := append([]string{clientID}, extraAudiences...)
	return &GoogleVerifier{
		clientID:   clientID,
		audiences:  audiences,
		httpClient: commonhttp.NewClient(10 * time.Second),
		endpoint:   tokenInfoEndpoint,
	}
}

// Verify checks the ID token against Google's tokeninfo endpoint and
// validates issuer, audience and expiry.
func (v *GoogleVerifier) Verify(ctx context.Context, idToken string) (*TokenClaims, error) {
	if idToken == "" {
		return nil, errors.NewTokenVerificationFailedError("google", fmt.Errorf("empty ID token"))
	}

	reqURL := fmt.Sprintf("%s?id_token=%s", v.endpoint, url.QueryEscape(idToken))
	req, err := http.NewRequest(http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errors.NewTokenVerificationFailedError("google", fmt.Errorf("failed to build tokeninfo request: %w", err))
	}

	resp, err := v.httpClient.DoWithContext(ctx, req)
	if err != nil {
		return nil, errors.NewExternalServiceError("google-tokeninfo", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewExternalServiceError("google-tokeninfo", fmt.Errorf("failed to read response: %w", err))
	}

	var info tokenInfoResponse
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, errors.NewTokenVerificationFailedError("google", fmt.Errorf("failed to decode tokeninfo response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		if info.Error != "" {
			return nil, errors.NewTokenVerificationFailedError("google", fmt.Errorf("tokeninfo rejected token: %s", info.Error))
		}
		return nil, errors.NewTokenVerificationFailedError("google", fmt.Errorf("tokeninfo returned status %d", resp.StatusCode))
	}

	claims, err := v.validateClaims(&info)
	if err != nil {
		return nil, errors.NewTokenVerificationFailedError("google", err)
	}
	return claims, nil
}

func (v *GoogleVerifier) validateClaims(info *tokenInfoResponse) (*TokenClaims, error) {
	if info.Issuer != "https://accounts.google.com" && info.Issuer != "accounts.google.com" {
		return nil, fmt.Errorf("unexpected token issuer: %s", info.Issuer)
	}

	audienceOK := false
	for _, aud := range v.audiences {
		if info.Audience == aud {
			audienceOK = true
			break
		}
	}
	if !audienceOK {
		return nil, fmt.Errorf("token audience %s does not match any configured client ID", info.Audience)
	}

	expiry, err := strconv.ParseInt(info.Expiry, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid expiry claim: %s", info.Expiry)
	}
	if time.Now().Unix() >= expiry {
		return nil, fmt.Errorf("token expired at %s", time.Unix(expiry, 0).UTC().Format(time.RFC3339))
	}

	if info.Subject == "" {
		return nil, fmt.Errorf("token missing subject claim")
	}

	return &TokenClaims{
		Subject:       info.Subject,
		Email:         info.Email,
		EmailVerified: info.EmailVerified == "true",
		Name:          info.Name,
		Picture:       info.Picture,
		Audience:      info.Audience,
		Issuer:        info.Issuer,
		ExpiresAt:     expiry,
	}, nil
}
