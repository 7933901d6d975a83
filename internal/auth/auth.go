// Package auth mints the short-lived session token used to authenticate the
// private WebSocket stream. Kraken's WebSocket API itself has no notion of
// API keys — a REST call signed with the account's API key/secret exchanges
// for a token that is then embedded in subscribe/order frames.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

const tokenPath = "/0/private/GetWebSocketsToken"

// AuthFailure wraps a rejected token request, distinguishing it from
// transport-level errors (timeouts, DNS failures, etc).
type AuthFailure struct {
	StatusCode int
	Errors     []string
}

func (e *AuthFailure) Error() string {
	return fmt.Sprintf("auth: token request rejected (status %d): %v", e.StatusCode, e.Errors)
}

// Minter mints session tokens by signing REST requests with an API
// key/secret pair, following Kraken's documented private-endpoint
// signature: HMAC-SHA512 over the URI path concatenated with
// SHA256(nonce + url-encoded-post-data), keyed by the base64-decoded
// secret.
type Minter struct {
	http   *resty.Client
	apiKey string
	secret []byte // base64-decoded
}

// NewMinter builds a Minter. restBaseURL is the REST API origin, e.g.
// "https://api.kraken.com". secret is the base64-encoded API secret as
// issued by Kraken; it is decoded once here so a malformed secret fails
// fast at construction rather than on first use.
func NewMinter(restBaseURL, apiKey, secret string) (*Minter, error) {
	decoded, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, fmt.Errorf("auth: decode API secret: %w", err)
	}

	httpClient := resty.New().
		SetBaseURL(restBaseURL).
		SetTimeout(10 * time.Second).
		SetHeader("Content-Type", "application/x-www-form-urlencoded; charset=utf-8")

	return &Minter{http: httpClient, apiKey: apiKey, secret: decoded}, nil
}

// Mint requests a fresh session token. Tokens expire 15 minutes after
// issuance or immediately after their first successful authenticated
// connection, per Kraken's documentation; callers needing a long-lived
// private connection should mint once, connect promptly, and re-mint only
// if reconnecting.
func (m *Minter) Mint(ctx context.Context) (string, error) {
	nonce := strconv.FormatInt(time.Now().UnixMilli(), 10)
	form := url.Values{"nonce": {nonce}}
	sig := m.sign(nonce, form)

	var result struct {
		Error  []string `json:"error"`
		Result struct {
			Token string `json:"token"`
		} `json:"result"`
	}

	resp, err := m.http.R().
		SetContext(ctx).
		SetFormDataFromValues(form).
		SetHeader("API-Key", m.apiKey).
		SetHeader("API-Sign", sig).
		SetResult(&result).
		Post(tokenPath)
	if err != nil {
		return "", fmt.Errorf("auth: request token: %w", err)
	}
	if len(result.Error) > 0 || resp.StatusCode() != 200 {
		return "", &AuthFailure{StatusCode: resp.StatusCode(), Errors: result.Error}
	}
	if result.Result.Token == "" {
		return "", fmt.Errorf("auth: response carried no token")
	}
	return result.Result.Token, nil
}

// sign computes the HMAC-SHA512 signature Kraken's private REST endpoints
// require: base64(HMAC_SHA512(secret, path || SHA256(nonce + postdata))).
func (m *Minter) sign(nonce string, form url.Values) string {
	postdata := form.Encode()
	hash := sha256.Sum256([]byte(nonce + postdata))

	mac := hmac.New(sha512.New, m.secret)
	mac.Write([]byte(tokenPath))
	mac.Write(hash[:])

	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
