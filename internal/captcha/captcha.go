// Package captcha verifies hCaptcha tokens and guards against token replay.
package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/labstack/gommon/log"
)

type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeAlreadyUsed
	OutcomeInvalid
	OutcomeTransportError
)

type Result struct {
	Outcome    Outcome
	ErrorCodes []string
}

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	Hostname   string   `json:"hostname"`
	ErrorCodes []string `json:"error-codes"`
}

type Verifier struct {
	secret   string
	endpoint string
	tokenTTL time.Duration
	client   *http.Client

	mu   sync.Mutex
	seen map[string]time.Time
}

func New(secret, endpoint string, tokenTTL time.Duration) *Verifier {
	return &Verifier{
		secret:   secret,
		endpoint: endpoint,
		tokenTTL: tokenTTL,
		client:   &http.Client{Timeout: 10 * time.Second},
		seen:     make(map[string]time.Time),
	}
}

// Enabled reports whether a verification secret is configured. A disabled
// verifier accepts every token.
func (v *Verifier) Enabled() bool {
	return v.secret != ""
}

// Verify checks token against the verification service. A token is marked
// as seen before the external call is made, so it is rejected on reuse
// regardless of the first verification's outcome.
func (v *Verifier) Verify(ctx context.Context, token string) Result {
	if !v.Enabled() {
		return Result{Outcome: OutcomeSuccess}
	}

	if v.replayed(token) {
		return Result{Outcome: OutcomeAlreadyUsed}
	}

	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return Result{Outcome: OutcomeTransportError}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	response, err := v.client.Do(req)
	if err != nil {
		log.Errorf("captcha verification: %+v", err)
		return Result{Outcome: OutcomeTransportError}
	}
	defer response.Body.Close()

	var data siteverifyResponse
	if err := json.NewDecoder(response.Body).Decode(&data); err != nil {
		log.Errorf("captcha verification: decoding response: %+v", err)
		return Result{Outcome: OutcomeTransportError}
	}

	if data.Success {
		return Result{Outcome: OutcomeSuccess}
	}
	return Result{Outcome: OutcomeInvalid, ErrorCodes: data.ErrorCodes}
}

// replayed records token as seen and reports whether it was seen before.
// Entries older than the provider's token validity window are dropped, so
// the set stays bounded under sustained traffic.
func (v *Verifier) replayed(token string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	now := time.Now()
	for seen, at := range v.seen {
		if now.Sub(at) > v.tokenTTL {
			delete(v.seen, seen)
		}
	}

	if _, ok := v.seen[token]; ok {
		return true
	}
	v.seen[token] = now
	return false
}

func (r Result) String() string {
	switch r.Outcome {
	case OutcomeSuccess:
		return "success"
	case OutcomeAlreadyUsed:
		return "already used"
	case OutcomeInvalid:
		return fmt.Sprintf("invalid: %s", strings.Join(r.ErrorCodes, ", "))
	default:
		return "transport error"
	}
}
