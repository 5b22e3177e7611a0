// Package auth implements the screening bypass for trusted callers.
package auth

import (
	"crypto/subtle"

	"member-faucet/internal/ratelimit"
)

// Gate compares a caller supplied bypass key against the server held
// secret. Failed attempts are throttled per submitter before any
// comparison happens, so the key cannot be guessed by volume.
type Gate struct {
	bypassKey string
	failures  *ratelimit.Limiter
}

func New(bypassKey string, failures *ratelimit.Limiter) *Gate {
	return &Gate{bypassKey: bypassKey, failures: failures}
}

func (g *Gate) Enabled() bool {
	return g.bypassKey != ""
}

// TryBypass reports whether the supplied key grants a screening bypass for
// submitter. A throttled submitter is denied without comparing keys. The
// comparison is constant time. On a match the submitter's failure count is
// cleared so one earlier typo does not lock a trusted caller out.
func (g *Gate) TryBypass(submitter, supplied string) bool {
	if !g.Enabled() || supplied == "" {
		return false
	}

	if g.failures.Limit(submitter) {
		return false
	}

	if subtle.ConstantTimeCompare([]byte(supplied), []byte(g.bypassKey)) != 1 {
		return false
	}

	g.failures.Clear(submitter)
	return true
}
