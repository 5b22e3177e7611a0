package captcha

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func siteverifyStub(t *testing.T, calls *int32, respond func(token string) siteverifyResponse) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parsing form: %v", err)
		}
		assert.NotEmpty(t, r.PostForm.Get("secret"))
		json.NewEncoder(w).Encode(respond(r.PostForm.Get("response")))
	}))
}

func TestVerify(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	t.Run("disabled verifier accepts everything", func(t *testing.T) {
		var calls int32
		server := siteverifyStub(t, &calls, func(string) siteverifyResponse {
			return siteverifyResponse{Success: false}
		})
		defer server.Close()

		verifier := New("", server.URL, time.Minute)
		assert.False(verifier.Enabled())
		assert.Equal(OutcomeSuccess, verifier.Verify(ctx, "anything").Outcome)
		assert.Equal(int32(0), atomic.LoadInt32(&calls))
	})

	t.Run("valid token", func(t *testing.T) {
		var calls int32
		server := siteverifyStub(t, &calls, func(string) siteverifyResponse {
			return siteverifyResponse{Success: true}
		})
		defer server.Close()

		verifier := New("secret", server.URL, time.Minute)
		assert.Equal(OutcomeSuccess, verifier.Verify(ctx, "token-1").Outcome)
	})

	t.Run("invalid token carries error codes", func(t *testing.T) {
		var calls int32
		server := siteverifyStub(t, &calls, func(string) siteverifyResponse {
			return siteverifyResponse{Success: false, ErrorCodes: []string{"invalid-input-response"}}
		})
		defer server.Close()

		verifier := New("secret", server.URL, time.Minute)
		result := verifier.Verify(ctx, "token-2")
		assert.Equal(OutcomeInvalid, result.Outcome)
		assert.Equal([]string{"invalid-input-response"}, result.ErrorCodes)
	})

	t.Run("token reuse is rejected without an external call", func(t *testing.T) {
		var calls int32
		server := siteverifyStub(t, &calls, func(string) siteverifyResponse {
			return siteverifyResponse{Success: true}
		})
		defer server.Close()

		verifier := New("secret", server.URL, time.Minute)
		assert.Equal(OutcomeSuccess, verifier.Verify(ctx, "token-3").Outcome)
		assert.Equal(OutcomeAlreadyUsed, verifier.Verify(ctx, "token-3").Outcome)
		assert.Equal(int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("reuse of a failed token is still rejected", func(t *testing.T) {
		var calls int32
		server := siteverifyStub(t, &calls, func(string) siteverifyResponse {
			return siteverifyResponse{Success: false}
		})
		defer server.Close()

		verifier := New("secret", server.URL, time.Minute)
		assert.Equal(OutcomeInvalid, verifier.Verify(ctx, "token-4").Outcome)
		assert.Equal(OutcomeAlreadyUsed, verifier.Verify(ctx, "token-4").Outcome)
	})

	t.Run("unreachable service is a transport error", func(t *testing.T) {
		verifier := New("secret", "http://127.0.0.1:1", time.Minute)
		assert.Equal(OutcomeTransportError, verifier.Verify(ctx, "token-5").Outcome)
	})

	t.Run("expired tokens are evicted from the replay set", func(t *testing.T) {
		var calls int32
		server := siteverifyStub(t, &calls, func(string) siteverifyResponse {
			return siteverifyResponse{Success: true}
		})
		defer server.Close()

		verifier := New("secret", server.URL, 20*time.Millisecond)
		verifier.Verify(ctx, "token-6")
		time.Sleep(30 * time.Millisecond)
		verifier.Verify(ctx, "token-7")

		verifier.mu.Lock()
		defer verifier.mu.Unlock()
		assert.NotContains(verifier.seen, "token-6")
	})
}
