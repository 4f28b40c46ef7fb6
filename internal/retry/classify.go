package retry

import (
	"context"
	"errors"
	"net"
	"strings"

	"google.golang.org/api/googleapi"

	"github.com/ainetwork-ai/google-sheet-mcp/pkg/sheeterr"
)

// Message fragments that indicate a transient network or quota condition.
// String matching on error text is a deliberate heuristic, not an exhaustive
// classification; keep additions here so the executor's loop stays untouched.
var transientHints = []string{
	"connection reset",
	"connection refused",
	"broken pipe",
	"no such host",
	"network is unreachable",
	"i/o timeout",
	"timeout",
	"temporarily unavailable",
}

var quotaHints = []string{
	"quota",
	"rate limit",
	"rateLimitExceeded",
	"too many requests",
	"resource has been exhausted",
}

// IsRetryable reports whether an error is worth re-attempting: HTTP 5xx or
// 429 from the Sheets API, transient network failures, quota exhaustion
// wording, or a typed code the catalog marks retryable. Context
// cancellation is never retryable; the caller's deadline has spoken.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == 429 || (apiErr.Code >= 500 && apiErr.Code < 600) {
			return true
		}
		return containsAny(apiErr.Message, quotaHints)
	}

	if code := sheeterr.CodeOf(err); code != "" {
		return sheeterr.Retryable(code)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	msg := err.Error()
	return containsAny(msg, transientHints) || containsAny(msg, quotaHints)
}

// IsQuota reports whether an error indicates Sheets API quota exhaustion.
func IsQuota(err error) bool {
	if err == nil {
		return false
	}
	if sheeterr.Is(err, sheeterr.QuotaExceeded) {
		return true
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == 429 {
			return true
		}
		return containsAny(apiErr.Message, quotaHints)
	}
	return containsAny(err.Error(), quotaHints)
}

// AsQuotaError re-wraps quota-exhaustion failures as the dedicated
// QUOTA_EXCEEDED kind so callers can distinguish them from other transient
// errors once retries are spent. Other errors pass through unchanged.
func AsQuotaError(err error) error {
	if err == nil {
		return nil
	}
	if sheeterr.Is(err, sheeterr.QuotaExceeded) {
		return err
	}
	if IsQuota(err) {
		return sheeterr.Wrap(sheeterr.QuotaExceeded, "Sheets API quota exhausted", err)
	}
	return err
}

func containsAny(msg string, hints []string) bool {
	low := strings.ToLower(msg)
	for _, h := range hints {
		if strings.Contains(low, strings.ToLower(h)) {
			return true
		}
	}
	return false
}
