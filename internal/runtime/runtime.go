package runtime

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/ainetwork-ai/google-sheet-mcp/config"
)

// Limits captures the concurrency and payload guardrails configured for the server.
type Limits struct {
	// Concurrency caps
	MaxConcurrentRequests int
	MaxOpenSpreadsheets   int

	// Payload and row bounds
	MaxPayloadBytes int
	MaxCellsPerOp   int
	ReadPageRows    int

	// Timeouts
	OperationTimeout      time.Duration
	AcquireRequestTimeout time.Duration
}

// NewLimits initializes Limits with sensible fallbacks when values are unset.
func NewLimits(maxConcurrentRequests, maxOpenSpreadsheets int) Limits {
	if maxConcurrentRequests <= 0 {
		maxConcurrentRequests = config.DefaultMaxConcurrentRequests
	}
	if maxOpenSpreadsheets <= 0 {
		maxOpenSpreadsheets = config.DefaultMaxOpenSpreadsheets
	}

	return Limits{
		MaxConcurrentRequests: maxConcurrentRequests,
		MaxOpenSpreadsheets:   maxOpenSpreadsheets,
		MaxPayloadBytes:       config.DefaultMaxPayloadBytes,
		MaxCellsPerOp:         config.DefaultMaxCellsPerOp,
		ReadPageRows:          config.DefaultReadPageRows,
		OperationTimeout:      config.DefaultOperationTimeout,
		AcquireRequestTimeout: config.DefaultAcquireRequestTimeout,
	}
}

// Controller coordinates runtime semaphores for request and spreadsheet guardrails.
type Controller struct {
	limits               Limits
	requestSemaphore     *semaphore.Weighted
	spreadsheetSemaphore *semaphore.Weighted
}

// NewController constructs a Controller backed by weighted semaphores.
func NewController(limits Limits) *Controller {
	return &Controller{
		limits:               limits,
		requestSemaphore:     semaphore.NewWeighted(int64(limits.MaxConcurrentRequests)),
		spreadsheetSemaphore: semaphore.NewWeighted(int64(limits.MaxOpenSpreadsheets)),
	}
}

// AcquireRequest reserves capacity for an incoming request.
func (c *Controller) AcquireRequest(ctx context.Context) error {
	return c.requestSemaphore.Acquire(ctx, 1)
}

// ReleaseRequest frees previously-acquired request capacity.
func (c *Controller) ReleaseRequest() {
	c.requestSemaphore.Release(1)
}

// AcquireSpreadsheet reserves an open spreadsheet slot.
func (c *Controller) AcquireSpreadsheet(ctx context.Context) error {
	return c.spreadsheetSemaphore.Acquire(ctx, 1)
}

// ReleaseSpreadsheet frees an open spreadsheet slot.
func (c *Controller) ReleaseSpreadsheet() {
	c.spreadsheetSemaphore.Release(1)
}

// LimitsSnapshot exposes the configured guardrails for telemetry and discovery.
func (c *Controller) LimitsSnapshot() Limits {
	return c.limits
}
