package config

import "time"

// Default guardrails for the Google Sheets MCP server. Values are
// conservative and can be overridden by future configuration mechanisms
// (env, CLI, or files). They are referenced by internal/runtime,
// internal/ratelimit, and internal/retry.

const (
	// Concurrency
	DefaultMaxConcurrentRequests = 10
	DefaultMaxOpenSpreadsheets   = 4

	// Payload and row limits
	DefaultMaxPayloadBytes = 128 * 1024 // 128KB
	DefaultMaxCellsPerOp   = 10_000
	DefaultReadPageRows    = 100
)

const (
	// Timeouts
	DefaultOperationTimeout      = 30 * time.Second
	DefaultAcquireRequestTimeout = 2 * time.Second
)

// Sliding-window admission defaults. The Sheets API enforces per-minute
// quotas, so one server instance stays inside the default per-user quota
// with 60 calls per rolling minute.
const (
	DefaultRateLimitMaxCalls = 60
	DefaultRateLimitWindow   = time.Minute
)

// Retry defaults applied around every outbound store call.
const (
	DefaultRetryMaxRetries = 3
	DefaultRetryBaseDelay  = time.Second
	DefaultRetryMaxDelay   = 10 * time.Second
	DefaultRetryMultiplier = 2.0
)

// Local backend spreadsheet handle cache defaults.
const (
	DefaultSpreadsheetIdleTTL     = 10 * time.Minute
	DefaultSpreadsheetCleanupTick = time.Minute
)
