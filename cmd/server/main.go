package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/ainetwork-ai/google-sheet-mcp/config"
	"github.com/ainetwork-ai/google-sheet-mcp/internal/ratelimit"
	"github.com/ainetwork-ai/google-sheet-mcp/internal/registry"
	"github.com/ainetwork-ai/google-sheet-mcp/internal/retry"
	"github.com/ainetwork-ai/google-sheet-mcp/internal/runtime"
	"github.com/ainetwork-ai/google-sheet-mcp/internal/security"
	"github.com/ainetwork-ai/google-sheet-mcp/internal/sheets"
	"github.com/ainetwork-ai/google-sheet-mcp/internal/store"
	"github.com/ainetwork-ai/google-sheet-mcp/internal/store/googlesheets"
	"github.com/ainetwork-ai/google-sheet-mcp/internal/store/local"
	"github.com/ainetwork-ai/google-sheet-mcp/internal/telemetry"
	"github.com/ainetwork-ai/google-sheet-mcp/internal/workbooks"
	"github.com/ainetwork-ai/google-sheet-mcp/pkg/version"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	var (
		useStdio        bool
		backend         string
		credentialsFile string
		shutdownTimeout time.Duration
	)

	flag.BoolVar(&useStdio, "stdio", false, "Run server over stdio transport")
	flag.StringVar(&backend, "backend", "google", "Spreadsheet backend: google or local")
	flag.StringVar(&credentialsFile, "credentials", "", "Path to a Google service account JSON key (default: application default credentials)")
	flag.DurationVar(&shutdownTimeout, "shutdown-timeout", 5*time.Second, "Graceful shutdown timeout")
	flag.Parse()

	logger := zlog.With().Str("service", "google-sheet-mcp").Logger()
	ctx := logger.WithContext(context.Background())

	limits := runtime.NewLimits(config.DefaultMaxConcurrentRequests, config.DefaultMaxOpenSpreadsheets)
	runtimeController := runtime.NewController(limits)
	runtimeMW := runtime.NewMiddleware(runtimeController)

	limiter := ratelimit.New(config.DefaultRateLimitMaxCalls, config.DefaultRateLimitWindow)
	retrier := retry.New(retry.DefaultConfig())

	var (
		st       store.Store
		localSt  *local.Store
		teardown func()
	)
	switch backend {
	case "google":
		opts := []option.ClientOption{option.WithScopes(gsheets.SpreadsheetsScope)}
		if credentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(credentialsFile))
		}
		api, err := gsheets.NewService(ctx, opts...)
		if err != nil {
			logger.Error().Err(err).Msg("failed to build Google Sheets client")
			fmt.Fprintln(os.Stderr, "failed to build Google Sheets client; check credentials")
			os.Exit(1)
		}
		st = googlesheets.New(api)

	case "local":
		// Local files are only served from explicitly allowed directories.
		secMgr, err := security.NewManagerFromEnv()
		if err != nil {
			logger.Error().Err(err).Msg("security: failed to initialize manager from env")
			fmt.Fprintln(os.Stderr, "invalid security configuration; set GSHEET_MCP_ALLOWED_DIRS")
			os.Exit(1)
		}
		if err := secMgr.ValidateConfig(); err != nil {
			logger.Error().Err(err).Msg("security: invalid allow-list configuration")
			fmt.Fprintln(os.Stderr, "no allowed directories configured; set GSHEET_MCP_ALLOWED_DIRS")
			os.Exit(1)
		}
		logger.Info().Strs("allowed_dirs", secMgr.AllowedDirectories()).Msg("security allow-list configured")

		mgr := workbooks.NewManager(config.DefaultSpreadsheetIdleTTL, config.DefaultSpreadsheetCleanupTick, runtimeController, nil)
		mgr.SetPathValidator(secMgr)
		mgr.Start()
		teardown = func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := mgr.Close(closeCtx); err != nil {
				logger.Warn().Err(err).Msg("spreadsheet manager shutdown incomplete")
			}
		}
		localSt = local.New(mgr)
		st = localSt

	default:
		fmt.Fprintf(os.Stderr, "unknown backend %q; use google or local\n", backend)
		os.Exit(2)
	}

	svc := sheets.NewService(st, limiter, retrier, logger)

	toolRegistry := registry.New()
	writeFilter := registry.NewWriteToolFilterFromEnv()

	srv := server.NewMCPServer(
		"Google Sheets MCP Server",
		version.Version(),
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithHooks(telemetry.NewHooks(logger).ServerHooks()),
		server.WithToolHandlerMiddleware(runtimeMW.ToolMiddleware),
		server.WithToolFilter(func(ctx context.Context, tools []mcp.Tool) []mcp.Tool { return writeFilter.FilterTools(ctx, tools) }),
	)

	registry.RegisterSpreadsheetTools(srv, toolRegistry, svc, runtimeController.LimitsSnapshot())
	if localSt != nil {
		registry.RegisterLocalTools(srv, toolRegistry, localSt)
	}

	logger.Info().
		Ctx(ctx).
		Str("version", version.Version()).
		Str("backend", backend).
		Int("model_context_size", toolRegistry.ModelContextSize("gpt-4o")).
		Int("max_concurrent_requests", limits.MaxConcurrentRequests).
		Int("max_open_spreadsheets", limits.MaxOpenSpreadsheets).
		Int("rate_limit_max_calls", config.DefaultRateLimitMaxCalls).
		Dur("rate_limit_window", config.DefaultRateLimitWindow).
		Bool("stdio", useStdio).
		Msg("server bootstrap configured")

	if useStdio {
		err := server.ServeStdio(srv)
		if teardown != nil {
			teardown()
		}
		if err != nil {
			// Use stderr for transport errors so clients don't misinterpret output
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if teardown != nil {
		teardown()
	}
	// If no transport flags provided, print usage and exit non-zero
	fmt.Fprintln(os.Stderr, "no transport selected; use --stdio to run over stdio")
	os.Exit(2)
}
