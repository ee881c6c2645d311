package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/rigup-dev/rigup/internal/logging"
)

// Environment overrides for logging, checked after flags.
const (
	envLogLevel = "RIGUP_LOG_LEVEL"
	envLogFile  = "RIGUP_LOG_FILE"
)

type loggingResult = logging.Result

// setupLogging configures logging from flags and environment, attaches the
// run trace ID and audit logger to the command context, and returns the
// logger construction result for cleanup.
func setupLogging(cmd *cobra.Command, flags rootFlags) logging.Result {
	cfg := logging.Config{
		Level:  "info",
		Format: "console",
		File:   os.Getenv(envLogFile),
	}
	if flags.logJSON || !isTerminal(os.Stderr) {
		cfg.Format = "json"
	}
	if flags.debug {
		cfg.Level = "debug"
	}
	if envLevel := os.Getenv(envLogLevel); envLevel != "" && !flags.debug {
		cfg.Level = envLevel
	}

	result := logging.New(cfg)
	logger = logging.ComponentLogger(result.Logger, "cli")

	if result.FallbackUsed {
		cmd.PrintErrf("Warning: could not open log file, logging to stderr: %s\n", result.FallbackReason)
	}

	ctx := cmd.Context()
	traceID := logging.GetOrGenerateTraceID(ctx)
	ctx = logging.ContextWithTraceID(ctx, traceID)
	ctx = logger.With().Str("run_id", traceID).Logger().WithContext(ctx)

	auditLogger := logging.NewAuditLogger(logging.AuditLoggerConfig{
		Enabled: flags.auditLog != "",
		File:    flags.auditLog,
	})
	ctx = logging.ContextWithAuditLogger(ctx, auditLogger)
	cmd.SetContext(ctx)

	logger.Debug().Str("command", cmd.Name()).Str("run_id", traceID).Msg("command started")

	return result
}

// cleanupLogging closes audit logger and log file handles.
func cleanupLogging(cmd *cobra.Command, logResult *logging.Result) error {
	if err := logging.AuditLoggerFromContext(cmd.Context()).Close(); err != nil {
		return err
	}
	if logResult != nil {
		return logResult.Close()
	}
	return nil
}
