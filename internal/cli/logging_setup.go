package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/quillcms/qpm/internal/config"
	"github.com/quillcms/qpm/internal/logging"
)

// loggingResult holds the resources created during logging setup that need
// cleanup after command execution.
type loggingResult struct {
	logPath logging.LogPathResult
}

// setupLogging configures the CLI logger from config, environment, and
// flags, and stores a trace ID in the command context. Failures fall back
// to stderr logging rather than aborting the command.
func setupLogging(cmd *cobra.Command) loggingResult {
	cfg := config.New()
	logCfg := cfg.Logging.ToLoggingConfig()

	if lvl := os.Getenv("QPM_LOG_LEVEL"); lvl != "" {
		logCfg.Level = lvl
	}
	if format := os.Getenv("QPM_LOG_FORMAT"); format != "" {
		logCfg.Format = format
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		logCfg.Level = "debug"
	}

	if logCfg.File != "" {
		if err := cfg.EnsureLogDir(); err != nil {
			logCfg.File = ""
		}
	}

	result := logging.NewLoggerWithPath(logCfg)
	if result.FallbackUsed {
		logging.PrintFallbackWarning(os.Stderr, result.FallbackReason)
	}

	logger = logging.ComponentLogger(result.Logger, "cli")

	ctx := cmd.Context()
	traceID := logging.GetOrGenerateTraceID(ctx)
	ctx = logging.ContextWithTraceID(ctx, traceID)
	ctx = logger.WithContext(ctx)
	cmd.SetContext(ctx)

	logger.Debug().
		Str("trace_id", traceID).
		Str("command", cmd.Name()).
		Msg("logging initialized")

	return loggingResult{logPath: result}
}

// cleanupLogging releases the log file handle if one was opened.
func cleanupLogging(result *loggingResult) error {
	if result == nil {
		return nil
	}
	return result.logPath.Close()
}
