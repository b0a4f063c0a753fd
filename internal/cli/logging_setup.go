package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/pageturn/internal/config"
	"github.com/rshade/pageturn/internal/logging"
)

// setupLogging configures logging based on config file, environment, and CLI flags.
func setupLogging(cmd *cobra.Command) logging.LogPathResult {
	loggingCfg := config.GetLoggingConfig()

	debug, _ := cmd.Flags().GetBool("debug")
	if debug {
		loggingCfg.Level = "debug"
		// Headless commands log to the terminal in debug mode. The TUI keeps
		// its log file so the screen is not corrupted.
		if !ownsTerminal(cmd) {
			loggingCfg.Format = "console"
			loggingCfg.File = ""
		}
	}

	if loggingCfg.File != "" {
		if err := config.EnsureLogDir(); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not create log directory: %v\n", err)
		}
	}

	result := logging.NewLoggerWithPath(loggingCfg.ToLoggingConfig())
	logger = logging.ComponentLogger(result.Logger, "cli")

	if result.UsingFile {
		if debug {
			logging.PrintLogPathMessage(cmd.ErrOrStderr(), result.FilePath)
		}
	} else if result.FallbackUsed {
		logging.PrintFallbackWarning(cmd.ErrOrStderr(), result.FallbackReason)
	}

	ctx := cmd.Context()
	requestID := logging.GetOrGenerateRequestID(ctx)
	ctx = logging.ContextWithRequestID(ctx, requestID)
	ctx = logger.WithContext(ctx)
	cmd.SetContext(ctx)

	logger.Info().Str("request_id", requestID).Str("command", cmd.Name()).Msg("command started")

	return result
}

// ownsTerminal reports whether cmd runs the full-screen TUI.
func ownsTerminal(cmd *cobra.Command) bool {
	_, ok := cmd.Annotations[annotationOwnsTerminal]
	return ok
}

// cleanupLogging closes the log file handle.
func cleanupLogging(cmd *cobra.Command, logResult *logging.LogPathResult) error {
	if logResult == nil {
		return nil
	}
	logger.Debug().Str("command", cmd.Name()).Msg("command finished")
	return logResult.Close()
}
