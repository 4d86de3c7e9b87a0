// Package cli implements the remyxai command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/remyxai/remyxai-cli/internal/app"
	"github.com/remyxai/remyxai-cli/internal/config"
	"github.com/remyxai/remyxai-cli/internal/httpapi"
)

// Service is what the commands drive.
type Service interface {
	httpapi.Service
	Close()
}

// newService builds the Service for a resolved config; tests replace it.
var newService = func(cfg config.Config, log zerolog.Logger) (Service, error) {
	a, err := app.New(cfg, log)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// exitError ends the process with code after the command already reported
// the failure.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// Run executes args and returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := buildRootCmd(stdout, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var ee exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintln(stderr, "Error:", err)
	return 1
}

// newLogger writes to w as JSON, or through a console writer for "console".
func newLogger(w io.Writer, format, level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q (want debug|info|warn|error)", level)
	}
	var out io.Writer
	switch format {
	case "json":
		out = w
	case "console", "":
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly, NoColor: true}
	default:
		return zerolog.Nop(), fmt.Errorf("invalid log format %q (want console|json)", format)
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}
