package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
)

// Global carries state shared by every subcommand.
type Global struct {
	// Out receives user-facing output.
	Out io.Writer
	// Err receives logs.
	Err io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"sitebuilder.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build    BuildCmd    `cmd:"" help:"Build the site and publish it to the output directory"`
	Check    CheckCmd    `cmd:"" help:"Load, index, resolve and render the site without writing it"`
	List     ListCmd     `cmd:"" help:"List content documents"`
	Init     InitCmd     `cmd:"" help:"Initialize a configuration file and a site skeleton"`
	History  HistoryCmd  `cmd:"" help:"Show recent builds from the history database"`
	Schedule ScheduleCmd `cmd:"" help:"Rebuild the site periodically until interrupted"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	slog.SetDefault(NewLogger(g.Err, config.LogLevelInfo, config.LogFormatText, c.Verbose))
	return nil
}

// LoadConfig loads the configuration and applies its logging settings.
func (c *CLI) LoadConfig(g *Global) (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(NewLogger(g.Err, cfg.Logging.Level, cfg.Logging.Format, c.Verbose))
	return cfg, nil
}

// NewLogger creates the process logger. Verbose forces debug level.
func NewLogger(w io.Writer, level config.LogLevel, format config.LogFormat, verbose bool) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	lvl := slog.LevelInfo
	switch level {
	case config.LogLevelDebug:
		lvl = slog.LevelDebug
	case config.LogLevelWarn:
		lvl = slog.LevelWarn
	case config.LogLevelError:
		lvl = slog.LevelError
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
