package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"panemux/internal/config"
	"panemux/internal/engine"
	"panemux/internal/pty"
	"panemux/internal/telemetry"
	"panemux/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"pkt.systems/pslog"
)

func runTUI(cmd *cobra.Command, flags *rootFlags) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) || !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("panemux needs an interactive terminal")
	}
	cfg, path, err := loadConfig(cmd, flags)
	if err != nil {
		return err
	}

	logger, closeLog, err := openLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()
	ctx := pslog.ContextWithLogger(cmd.Context(), logger)
	log.SetOutput(pslog.LogLogger(logger).Writer())
	logger.Info("panemux starting", "version", currentVersion(), "config", path, "shell", cfg.Shell.Command, "pty", cfg.Shell.PTY)

	profile := ui.ConfigureColor(false)
	logger.Debug("color profile", "profile", int(profile))

	tp, err := telemetry.New(ctx, telemetry.Options{
		Endpoint:    cfg.Telemetry.Endpoint,
		ServiceName: cfg.Telemetry.ServiceName,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", "err", err)
		}
	}()

	sched := ui.NewTeaScheduler()
	e := engine.New(engine.Options{
		Logger:    logger,
		Tracer:    tp.Tracer(),
		Runner:    shellRunner(cfg.Shell),
		Shell:     cfg.Shell.Command,
		Args:      cfg.Shell.Args,
		Dir:       cfg.Shell.Dir,
		Env:       cfg.ShellEnv(),
		Scheduler: sched,
		Responder: cfg.ResponderConfig(),
		QueueSize: cfg.Engine.QueueSize,
	})
	defer e.Close()

	d := engine.NewDispatcher(e, engine.NewKeyMap(cfg.KeyConfig()))
	m := ui.NewModel(ctx, e, d, sched, ui.Options{Logger: logger})
	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	go func() {
		err := config.Watch(watchCtx, path, logger, func(c config.Config) {
			p.Send(reloadMsg(c))
		})
		if err != nil {
			logger.Debug("config watch disabled", "err", err)
		}
	}()

	_, err = p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		err = nil
	}
	logger.Info("panemux exiting", "panes", e.Len())
	return err
}

// reloadMsg carries the hot-reloadable parts of a new config to the model.
func reloadMsg(c config.Config) ui.ConfigReloadMsg {
	keys := engine.NewKeyMap(c.KeyConfig())
	reply := c.ResponderConfig()
	return ui.ConfigReloadMsg{Keys: &keys, Responder: &reply}
}

func shellRunner(c config.ShellConfig) pty.Runner {
	if c.PTY {
		return &pty.CreackPTY{}
	}
	return pty.PipeRunner{}
}

// openLogger opens the structured log file named by c.
func openLogger(c config.LogConfig) (pslog.Logger, func(), error) {
	var w io.Writer = io.Discard
	closeFn := func() {}
	if c.File != "" {
		if err := os.MkdirAll(filepath.Dir(c.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(c.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		closeFn = func() { _ = f.Close() }
	}
	opts, err := logOptions(c.Level)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return pslog.NewWithOptions(w, opts), closeFn, nil
}

func logOptions(level string) (pslog.Options, error) {
	opts := pslog.Options{Mode: pslog.ModeStructured, NoColor: true}
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		opts.MinLevel = pslog.TraceLevel
	case "debug":
		opts.MinLevel = pslog.DebugLevel
	case "", "info":
		opts.MinLevel = pslog.InfoLevel
	case "warn":
		opts.MinLevel = pslog.WarnLevel
	case "error":
		opts.MinLevel = pslog.ErrorLevel
	default:
		return pslog.Options{}, fmt.Errorf("unsupported log level %q", level)
	}
	return opts, nil
}
