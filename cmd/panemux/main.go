package main

import (
	"context"
	"log"
	"os"

	"github.com/spf13/cobra"

	"pkt.systems/psi"
	"pkt.systems/pslog"
)

func main() {
	psi.Run(submain)
}

func submain(ctx context.Context) int {
	// The TUI owns the terminal, so startup errors go to stderr and
	// everything after that to the log file.
	logger := pslog.NewWithOptions(os.Stderr, pslog.Options{Mode: pslog.ModeConsole})
	ctx = pslog.ContextWithLogger(ctx, logger)
	log.SetOutput(pslog.LogLogger(logger).Writer())
	log.SetFlags(0)

	root := newRootCmd()
	root.SetArgs(os.Args[1:])
	if err := root.ExecuteContext(ctx); err != nil {
		pslog.Ctx(ctx).With("err", err).Error("panemux failed")
		return 1
	}
	return 0
}

// rootFlags holds the persistent flags shared by every subcommand.
type rootFlags struct {
	configPath string
	shell      string
	pty        bool
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "panemux",
		Short:         "Tiled terminal panes with persistent shell sessions",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, flags)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "config file (default $XDG_CONFIG_HOME/panemux/config.yaml)")
	pf.StringVar(&flags.shell, "shell", "", "shell used by Bash panes (overrides shell.command)")
	pf.BoolVar(&flags.pty, "pty", false, "attach shells to a pseudo-terminal (overrides shell.pty)")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: trace, debug, info, warn or error")

	root.AddCommand(newConfigCmd(flags))
	root.AddCommand(newVersionCmd())
	return root
}
