package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/dmitrijs2005/scratchmap/internal/client/config"
	"github.com/dmitrijs2005/scratchmap/internal/client/progress"
	"github.com/spf13/cobra"
)

// runner defers building the App until cobra has parsed the flags.
type runner struct {
	cfg  *config.Config
	opts []Option
	app  *App
}

func (r *runner) init(cmd *cobra.Command, _ []string) error {
	if r.app != nil {
		return nil
	}
	app, err := NewApp(cmd.Context(), r.cfg, cmd.OutOrStdout(), cmd.InOrStdin(), r.opts...)
	if err != nil {
		return err
	}
	r.app = app
	return nil
}

func (r *runner) close() error {
	if r.app == nil {
		return nil
	}
	err := r.app.Close()
	r.app = nil
	return err
}

// NewRootCommand builds the command tree. cfg already holds defaults, file
// and environment values; its flags are bound here.
func NewRootCommand(cfg *config.Config, opts ...Option) (*cobra.Command, func() error) {
	r := &runner{cfg: cfg, opts: opts}

	root := &cobra.Command{
		Use:   "scratchmap",
		Short: "Offline-first fog-of-war explorer",
		Long: `scratchmap records the places you visit and the discoveries you make,
keeps them on this device and syncs them with the server whenever it is
reachable.`,
		SilenceUsage:      true,
		PersistentPreRunE: r.init,
	}
	cfg.BindFlags(root.PersistentFlags())

	app := func() *App { return r.app }
	root.AddCommand(
		newLoginCmd(app),
		newRegisterCmd(app),
		newLogoutCmd(app),
		newDiscoveryCmd(app),
		newScratchCmd(app),
		newSyncCmd(app),
		newFlushCmd(app),
		newStatusCmd(app),
		newRenderCmd(app),
		newShaderCmd(app),
		newWatchCmd(app),
	)
	return root, r.close
}

// Execute runs the client with args and releases everything it opened.
func Execute(ctx context.Context, cfg *config.Config, args []string, opts ...Option) error {
	root, closeApp := NewRootCommand(cfg, opts...)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if cerr := closeApp(); err == nil {
		err = cerr
	}
	return err
}

func newSession(cmd *cobra.Command, quiet bool) *progress.Session {
	if quiet {
		return progress.New(cmd.Context(), nil)
	}
	return progress.New(cmd.Context(), progressPrinter(cmd.ErrOrStderr()))
}

// progressPrinter rewrites a single status line per phase.
func progressPrinter(w io.Writer) progress.Func {
	last := ""
	return func(phase string, cur, total int) {
		if phase != last && last != "" {
			fmt.Fprintln(w)
		}
		last = phase
		fmt.Fprintf(w, "\r%s %d/%d", phase, cur, total)
		if cur == total {
			fmt.Fprintln(w)
			last = ""
		}
	}
}
