package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dmitrijs2005/scratchmap/internal/client/queue"
	"github.com/dmitrijs2005/scratchmap/internal/client/reconcile"
	"github.com/dmitrijs2005/scratchmap/internal/common"
	"github.com/spf13/cobra"
)

func newSyncCmd(app func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Flush queued changes and reconcile with the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			quiet, _ := cmd.Flags().GetBool("quiet")
			sess := newSession(cmd, quiet)
			defer sess.Done()

			rep, err := a.syncService.Sync(sess)
			printFlush(a.out, rep.Flush.Discoveries, rep.Flush.Scratches)
			if err != nil {
				return err
			}
			printReconcile(a.out, "discoveries", rep.Discoveries)
			printReconcile(a.out, "scratches", rep.Scratches)
			return nil
		},
	}
	cmd.Flags().BoolP("quiet", "q", false, "no progress output")
	return cmd
}

func newFlushCmd(app func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flush",
		Short: "Send queued changes to the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			quiet, _ := cmd.Flags().GetBool("quiet")
			sess := newSession(cmd, quiet)
			defer sess.Done()

			rep, err := a.syncService.Flush(sess)
			printFlush(a.out, rep.Discoveries, rep.Scratches)
			return err
		},
	}
	cmd.Flags().BoolP("quiet", "q", false, "no progress output")
	return cmd
}

func printFlush(w io.Writer, d, s queue.Result) {
	fmt.Fprintf(w, "queued discoveries: %d sent, %d failed, %d kept\n", d.Replayed, d.Failed, d.Retained())
	fmt.Fprintf(w, "queued scratches:   %d sent, %d failed, %d kept\n", s.Replayed, s.Failed, s.Retained())
	if d.Offline || s.Offline {
		fmt.Fprintln(w, "server unreachable, the rest stays queued")
	}
}

func printReconcile(w io.Writer, name string, r reconcile.Report) {
	if r.Offline {
		fmt.Fprintf(w, "%s: skipped, offline\n", name)
		return
	}
	fmt.Fprintf(w, "%s: %d pulled, %d pushed, %d failed, %d unreadable\n",
		name, r.AddedLocally, r.Uploaded, r.FailedUploads, len(r.Parse.Skipped))
}

func newStatusCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show connectivity, session and queue state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			ctx := cmd.Context()

			sess, err := a.coll.Session(ctx)
			if err != nil {
				return err
			}
			actions, err := a.coll.PendingActions(ctx)
			if err != nil {
				return err
			}
			pending, err := a.coll.PendingScratch(ctx)
			if err != nil {
				return err
			}
			last, err := a.coll.LastKnownPoint(ctx)
			if err != nil {
				return err
			}
			shader, err := a.coll.ShaderEnabled(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "server\t%s\n", onlineLabel(a.Online()))
			if sess.Valid() {
				fmt.Fprintf(w, "user\t%s\n", sess.Username)
			} else {
				fmt.Fprintf(w, "user\t-\n")
			}
			fmt.Fprintf(w, "queued discovery actions\t%d\n", len(actions))
			fmt.Fprintf(w, "queued scratch points\t%d\n", len(pending))
			fmt.Fprintf(w, "discoveries dirty\t%t\n", a.state.Dirty(reconcile.CollectionDiscoveries))
			fmt.Fprintf(w, "scratches dirty\t%t\n", a.state.Dirty(reconcile.CollectionScratches))
			if last != nil {
				fmt.Fprintf(w, "last position\t%.6f, %.6f\n", last.Latitude, last.Longitude)
			} else {
				fmt.Fprintf(w, "last position\t%s\n", common.UnknownPlace)
			}
			fmt.Fprintf(w, "fog texture\t%t\n", shader)
			return w.Flush()
		},
	}
}

func onlineLabel(online bool) string {
	if online {
		return "online"
	}
	return "offline"
}
