package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/scratchmap/internal/geo"
	"github.com/spf13/cobra"
)

func newWatchCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Read \"<lat> <lon>\" lines from stdin as position updates",
		Long: `watch consumes a stream of positions, one per line, scratching the map as
it goes. The server is probed in the background and queued changes are
synced every time it becomes reachable again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			if a.watcher != nil {
				a.watcher.OnChange(a.syncService.ConnectivityChanged)
				go a.watcher.Run(ctx, a.config.OnlineCheckInterval)
			}
			return a.watch(ctx)
		},
	}
}

func (a *App) watch(ctx context.Context) error {
	visits, scratched := 0, 0
	for ctx.Err() == nil {
		line, err := a.in.ReadString('\n')
		if s := strings.TrimSpace(line); s != "" && !strings.HasPrefix(s, "#") {
			lat, lon, perr := ParseLatLon(s)
			if perr != nil {
				a.logger.Warn(ctx, "skipping position", "line", s, "error", perr)
			} else {
				ok, verr := a.scratchService.Visit(ctx, geo.Point{Latitude: lat, Longitude: lon})
				if verr != nil {
					return verr
				}
				visits++
				if ok {
					scratched++
				}
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
	}
	fmt.Fprintf(a.out, "%d positions, %d new scratches\n", visits, scratched)
	return nil
}
