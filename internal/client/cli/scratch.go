package cli

import (
	"fmt"

	"github.com/dmitrijs2005/scratchmap/internal/geo"
	"github.com/spf13/cobra"
)

func newScratchCmd(app func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scratch",
		Short: "Record and inspect scratched places",
	}
	cmd.AddCommand(newVisitCmd(app), newScratchLsCmd(app), newScratchCleanCmd(app))
	return cmd
}

func newVisitCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "visit <lat> <lon>",
		Short: "Record a position update",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			p, err := pointFromArgs(args)
			if err != nil {
				return err
			}
			scratched, err := a.scratchService.Visit(cmd.Context(), p)
			if err != nil {
				return err
			}
			if scratched {
				fmt.Fprintf(a.out, "Scratched %.6f, %.6f\n", p.Latitude, p.Longitude)
			} else {
				fmt.Fprintln(a.out, "Already scratched nearby")
			}
			return nil
		},
	}
}

// pointFromArgs accepts "lat lon" as one or two arguments.
func pointFromArgs(args []string) (geo.Point, error) {
	s := args[0]
	if len(args) == 2 {
		s += " " + args[1]
	}
	lat, lon, err := ParseLatLon(s)
	if err != nil {
		return geo.Point{}, err
	}
	return geo.Point{Latitude: lat, Longitude: lon}, nil
}

func newScratchLsCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List scratched points",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			points, err := a.scratchService.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, p := range points {
				fmt.Fprintf(a.out, "%.6f %.6f\n", p.Latitude, p.Longitude)
			}
			fmt.Fprintf(a.out, "%d points\n", len(points))
			return nil
		},
	}
}

func newScratchCleanCmd(app func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove duplicate points and sort the rest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			quiet, _ := cmd.Flags().GetBool("quiet")
			sess := newSession(cmd, quiet)
			defer sess.Done()

			removed, err := a.scratchService.Cleanup(sess)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Removed %d duplicate points\n", removed)
			return nil
		},
	}
	cmd.Flags().BoolP("quiet", "q", false, "no progress output")
	return cmd
}
