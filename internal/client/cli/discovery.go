package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/dmitrijs2005/scratchmap/internal/client/models"
	"github.com/dmitrijs2005/scratchmap/internal/client/services"
	"github.com/dmitrijs2005/scratchmap/internal/common"
	"github.com/dmitrijs2005/scratchmap/internal/geo"
	"github.com/spf13/cobra"
)

var errNoPosition = errors.New("no position given and no last known position stored")

func newDiscoveryCmd(app func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "discovery",
		Aliases: []string{"d"},
		Short:   "Manage discoveries",
	}
	cmd.AddCommand(
		newDiscoveryAddCmd(app),
		newDiscoveryEditCmd(app),
		newDiscoveryRmCmd(app),
		newDiscoveryLsCmd(app),
		newDiscoveryShowCmd(app),
	)
	return cmd
}

// position returns --lat/--lon when both are given, else the last known
// position.
func (a *App) position(cmd *cobra.Command) (geo.Point, error) {
	fl := cmd.Flags()
	if fl.Changed("lat") || fl.Changed("lon") {
		if !fl.Changed("lat") || !fl.Changed("lon") {
			return geo.Point{}, fmt.Errorf("%w: --lat and --lon go together", common.ErrorValidation)
		}
		lat, _ := fl.GetFloat64("lat")
		lon, _ := fl.GetFloat64("lon")
		return geo.Point{Latitude: lat, Longitude: lon}, nil
	}
	last, err := a.coll.LastKnownPoint(cmd.Context())
	if err != nil {
		return geo.Point{}, err
	}
	if last == nil {
		return geo.Point{}, errNoPosition
	}
	return *last, nil
}

func newDiscoveryAddCmd(app func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Drop a discovery at the current or given position",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			at, err := a.position(cmd)
			if err != nil {
				return err
			}
			title, _ := cmd.Flags().GetString("title")
			if title == "" {
				if title, err = GetSimpleText(a.in, "Title", a.out); err != nil {
					return err
				}
			}
			desc, _ := cmd.Flags().GetString("desc")
			image, _ := cmd.Flags().GetString("image")

			d, err := a.discoveryService.Add(cmd.Context(), services.DiscoveryInput{
				Title:       title,
				Description: desc,
				At:          at,
				ImagePath:   image,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Added %s (%s)\n", d.UUID, d.LocationName)
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringP("title", "t", "", "title")
	fl.String("desc", "", "description")
	fl.String("image", "", "local image file or remote URI")
	fl.Float64("lat", 0, "latitude")
	fl.Float64("lon", 0, "longitude")
	return cmd
}

func newDiscoveryEditCmd(app func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <uuid>",
		Short: "Change the title, description or image of a discovery",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			fl := cmd.Flags()
			var patch services.DiscoveryPatch
			if fl.Changed("title") {
				v, _ := fl.GetString("title")
				patch.Title = &v
			}
			if fl.Changed("desc") {
				v, _ := fl.GetString("desc")
				patch.Description = &v
			}
			if fl.Changed("image") {
				v, _ := fl.GetString("image")
				patch.ImagePath = &v
			}
			if patch == (services.DiscoveryPatch{}) {
				return fmt.Errorf("%w: nothing to change", common.ErrorValidation)
			}
			d, err := a.discoveryService.Update(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Updated %s\n", d.UUID)
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringP("title", "t", "", "new title")
	fl.String("desc", "", "new description")
	fl.String("image", "", "new image; empty removes it")
	return cmd
}

func newDiscoveryRmCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <uuid>",
		Aliases: []string{"delete"},
		Short:   "Delete a discovery",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := a.discoveryService.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted %s\n", args[0])
			return nil
		},
	}
}

func newDiscoveryLsCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List discoveries",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			items, err := a.discoveryService.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Fprintln(a.out, "No discoveries yet")
				return nil
			}
			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "UUID\tDATE\tTITLE\tPLACE")
			for _, d := range items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.UUID, d.Date, d.Title, d.LocationName)
			}
			return w.Flush()
		},
	}
}

func newDiscoveryShowCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <uuid>",
		Short: "Show one discovery",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			d, err := a.discoveryService.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printDiscovery(a, d)
			return nil
		},
	}
}

func printDiscovery(a *App, d models.Discovery) {
	image := "-"
	if d.ImageURI != nil {
		image = *d.ImageURI
	}
	fmt.Fprintf(a.out, "UUID:        %s\n", d.UUID)
	fmt.Fprintf(a.out, "Title:       %s\n", d.Title)
	fmt.Fprintf(a.out, "Description: %s\n", d.Description)
	fmt.Fprintf(a.out, "Position:    %.6f, %.6f\n", d.Latitude, d.Longitude)
	fmt.Fprintf(a.out, "Place:       %s\n", d.LocationName)
	fmt.Fprintf(a.out, "Date:        %s\n", d.Date)
	fmt.Fprintf(a.out, "Image:       %s\n", image)
}
