package cli

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"

	"github.com/dmitrijs2005/scratchmap/internal/client/fog"
	"github.com/dmitrijs2005/scratchmap/internal/common"
	"github.com/spf13/cobra"
)

var (
	groundColor = color.RGBA{R: 0xe8, G: 0xe4, B: 0xd8, A: 0xff}
	markerColor = color.RGBA{R: 0xd0, G: 0x30, B: 0x30, A: 0xff}
)

const markerSize = 3

func newRenderCmd(app func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the fog of war around a position to a PNG file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			fl := cmd.Flags()
			out, _ := fl.GetString("out")
			zoom, _ := fl.GetFloat64("zoom")
			width, _ := fl.GetInt("width")
			height, _ := fl.GetInt("height")
			if width <= 0 || height <= 0 {
				return fmt.Errorf("%w: size must be positive", common.ErrorValidation)
			}

			center, err := a.position(cmd)
			if err != nil {
				return err
			}
			v := fog.Viewport{Center: center, Zoom: zoom}

			img := a.render(cmd, v, width, height)

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := png.Encode(f, img); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Wrote %s\n", out)
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringP("out", "o", "fog.png", "output file")
	fl.Float64P("zoom", "z", 15, "zoom level")
	fl.Int("width", 800, "image width in pixels")
	fl.Int("height", 600, "image height in pixels")
	fl.Float64("lat", 0, "centre latitude, defaults to the last known position")
	fl.Float64("lon", 0, "centre longitude, defaults to the last known position")
	return cmd
}

// render draws the ground, the discovery markers, then the fog on top.
func (a *App) render(cmd *cobra.Command, v fog.Viewport, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(groundColor), image.Point{}, draw.Src)

	proj := v.Projection(width, height)
	for _, p := range a.overlay.Index().Discoveries.Query(proj.Bounds(0)) {
		x, y := proj.ToScreen(p)
		r := image.Rect(int(x)-markerSize, int(y)-markerSize, int(x)+markerSize+1, int(y)+markerSize+1)
		draw.Draw(img, r, image.NewUniform(markerColor), image.Point{}, draw.Src)
	}

	cache := a.overlay.Fog()
	cache.Resize(width, height)
	cache.Draw(cmd.Context(), img, v)
	return img
}

func newShaderCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:       "shader <on|off>",
		Short:     "Toggle the textured fog",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			var on bool
			switch args[0] {
			case "on":
				on = true
			case "off":
			default:
				return fmt.Errorf("%w: want on or off, got %q", common.ErrorValidation, args[0])
			}
			ctx := cmd.Context()
			if err := a.coll.SetShaderEnabled(ctx, on); err != nil {
				return err
			}
			texture, err := a.fogTexture(ctx)
			if err != nil {
				return err
			}
			a.overlay.Fog().SetTexture(texture)
			fmt.Fprintf(a.out, "Fog texture %s\n", args[0])
			return nil
		},
	}
}
