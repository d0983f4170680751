package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"telemetry_map/core-go/internal/projection"
	"telemetry_map/core-go/internal/telemetry"
)

type projectResult struct {
	projection.PixelPosition
	East   bool    `json:"east"`
	South  bool    `json:"south"`
	Adjust float64 `json:"vertical_adjust"`
}

func newProjectCmd() *cobra.Command {
	var (
		lat, lon float64
		g        projection.ContainerGeometry
	)

	cmd := &cobra.Command{
		Use:   "project",
		Short: "Place a coordinate onto a map container",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !telemetry.ValidCoordinate(lat, lon) {
				return fmt.Errorf("coordinate out of range: lat=%v lon=%v", lat, lon)
			}
			if g.Width <= 0 || g.Height <= 0 {
				return projection.ErrNoContainer
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			tiers := cfg.Tiers()
			pos := projection.Project(lat, lon, g, tiers)
			res := projectResult{
				PixelPosition: pos,
				East:          pos.Quarter.East(),
				South:         pos.Quarter.South(),
				Adjust:        tiers.VerticalAdjustment(g.ScreenWidth),
			}

			asJSON, _ := cmd.Flags().GetBool("json")
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "left=%d top=%d quarter=%d\n", pos.Left, pos.Top, pos.Quarter)
			return err
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude in degrees")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude in degrees")
	cmd.Flags().Float64Var(&g.Width, "container-width", 0, "Rendered width of the map container")
	cmd.Flags().Float64Var(&g.Height, "container-height", 0, "Rendered height of the map container")
	cmd.Flags().Float64Var(&g.OffsetLeft, "offset-left", 0, "Horizontal page offset of the container")
	cmd.Flags().Float64Var(&g.ScreenWidth, "screen-width", 0, "Width of the screen the map is shown on")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")
	return cmd
}
