package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"telemetry_map/core-go/internal/viewport"
)

func newRectCmd() *cobra.Command {
	var (
		vp    viewport.Viewport
		flags = viewport.DefaultConstants()
	)

	cmd := &cobra.Command{
		Use:   "rect",
		Short: "Compute the map rectangle for a browser viewport",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if vp.Width < 0 || vp.Height < 0 {
				return fmt.Errorf("viewport must not be negative: %vx%v", vp.Width, vp.Height)
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			c := cfg.ViewportConstants()
			if cmd.Flags().Changed("map-ratio") {
				c.MapRatio = flags.MapRatio
			}
			if cmd.Flags().Changed("header-height") {
				c.HeaderHeight = flags.HeaderHeight
			}
			if cmd.Flags().Changed("min-width") {
				c.MinWidth = flags.MinWidth
			}
			if c.MapRatio <= 0 {
				return fmt.Errorf("--map-ratio must be positive, got %v", c.MapRatio)
			}

			rect := viewport.ComputeRect(vp, c)

			asJSON, _ := cmd.Flags().GetBool("json")
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), rect)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%dx%d top=%d left=%d\n", rect.Width, rect.Height, rect.Top, rect.Left)
			return err
		},
	}

	cmd.Flags().Float64Var(&vp.Width, "width", 0, "Viewport width in CSS pixels")
	cmd.Flags().Float64Var(&vp.Height, "height", 0, "Viewport height in CSS pixels")
	cmd.Flags().Float64Var(&flags.MapRatio, "map-ratio", flags.MapRatio, "Width to height ratio of the map (overrides the config)")
	cmd.Flags().Float64Var(&flags.HeaderHeight, "header-height", flags.HeaderHeight, "Height reserved for the header (overrides the config)")
	cmd.Flags().Float64Var(&flags.MinWidth, "min-width", flags.MinWidth, "Smallest width the layout is computed for (overrides the config)")
	_ = cmd.MarkFlagRequired("width")
	_ = cmd.MarkFlagRequired("height")
	return cmd
}
