package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"telemetry_map/core-go/internal/config"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "mapcalc",
		Short:         "Offline calculator for the dashboard map layout",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().Bool("json", false, "Print the result as JSON")
	root.PersistentFlags().String("config", "", "YAML config file with layout settings (defaults to CONFIG_FILE)")

	root.AddCommand(newRectCmd(), newProjectCmd())
	return root
}

// loadConfig reads the server's configuration, from --config when given.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.LoadFile(path)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
