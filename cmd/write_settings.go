package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/hertta/internal/config"
)

var writeSettingsPath string

var writeSettingsCmd = &cobra.Command{
	Use:   "write-settings",
	Short: "Write the current effective settings to disk as TOML",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := writeSettingsPath
		if path == "" {
			p, err := config.DefaultPath()
			if err != nil {
				return eris.Wrap(err, "write-settings: resolve default path")
			}
			path = p
		}
		if err := config.Write(path, settings); err != nil {
			return eris.Wrap(err, "write-settings: write settings file")
		}
		fmt.Println(path)
		return nil
	},
}

func init() {
	writeSettingsCmd.Flags().StringVar(&writeSettingsPath, "out", "", "path to write settings.toml (default: platform config dir)")
	rootCmd.AddCommand(writeSettingsCmd)
}
