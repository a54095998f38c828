package cli

import (
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("marginalia version %s\n", version)
		if useRemote {
			if remote := appSettings().Remote; remote.IsConfigured() {
				cmd.Printf("remote: %s\n", remote.BaseURL)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
