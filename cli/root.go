package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
)

// rootCmd is the root command for classgen.
var rootCmd = &cobra.Command{
	Use:     "classgen",
	Version: "dev",
	Short:   "Class group generator",
	Long: `classgen splits a surveyed year group into equally capped classes.

Each pupil may name up to five friends and up to three pupils to avoid. Friends
are kept together where possible; avoided pupils never share a class.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// SetVersion sets the version reported by --version and the version command.
func SetVersion(v string) {
	if v == "" {
		return
	}
	rootCmd.Version = v
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(allocateCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), rootCmd.Version)
	},
}
