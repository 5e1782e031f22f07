package cmd

import (
	"log/slog"
	"os"

	"github.com/oy3o/podio/internal/config"
	"github.com/spf13/cobra"
)

// cfg is the configuration of the running command, loaded before any
// subcommand runs.
var cfg = config.DefaultConfig()

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "podump",
	Short: "Decode and encode binary files with a YAML schema",
	Long: `podump reads binary records described by a YAML schema and prints
them as YAML, or writes YAML records back to their binary form.

Example:
  podump decode --schema header.yaml --offset 512 image.bin`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		if path != "" {
			loaded, err := config.LoadConfig(path)
			if err != nil {
				return err
			}
			cfg = loaded
		}
		level, err := cfg.Level()
		if err != nil {
			return err
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Configuration file")
}

// useZstd reports whether input or output is zstd compressed. The flag wins
// over the configuration when given.
func useZstd(cmd *cobra.Command) bool {
	if cmd.Flags().Changed("zstd") {
		on, _ := cmd.Flags().GetBool("zstd")
		return on
	}
	return cfg.Zstd
}
