package main

import (
	"os"

	"github.com/henderiw/rangetable/pkg/config"
	"github.com/henderiw/rangetable/pkg/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCommand returns the rangetable command tree.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "rangetable",
		Short:        "Room range store with overlap detection",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("config", "", "path to a config.yaml file")
	rootCmd.AddCommand(NewCheckCommand())
	rootCmd.AddCommand(NewServeCommand())
	return rootCmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
