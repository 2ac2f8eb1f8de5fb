package main

import (
	"fmt"
	"os"

	"github.com/ichi0g0y/luckydraw/internal/env"
	"github.com/ichi0g0y/luckydraw/internal/shared/logger"
	"github.com/ichi0g0y/luckydraw/internal/version"
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "luckydraw",
	Short: "LUCKY抽 share tools",
	Long: `Command line tools for LUCKY抽 shares.

Shares are read from and written to the store configured by the same
environment as the server (STORE_BACKEND, REDIS_URL, DATA_DIR, ...).`,
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(verbose)
		env.LoadEnv()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.AddCommand(idCmd, extractCmd, shareCmd)
}

func main() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
