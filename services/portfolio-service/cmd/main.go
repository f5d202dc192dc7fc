package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "portfolio-service",
	Short:        "Academic portfolio API",
	SilenceUsage: true,
}

func main() {
	rootCmd.AddCommand(newServeCmd(), newCreateAdminCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
