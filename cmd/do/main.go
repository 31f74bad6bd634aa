package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/yaqa/yaqa/cmd/do/cmd"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "do",
		Short:         "Development and operator tools for yaqa",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(cmd.DevCmd())
	rootCmd.AddCommand(cmd.BuildCmd())
	rootCmd.AddCommand(cmd.MigrateCmd())
	rootCmd.AddCommand(cmd.UserCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
