package main

import (
	"context"

	"github.com/spf13/cobra"

	"accountscan/cmd/accountscan/bot"
	"accountscan/cmd/accountscan/scan"
	"accountscan/cmd/accountscan/server"
)

func Execute() error {
	var rootCmd = &cobra.Command{
		Use:   "accountscan",
		Short: "Multi-source account scanner",
		Long:  `Accountscan enumerates a username across social platforms and flags toxic Reddit activity, as a CLI, a Discord bot or an HTTP API`,
	}

	// Add commands
	rootCmd.AddCommand(scan.NewScanCommand())
	rootCmd.AddCommand(bot.NewBotCommand())
	rootCmd.AddCommand(server.NewServerCommand())
	return rootCmd.ExecuteContext(context.Background())
}
