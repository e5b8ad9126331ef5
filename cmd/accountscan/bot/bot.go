package bot

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"accountscan/internal/bot"
	"accountscan/internal/config"
	"accountscan/pkg/scanner"
)

// NewBotCommand creates the bot command.
func NewBotCommand() *cobra.Command {
	botCmd := &cobra.Command{
		Use:   "bot",
		Short: "Run the Discord bot",
		Long:  `Run the Discord bot that exposes account scans as chat commands`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			scn := scanner.New()
			defer scn.Close()

			b, err := bot.New(cfg, scn)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				sig := <-sigChan
				log.Infof("Received signal %s, shutting down", sig)
				cancel()
			}()

			return b.Run(ctx)
		},
	}

	return botCmd
}
