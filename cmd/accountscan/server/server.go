package server

import (
	"fmt"

	"github.com/spf13/cobra"

	"accountscan/api/routes"
	"accountscan/internal/config"
	"accountscan/pkg/scanner"
)

type ServerOpts struct {
	Port int
	Ip   string
}

func NewServerCommand() *cobra.Command {
	ServerConfig := &ServerOpts{}

	serverCmd := &cobra.Command{
		Use:   "server",
		Short: "Start the scan API server",
		Long:  `Start the HTTP server that exposes account scans as a REST API`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			scn := scanner.New()
			defer scn.Close()

			router := routes.InitRouter(cfg, scn)
			return router.Run(fmt.Sprintf("%s:%d", ServerConfig.Ip, ServerConfig.Port))
		},
	}

	serverCmd.Flags().IntVarP(&ServerConfig.Port, "port", "p", 8080, "Port to run the server on")
	serverCmd.Flags().StringVarP(&ServerConfig.Ip, "ip", "i", "localhost", "IP address to bind the server to")

	return serverCmd
}
