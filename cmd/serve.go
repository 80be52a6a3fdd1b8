package cmd

import (
	"github.com/spf13/cobra"

	"github.com/nahuelc/resumen/api"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP API server",
	Long:  `Starts the HTTP API server that accepts statement PDFs and returns extracted data as JSON.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := api.DefaultConfig()
		if servePort != "" {
			cfg.Port = ":" + servePort
		}
		cfg.Logger = logger

		server := api.New(cfg)
		if err := server.Start(); err != nil {
			logger.Fatalf("server failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&servePort, "port", "p", "8080", "port to run the API server on")
}
