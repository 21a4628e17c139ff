package cmd

import (
	"github.com/mkarlsen/assessrec/internal/server"
	"github.com/spf13/cobra"
)

var flagServeListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the recommendation API over HTTP",
	Long: `Load the index, metadata and embedding model once, then serve:

  GET  /health          readiness of index, metadata and model
  POST /recommend       {"query": "...", "k": 10} → ranked recommendations
  POST /api/recommend   alias of /recommend

The loaded state is immutable, so requests run concurrently without locking.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagServeListen, "listen", "", "Listen address (default: config listen, else :8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	svc, err := loadService(true, false)
	if err != nil {
		return err
	}

	addr := flagServeListen
	if addr == "" {
		addr = svc.cfg.Listen
	}
	if addr == "" {
		addr = ":8080"
	}

	ready := svc.engine.Ready()
	printSection("assessrec serve")
	printOK("", "index, metadata and model loaded")
	printInfo("", ready.ModelID)

	return server.New(svc.pipeline, svc.engine).ListenAndServe(addr)
}
