package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mkarlsen/assessrec/internal/catalog"
	"github.com/mkarlsen/assessrec/internal/config"
	"github.com/mkarlsen/assessrec/internal/embeddings"
	"github.com/mkarlsen/assessrec/internal/search"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check that config, catalog, index and model line up",
	Long: `Run the same readiness checks 'assessrec serve' performs at startup,
without starting a server. Run this when recommendations seem wrong or
before filing a bug report.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
	printSection("assessrec status")
	failed := false

	cfg, err := config.Load()
	if err != nil {
		printErr("config", err.Error())
		printInfo("", "run 'assessrec init' to create the default config")
		return fmt.Errorf("status checks failed")
	}
	path, _ := config.ConfigPath()
	printOK("config", path)

	if _, err := os.Stat(cfg.CatalogPath); err != nil {
		printWarn("catalog", fmt.Sprintf("raw catalog not found: %s", cfg.CatalogPath))
	} else {
		printOK("catalog", cfg.CatalogPath)
	}

	if store, err := catalog.OpenStore(cfg.CatalogDBPath()); err != nil {
		printErr("catalog-db", err.Error())
		failed = true
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		entries, err := store.Load(ctx)
		cancel()
		_ = store.Close()
		if err != nil {
			printErr("catalog-db", err.Error())
			failed = true
		} else {
			printOK("catalog-db", fmt.Sprintf("%d normalized entries", len(entries)))
		}
	}

	engine, err := search.Load(cfg.IndexDir())
	if err != nil {
		printErr("index", err.Error())
		printInfo("", "run 'assessrec build' to create the index")
		failed = true
	} else {
		r := engine.Ready()
		printOK("index", fmt.Sprintf("%d entries, dim %d, metric %s, model %s", r.Entries, r.Dim, r.Metric, r.ModelID))
	}

	embCfg, err := embeddings.LoadConfig()
	if err != nil {
		printErr("model", err.Error())
		failed = true
	} else if embCfg.APIKey == "" {
		printErr("model", "no embeddings API key configured")
		failed = true
	} else {
		prov, err := embeddings.NewFromConfig(embCfg)
		if err != nil {
			printErr("model", err.Error())
			failed = true
		} else {
			printOK("model", prov.ModelID())
			if engine != nil {
				if err := engine.VerifyProvider(prov); err != nil {
					printErr("model", err.Error())
					failed = true
				}
			}
		}
	}

	if failed {
		return fmt.Errorf("status checks failed")
	}
	printOK("", "ready to serve")
	return nil
}
