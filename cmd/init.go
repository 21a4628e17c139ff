package cmd

import (
	"fmt"
	"os"

	"github.com/mkarlsen/assessrec/internal/config"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the assessrec config directory and default config",
	Long: `Create ~/.assessrec/ with a default assessrec.yaml and a .env template.

Existing files are left untouched, so init is safe to re-run.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(_ *cobra.Command, _ []string) error {
	printSection("assessrec init")

	dir, err := config.HomeDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", dir, err)
	}
	printOK("", fmt.Sprintf("config directory: %s", dir))

	path, err := config.ConfigPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		printInfo("", fmt.Sprintf("config exists, leaving untouched: %s", path))
	} else if os.IsNotExist(err) {
		cfg, err := config.DefaultConfig()
		if err != nil {
			return err
		}
		if err := config.Save(cfg); err != nil {
			return err
		}
		printOK("", fmt.Sprintf("default config written: %s", path))
	} else {
		return fmt.Errorf("cannot stat config %s: %w", path, err)
	}

	if err := config.EnsureDotEnvTemplate(); err != nil {
		return err
	}
	envPath, _ := config.DotEnvPath()
	printOK("", fmt.Sprintf("dotenv template ready: %s", envPath))
	printInfo("", "fill in ASSESSREC_EMBEDDINGS_API_KEY before running 'assessrec build'")
	return nil
}
