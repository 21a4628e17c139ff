package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/mkarlsen/assessrec/internal/catalog"
	"github.com/mkarlsen/assessrec/internal/config"
	"github.com/mkarlsen/assessrec/internal/embeddings"
	"github.com/mkarlsen/assessrec/internal/index"
	"github.com/spf13/cobra"
)

var (
	flagBuildCatalog string
	flagBuildForce   bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Normalize the catalog and build the vector index",
	Long: `Normalize the raw catalog, persist it to SQLite, embed every assessment
and write the vector index.

The build runs under a file lock and installs the new artifacts with an
atomic directory swap, so a serving process never reads a half-written
index and concurrent builds cannot clobber each other.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&flagBuildCatalog, "catalog", "", "Path to the raw catalog JSON (default: config catalog_path)")
	buildCmd.Flags().BoolVar(&flagBuildForce, "force", false, "Re-embed every entry even if unchanged")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("cannot load config: %w\nRun 'assessrec init' first.", err)
	}

	catalogPath := flagBuildCatalog
	if catalogPath == "" {
		catalogPath = cfg.CatalogPath
	}

	printSection("assessrec build")

	// Single-writer guarantee: one build at a time per data dir.
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("cannot create data dir %s: %w", cfg.DataDir, err)
	}
	lock := flock.New(filepath.Join(cfg.DataDir, "build.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("cannot acquire build lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another build is already running (lock held: %s)", lock.Path())
	}
	defer lock.Unlock()

	// Normalize.
	entries, rowErrs, err := catalog.LoadNormalized(catalogPath)
	if err != nil {
		return fmt.Errorf("catalog normalization failed: %w", err)
	}
	for _, re := range rowErrs {
		printWarn("catalog", re.Error())
	}
	printOK("catalog", fmt.Sprintf("%d valid entries (%d rejected)", len(entries), len(rowErrs)))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	// Persist the normalized catalog.
	store, err := catalog.OpenStore(cfg.CatalogDBPath())
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Save(ctx, entries); err != nil {
		return fmt.Errorf("cannot persist normalized catalog: %w", err)
	}
	printOK("catalog", fmt.Sprintf("normalized catalog saved: %s", cfg.CatalogDBPath()))

	// Embed and index.
	embCfg, err := embeddings.LoadConfig()
	if err != nil {
		return err
	}
	prov, err := embeddings.NewFromConfig(embCfg)
	if err != nil {
		return err
	}
	printInfo("", fmt.Sprintf("building index using %s", prov.ModelID()))

	tmpDir, err := os.MkdirTemp(cfg.DataDir, "index-build-*")
	if err != nil {
		return fmt.Errorf("cannot create temp index dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	idx, err := index.Build(ctx, prov, entries, index.BuildOptions{
		OutDir:  tmpDir,
		PrevDir: cfg.IndexDir(),
		Force:   flagBuildForce,
	})
	if err != nil {
		return fmt.Errorf("index build failed: %w", err)
	}

	if err := index.AtomicSwap(tmpDir, cfg.IndexDir()); err != nil {
		return fmt.Errorf("cannot install index: %w", err)
	}
	printOK("", fmt.Sprintf("index written: %s (%d entries, dim %d)", cfg.IndexDir(), len(idx.Entries), idx.Manifest.Dim))
	return nil
}
