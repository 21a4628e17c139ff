package cmd

import (
	"fmt"
	"os"

	"github.com/mkarlsen/assessrec/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "assessrec",
	Short:        "assessrec — semantic assessment recommender",
	SilenceUsage: true, // don't print usage on operational errors
	Long: `assessrec recommends assessments from a fixed catalog by semantic
similarity between a free-text job description and each assessment's text.

Build an index once with 'assessrec build', then query it with
'assessrec recommend' or serve it with 'assessrec serve'.`,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		// Make ~/.assessrec/.env keys visible; explicit env vars still win.
		return config.LoadDotEnv()
	},
}

// Execute is called by main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
