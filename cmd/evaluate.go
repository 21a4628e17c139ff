package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/mkarlsen/assessrec/internal/recommend"
	"github.com/spf13/cobra"
)

var flagEvaluateK int

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <cases.jsonl>",
	Short: "Compute recall@k for a labeled case file",
	Long: `Run each case's query through the retrieval path (without enrichment,
for reproducibility) and report the fraction of cases whose expected
assessment appears in the top-k results.

Each line of the case file is JSON: {"query": "...", "expected": "<name>"}
or {"query": "...", "expected_id": <id>}.`,
	Args: cobra.ExactArgs(1),
	RunE: runEvaluate,
}

func init() {
	evaluateCmd.Flags().IntVar(&flagEvaluateK, "k", 10, "Top-k cutoff for recall")
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(_ *cobra.Command, args []string) error {
	svc, err := loadService(false, false)
	if err != nil {
		return err
	}

	cases, err := recommend.LoadCases(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	recall, err := svc.pipeline.Evaluate(ctx, cases, flagEvaluateK)
	if err != nil {
		return err
	}

	printSection("assessrec evaluate")
	printInfo("", fmt.Sprintf("cases: %d, k: %d", len(cases), flagEvaluateK))
	printOK("", fmt.Sprintf("recall@%d = %.3f", flagEvaluateK, recall))
	return nil
}
