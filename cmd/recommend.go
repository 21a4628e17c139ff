package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	flagRecommendK      int
	flagRecommendScores bool
)

var recommendCmd = &cobra.Command{
	Use:   "recommend <query>",
	Short: "Recommend assessments for a job description or skill list",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRecommend,
}

func init() {
	recommendCmd.Flags().IntVar(&flagRecommendK, "k", 0, "Number of results (default: config top_k)")
	recommendCmd.Flags().BoolVar(&flagRecommendScores, "scores", false, "Show similarity scores")
	rootCmd.AddCommand(recommendCmd)
}

func runRecommend(_ *cobra.Command, args []string) error {
	svc, err := loadService(true, flagRecommendScores)
	if err != nil {
		return err
	}

	query := strings.Join(args, " ")
	k := flagRecommendK
	if k <= 0 {
		k = svc.pipeline.TopK()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	res, err := svc.pipeline.Recommend(ctx, query, k)
	if err != nil {
		return err
	}

	fmt.Printf("\nassessrec recommend %q\n\n", query)
	if len(res.Recommendations) == 0 {
		printInfo("", "no recommendations")
		return nil
	}
	for i, r := range res.Recommendations {
		if r.Score != 0 {
			fmt.Printf("  %2d. [%.3f] %s\n", i+1, r.Score, r.AssessmentName)
		} else {
			fmt.Printf("  %2d. %s\n", i+1, r.AssessmentName)
		}
		if r.AssessmentURL != "" {
			fmt.Printf("      %s\n", r.AssessmentURL)
		}
	}
	return nil
}
