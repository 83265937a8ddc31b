package main

import (
	"context"
	"fmt"

	"github.com/anzclass/anzclass/client"
	"github.com/spf13/cobra"
)

func newClassifyCmd() *cobra.Command {
	var mode string
	var topK, poolSize int
	cmd := &cobra.Command{
		Use:   "classify <description>",
		Short: "Classify an occupation or business description",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			resp, err := apiClient.Classify(ctx, client.ClassifyRequest{
				Query:    args[0],
				Mode:     mode,
				TopK:     topK,
				PoolSize: poolSize,
			})
			if err != nil {
				fatal("classify", err)
			}

			if flagFmt == "table" {
				printResultTable(resp.Results)
				return
			}
			formatJSON(resp)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "Pipeline mode: FAST|HIGH_FIDELITY (default HIGH_FIDELITY)")
	cmd.Flags().IntVar(&topK, "top-k", 0, "Number of results (default 5)")
	cmd.Flags().IntVar(&poolSize, "pool-size", 0, "Stage 1 candidate pool size (default 20)")
	return cmd
}

func printResultTable(results []client.ClassifyResult) {
	headers := []string{"RANK", "CODE", "DESCRIPTION", "SCORE", "REASON"}
	var rows [][]string
	for _, r := range results {
		rows = append(rows, []string{
			fmt.Sprintf("%d", r.Rank), r.Code, r.Description,
			fmt.Sprintf("%.5f", r.RRFScore), r.Reason,
		})
	}
	formatTable(headers, rows)
}
