package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/anzclass/anzclass/client"
	"github.com/spf13/cobra"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose configuration and connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor()
		},
	}
}

type checkResult struct {
	Name   string
	Passed bool
	Detail string
	Hint   string
}

func runDoctor() error {
	fmt.Println("\nanzclass Doctor")
	fmt.Println("===============")

	resolveConfig()

	var results []checkResult

	results = append(results, checkResult{
		Name: "Server URL", Passed: flagURL != "", Detail: flagURL,
		Hint: "Set --url, ANZCLASS_URL, or ~/.anzclass/config.yaml",
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := client.New(flagURL, client.WithTimeout(5*time.Second))

	health, err := c.Health(ctx)
	if err != nil {
		results = append(results, checkResult{
			Name: "Server reachable", Passed: false, Detail: err.Error(),
			Hint: "Is anzclass-server running?",
		})
	} else {
		results = append(results, checkResult{
			Name: "Server reachable", Passed: true,
			Detail: fmt.Sprintf("version %s, db %s", health.Version, health.Database),
		})

		ready, err := c.Ready(ctx)
		if err != nil || ready.Status != "ready" {
			detail := "not ready"
			if err != nil {
				detail = err.Error()
			} else {
				for name, state := range ready.Checks {
					if state != "ok" {
						detail = fmt.Sprintf("%s: %s", name, state)
					}
				}
			}
			results = append(results, checkResult{
				Name: "Readiness", Passed: false, Detail: detail,
				Hint: "Check the catalogue ingestion and database",
			})
		} else {
			results = append(results, checkResult{
				Name: "Readiness", Passed: true,
				Detail: fmt.Sprintf("schema version %d", ready.SchemaVersion),
			})
		}
	}

	failed := 0
	for _, r := range results {
		mark := "ok"
		if !r.Passed {
			mark = "FAIL"
			failed++
		}
		fmt.Printf("  [%s] %-18s %s\n", mark, r.Name, r.Detail)
		if !r.Passed && r.Hint != "" {
			fmt.Printf("         hint: %s\n", r.Hint)
		}
	}

	if failed > 0 {
		fmt.Printf("\n%d check(s) failed\n", failed)
		os.Exit(1)
	}

	fmt.Println("\nAll checks passed")
	return nil
}
