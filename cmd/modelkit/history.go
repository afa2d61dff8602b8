package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/TrashHobbit/modelkit/internal/history"
)

func runHistory(projectDir string, args []string) {
	flags := flag.NewFlagSet("history", flag.ExitOnError)
	limit := flags.Int("n", 10, "number of runs to show")
	runID := flags.String("run", "", "show per-item results for one run")
	_ = flags.Parse(args)

	cfg, _ := setup(projectDir)

	journal, err := history.Open(cfg.HistoryDBPath())
	if err != nil {
		die("%v", err)
	}
	defer journal.Close()
	ctx := context.Background()

	if *runID != "" {
		items, err := journal.Items(ctx, *runID)
		if err != nil {
			die("%v", err)
		}
		if len(items) == 0 {
			fmt.Printf("No items recorded for run %s.\n", *runID)
			return
		}
		for _, item := range items {
			line := fmt.Sprintf("  %-9s %s", item.State, item.RepoPath)
			if item.Kind == "directory" {
				line += fmt.Sprintf(" (%d files)", item.Files)
			}
			if item.Detail != "" {
				line += " - " + item.Detail
			}
			fmt.Println(line)
		}
		return
	}

	runs, err := journal.Runs(ctx, *limit)
	if err != nil {
		die("%v", err)
	}
	if len(runs) == 0 {
		fmt.Println("No publish runs recorded yet.")
		return
	}
	for _, run := range runs {
		fmt.Printf("%s  %s  %s  %d uploaded, %d missing, %d failed\n",
			run.Started.Local().Format(time.DateTime),
			run.ID, run.Repo,
			run.Uploaded, run.Missing, run.Failed)
	}
}
