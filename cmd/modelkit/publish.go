package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/TrashHobbit/modelkit/internal/history"
	"github.com/TrashHobbit/modelkit/internal/hub"
	"github.com/TrashHobbit/modelkit/internal/logbook"
	"github.com/TrashHobbit/modelkit/internal/publish"
)

func runPublish(projectDir string, args []string) {
	flags := flag.NewFlagSet("publish", flag.ExitOnError)
	repo := flags.String("repo", "", "repository in owner/name form (default: from config)")
	_ = flags.Parse(args)

	cfg, lb := setup(projectDir)

	repoID := *repo
	if repoID == "" {
		repoID = cfg.Repository()
	}
	if repoID == "" {
		die("no repository configured; set hub.repository or pass -repo")
	}

	creds, err := hub.CredentialsFromEnv()
	if err != nil {
		die("%v", err)
	}
	client, err := hub.New(cfg.Project.Hub, creds)
	if err != nil {
		die("%v", err)
	}

	manifest := publish.ManifestFromConfig(cfg)
	if len(manifest.Items) == 0 {
		die("nothing to publish; add entries to the publish section of .modelkit/config.yaml")
	}

	publisher := publish.NewPublisher(client, publish.WithLogbook(lb))
	report, err := publisher.Run(context.Background(), repoID, manifest)
	if err != nil {
		die("%v", err)
	}

	for _, res := range report.Results {
		switch res.State {
		case publish.StateUploaded:
			if res.Item.Kind == publish.KindDirectory {
				fmt.Printf("  uploaded %s/ (%d files)\n", res.Item.RepoPath, res.Files)
			} else {
				fmt.Printf("  uploaded %s\n", res.Item.RepoPath)
			}
		case publish.StateMissing:
			fmt.Printf("  warning: %s not found locally, skipped\n", res.Item.RepoPath)
		case publish.StateFailed:
			fmt.Printf("  error: %s: %v\n", res.Item.RepoPath, res.Err)
		}
		if res.Note != "" {
			fmt.Printf("  note: %s\n", res.Note)
		}
	}
	fmt.Printf("\n%d uploaded, %d missing, %d failed\n",
		report.Uploaded(), report.Missing(), report.Failed())
	fmt.Printf("Repository: %s\n", hub.URL(cfg.Project.Hub, repoID))

	recordRun(cfg.HistoryDBPath(), report, lb)
}

// recordRun stores the report in the local journal. History problems never
// fail a publish that already happened.
func recordRun(dbPath string, report publish.Report, lb *logbook.Logbook) {
	journal, err := history.Open(dbPath)
	if err != nil {
		lb.Warn("history: %v", err)
		return
	}
	defer journal.Close()
	if err := journal.Record(context.Background(), report); err != nil {
		lb.Warn("history: %v", err)
	}
}
