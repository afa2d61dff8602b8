package main

import (
	"context"
	"fmt"

	"github.com/TrashHobbit/modelkit/internal/config"
	"github.com/TrashHobbit/modelkit/internal/descriptor"
	"github.com/TrashHobbit/modelkit/internal/hub"
	"github.com/TrashHobbit/modelkit/internal/imagecheck"
	"github.com/TrashHobbit/modelkit/internal/logbook"
	"github.com/TrashHobbit/modelkit/internal/model"
	"github.com/TrashHobbit/modelkit/internal/publish"
	"github.com/TrashHobbit/modelkit/internal/task"
	"github.com/TrashHobbit/modelkit/internal/templates"
)

// buildTasks assembles the operations offered by the interactive menu.
func buildTasks(cfg *config.Config, lb *logbook.Logbook) []task.Task {
	return []task.Task{
		{
			Info: task.Info{
				ID:          "convert",
				Name:        "Convert",
				Description: "Synthesize model.json and weights.bin",
			},
			Run: func(ctx context.Context) (task.Result, error) {
				return convertTask(cfg)
			},
		},
		{
			Info: task.Info{
				ID:          "publish",
				Name:        "Publish",
				Description: "Upload artifacts to the model hub",
			},
			Run: func(ctx context.Context) (task.Result, error) {
				return publishTask(ctx, cfg, lb)
			},
		},
		{
			Info: task.Info{
				ID:          "check",
				Name:        "Check images",
				Description: "Verify sample images match the model input size",
			},
			Run: func(ctx context.Context) (task.Result, error) {
				return checkTask(cfg)
			},
		},
	}
}

func convertTask(cfg *config.Config) (task.Result, error) {
	registry := templates.NewRegistry()
	if err := templates.LoadAll(registry, cfg.TemplatesDir()); err != nil {
		return task.Result{}, err
	}
	tpl, err := registry.Resolve(cfg.TemplateID())
	if err != nil {
		return task.Result{}, err
	}
	handle, err := model.Load(cfg.ModelPath())
	if err != nil {
		return task.Result{}, err
	}
	result, err := descriptor.Convert(tpl, handle, cfg.OutputDir(), cfg.ModelWeightsPath())
	if err != nil {
		return task.Result{}, err
	}
	return task.Completed(fmt.Sprintf("wrote %s (%d classes, %d tensors, %d bytes)",
		result.DescriptorPath, result.Classes, result.Tensors, result.BlobBytes)), nil
}

func publishTask(ctx context.Context, cfg *config.Config, lb *logbook.Logbook) (task.Result, error) {
	repoID := cfg.Repository()
	if repoID == "" {
		return task.NoOp("no repository configured; set hub.repository in .modelkit/config.yaml"), nil
	}
	creds, err := hub.CredentialsFromEnv()
	if err != nil {
		return task.Result{}, err
	}
	client, err := hub.New(cfg.Project.Hub, creds)
	if err != nil {
		return task.Result{}, err
	}
	manifest := publish.ManifestFromConfig(cfg)
	if len(manifest.Items) == 0 {
		return task.NoOp("nothing to publish; the publish section of the config is empty"), nil
	}
	report, err := publish.NewPublisher(client, publish.WithLogbook(lb)).Run(ctx, repoID, manifest)
	if err != nil {
		return task.Result{}, err
	}
	recordRun(cfg.HistoryDBPath(), report, lb)
	message := fmt.Sprintf("%d uploaded, %d missing, %d failed -> %s",
		report.Uploaded(), report.Missing(), report.Failed(), hub.URL(cfg.Project.Hub, repoID))
	if report.Failed() > 0 {
		return task.Failed(message), nil
	}
	return task.Completed(message), nil
}

func checkTask(cfg *config.Config) (task.Result, error) {
	imagesDir := cfg.ImagesDir()
	if imagesDir == "" {
		return task.NoOp("no image directory configured; set check.images_dir"), nil
	}
	want, err := expectedDims(cfg)
	if err != nil {
		return task.Result{}, err
	}
	result, err := imagecheck.Scan(imagesDir, want)
	if err != nil {
		return task.Result{}, err
	}
	if !result.OK() {
		return task.Failed(fmt.Sprintf("%d of %d image(s) do not match %dx%d",
			len(result.Mismatches), result.Checked, want[0], want[1])), nil
	}
	return task.Completed(fmt.Sprintf("%d image(s) match %dx%d", result.Checked, want[0], want[1])), nil
}
