package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/TrashHobbit/modelkit/internal/config"
	"github.com/TrashHobbit/modelkit/internal/imagecheck"
	"github.com/TrashHobbit/modelkit/internal/model"
	"github.com/TrashHobbit/modelkit/internal/templates"
)

func runCheck(projectDir string, args []string) {
	flags := flag.NewFlagSet("check", flag.ExitOnError)
	dir := flags.String("dir", "", "image directory (default: from config)")
	width := flags.Int("width", 0, "expected width (default: model input shape)")
	height := flags.Int("height", 0, "expected height (default: model input shape)")
	_ = flags.Parse(args)

	cfg, lb := setup(projectDir)

	imagesDir := *dir
	if imagesDir == "" {
		imagesDir = cfg.ImagesDir()
	}
	if imagesDir == "" {
		die("no image directory configured; set check.images_dir or pass -dir")
	}

	want := [2]int{*width, *height}
	if want[0] <= 0 || want[1] <= 0 {
		dims, err := expectedDims(cfg)
		if err != nil {
			die("%v", err)
		}
		want = dims
	}

	result, err := imagecheck.Scan(imagesDir, want)
	if err != nil {
		die("%v", err)
	}
	lb.Info("check: %s: %d checked, %d skipped, %d mismatched",
		imagesDir, result.Checked, result.Skipped, len(result.Mismatches))

	fmt.Printf("Checked %d image(s) against %dx%d", result.Checked, want[0], want[1])
	if result.Skipped > 0 {
		fmt.Printf(" (%d skipped)", result.Skipped)
	}
	fmt.Println()
	if result.OK() {
		fmt.Println("All images match.")
		return
	}
	for _, m := range result.Mismatches {
		fmt.Printf("  %s is %dx%d\n", m.Path, m.Width, m.Height)
	}
	os.Exit(1)
}

// expectedDims returns the default image size as [width, height]: the trained
// model's input shape when the sidecar loads, the active template's input
// otherwise.
func expectedDims(cfg *config.Config) ([2]int, error) {
	if handle, err := model.Load(cfg.ModelPath()); err == nil {
		shape := handle.InputShape()
		if len(shape) >= 2 {
			return [2]int{int(shape[1]), int(shape[0])}, nil
		}
	}
	registry := templates.NewRegistry()
	if err := templates.LoadAll(registry, cfg.TemplatesDir()); err != nil {
		return [2]int{}, err
	}
	tpl, err := registry.Resolve(cfg.TemplateID())
	if err != nil {
		return [2]int{}, err
	}
	if len(tpl.Input) < 2 {
		return [2]int{}, fmt.Errorf("template %s input shape has no spatial dimensions", tpl.ID)
	}
	return [2]int{tpl.Input[1], tpl.Input[0]}, nil
}
