package main

import (
	"flag"
	"fmt"

	"github.com/TrashHobbit/modelkit/internal/descriptor"
	"github.com/TrashHobbit/modelkit/internal/model"
	"github.com/TrashHobbit/modelkit/internal/templates"
)

func runConvert(projectDir string, args []string) {
	flags := flag.NewFlagSet("convert", flag.ExitOnError)
	templateID := flags.String("template", "", "architecture template id (default: from config)")
	outDir := flags.String("out", "", "output directory (default: from config)")
	_ = flags.Parse(args)

	cfg, lb := setup(projectDir)

	registry := templates.NewRegistry()
	if err := templates.LoadAll(registry, cfg.TemplatesDir()); err != nil {
		die("loading templates: %v", err)
	}

	id := *templateID
	if id == "" {
		id = cfg.TemplateID()
	}
	tpl, err := registry.Resolve(id)
	if err != nil {
		die("%v (known: %v)", err, registry.IDs())
	}

	handle, err := model.Load(cfg.ModelPath())
	if err != nil {
		lb.Error("convert: %v", err)
		die("%v", err)
	}
	fmt.Println(handle.Summary())
	fmt.Println()

	dir := *outDir
	if dir == "" {
		dir = cfg.OutputDir()
	}
	lb.Info("convert: template %s -> %s", id, dir)
	result, err := descriptor.Convert(tpl, handle, dir, cfg.ModelWeightsPath())
	if err != nil {
		lb.Error("convert: %v", err)
		die("%v", err)
	}

	lb.Info("convert: wrote %s (%d tensors, %d bytes)", result.DescriptorPath, result.Tensors, result.BlobBytes)
	fmt.Printf("Wrote %s\n", result.DescriptorPath)
	fmt.Printf("Wrote %s (%d bytes)\n", result.WeightsPath, result.BlobBytes)
	fmt.Printf("Classifier head: %d classes, %d tensors", result.Classes, result.Tensors)
	if result.FromTrained > 0 {
		fmt.Printf(" (%d copied from trained weights)", result.FromTrained)
	}
	fmt.Println()
}
