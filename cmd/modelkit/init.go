package main

import (
	"flag"
	"fmt"

	"github.com/TrashHobbit/modelkit/internal/config"
)

func runInit(projectDir string, args []string) {
	flags := flag.NewFlagSet("init", flag.ExitOnError)
	_ = flags.Parse(args)

	if err := config.InitModelkitDir(projectDir); err != nil {
		die("initializing .modelkit directory: %v", err)
	}
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		die("%v", err)
	}
	fmt.Printf("Initialized %s\n", cfg.ModelkitProjectDir)
	fmt.Printf("  config:    %s\n", cfg.ProjectConfigPath())
	fmt.Printf("  templates: %s\n", cfg.TemplatesDir())
	fmt.Println("Edit .modelkit/config.yaml, then run `modelkit convert`.")
}
