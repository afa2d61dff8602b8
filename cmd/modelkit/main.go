// cmd/modelkit/main.go
//
// This is the entry point for the modelkit CLI.
// Subcommands cover the full model-shipping workflow:
//
//	modelkit init      - create the .modelkit workspace
//	modelkit convert   - synthesize the TF.js descriptor + weights
//	modelkit publish   - upload artifacts to the model hub
//	modelkit serve     - preview the descriptor over HTTP
//	modelkit check     - verify sample image dimensions
//	modelkit history   - show recorded publish runs
//
// Running `modelkit` with no arguments opens the interactive TUI.

package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/TrashHobbit/modelkit/internal/config"
	"github.com/TrashHobbit/modelkit/internal/logbook"
	"github.com/TrashHobbit/modelkit/internal/tui"
)

func main() {
	cwd, err := os.Getwd()
	if err != nil {
		die("getting working directory: %v", err)
	}

	if len(os.Args) < 2 {
		runTUI(cwd)
		return
	}

	switch os.Args[1] {
	case "init":
		runInit(cwd, os.Args[2:])
	case "convert":
		runConvert(cwd, os.Args[2:])
	case "publish":
		runPublish(cwd, os.Args[2:])
	case "serve":
		runServe(cwd, os.Args[2:])
	case "check":
		runCheck(cwd, os.Args[2:])
	case "history":
		runHistory(cwd, os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "modelkit: unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Usage: modelkit [command]

Commands:
  init      Create the .modelkit workspace in the current directory
  convert   Synthesize model.json and weights.bin for the browser app
  publish   Upload the configured artifacts to the model hub
  serve     Serve the descriptor directory over HTTP
  check     Verify sample images match the model's input size
  history   Show recorded publish runs

Running modelkit with no command opens the interactive interface.`)
}

// die prints the message to stderr and exits non-zero.
func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "modelkit: "+format+"\n", args...)
	os.Exit(1)
}

// setup initializes the workspace and loads configuration; every subcommand
// goes through here first.
func setup(projectDir string) (*config.Config, *logbook.Logbook) {
	if err := config.InitModelkitDir(projectDir); err != nil {
		die("initializing .modelkit directory: %v", err)
	}
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		die("%v", err)
	}
	lb, err := logbook.New(cfg.LogPath())
	if err != nil {
		die("opening log: %v", err)
	}
	return cfg, lb
}

func runTUI(projectDir string) {
	cfg, lb := setup(projectDir)
	app := tui.NewApp(cfg, buildTasks(cfg, lb), tui.WithLogbook(lb))
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		die("running interface: %v", err)
	}
}
