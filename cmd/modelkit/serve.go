package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TrashHobbit/modelkit/internal/preview"
)

func runServe(projectDir string, args []string) {
	flags := flag.NewFlagSet("serve", flag.ExitOnError)
	host := flags.String("host", "", "bind host (default: from config)")
	port := flags.Int("port", 0, "bind port (default: from config)")
	_ = flags.Parse(args)

	cfg, lb := setup(projectDir)

	settings := preview.SettingsFromConfig(cfg)
	if *host != "" {
		settings.Host = *host
	}
	if *port > 0 && *port <= 65535 {
		settings.Port = *port
	}

	server := preview.NewServer(settings, cfg.OutputDir(), preview.WithLogbook(lb))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		die("%v", err)
	}
	fmt.Printf("Serving %s\n", cfg.OutputDir())
	fmt.Printf("  %s/model.json\n", server.BaseURL())
	fmt.Printf("  %s/api/descriptor\n", server.BaseURL())
	fmt.Println("Press ctrl+c to stop.")

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		die("shutdown: %v", err)
	}
	fmt.Println("Stopped.")
}
