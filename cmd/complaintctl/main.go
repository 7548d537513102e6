package main

import (
	"context"
	"fmt"
	"os"

	"complaintdesk/internal/app"
	"complaintdesk/internal/cli"
	"complaintdesk/internal/config"
	"complaintdesk/internal/logging"
	"complaintdesk/internal/seed"
	"complaintdesk/internal/service"
)

func main() {
	ctx := context.Background()

	cfg := config.Load()
	// Keep the terminal for command output unless asked otherwise.
	if os.Getenv("LOG_LEVEL") == "" {
		cfg.LogLevel = "error"
	}
	logger := logging.New(cfg.Env, cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open store: %v\n", err)
		os.Exit(1)
	}

	rootCmd := cli.NewRootCmd(&cli.Deps{
		Session:    a.Session,
		Auth:       service.NewAuthService(a.Session, nil, nil, logger),
		Complaints: a.ComplaintService(a.Session),
		Seeder:     seed.NewLoader(a.Complaints, logger),
	})

	err = rootCmd.ExecuteContext(ctx)
	_ = a.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
