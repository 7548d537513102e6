package main

import (
	"context"
	"flag"

	"go.uber.org/zap"

	"complaintdesk/internal/app"
	"complaintdesk/internal/config"
	"complaintdesk/internal/logging"
	"complaintdesk/internal/seed"
)

func main() {
	source := flag.String("source", "seed/complaints.json", "JSON file path or http(s) URL")
	owner := flag.String("owner", "", "user id for records without userId (defaults to the session user)")
	flag.Parse()

	cfg := config.Load()
	logger := logging.New(cfg.Env, cfg.LogLevel)
	defer func() { _ = logger.Sync() }()
	ctx := context.Background()

	logger.Info("starting seed", zap.String("source", *source))

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}
	defer a.Close()

	defaultOwner := *owner
	if defaultOwner == "" {
		if user, ok := a.Session.Current(); ok {
			defaultOwner = user.ID
		}
	}

	loader := seed.NewLoader(a.Complaints, logger)
	records, err := loader.Fetch(ctx, *source)
	if err != nil {
		logger.Fatal("failed to fetch seed data", zap.Error(err))
	}
	logger.Info("fetched seed records", zap.Int("count", len(records)))

	res, err := loader.Load(ctx, records, defaultOwner)
	if err != nil {
		logger.Fatal("failed to seed complaints", zap.Error(err))
	}

	logger.Info("seed completed",
		zap.Int("created", res.Created),
		zap.Int("existing", res.Existing),
		zap.Int("skipped", res.Skipped))
}
