package main

import (
	"context"
	"flag"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/eavinstitute/admissions/internal/app"
)

// Provisions the admin bearer tokens the server validates. Run with
// create/revoke/list as the first argument.
func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	var owner = flag.String("owner", "", "Staff member the token is for (create)")
	var token = flag.String("token", "", "Token to revoke")
	flag.Parse()

	config, err := app.LoadConfig(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}

	tm, err := app.NewTokenManager(config)
	if err != nil {
		logger.Error.Fatalf("Failed to connect: %v", err)
	}
	defer tm.Close()

	ctx := context.Background()

	switch flag.Arg(0) {
	case "create":
		if *owner == "" {
			logger.Error.Fatalf("-owner is required for create")
		}
		t, err := tm.CreateToken(ctx, *owner)
		if err != nil {
			logger.Error.Fatalf("Failed to create token: %v", err)
		}
		logger.Info.Printf("Token for %s: %s", t.Owner, t.Token)
	case "revoke":
		if *token == "" {
			logger.Error.Fatalf("-token is required for revoke")
		}
		if err := tm.RevokeToken(ctx, *token); err != nil {
			logger.Error.Fatalf("Failed to revoke token: %v", err)
		}
		logger.Info.Printf("Revoked %s", *token)
	case "list":
		tokens, err := tm.ListTokens(ctx)
		if err != nil {
			logger.Error.Fatalf("Failed to list tokens: %v", err)
		}
		for _, t := range tokens {
			state := "active"
			if t.Revoked {
				state = "revoked"
			}
			logger.Info.Printf("%s  owner=%s created=%s %s", t.Token, t.Owner, t.CreatedAt, state)
		}
	default:
		logger.Error.Fatalf("Usage: tokens [create|revoke|list]")
	}
}
