package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"rankbot-api/config"
	"rankbot-api/fixtures"
	"rankbot-api/packages/core"
)

const defaultGuild = "fixture-guild"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logger := config.NewLogger(cfg)

	if len(os.Args) < 2 {
		printUsage()
		return
	}
	guildID := defaultGuild
	if len(os.Args) > 2 {
		guildID = os.Args[2]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	store, err := config.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}
	defer store.Close(context.Background())

	locker, redisClient, err := config.NewLocker(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to set up match locks")
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	module, err := core.NewModule(store, locker, core.Options{HashSalt: cfg.HashSalt}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build core module")
	}
	fixtureManager := fixtures.NewFixtures(module, guildID, time.Now().UnixNano(), logger)

	switch os.Args[1] {
	case "generate":
		if err := fixtureManager.GenerateTestData(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to generate fixtures")
		}
		fmt.Println("Fixtures generated successfully!")
	case "clear":
		if err := fixtureManager.ClearAllData(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to clear fixtures")
		}
		fmt.Println("All fixture data cleared!")
	case "regenerate":
		fmt.Println("Clearing existing data...")
		if err := fixtureManager.ClearAllData(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to clear fixtures")
		}
		fmt.Println("Generating new fixtures...")
		if err := fixtureManager.GenerateTestData(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to generate fixtures")
		}
		fmt.Println("Fixtures regenerated successfully!")
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
	}
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/fixtures generate [guild]    - Register 10 members and log 50 matches")
	fmt.Println("  go run ./cmd/fixtures clear [guild]       - Remove every match and member of the guild")
	fmt.Println("  go run ./cmd/fixtures regenerate [guild]  - Clear and regenerate all data")
}
