// Command seed loads the starter catalog into the configured database.
package main

import (
	"context"

	"github.com/tienchung1704/real-dinhanstore/config"
	"github.com/tienchung1704/real-dinhanstore/database"
	logx "github.com/tienchung1704/real-dinhanstore/logger"
	"github.com/tienchung1704/real-dinhanstore/seed"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logx.Init(logx.LoggerOpts{Environment: cfg.Env})

	db, err := database.Open(cfg.Database)
	if err != nil {
		logx.Fatal().Err(err).Msg("open database")
	}
	if err := database.Migrate(db); err != nil {
		logx.Fatal().Err(err).Msg("migrate")
	}

	res, err := seed.Run(context.Background(), db)
	if err != nil {
		logx.Fatal().Err(err).Msg("seed catalog")
	}
	logx.Info().Int("categories", res.Categories).Int("products", res.Products).Msg("catalog seeded")
}
