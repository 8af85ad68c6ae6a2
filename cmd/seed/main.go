// Command seed populates the configured database with development fixtures.
package main

import (
	"flag"
	"os"

	"github.com/amora-app/amora-server/internal/config"
	"github.com/amora-app/amora-server/internal/db"
	"github.com/amora-app/amora-server/internal/logger"
)

func main() {
	minimal := flag.Bool("minimal", false, "seed the small three-user fixture instead of the full set")
	flag.Parse()

	cfg := config.New()
	logger.InitFromConfig(cfg)
	log := logger.L()

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to connect to database", "err", err)
		os.Exit(1)
	}

	if *minimal {
		err = db.SeedMinimalTestData(database)
	} else {
		err = db.SeedTestData(database)
	}
	if err != nil {
		log.Error("seeding failed", "err", err)
		os.Exit(1)
	}
	log.Info("seeding complete", "minimal", *minimal)
}
