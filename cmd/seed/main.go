// Command seed prepares a database for the portal: it migrates the schema,
// loads the region list, optionally grants staff access and prunes
// expired sessions.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/anonto42/regional-voices/backend/internal/repositories"
	"github.com/anonto42/regional-voices/backend/internal/router"
	"github.com/anonto42/regional-voices/backend/pkg/config"
	"github.com/anonto42/regional-voices/backend/pkg/logger"
	"github.com/sirupsen/logrus"
)

// regions are the states and union territories offered on the submission form
var regions = []string{
	"Andaman and Nicobar Islands", "Andhra Pradesh", "Arunachal Pradesh", "Assam",
	"Bihar", "Chandigarh", "Chhattisgarh", "Dadra and Nagar Haveli and Daman and Diu",
	"Delhi", "Goa", "Gujarat", "Haryana", "Himachal Pradesh", "Jammu and Kashmir",
	"Jharkhand", "Karnataka", "Kerala", "Ladakh", "Lakshadweep", "Madhya Pradesh",
	"Maharashtra", "Manipur", "Meghalaya", "Mizoram", "Nagaland", "Odisha",
	"Puducherry", "Punjab", "Rajasthan", "Sikkim", "Tamil Nadu", "Telangana",
	"Tripura", "Uttar Pradesh", "Uttarakhand", "West Bengal",
}

func main() {
	skipRegions := flag.Bool("skip-regions", false, "do not load the region list")
	staff := flag.String("staff", "", "grant staff access to this username")
	revoke := flag.Bool("revoke", false, "with -staff, remove staff access instead")
	prune := flag.Bool("prune-sessions", true, "delete expired sessions")
	flag.Parse()

	cfg := config.Load()
	log := logger.New(cfg.AppName+"-seed", cfg.Env)

	// Only PostgreSQL is needed here
	cfg.MongoURI = ""
	db, err := config.InitDB(cfg, log)
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB()

	if err := router.Migrate(db.Postgres, log); err != nil {
		log.Fatalf("Failed to migrate PostgreSQL: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if !*skipRegions {
		if err := seedRegions(ctx, repositories.NewPostgresRegionRepository(db.Postgres), log); err != nil {
			log.Fatalf("Failed to seed regions: %v", err)
		}
	}

	if *staff != "" {
		users := repositories.NewPostgresUserRepository(db.Postgres)
		if err := users.SetStaff(ctx, *staff, !*revoke); err != nil {
			log.Fatalf("Failed to update staff flag for %q: %v", *staff, err)
		}
		log.WithFields(logrus.Fields{"username": *staff, "staff": !*revoke}).Info("Staff flag updated")
	}

	if *prune {
		n, err := repositories.NewPostgresSessionRepository(db.Postgres).DeleteExpired(ctx, time.Now())
		if err != nil {
			log.Fatalf("Failed to prune sessions: %v", err)
		}
		log.WithField("deleted", n).Info("Expired sessions pruned")
	}
}

func seedRegions(ctx context.Context, repo repositories.RegionRepository, log *logrus.Logger) error {
	for _, name := range regions {
		if _, err := repo.EnsureRegion(ctx, name); err != nil {
			return err
		}
	}
	log.WithField("count", len(regions)).Info("Regions loaded")
	return nil
}
