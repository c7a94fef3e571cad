// Command seed fills a development ledger with demo tribes and activity.
package main

import (
	"context"
	"flag"
	"log"

	"tribehub/internal/config"
	"tribehub/internal/database"
	"tribehub/internal/ledger"
	"tribehub/internal/models"
	"tribehub/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	tribes := flag.Int("tribes", defaults.Tribes, "Number of tribes to create")
	members := flag.Int("members", defaults.Members, "Number of funded accounts to create")
	posts := flag.Int("posts", defaults.PostsPerTribe, "Posts per tribe")
	rngSeed := flag.Int64("seed", 0, "Random seed; 0 picks one")
	flag.Parse()

	log.Println("🌱 Ledger Seeder")
	log.Println("================")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("refusing to seed a production ledger")
	}
	if cfg.GenesisAdmin == "" {
		log.Fatal("GENESIS_ADMIN is required to seed")
	}
	genesis, err := models.ParseAddress(cfg.GenesisAdmin)
	if err != nil {
		log.Fatalf("GENESIS_ADMIN: %v", err)
	}
	key, err := cfg.ContentKeyBytes()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	exec, err := ledger.NewExecutor(db)
	if err != nil {
		log.Fatalf("Failed to open ledger: %v", err)
	}

	s, err := seed.NewSeeder(exec, genesis, key)
	if err != nil {
		log.Fatal(err)
	}
	res, err := s.Run(context.Background(), seed.Options{
		Tribes:        *tribes,
		Members:       *members,
		PostsPerTribe: *posts,
		Seed:          *rngSeed,
	})
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ Seeded %d tribes for %d accounts.", len(res.Tribes), len(res.Members))
}
