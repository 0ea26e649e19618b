package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"party-pulse/internal/config"
	"party-pulse/internal/db"
	"party-pulse/internal/realtime"
	"party-pulse/internal/server"
	"party-pulse/internal/store"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	cfg := config.Load()

	st := buildStore(cfg)
	broker := buildBroker(cfg)

	hub, err := realtime.NewHub(broker)
	if err != nil {
		log.Fatalf("realtime hub setup failed: %v", err)
	}

	srv := server.New(st, hub, cfg)
	srv.Start()
	defer srv.Stop()

	addr := ":8080"
	if env := os.Getenv("PORT"); env != "" {
		addr = ":" + env
	}
	log.Printf("party-pulse server listening on %s", addr)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		log.Fatal(err)
	}
}

// buildStore prefers Postgres and falls back to the in-memory store when no
// DATABASE_URL is set, which keeps local development zero-config.
func buildStore(cfg config.Config) store.Store {
	if os.Getenv("DATABASE_URL") == "" {
		log.Println("DATABASE_URL not set, using in-memory store")
		return store.NewMemory()
	}
	conn, err := db.Open()
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	err = db.Configure(conn,
		cfg.DBMaxOpenConns,
		cfg.DBMaxIdleConns,
		time.Duration(cfg.DBConnMaxLifetimeSeconds)*time.Second,
		time.Duration(cfg.DBConnMaxIdleTimeSeconds)*time.Second,
	)
	if err != nil {
		log.Fatalf("database pool setup failed: %v", err)
	}
	// Dev convenience; production schemas come from cmd/migrate.
	if os.Getenv("AUTO_MIGRATE") == "1" {
		if err := db.Migrate(conn); err != nil {
			log.Fatalf("database migration failed: %v", err)
		}
	}
	return store.NewGorm(conn)
}

func buildBroker(cfg config.Config) realtime.Broker {
	if cfg.RedisURL == "" {
		log.Println("REDIS_URL not set, running single-instance fan-out")
		return nil
	}
	broker, err := realtime.NewRedisBroker(cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis broker setup failed: %v", err)
	}
	return broker
}
