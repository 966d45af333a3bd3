package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	_ "github.com/lib/pq"

	"github.com/apexledger/transfer-engine/internal/config"
	"github.com/apexledger/transfer-engine/internal/engine"
	"github.com/apexledger/transfer-engine/internal/events/kafka"
	"github.com/apexledger/transfer-engine/internal/interfaces"
	"github.com/apexledger/transfer-engine/internal/server"
	"github.com/apexledger/transfer-engine/internal/storage/memory"
	"github.com/apexledger/transfer-engine/internal/storage/postgres"
)

func main() {
	cfg := config.Load()

	var (
		accounts interfaces.AccountStore
		ledger   interfaces.TransferLedger
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("open database: %v", err)
		}
		store, err := postgres.NewStore(db)
		if err != nil {
			log.Fatalf("init postgres store: %v", err)
		}
		if err := store.EnsureSchema(context.Background()); err != nil {
			log.Fatalf("ensure schema: %v", err)
		}
		accounts, ledger = store, store
		log.Println("using postgres store")
	} else {
		store, err := memory.NewStore()
		if err != nil {
			log.Fatalf("init memory store: %v", err)
		}
		accounts, ledger = store, store
		log.Println("using in-memory store")
	}

	var publisher interfaces.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		p := kafka.NewPublisher(cfg.KafkaBrokers)
		defer p.Close()
		publisher = p
		log.Printf("publishing events to %v", cfg.KafkaBrokers)
	}

	coordinator := engine.NewCoordinator(accounts, cfg.TransferMaxAttempts)
	s := server.New(coordinator, accounts, ledger, publisher)

	log.Printf("transfer engine listening on %s", cfg.HTTPAddr)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, s.Router()))
}
