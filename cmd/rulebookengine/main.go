package main

import (
	"context"
	"log"
	"os"
	"strconv"

	"github.com/rawblock/moment-algebra/internal/rewrite"
	"github.com/rawblock/moment-algebra/internal/rulebookserver"
	"github.com/rawblock/moment-algebra/internal/rulebookstore"
)

func main() {
	log.Println("Starting moment-algebra rulebook engine...")

	alphabetSize, err := strconv.Atoi(getEnvOrDefault("RULEBOOK_GENERATOR_COUNT", "4"))
	if err != nil || alphabetSize <= 0 {
		log.Fatalf("FATAL: RULEBOOK_GENERATOR_COUNT must be a positive integer")
	}
	mode := conjugationModeFromEnv(getEnvOrDefault("RULEBOOK_CONJUGATION", "self_adjoint"))
	hermitian := getEnvOrDefault("RULEBOOK_HERMITIAN", "true") == "true"

	rb := rewrite.NewRulebook(alphabetSize, mode, hermitian)
	if getEnvOrDefault("RULEBOOK_COMMUTATIVE", "false") == "true" {
		rb.GenerateCommutators()
	}
	rb.GenerateNormalOperatorRules()

	var store *rulebookstore.Store
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		store, err = rulebookstore.Connect(dbURL)
		if err != nil {
			log.Printf("Warning: failed to connect to PostgreSQL, continuing without snapshot persistence: %v", err)
		} else {
			defer store.Close()
			if err := store.InitSchema(context.Background()); err != nil {
				log.Printf("Warning: rulebook store schema init failed: %v", err)
			}
		}
	} else {
		log.Println("DATABASE_URL not set — running without snapshot persistence")
	}

	hub := rulebookserver.NewHub()
	go hub.Run()

	var saver rulebookserver.SnapshotSaver
	if store != nil {
		saver = store
	}
	r := rulebookserver.SetupRouter(rb, hub, saver)

	port := getEnvOrDefault("PORT", "5340")
	log.Printf("Rulebook engine running on :%s (alphabet size %d, conjugation %s)\n", port, rb.OperatorCount(), getEnvOrDefault("RULEBOOK_CONJUGATION", "self_adjoint"))
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func conjugationModeFromEnv(v string) rewrite.ConjugationMode {
	switch v {
	case "bunched":
		return rewrite.Bunched
	case "interleaved":
		return rewrite.Interleaved
	default:
		return rewrite.SelfAdjoint
	}
}

// getEnvOrDefault returns the env var value or a safe default for
// non-secret settings.
func getEnvOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
