package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/zkp-id-api/internal/config"
	"github.com/zkp-id-api/internal/infrastructure/dynamo"
	"github.com/zkp-id-api/internal/infrastructure/prover"
	s3infra "github.com/zkp-id-api/internal/infrastructure/s3"
	"github.com/zkp-id-api/internal/pkg/onion"
	"github.com/zkp-id-api/internal/pkg/otp"
	transporthttp "github.com/zkp-id-api/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	cipher, err := onion.New(cfg.OnionKeys...)
	if err != nil {
		log.Fatalf("cipher init: %v", err)
	}

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// Sync circuit artifacts from S3 into the prover directory (optional —
	// when unset, the artifacts are expected to already be on disk).
	if cfg.S3BucketName != "" {
		store := s3infra.NewStore(s3infra.NewClient(cfg), cfg.S3BucketName)
		if err := store.SyncArtifacts(context.Background(), cfg.ArtifactPrefix, cfg.ProverDir); err != nil {
			log.Fatalf("artifact sync: %v", err)
		}
	}

	deps := &transporthttp.Deps{
		IdentityRepo: dynamo.NewIdentityRepo(dynamoClient, cfg.DynamoTables.Identities),
		ProofRepo:    dynamo.NewProofRepo(dynamoClient, cfg.DynamoTables.Proofs),
		OTPStore:     otp.New(cfg.OTPTTL),
		Prover:       prover.NewSubprocess(cfg),
		Cipher:       cipher,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // proof generation can be slow
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
