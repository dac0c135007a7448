package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	// OnionKeys are the three layer secrets in protocol order. All required;
	// the process must not start without them.
	OnionKeys []string

	OTPTTL time.Duration

	ProverDir     string // circuit artifacts + backend scripts
	WitnessCmd    string
	ProveCmd      string
	ProverTimeout time.Duration

	S3BucketName   string // optional: artifact bucket synced into ProverDir at startup
	ArtifactPrefix string

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Identities string
	Proofs     string
}

// Load reads all configuration from environment variables. It fails when any
// onion layer key is absent — starting without them would either crash later
// or, worse, persist plaintext.
func Load() (*Config, error) {
	keys := []string{
		os.Getenv("ONION_KEY1"),
		os.Getenv("ONION_KEY2"),
		os.Getenv("ONION_KEY3"),
	}
	for i, k := range keys {
		if k == "" {
			return nil, fmt.Errorf("ONION_KEY%d is required", i+1)
		}
	}

	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Identities: getEnv("DYNAMO_TABLE_IDENTITIES", "identities"),
			Proofs:     getEnv("DYNAMO_TABLE_PROOFS", "proofs"),
		},

		OnionKeys: keys,

		OTPTTL: time.Duration(getEnvInt("OTP_TTL_MINUTES", 5)) * time.Minute,

		ProverDir:     getEnv("PROVER_DIR", "./prover"),
		WitnessCmd:    getEnv("PROVER_WITNESS_CMD", "node generate_witness.js"),
		ProveCmd:      getEnv("PROVER_PROVE_CMD", "node generate_proof.js"),
		ProverTimeout: time.Duration(getEnvInt("PROVER_TIMEOUT_SECONDS", 60)) * time.Second,

		S3BucketName:   getEnv("S3_BUCKET_NAME", ""),
		ArtifactPrefix: getEnv("S3_ARTIFACT_PREFIX", "circuit/"),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
