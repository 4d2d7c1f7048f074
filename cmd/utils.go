package cmd

import (
	"flag"
	"log"

	"thinktank-backend/internal/storage"

	"github.com/joho/godotenv"
)

func LoadEnvFile() {
	var configPath string

	flag.StringVar(&configPath, "env", "", "path to load env from")
	flag.Parse()

	if configPath == "" {
		log.Printf("no env file specified, using os.Environ only")
		return
	}

	log.Printf("loading env from file %s", configPath)
	err := godotenv.Load(configPath)
	if err != nil {
		log.Fatalf("error loading .env file '%s': %v", configPath, err)
	}
}

// StorageConfig selects the document blob backend. When S3_ENDPOINT_URL is
// empty, documents are stored on the local filesystem instead.
type StorageConfig struct {
	S3EndpointURL     string `env:"S3_ENDPOINT_URL"`
	S3AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	S3Region          string `env:"AWS_REGION" envDefault:"us-east-1"`
	DocumentBucket    string `env:"DOCUMENT_BUCKET_NAME" envDefault:"documents"`
	LocalStorageDir   string `env:"LOCAL_STORAGE_DIR" envDefault:"./thinktank-data/storage"`
}

func NewObjectStore(cfg StorageConfig) (storage.ObjectStore, error) {
	if cfg.S3EndpointURL == "" {
		return storage.NewLocalObjectStore(cfg.LocalStorageDir)
	}
	return storage.NewS3ObjectStore(storage.S3ClientConfig{
		Endpoint:        cfg.S3EndpointURL,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
		Bucket:          cfg.DocumentBucket,
	})
}
