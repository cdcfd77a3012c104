package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/vilas-cloud/transfer-bot/pkg/storage/s3"
	"github.com/vilas-cloud/transfer-bot/pkg/transfer"
)

var (
	cfg *Config
	svc *transfer.Service
)

// backingStoreInit builds the one S3 session used for the whole
// process lifetime and wires the transfer service on top of it.
func backingStoreInit() error {
	cred := &s3.Credentials{Region: cfg.Region}
	if s3CredentialsFile != "" {
		content, err := os.ReadFile(s3CredentialsFile)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(content, cred); err != nil {
			return err
		}
		if cred.Region == "" {
			cred.Region = cfg.Region
		}
	}

	store, err := s3.NewSession(cred)
	if err != nil {
		return fmt.Errorf("failed to create storage session, check the credentials")
	}
	svc = transfer.NewService(store)
	return nil
}
