package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rackline/labelscan/internal/session"
	"github.com/rackline/labelscan/internal/store"
)

// newStoreClient signs in to the table store with the credentials from
// the environment and returns a client whose tokens refresh themselves
// for as long as ctx lives.
func newStoreClient(ctx context.Context) (*store.Client, error) {
	baseURL := os.Getenv("LABELSCAN_STORE_URL")
	apiKey := os.Getenv("LABELSCAN_STORE_KEY")
	if baseURL == "" || apiKey == "" {
		return nil, fmt.Errorf("LABELSCAN_STORE_URL and LABELSCAN_STORE_KEY must be set")
	}

	creds := session.Credentials{
		Email:    os.Getenv("LABELSCAN_EMAIL"),
		Password: os.Getenv("LABELSCAN_PASSWORD"),
	}
	if creds.Email == "" || creds.Password == "" {
		return nil, fmt.Errorf("LABELSCAN_EMAIL and LABELSCAN_PASSWORD must be set")
	}

	mgr := session.NewManager(baseURL, apiKey, creds)
	if _, _, err := mgr.EnsureValid(ctx); err != nil {
		return nil, fmt.Errorf("sign-in failed: %w", err)
	}
	mgr.StartAutoRefresh(ctx)

	return store.NewClient(baseURL, apiKey, mgr), nil
}
