package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/money-mngr/internal/ledger"
)

// Service exports snapshots to the blob store and restores them.
type Service struct {
	store ledger.Store
	blobs BlobStore
	log   zerolog.Logger
}

// NewService wires the ledger store to a blob store.
func NewService(store ledger.Store, blobs BlobStore, log zerolog.Logger) *Service {
	return &Service{store: store, blobs: blobs, log: log}
}

// Run exports every collection, serializes it and uploads one snapshot
// object. It returns the object name so callers can record where the
// backup landed.
func (s *Service) Run(ctx context.Context) (string, error) {
	snap, err := s.store.Export(ctx)
	if err != nil {
		return "", fmt.Errorf("Run: export: %w", err)
	}
	snap.Timestamp = time.Now().UTC()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("Run: marshal snapshot: %w", err)
	}

	object := fmt.Sprintf("backups/%s/%s.json",
		snap.Timestamp.Format("2006/01/02"), uuid.NewString())
	if err := s.blobs.Put(ctx, object, data); err != nil {
		return "", fmt.Errorf("Run: upload snapshot: %w", err)
	}

	s.log.Info().
		Str("object", object).
		Int("accounts", len(snap.Accounts)).
		Int("transactions", len(snap.Transactions)).
		Msg("Backup uploaded")
	return object, nil
}

// Restore downloads the named snapshot and replaces all local data with it
// in one transaction. Existing data is gone afterwards; this is the
// disaster-recovery path, not a merge.
func (s *Service) Restore(ctx context.Context, object string) error {
	data, err := s.blobs.Get(ctx, object)
	if err != nil {
		return fmt.Errorf("Restore: download snapshot: %w", err)
	}

	var snap ledger.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("Restore: unmarshal snapshot: %w", err)
	}

	if err := s.store.Replace(ctx, &snap); err != nil {
		return fmt.Errorf("Restore: replace data: %w", err)
	}

	s.log.Info().
		Str("object", object).
		Time("snapshot_time", snap.Timestamp).
		Msg("Snapshot restored")
	return nil
}
