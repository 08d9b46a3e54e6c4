package stateart

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/vango-dev/stateart/internal/errors"
)

// Storage persists store snapshots by key. Implementations live in the
// persist package.
type Storage interface {
	// Load returns the data saved under key, or ErrNotFound.
	Load(ctx context.Context, key string) ([]byte, error)

	// Save stores data under key, replacing any previous value.
	Save(ctx context.Context, key string, data []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists the stored keys, sorted.
	Keys(ctx context.Context) ([]string, error)
}

// Load replaces the state with the snapshot persisted under StorageKey,
// then runs OnStorageLoaded. Fields absent from the snapshot keep their
// current values. A missing snapshot or a registry without storage is not
// an error.
func (s *Store[S]) Load(ctx context.Context) error {
	storage := s.registry.storage
	if storage == nil {
		return nil
	}

	data, err := storage.Load(ctx, s.StorageKey())
	if stderrors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return errors.New("E080").WithStore(s.name).Wrap(err)
	}

	// Decode onto a deep copy of the current state so that absent fields
	// survive and the live state is only touched inside the dispatcher.
	current, err := json.Marshal(s.Snapshot())
	if err != nil {
		return errors.New("E083").WithStore(s.name).Wrap(err)
	}
	var next S
	if err := json.Unmarshal(current, &next); err != nil {
		return errors.New("E082").WithStore(s.name).Wrap(err)
	}
	if err := json.Unmarshal(data, &next); err != nil {
		return errors.New("E082").WithStore(s.name).Wrap(err)
	}

	if err := s.dispatch("load", func(p *S) error {
		*p = next
		return nil
	}, false); err != nil {
		return err
	}

	s.registry.logger.Debug("store loaded", "store", s.name, "key", s.StorageKey(), "bytes", len(data))
	if s.onStorageLoaded != nil {
		s.onStorageLoaded(s.Snapshot(), s.Dispatch)
	}
	return nil
}

// Save writes the current state under StorageKey. A registry without
// storage makes it a no-op.
func (s *Store[S]) Save(ctx context.Context) error {
	storage := s.registry.storage
	if storage == nil {
		return nil
	}

	data, err := json.Marshal(s.Snapshot())
	if err != nil {
		return errors.New("E083").WithStore(s.name).Wrap(err)
	}
	if err := storage.Save(ctx, s.StorageKey(), data); err != nil {
		return errors.New("E081").WithStore(s.name).Wrap(err)
	}
	return nil
}

// autoSave persists after a dispatch. The in-memory state stays
// authoritative: failures are logged, not returned.
func (s *Store[S]) autoSave() {
	ctx, cancel := context.WithTimeout(context.Background(), s.registry.saveTimeout)
	defer cancel()
	if err := s.Save(ctx); err != nil {
		s.registry.logger.Warn("store save failed", "store", s.name, "error", err)
	}
}
