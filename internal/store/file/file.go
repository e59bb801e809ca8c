// Package file implements the "file" store driver: the draft state is one
// JSON document on disk, written with a write-validate-swap protocol so a
// crash mid-write never leaves a torn record, and the action log is a JSON
// array appended through the same temp-file swap.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/jensholdgaard/draft-tracker/internal/actionlog"
	"github.com/jensholdgaard/draft-tracker/internal/config"
	"github.com/jensholdgaard/draft-tracker/internal/store"
)

const (
	stateFile     = "draft_state.json"
	actionLogFile = "action_log.json"
)

func init() {
	store.Register("file", open)
}

func open(_ context.Context, cfg config.StorageConfig, clk clockwork.Clock) (*store.Repositories, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &store.Repositories{
		States:  &StateRepository{path: filepath.Join(cfg.DataDir, stateFile)},
		Actions: &ActionStore{path: filepath.Join(cfg.DataDir, actionLogFile), clock: clk},
		Closer:  nopCloser{},
		Ping: func(context.Context) error {
			_, err := os.Stat(cfg.DataDir)
			return err
		},
	}, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// StateRepository persists the DraftState aggregate as a single JSON file.
type StateRepository struct {
	path string
}

// NewStateRepository returns a repository rooted at path.
func NewStateRepository(path string) *StateRepository {
	return &StateRepository{path: path}
}

// Load reads the durable state, bootstrapping an empty state at version 1
// if the file does not exist yet.
func (r *StateRepository) Load(ctx context.Context) (*store.DraftState, error) {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		initial := &store.DraftState{
			AvailablePlayerIDs: []int{},
			Teams:              []store.Team{},
			NextToNominate:     1,
			Version:            1,
		}
		if err := r.Save(ctx, initial, false); err != nil {
			return nil, err
		}
		return initial, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading draft state: %w", err)
	}

	var state store.DraftState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%w: decoding draft state: %v", store.ErrPersistence, err)
	}
	return &state, nil
}

// Save writes the aggregate through the atomic protocol: serialize to a
// temp file, read it back to prove the write round-trips, then rename over
// the durable record. On any validation failure the temp file is removed
// and the old record stays intact.
func (r *StateRepository) Save(_ context.Context, state *store.DraftState, incrementVersion bool) error {
	if incrementVersion {
		state.Version++
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding draft state: %v", store.ErrPersistence, err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: writing temp state: %v", store.ErrPersistence, err)
	}

	if err := validateStateFile(tmp); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: validating temp state: %v", store.ErrPersistence, err)
	}

	if err := os.Rename(tmp, r.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: replacing state file: %v", store.ErrPersistence, err)
	}
	return nil
}

func validateStateFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var state store.DraftState
	return json.Unmarshal(data, &state)
}

// ActionStore appends audit entries to a JSON array file. The whole array
// is rewritten through a temp-file swap; drafts are small enough that the
// simplicity wins over an append-only segment format.
type ActionStore struct {
	path  string
	clock clockwork.Clock
}

// NewActionStore returns an action store rooted at path.
func NewActionStore(path string, clk clockwork.Clock) *ActionStore {
	return &ActionStore{path: path, clock: clk}
}

func (s *ActionStore) Append(ctx context.Context, entries ...actionlog.Entry) error {
	existing, err := s.List(ctx)
	if err != nil {
		// A corrupt log must not block the draft; start fresh.
		existing = nil
	}

	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = uuid.NewString()
		}
		if entries[i].CreatedAt.IsZero() {
			entries[i].CreatedAt = s.clock.Now().UTC()
		}
	}
	existing = append(existing, entries...)

	data, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding action log: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing temp action log: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing action log: %w", err)
	}
	return nil
}

func (s *ActionStore) List(_ context.Context) ([]actionlog.Entry, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading action log: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var entries []actionlog.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decoding action log: %w", err)
	}
	return entries, nil
}
