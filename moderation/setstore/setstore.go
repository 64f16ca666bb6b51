package setstore

import (
	"context"
	"encoding/json"
	"io"
	"os"
)

// Named sets of normalized lowercase strings (banned words, banned links).
// Read-mostly: the engine enumerates members on every classified message,
// while staff tooling appends new entries occasionally. Values are
// lowercased on write so lookups never need to worry about case.
type SetStore interface {
	InSet(ctx context.Context, name, val string) (bool, error)
	// Members returns the full set contents; needed for substring matching
	// against message text.
	Members(ctx context.Context, name string) ([]string, error)
	// AddToSet is append-only; adding an existing value is a no-op.
	AddToSet(ctx context.Context, name, val string) error
}

// LoadFromFileJSON seeds a store from a JSON file mapping set name to a list
// of values (the daemon's --sets-file-json flag). Works against any backend;
// existing entries are left in place.
func LoadFromFileJSON(ctx context.Context, s SetStore, p string) error {

	f, err := os.Open(p)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	raw, err := io.ReadAll(f)
	if err != nil {
		return err
	}

	var sets map[string][]string
	if err := json.Unmarshal(raw, &sets); err != nil {
		return err
	}

	for name, vals := range sets {
		for _, val := range vals {
			if err := s.AddToSet(ctx, name, val); err != nil {
				return err
			}
		}
	}
	return nil
}
