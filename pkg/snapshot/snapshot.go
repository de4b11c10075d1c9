package snapshot

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/gofrs/uuid"

	"github.com/vango-dev/vbind/pkg/reactive"
)

// ErrNotFound is returned when a snapshot doesn't exist.
var ErrNotFound = errors.New("snapshot: not found")

// ErrInvalidDocument is returned when a document is not a mapping.
var ErrInvalidDocument = errors.New("snapshot: invalid scope document")

// Store is the interface for snapshot storage backends.
type Store interface {
	// Save stores doc under a new id.
	Save(ctx context.Context, name string, doc []byte) (Snapshot, error)

	// Load returns the document stored under id.
	Load(ctx context.Context, id string) ([]byte, error)

	// List returns every stored snapshot, newest first.
	List(ctx context.Context) ([]Snapshot, error)

	// Delete removes a snapshot. Deleting a missing snapshot is ErrNotFound.
	Delete(ctx context.Context, id string) error
}

// Snapshot describes a stored document.
type Snapshot struct {
	// ID is the unique identifier for this snapshot.
	ID string `json:"id"`

	// Name is the caller's label. Names need not be unique.
	Name string `json:"name"`

	// Size is the document size in bytes.
	Size int64 `json:"size"`

	CreatedAt time.Time `json:"created_at"`
}

// NewID returns a new snapshot id.
func NewID() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// validID reports whether id can name a snapshot. Ids are generated by
// NewID; anything else, a path in particular, is rejected.
func validID(id string) bool {
	_, err := uuid.FromString(id)
	return err == nil
}

// SaveObject encodes obj and stores it under name.
func SaveObject(ctx context.Context, store Store, name string, obj *reactive.Object) (Snapshot, error) {
	doc, err := Encode(obj)
	if err != nil {
		return Snapshot{}, err
	}
	return store.Save(ctx, name, doc)
}

// LoadObject loads and decodes the snapshot id.
func LoadObject(ctx context.Context, store Store, id string) (*reactive.Object, error) {
	doc, err := store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return Decode(doc)
}

// Latest returns the newest snapshot named name.
func Latest(ctx context.Context, store Store, name string) (Snapshot, error) {
	all, err := store.List(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	for _, s := range all {
		if s.Name == name {
			return s, nil
		}
	}
	return Snapshot{}, ErrNotFound
}

func sortNewestFirst(snaps []Snapshot) {
	sort.SliceStable(snaps, func(i, j int) bool {
		if snaps[i].CreatedAt.Equal(snaps[j].CreatedAt) {
			return snaps[i].ID < snaps[j].ID
		}
		return snaps[i].CreatedAt.After(snaps[j].CreatedAt)
	})
}
