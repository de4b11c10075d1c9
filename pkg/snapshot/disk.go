package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	docExt  = ".yaml"
	metaExt = ".meta"
)

// DiskStore stores snapshots on the local filesystem.
type DiskStore struct {
	dir string

	mu sync.Mutex
}

type diskMeta struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// NewDiskStore creates a DiskStore in dir, creating the directory if
// needed.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskStore{dir: dir}, nil
}

// Dir returns the store directory.
func (s *DiskStore) Dir() string { return s.dir }

// Save writes doc and its metadata sidecar.
func (s *DiskStore) Save(ctx context.Context, name string, doc []byte) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	id, err := NewID()
	if err != nil {
		return Snapshot{}, err
	}
	meta := diskMeta{Name: name, Size: int64(len(doc)), CreatedAt: time.Now().UTC()}
	data, err := json.Marshal(meta)
	if err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.WriteFile(s.docPath(id), doc, 0o644); err != nil {
		return Snapshot{}, err
	}
	if err := os.WriteFile(s.metaPath(id), data, 0o644); err != nil {
		os.Remove(s.docPath(id))
		return Snapshot{}, err
	}
	return Snapshot{ID: id, Name: name, Size: meta.Size, CreatedAt: meta.CreatedAt}, nil
}

// Load reads the document of id.
func (s *DiskStore) Load(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, ErrNotFound
	}
	data, err := os.ReadFile(s.docPath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

// List reads every metadata sidecar. Documents without one are listed with
// their file size and modification time.
func (s *DiskStore) List(ctx context.Context) ([]Snapshot, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var snaps []Snapshot
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, docExt) {
			continue
		}
		id := strings.TrimSuffix(name, docExt)
		if !validID(id) {
			continue
		}
		if meta, err := s.loadMeta(id); err == nil {
			snaps = append(snaps, Snapshot{ID: id, Name: meta.Name, Size: meta.Size, CreatedAt: meta.CreatedAt})
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		snaps = append(snaps, Snapshot{ID: id, Size: info.Size(), CreatedAt: info.ModTime().UTC()})
	}
	sortNewestFirst(snaps)
	return snaps, nil
}

// Delete removes the document and its sidecar.
func (s *DiskStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !validID(id) {
		return ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.docPath(id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}
	os.Remove(s.metaPath(id))
	return nil
}

func (s *DiskStore) docPath(id string) string  { return filepath.Join(s.dir, id+docExt) }
func (s *DiskStore) metaPath(id string) string { return filepath.Join(s.dir, id+metaExt) }

func (s *DiskStore) loadMeta(id string) (*diskMeta, error) {
	data, err := os.ReadFile(s.metaPath(id))
	if err != nil {
		return nil, err
	}
	var meta diskMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}
