package members

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/angelmondragon/membercards/pkg/db/models"
)

// FileStore keeps the whole collection in one JSON array file. Every
// mutation is a read-modify-write under mu; the file is replaced by rename
// so readers never observe a partial write. Sharing one file between
// processes is not supported.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store backed by path. The file and its directory
// are created on the first write.
func NewFileStore(path string) (*FileStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("members file path is required")
	}
	return &FileStore{path: path}, nil
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) List(ctx context.Context) ([]models.Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *FileStore) Count(ctx context.Context) (int64, error) {
	all, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	return int64(len(all)), nil
}

func (s *FileStore) FindByID(ctx context.Context, id string) (*models.Member, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if i := indexOf(all, id); i >= 0 {
		return &all[i], nil
	}
	return nil, ErrNotFound
}

func (s *FileStore) Append(ctx context.Context, member *models.Member) error {
	if member == nil {
		return fmt.Errorf("member is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return err
	}
	if indexOf(all, member.ID) >= 0 {
		return fmt.Errorf("member %s already exists", member.ID)
	}
	return s.save(append(all, *member))
}

func (s *FileStore) Update(ctx context.Context, id string, patch Patch) (*models.Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return nil, err
	}
	i := indexOf(all, id)
	if i < 0 {
		return nil, ErrNotFound
	}
	patch.Apply(&all[i])
	if err := s.save(all); err != nil {
		return nil, err
	}
	updated := all[i]
	return &updated, nil
}

func (s *FileStore) Remove(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return err
	}
	i := indexOf(all, id)
	if i < 0 {
		return ErrNotFound
	}
	return s.save(append(all[:i], all[i+1:]...))
}

func (s *FileStore) load() ([]models.Member, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []models.Member{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read members file: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return []models.Member{}, nil
	}

	var out []models.Member
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode members file %s: %w", s.path, err)
	}
	if out == nil {
		out = []models.Member{}
	}
	return out, nil
}

func (s *FileStore) save(all []models.Member) (err error) {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create members dir: %w", err)
	}

	payload, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("encode members: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".members-*.json")
	if err != nil {
		return fmt.Errorf("create temp members file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp members file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp members file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp members file: %w", err)
	}
	if err = os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace members file: %w", err)
	}
	return nil
}

func indexOf(all []models.Member, id string) int {
	for i := range all {
		if all[i].ID == id {
			return i
		}
	}
	return -1
}
