package uploads

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/angelmondragon/membercards/pkg/config"
	pkgerrors "github.com/angelmondragon/membercards/pkg/errors"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var allowedImageTypes = []string{"image/png", "image/jpeg", "image/webp", "image/gif"}

// Store keeps member photos on local disk and hands back the public path
// they are served under.
type Store struct {
	dir       string
	urlPrefix string
	maxBytes  int64
	newID     func() string
}

// New prepares the upload directory.
func New(cfg config.UploadsConfig) (*Store, error) {
	dir := strings.TrimSpace(cfg.Dir)
	if dir == "" {
		return nil, fmt.Errorf("uploads dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir %q: %w", dir, err)
	}
	prefix := "/" + strings.Trim(strings.TrimSpace(cfg.URLPrefix), "/")
	if prefix == "/" {
		prefix = "/uploads"
	}
	return &Store{
		dir:       dir,
		urlPrefix: prefix,
		maxBytes:  cfg.MaxBytes(),
		newID:     uuid.NewString,
	}, nil
}

// Dir returns the directory photos are written to.
func (s *Store) Dir() string { return s.dir }

// URLPrefix returns the public path prefix photos are served under.
func (s *Store) URLPrefix() string { return s.urlPrefix }

// MaxBytes is the largest accepted photo.
func (s *Store) MaxBytes() int64 { return s.maxBytes }

// Save validates the image in r and persists it under a random name,
// returning the public path ("/uploads/<uuid>.<ext>").
func (s *Store) Save(ctx context.Context, r io.ReadSeeker, filename string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	limited := io.LimitReader(r, s.maxBytes+1)
	mtype, err := mimetype.DetectReader(limited)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "photo could not be read")
	}
	if !isAllowedImage(mtype) {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "photo must be an image").
			WithDetails(map[string]any{"allowed": sortedAllowed(), "received": mtype.String()})
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rewind photo")
	}

	name := s.newID() + extensionFor(filename, mtype)
	dst := filepath.Join(s.dir, name)
	f, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create photo file")
	}

	written, copyErr := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	closeErr := f.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		_ = os.Remove(dst)
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, copyErr, "write photo file")
	}
	if written > s.maxBytes {
		_ = os.Remove(dst)
		return "", tooLarge(s.maxBytes)
	}

	return path.Join(s.urlPrefix, name), nil
}

// Delete removes a previously saved photo by its public path. Paths outside
// the upload prefix are ignored.
func (s *Store) Delete(publicPath string) error {
	name, ok := strings.CutPrefix(publicPath, s.urlPrefix+"/")
	if !ok || name == "" || strings.ContainsAny(name, `/\`) {
		return nil
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove photo %q: %w", name, err)
	}
	return nil
}

func tooLarge(max int64) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "photo exceeds upload limit").
		WithDetails(map[string]any{"maxBytes": max})
}

func isAllowedImage(mtype *mimetype.MIME) bool {
	for _, allowed := range allowedImageTypes {
		if mtype.Is(allowed) {
			return true
		}
	}
	return false
}

func extensionFor(filename string, mtype *mimetype.MIME) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".webp", ".gif":
		return ext
	}
	return mtype.Extension()
}

func sortedAllowed() []string {
	out := append([]string(nil), allowedImageTypes...)
	sort.Strings(out)
	return out
}
