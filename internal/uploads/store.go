package uploads

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// Store persists uploaded pictures under a single directory. Saved
// names are returned relative to that directory; entity rows store
// them in their pic column.
type Store struct {
	dir string
}

// NewStore creates the pics directory if needed and returns a store
// rooted there.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create pics directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the pics directory path.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes the uploaded content under the given name and returns
// the stored filename. Path separators are stripped from the name; a
// name collision gets a random suffix instead of overwriting.
func (s *Store) Save(name string, r io.Reader) (string, error) {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "", fmt.Errorf("invalid pic name %q", name)
	}

	target := filepath.Join(s.dir, base)
	if _, err := os.Stat(target); err == nil {
		suffix, err := randomSuffix()
		if err != nil {
			return "", err
		}
		ext := filepath.Ext(base)
		base = strings.TrimSuffix(base, ext) + "-" + suffix + ext
		target = filepath.Join(s.dir, base)
	}

	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create pic file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(target)
		return "", fmt.Errorf("failed to write pic file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(target)
		return "", fmt.Errorf("failed to close pic file: %w", err)
	}

	log.Debug().Str("pic", base).Msg("Pic stored")
	return base, nil
}

func randomSuffix() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate suffix: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
