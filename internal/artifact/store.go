package artifact

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Store manages artifact persistence under a base directory. Stored files
// get a uuid-suffixed on-disk name, so concurrent saves never collide; the
// display filename is kept in a sidecar index per session.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore creates a Store rooted at dir, creating it if needed.
// A nil logger falls back to slog.Default().
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating artifact directory: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// indexEntry is the persisted metadata for one artifact.
type indexEntry struct {
	ID        uuid.UUID `json:"id"`
	Filename  string    `json:"filename"`
	File      string    `json:"file"` // on-disk name relative to the session dir
	CreatedAt time.Time `json:"created_at"`
}

// Save stores content under (sessionID, filename). Saving an existing
// filename replaces its content.
func (s *Store) Save(sessionID uuid.UUID, filename, content string) (*Artifact, error) {
	if err := ValidateFilename(filename); err != nil {
		return nil, err
	}

	dir, err := s.sessionDir(sessionID, true)
	if err != nil {
		return nil, err
	}

	index, err := s.readIndex(dir)
	if err != nil {
		return nil, err
	}

	entry := indexEntry{
		ID:        uuid.New(),
		Filename:  filename,
		File:      "plan-" + uuid.NewString() + ".jmx",
		CreatedAt: time.Now(),
	}

	path := filepath.Join(dir, entry.File)
	if err := os.WriteFile(path, []byte(content), 0o640); err != nil {
		return nil, fmt.Errorf("writing artifact %s: %w", filename, err)
	}

	// Replace any previous entry for the same display name.
	replaced := false
	for i, e := range index {
		if e.Filename == filename {
			if err := os.Remove(filepath.Join(dir, e.File)); err != nil && !os.IsNotExist(err) {
				s.logger.Warn("removing superseded artifact file", "file", e.File, "error", err)
			}
			index[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		index = append(index, entry)
	}

	if err := s.writeIndex(dir, index); err != nil {
		return nil, err
	}

	s.logger.Debug("saved artifact",
		"session_id", sessionID,
		"filename", filename,
		"replaced", replaced)

	return &Artifact{
		ID:        entry.ID,
		SessionID: sessionID,
		Filename:  filename,
		Path:      path,
		Content:   content,
		CreatedAt: entry.CreatedAt,
	}, nil
}

// Get retrieves an artifact by session and filename.
// Returns ErrNotFound if it does not exist.
func (s *Store) Get(sessionID uuid.UUID, filename string) (*Artifact, error) {
	if err := ValidateFilename(filename); err != nil {
		return nil, err
	}

	dir, err := s.sessionDir(sessionID, false)
	if err != nil {
		return nil, ErrNotFound
	}

	index, err := s.readIndex(dir)
	if err != nil {
		return nil, err
	}

	for _, e := range index {
		if e.Filename != filename {
			continue
		}
		path := filepath.Join(dir, e.File)
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading artifact %s: %w", filename, err)
		}
		return &Artifact{
			ID:        e.ID,
			SessionID: sessionID,
			Filename:  filename,
			Path:      path,
			Content:   string(content),
			CreatedAt: e.CreatedAt,
		}, nil
	}
	return nil, ErrNotFound
}

// List returns all artifact filenames for a session, in save order.
func (s *Store) List(sessionID uuid.UUID) ([]string, error) {
	dir, err := s.sessionDir(sessionID, false)
	if err != nil {
		return nil, nil // no artifacts saved for this session yet
	}

	index, err := s.readIndex(dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(index))
	for _, e := range index {
		names = append(names, e.Filename)
	}
	return names, nil
}

// Delete removes an artifact by session and filename.
// Returns ErrNotFound if it does not exist.
func (s *Store) Delete(sessionID uuid.UUID, filename string) error {
	if err := ValidateFilename(filename); err != nil {
		return err
	}

	dir, err := s.sessionDir(sessionID, false)
	if err != nil {
		return ErrNotFound
	}

	index, err := s.readIndex(dir)
	if err != nil {
		return err
	}

	for i, e := range index {
		if e.Filename != filename {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.File)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("deleting artifact %s: %w", filename, err)
		}
		index = append(index[:i], index[i+1:]...)
		if err := s.writeIndex(dir, index); err != nil {
			return err
		}
		s.logger.Debug("deleted artifact", "session_id", sessionID, "filename", filename)
		return nil
	}
	return ErrNotFound
}

func (s *Store) sessionDir(sessionID uuid.UUID, create bool) (string, error) {
	dir := filepath.Join(s.dir, sessionID.String())
	if create {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return "", fmt.Errorf("creating session directory: %w", err)
		}
		return dir, nil
	}
	if _, err := os.Stat(dir); err != nil {
		return "", err
	}
	return dir, nil
}

func (s *Store) readIndex(dir string) ([]indexEntry, error) {
	data, err := os.ReadFile(filepath.Join(dir, "index.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading artifact index: %w", err)
	}
	var index []indexEntry
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("decoding artifact index: %w", err)
	}
	return index, nil
}

func (s *Store) writeIndex(dir string, index []indexEntry) error {
	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding artifact index: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "index.json"), data, 0o640); err != nil {
		return fmt.Errorf("writing artifact index: %w", err)
	}
	return nil
}
