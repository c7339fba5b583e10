package transcript

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const fileExt = ".yaml"

// FileStore writes one YAML document per transcript below a root directory:
//
//	<root>/<escaped session id>/<transcript id>.yaml
type FileStore struct {
	root string
	mu   sync.Mutex
}

// NewFileStore creates the root directory if needed.
func NewFileStore(root string) (*FileStore, error) {
	if root == "" {
		return nil, errors.New("transcript: root directory is required")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("transcript: create %s: %w", root, err)
	}
	return &FileStore{root: root}, nil
}

// Root returns the directory transcripts are written to.
func (s *FileStore) Root() string { return s.root }

// Save writes the transcript atomically (temp file + rename).
func (s *FileStore) Save(t Transcript) (Transcript, error) {
	t, err := prepare(t)
	if err != nil {
		return Transcript{}, err
	}
	if !validID(t.ID) {
		return Transcript{}, fmt.Errorf("transcript: invalid id %q", t.ID)
	}

	data, err := yaml.Marshal(t)
	if err != nil {
		return Transcript{}, fmt.Errorf("transcript: encode: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.sessionDir(t.SessionID)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return Transcript{}, fmt.Errorf("transcript: %w", err)
	}

	path := filepath.Join(dir, t.ID+fileExt)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return Transcript{}, fmt.Errorf("transcript: write: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return Transcript{}, fmt.Errorf("transcript: write: %w", err)
	}

	return t, nil
}

// Get reads one transcript.
func (s *FileStore) Get(sessionID, id string) (Transcript, error) {
	if !validID(id) {
		return Transcript{}, ErrNotFound
	}
	return s.read(filepath.Join(s.sessionDir(sessionID), id+fileExt))
}

// List reads all transcripts of a session, oldest first.
func (s *FileStore) List(sessionID string) ([]Transcript, error) {
	entries, err := os.ReadDir(s.sessionDir(sessionID))
	if errors.Is(err, fs.ErrNotExist) {
		return []Transcript{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("transcript: %w", err)
	}

	out := make([]Transcript, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != fileExt {
			continue
		}
		t, err := s.read(filepath.Join(s.sessionDir(sessionID), e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	sortByEnd(out)
	return out, nil
}

// Delete removes a transcript file or returns ErrNotFound.
func (s *FileStore) Delete(sessionID, id string) error {
	if !validID(id) {
		return ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(filepath.Join(s.sessionDir(sessionID), id+fileExt))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	return err
}

func (s *FileStore) read(path string) (Transcript, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Transcript{}, ErrNotFound
	}
	if err != nil {
		return Transcript{}, fmt.Errorf("transcript: %w", err)
	}

	var t Transcript
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Transcript{}, fmt.Errorf("transcript: decode %s: %w", filepath.Base(path), err)
	}
	return t, nil
}

// sessionDir escapes the session id so platform keys such as
// "slack:C1:T9" map to a single safe directory name.
func (s *FileStore) sessionDir(sessionID string) string {
	return filepath.Join(s.root, url.QueryEscape(sessionID))
}

func validID(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\`) && id != "." && id != ".."
}
