package supervisor

import (
	"fmt"
	"os"
	"path/filepath"
)

// ArtifactStore maps task ids to artifact files and servable URLs. The id is
// the filename stem by construction (see ResolveTaskID), so a bare existence
// probe answers "did this task ever complete" with no task table at all.
type ArtifactStore struct {
	dir       string
	urlPrefix string
	ext       string
}

// NewArtifactStore creates a store for the given artifact directory, the URL
// prefix it is served under, and the artifact file extension (".html").
func NewArtifactStore(dir, urlPrefix, ext string) *ArtifactStore {
	return &ArtifactStore{
		dir:       dir,
		urlPrefix: urlPrefix,
		ext:       ext,
	}
}

// Dir returns the artifact directory.
func (s *ArtifactStore) Dir() string {
	return s.dir
}

// Path returns the expected artifact path for a task id.
func (s *ArtifactStore) Path(id string) string {
	return filepath.Join(s.dir, id+s.ext)
}

// URL returns the servable URL for a task id's artifact.
func (s *ArtifactStore) URL(id string) string {
	return s.urlPrefix + "/" + id + s.ext
}

// Exists probes the filesystem for the task's artifact.
func (s *ArtifactStore) Exists(id string) bool {
	info, err := os.Stat(s.Path(id))
	return err == nil && !info.IsDir()
}

// URLFor returns the servable URL for an artifact path inside the store
// directory.
func (s *ArtifactStore) URLFor(path string) string {
	return s.urlPrefix + "/" + filepath.Base(path)
}

// LocateLatest returns the newest file matching pattern in dir, for jobs
// whose output name is not derivable in advance. Ties are broken arbitrarily;
// callers needing determinism should use the deterministic-id path instead.
func LocateLatest(dir, pattern string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return "", fmt.Errorf("invalid artifact pattern %q: %w", pattern, err)
	}

	var latest string
	var latestMod int64
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		if mod := info.ModTime().UnixNano(); latest == "" || mod > latestMod {
			latest = match
			latestMod = mod
		}
	}

	if latest == "" {
		return "", fmt.Errorf("%w: no files matching %q in %s", ErrNotFound, pattern, dir)
	}
	return latest, nil
}
