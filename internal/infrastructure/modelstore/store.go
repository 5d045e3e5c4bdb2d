// Package modelstore manages trained model artefacts on disk. Each bot owns
// a directory of timestamped tar.gz archives; the newest one is the model
// that gets served.
package modelstore

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/botforge/botforge/internal/domain/corpus"
)

// Store lays artefacts out as {dir}/{bot}/{timestamp}.tar.gz.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) botDir(bot string) string {
	return filepath.Join(s.dir, bot)
}

// LatestModelPath returns the newest artefact for a bot, or an empty string
// when the bot has never been trained.
func (s *Store) LatestModelPath(bot string) (string, error) {
	entries, err := os.ReadDir(s.botDir(bot))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read model dir: %w", err)
	}

	var latest string
	var latestMod time.Time
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".tar.gz") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().After(latestMod) {
			latest = filepath.Join(s.botDir(bot), entry.Name())
			latestMod = info.ModTime()
		}
	}
	return latest, nil
}

// HasModel reports whether the bot has at least one trained artefact.
func (s *Store) HasModel(bot string) bool {
	path, err := s.LatestModelPath(bot)
	return err == nil && path != ""
}

// SaveArtifact writes a training bundle snapshot as a new timestamped
// artefact and returns its path.
func (s *Store) SaveArtifact(bot string, files corpus.BundleFiles) (string, error) {
	if err := os.MkdirAll(s.botDir(bot), 0o755); err != nil {
		return "", fmt.Errorf("create model dir: %w", err)
	}
	path := filepath.Join(s.botDir(bot), fmt.Sprintf("%d.tar.gz", time.Now().UnixNano()))

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create artefact: %w", err)
	}
	defer file.Close()

	gz := gzip.NewWriter(file)
	tw := tar.NewWriter(gz)
	for name, content := range map[string][]byte{
		"data/nlu.md":     files.NLU,
		"domain.yml":      files.Domain,
		"data/stories.md": files.Stories,
		"config.yml":      files.Config,
	} {
		header := &tar.Header{
			Name:    name,
			Mode:    0o644,
			Size:    int64(len(content)),
			ModTime: time.Now(),
		}
		if err := tw.WriteHeader(header); err != nil {
			return "", fmt.Errorf("write artefact header: %w", err)
		}
		if _, err := tw.Write(content); err != nil {
			return "", fmt.Errorf("write artefact entry: %w", err)
		}
	}
	if err := tw.Close(); err != nil {
		return "", fmt.Errorf("finalise artefact: %w", err)
	}
	if err := gz.Close(); err != nil {
		return "", fmt.Errorf("finalise artefact: %w", err)
	}
	return path, nil
}
