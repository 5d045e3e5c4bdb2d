package modelstore

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/botforge/botforge/internal/domain/corpus"
)

func TestLatestModelPathNeverTrained(t *testing.T) {
	store := NewStore(t.TempDir())
	path, err := store.LatestModelPath("ghost-bot")
	if err != nil {
		t.Fatalf("LatestModelPath failed: %v", err)
	}
	if path != "" {
		t.Errorf("expected empty path for untrained bot, got %q", path)
	}
	if store.HasModel("ghost-bot") {
		t.Error("HasModel should be false for untrained bot")
	}
}

func TestLatestModelPathPicksNewest(t *testing.T) {
	dir := t.TempDir()
	botDir := filepath.Join(dir, "bot-a")
	if err := os.MkdirAll(botDir, 0o755); err != nil {
		t.Fatal(err)
	}

	old := filepath.Join(botDir, "1000.tar.gz")
	newer := filepath.Join(botDir, "2000.tar.gz")
	stray := filepath.Join(botDir, "notes.txt")
	for _, path := range []string{old, newer, stray} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	base := time.Now().Add(-time.Hour)
	if err := os.Chtimes(old, base, base); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(stray, base.Add(2*time.Hour), base.Add(2*time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(newer, base.Add(time.Hour), base.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}

	store := NewStore(dir)
	path, err := store.LatestModelPath("bot-a")
	if err != nil {
		t.Fatalf("LatestModelPath failed: %v", err)
	}
	if path != newer {
		t.Errorf("expected %q, got %q", newer, path)
	}
	if !store.HasModel("bot-a") {
		t.Error("HasModel should be true")
	}
}

func TestSaveArtifactWritesBundleArchive(t *testing.T) {
	store := NewStore(t.TempDir())
	files := corpus.BundleFiles{
		NLU:     []byte("## intent:greet\n- hi\n"),
		Domain:  []byte("intents:\n  - greet\n"),
		Stories: []byte("## greet\n* greet\n- utter_greet\n"),
	}

	path, err := store.SaveArtifact("bot-a", files)
	if err != nil {
		t.Fatalf("SaveArtifact failed: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open artefact: %v", err)
	}
	defer file.Close()
	gz, err := gzip.NewReader(file)
	if err != nil {
		t.Fatalf("artefact is not gzip: %v", err)
	}
	entries := map[string]string{}
	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("read artefact: %v", err)
		}
		content, err := io.ReadAll(tr)
		if err != nil {
			t.Fatalf("read entry %s: %v", header.Name, err)
		}
		entries[header.Name] = string(content)
	}

	for _, name := range []string{"data/nlu.md", "domain.yml", "data/stories.md", "config.yml"} {
		if _, ok := entries[name]; !ok {
			t.Errorf("artefact missing entry %s", name)
		}
	}
	if entries["data/nlu.md"] != string(files.NLU) {
		t.Errorf("nlu content changed: %q", entries["data/nlu.md"])
	}
	if entries["config.yml"] != "" {
		t.Errorf("empty config should produce an empty entry, got %q", entries["config.yml"])
	}

	latest, err := store.LatestModelPath("bot-a")
	if err != nil || latest != path {
		t.Errorf("fresh artefact should be the latest: %q vs %q (%v)", latest, path, err)
	}
}
