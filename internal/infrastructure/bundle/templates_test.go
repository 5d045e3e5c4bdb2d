package bundle

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemplate(t *testing.T, dir, name string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(dir, name, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestTemplateReaderRead(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "Hi-Hello", map[string]string{
		"data/nlu.md":     "## intent:greet\n- hi\n",
		"domain.yml":      "intents:\n  - greet\n",
		"data/stories.md": "## greet\n* greet\n- utter_greet\n",
	})

	reader := NewTemplateReader(dir)
	files, err := reader.Read("Hi-Hello")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(files.NLU) == 0 || len(files.Domain) == 0 || len(files.Stories) == 0 {
		t.Errorf("template files not read: %+v", files)
	}
	// config.yml is absent from this template and that is fine
	if files.Config != nil {
		t.Errorf("missing config.yml should read as nil, got %q", files.Config)
	}
}

func TestTemplateReaderRejectsBadNames(t *testing.T) {
	reader := NewTemplateReader(t.TempDir())
	for _, name := range []string{"", "..", "../etc", `a\b`, "a/b"} {
		if _, err := reader.Read(name); err == nil {
			t.Errorf("name %q should be rejected", name)
		}
	}
}

func TestTemplateReaderUnknownTemplate(t *testing.T) {
	reader := NewTemplateReader(t.TempDir())
	if _, err := reader.Read("nope"); err == nil {
		t.Fatal("unknown template should error")
	}
}

func TestListTemplates(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "Hi-Hello", map[string]string{"domain.yml": "intents: [greet]\n"})
	writeTemplate(t, dir, "GPT-FAQ", map[string]string{"domain.yml": "intents: [ask]\n"})
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	names, err := NewTemplateReader(dir).ListTemplates()
	if err != nil {
		t.Fatalf("ListTemplates failed: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("expected 2 templates, got %v", names)
	}
	for _, name := range names {
		if name != "Hi-Hello" && name != "GPT-FAQ" {
			t.Errorf("unexpected template %q", name)
		}
	}
}
