package bundle

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/botforge/botforge/internal/domain/corpus"
)

// TemplateReader loads packaged starter bundles from a templates directory.
// Each template is a subdirectory laid out like an exported bundle:
// data/nlu.md, domain.yml, data/stories.md, config.yml.
type TemplateReader struct {
	dir string
}

func NewTemplateReader(dir string) *TemplateReader {
	return &TemplateReader{dir: dir}
}

var _ corpus.TemplateReader = (*TemplateReader)(nil)

func (t *TemplateReader) Read(name string) (corpus.BundleFiles, error) {
	if strings.ContainsAny(name, `/\`) || name == "" || name == ".." {
		return corpus.BundleFiles{}, fmt.Errorf("invalid template name %q", name)
	}
	root := filepath.Join(t.dir, name)
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return corpus.BundleFiles{}, fmt.Errorf("template %q not found", name)
	}

	var files corpus.BundleFiles
	var err error
	if files.NLU, err = readOptional(filepath.Join(root, "data", "nlu.md")); err != nil {
		return corpus.BundleFiles{}, err
	}
	if files.Domain, err = readOptional(filepath.Join(root, "domain.yml")); err != nil {
		return corpus.BundleFiles{}, err
	}
	if files.Stories, err = readOptional(filepath.Join(root, "data", "stories.md")); err != nil {
		return corpus.BundleFiles{}, err
	}
	if files.Config, err = readOptional(filepath.Join(root, "config.yml")); err != nil {
		return corpus.BundleFiles{}, err
	}
	return files, nil
}

// ListTemplates names the available template subdirectories.
func (t *TemplateReader) ListTemplates() ([]string, error) {
	entries, err := os.ReadDir(t.dir)
	if err != nil {
		return nil, fmt.Errorf("read templates dir: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

func readOptional(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
