// Package bundle parses and serialises the four-file training bundle: the
// markdown NLU corpus, the YAML domain, the markdown stories and the YAML
// pipeline config.
package bundle

import (
	"fmt"
	"sort"

	"github.com/botforge/botforge/internal/domain/corpus"
)

// Codec implements corpus.BundleCodec.
type Codec struct{}

func NewCodec() *Codec {
	return &Codec{}
}

var _ corpus.BundleCodec = (*Codec)(nil)

func (c *Codec) Parse(files corpus.BundleFiles) (*corpus.Bundle, error) {
	nlu, err := parseNLU(files.NLU)
	if err != nil {
		return nil, fmt.Errorf("parse nlu: %w", err)
	}
	domain, err := parseDomain(files.Domain)
	if err != nil {
		return nil, fmt.Errorf("parse domain: %w", err)
	}
	stories, err := parseStories(files.Stories)
	if err != nil {
		return nil, fmt.Errorf("parse stories: %w", err)
	}
	config, err := parseConfig(files.Config)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &corpus.Bundle{
		NLU:     *nlu,
		Domain:  *domain,
		Stories: stories,
		Config:  config,
	}, nil
}

func (c *Codec) Serialize(bundle *corpus.Bundle) (corpus.BundleFiles, error) {
	domain, err := serializeDomain(&bundle.Domain)
	if err != nil {
		return corpus.BundleFiles{}, fmt.Errorf("serialize domain: %w", err)
	}
	config, err := serializeConfig(bundle.Config)
	if err != nil {
		return corpus.BundleFiles{}, fmt.Errorf("serialize config: %w", err)
	}
	return corpus.BundleFiles{
		NLU:     serializeNLU(&bundle.NLU),
		Domain:  domain,
		Stories: serializeStories(bundle.Stories),
		Config:  config,
	}, nil
}

// sortedKeys keeps serialised sections in a stable order.
func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
