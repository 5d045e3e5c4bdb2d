package bundle

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/botforge/botforge/internal/domain/corpus"
)

// The NLU corpus is markdown: `## intent:name` sections with one `- example`
// per line, plus `## synonym:value`, `## lookup:name` and `## regex:name`
// sections. Examples annotate entities inline as `[span](entity)` or
// `[span]{"entity": "name", "value": "canonical"}`.

var annotationPattern = regexp.MustCompile(`\[([^\]]+)\](?:\(([^)]+)\)|(\{[^}]*\}))`)

type sectionKind string

const (
	sectionIntent  sectionKind = "intent"
	sectionSynonym sectionKind = "synonym"
	sectionLookup  sectionKind = "lookup"
	sectionRegex   sectionKind = "regex"
)

func parseNLU(data []byte) (*corpus.NLUData, error) {
	nlu := &corpus.NLUData{
		Synonyms: map[string][]string{},
		Lookups:  map[string][]string{},
		Regexes:  map[string][]string{},
	}

	var kind sectionKind
	var name string
	var current *corpus.IntentExamples

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "<!--") {
			continue
		}
		if strings.HasPrefix(text, "## ") {
			if current != nil {
				nlu.Intents = append(nlu.Intents, *current)
				current = nil
			}
			header := strings.TrimSpace(strings.TrimPrefix(text, "## "))
			k, n, ok := strings.Cut(header, ":")
			if !ok {
				return nil, fmt.Errorf("line %d: section header %q has no name", line, header)
			}
			kind, name = sectionKind(strings.TrimSpace(k)), strings.TrimSpace(n)
			switch kind {
			case sectionIntent:
				current = &corpus.IntentExamples{Intent: name}
			case sectionSynonym, sectionLookup, sectionRegex:
			default:
				return nil, fmt.Errorf("line %d: unknown section kind %q", line, k)
			}
			continue
		}
		item, ok := listItem(text)
		if !ok {
			return nil, fmt.Errorf("line %d: expected list item, got %q", line, text)
		}
		switch kind {
		case sectionIntent:
			example, err := parseAnnotatedText(item)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			current.Examples = append(current.Examples, *example)
		case sectionSynonym:
			nlu.Synonyms[name] = append(nlu.Synonyms[name], item)
		case sectionLookup:
			nlu.Lookups[name] = append(nlu.Lookups[name], item)
		case sectionRegex:
			nlu.Regexes[name] = append(nlu.Regexes[name], item)
		default:
			return nil, fmt.Errorf("line %d: list item outside a section", line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if current != nil {
		nlu.Intents = append(nlu.Intents, *current)
	}
	return nlu, nil
}

func listItem(line string) (string, bool) {
	for _, prefix := range []string{"- ", "* "} {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, prefix)), true
		}
	}
	return "", false
}

// parseAnnotatedText strips inline entity annotations, returning the plain
// text and the entity spans with offsets into it.
func parseAnnotatedText(raw string) (*corpus.ParsedExample, error) {
	matches := annotationPattern.FindAllStringSubmatchIndex(raw, -1)
	if len(matches) == 0 {
		return &corpus.ParsedExample{Text: raw}, nil
	}

	var clean strings.Builder
	var entities []corpus.EntityRef
	prev := 0
	for _, m := range matches {
		clean.WriteString(raw[prev:m[0]])
		span := raw[m[2]:m[3]]
		start := clean.Len()
		clean.WriteString(span)
		end := clean.Len()
		prev = m[1]

		ref := corpus.EntityRef{Start: start, End: end, Value: span}
		if m[4] >= 0 {
			ref.Entity = raw[m[4]:m[5]]
		} else {
			var ann struct {
				Entity string `json:"entity"`
				Value  string `json:"value"`
			}
			if err := json.Unmarshal([]byte(raw[m[6]:m[7]]), &ann); err != nil {
				return nil, fmt.Errorf("bad entity annotation %q: %w", raw[m[6]:m[7]], err)
			}
			if ann.Entity == "" {
				return nil, fmt.Errorf("entity annotation %q has no entity", raw[m[6]:m[7]])
			}
			ref.Entity = ann.Entity
			if ann.Value != "" {
				ref.Value = ann.Value
			}
		}
		entities = append(entities, ref)
	}
	clean.WriteString(raw[prev:])
	return &corpus.ParsedExample{Text: clean.String(), Entities: entities}, nil
}

func serializeNLU(nlu *corpus.NLUData) []byte {
	var b strings.Builder
	for _, intent := range nlu.Intents {
		fmt.Fprintf(&b, "## intent:%s\n", intent.Intent)
		for _, example := range intent.Examples {
			fmt.Fprintf(&b, "- %s\n", annotateText(example))
		}
		b.WriteString("\n")
	}
	for _, value := range sortedKeys(nlu.Synonyms) {
		fmt.Fprintf(&b, "## synonym:%s\n", value)
		for _, form := range nlu.Synonyms[value] {
			fmt.Fprintf(&b, "- %s\n", form)
		}
		b.WriteString("\n")
	}
	for _, name := range sortedKeys(nlu.Lookups) {
		fmt.Fprintf(&b, "## lookup:%s\n", name)
		for _, element := range nlu.Lookups[name] {
			fmt.Fprintf(&b, "- %s\n", element)
		}
		b.WriteString("\n")
	}
	for _, name := range sortedKeys(nlu.Regexes) {
		fmt.Fprintf(&b, "## regex:%s\n", name)
		for _, pattern := range nlu.Regexes[name] {
			fmt.Fprintf(&b, "- %s\n", pattern)
		}
		b.WriteString("\n")
	}
	return []byte(b.String())
}

// annotateText re-inserts entity annotations into an example. Entities are
// assumed non-overlapping and ordered by start offset, which is how the
// validator stores them.
func annotateText(example corpus.ParsedExample) string {
	if len(example.Entities) == 0 {
		return example.Text
	}
	var b strings.Builder
	prev := 0
	for _, ref := range example.Entities {
		if ref.Start < prev || ref.End > len(example.Text) {
			continue
		}
		span := example.Text[ref.Start:ref.End]
		b.WriteString(example.Text[prev:ref.Start])
		if ref.Value == span {
			fmt.Fprintf(&b, "[%s](%s)", span, ref.Entity)
		} else {
			fmt.Fprintf(&b, "[%s]{\"entity\": %q, \"value\": %q}", span, ref.Entity, ref.Value)
		}
		prev = ref.End
	}
	b.WriteString(example.Text[prev:])
	return b.String()
}
