package bundle

import (
	"strings"
	"testing"

	"github.com/botforge/botforge/internal/domain/corpus"
)

func TestParseNLUSections(t *testing.T) {
	data := []byte(`<!-- exported corpus -->
## intent:greet
- hello
- hi there

## intent:book_flight
- book a flight to [paris](city)

## synonym:new york
- nyc
- big apple

## lookup:cities
- paris
- tokyo

## regex:zip
- \d{5}
`)
	nlu, err := parseNLU(data)
	if err != nil {
		t.Fatalf("parseNLU failed: %v", err)
	}

	if len(nlu.Intents) != 2 {
		t.Fatalf("expected 2 intents, got %d", len(nlu.Intents))
	}
	greet := nlu.Intents[0]
	if greet.Intent != "greet" || len(greet.Examples) != 2 {
		t.Errorf("unexpected greet block %+v", greet)
	}

	book := nlu.Intents[1]
	if len(book.Examples) != 1 {
		t.Fatalf("expected 1 example, got %d", len(book.Examples))
	}
	example := book.Examples[0]
	if example.Text != "book a flight to paris" {
		t.Errorf("annotation not stripped: %q", example.Text)
	}
	if len(example.Entities) != 1 {
		t.Fatalf("expected 1 entity, got %d", len(example.Entities))
	}
	ref := example.Entities[0]
	if ref.Entity != "city" || ref.Value != "paris" {
		t.Errorf("unexpected entity %+v", ref)
	}
	if example.Text[ref.Start:ref.End] != "paris" {
		t.Errorf("offsets [%d:%d] do not cover the span", ref.Start, ref.End)
	}

	if got := nlu.Synonyms["new york"]; len(got) != 2 || got[0] != "nyc" {
		t.Errorf("unexpected synonyms %v", got)
	}
	if got := nlu.Lookups["cities"]; len(got) != 2 {
		t.Errorf("unexpected lookups %v", got)
	}
	if got := nlu.Regexes["zip"]; len(got) != 1 || got[0] != `\d{5}` {
		t.Errorf("unexpected regexes %v", got)
	}
}

func TestParseNLUJSONAnnotation(t *testing.T) {
	data := []byte(`## intent:order
- I want a [coke]{"entity": "drink", "value": "coca cola"} please
`)
	nlu, err := parseNLU(data)
	if err != nil {
		t.Fatalf("parseNLU failed: %v", err)
	}
	example := nlu.Intents[0].Examples[0]
	if example.Text != "I want a coke please" {
		t.Errorf("annotation not stripped: %q", example.Text)
	}
	ref := example.Entities[0]
	if ref.Entity != "drink" || ref.Value != "coca cola" {
		t.Errorf("unexpected entity %+v", ref)
	}
	if example.Text[ref.Start:ref.End] != "coke" {
		t.Errorf("offsets should cover the surface span, got %q", example.Text[ref.Start:ref.End])
	}
}

func TestParseNLUMultipleAnnotationsInOneExample(t *testing.T) {
	data := []byte(`## intent:travel
- from [london](origin) to [paris](destination)
`)
	nlu, err := parseNLU(data)
	if err != nil {
		t.Fatalf("parseNLU failed: %v", err)
	}
	example := nlu.Intents[0].Examples[0]
	if example.Text != "from london to paris" {
		t.Errorf("unexpected text %q", example.Text)
	}
	if len(example.Entities) != 2 {
		t.Fatalf("expected 2 entities, got %d", len(example.Entities))
	}
	for _, ref := range example.Entities {
		if example.Text[ref.Start:ref.End] != ref.Value {
			t.Errorf("entity %q offsets do not match value", ref.Entity)
		}
	}
}

func TestParseNLUErrors(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"header without name", "## intent\n- hi\n"},
		{"unknown section", "## widget:thing\n- hi\n"},
		{"item outside section", "- hi\n"},
		{"non-list line", "## intent:greet\nhello\n"},
		{"bad json annotation", "## intent:a\n- a [b]{entity: broken}\n"},
	}
	for _, tc := range cases {
		if _, err := parseNLU([]byte(tc.data)); err == nil {
			t.Errorf("%s: expected parse error", tc.name)
		}
	}
}

func TestSerializeNLURoundtrip(t *testing.T) {
	nlu := &corpus.NLUData{
		Intents: []corpus.IntentExamples{
			{Intent: "book_flight", Examples: []corpus.ParsedExample{
				{Text: "book a flight to paris", Entities: []corpus.EntityRef{
					{Start: 17, End: 22, Value: "paris", Entity: "city"},
				}},
				{Text: "I want a coke please", Entities: []corpus.EntityRef{
					{Start: 9, End: 13, Value: "coca cola", Entity: "drink"},
				}},
			}},
		},
		Synonyms: map[string][]string{"new york": {"nyc"}},
		Lookups:  map[string][]string{"cities": {"paris"}},
		Regexes:  map[string][]string{"zip": {`\d{5}`}},
	}

	serialized := serializeNLU(nlu)
	text := string(serialized)
	if !strings.Contains(text, "[paris](city)") {
		t.Errorf("plain annotation missing:\n%s", text)
	}
	if !strings.Contains(text, `[coke]{"entity": "drink", "value": "coca cola"}`) {
		t.Errorf("json annotation missing:\n%s", text)
	}

	reparsed, err := parseNLU(serialized)
	if err != nil {
		t.Fatalf("reparse failed: %v", err)
	}
	if len(reparsed.Intents) != 1 || len(reparsed.Intents[0].Examples) != 2 {
		t.Fatalf("roundtrip lost examples: %+v", reparsed.Intents)
	}
	first := reparsed.Intents[0].Examples[0]
	if first.Text != "book a flight to paris" || first.Entities[0].Value != "paris" {
		t.Errorf("roundtrip changed first example: %+v", first)
	}
	second := reparsed.Intents[0].Examples[1]
	if second.Entities[0].Value != "coca cola" || second.Text != "I want a coke please" {
		t.Errorf("roundtrip changed second example: %+v", second)
	}
}
