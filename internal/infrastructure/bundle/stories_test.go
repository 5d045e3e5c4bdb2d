package bundle

import (
	"strings"
	"testing"

	"github.com/botforge/botforge/internal/domain/corpus"
)

func TestParseStories(t *testing.T) {
	data := []byte(`## greet path
* greet
- utter_greet

## order pizza
> order_start
* order_pizza{"size": "large"}
- pizza_form
- slot{"size": "large"}
- utter_confirm
> order_done
`)
	stories, err := parseStories(data)
	if err != nil {
		t.Fatalf("parseStories failed: %v", err)
	}
	if len(stories) != 2 {
		t.Fatalf("expected 2 stories, got %d", len(stories))
	}

	greet := stories[0]
	if greet.BlockName != "greet path" {
		t.Errorf("unexpected block name %q", greet.BlockName)
	}
	if len(greet.Events) != 2 ||
		greet.Events[0] != (corpus.StoryEvent{Name: "greet", Type: corpus.StoryEventUser}) ||
		greet.Events[1] != (corpus.StoryEvent{Name: "utter_greet", Type: corpus.StoryEventAction}) {
		t.Errorf("unexpected events %+v", greet.Events)
	}

	order := stories[1]
	if len(order.StartCheckpoints) != 1 || order.StartCheckpoints[0] != "order_start" {
		t.Errorf("start checkpoint missing: %+v", order.StartCheckpoints)
	}
	if len(order.EndCheckpoints) != 1 || order.EndCheckpoints[0] != "order_done" {
		t.Errorf("end checkpoint missing: %+v", order.EndCheckpoints)
	}
	if order.Events[0].Name != "order_pizza" || order.Events[0].Type != corpus.StoryEventUser {
		t.Errorf("intent payload should be stripped, got %+v", order.Events[0])
	}
	if order.Events[1].Type != corpus.StoryEventForm || order.Events[1].Name != "pizza_form" {
		t.Errorf("form suffix should yield a form event, got %+v", order.Events[1])
	}
	slot := order.Events[2]
	if slot.Type != corpus.StoryEventSlot || slot.Name != "size" || slot.Value != "large" {
		t.Errorf("unexpected slot event %+v", slot)
	}
	if order.Events[3].Type != corpus.StoryEventAction {
		t.Errorf("plain bot line should be an action, got %+v", order.Events[3])
	}
}

func TestParseStoriesErrors(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"event outside block", "* greet\n"},
		{"checkpoint outside block", "> start\n"},
		{"unrecognised line", "## a\nwhat is this\n"},
		{"bad slot json", "## a\n* greet\n- slot{broken}\n"},
	}
	for _, tc := range cases {
		if _, err := parseStories([]byte(tc.data)); err == nil {
			t.Errorf("%s: expected parse error", tc.name)
		}
	}
}

func TestSerializeStoriesRoundtrip(t *testing.T) {
	stories := []corpus.Story{
		{
			BlockName:        "order pizza",
			StartCheckpoints: []string{"order_start"},
			EndCheckpoints:   []string{"order_done"},
			Events: []corpus.StoryEvent{
				{Name: "order_pizza", Type: corpus.StoryEventUser},
				{Name: "pizza_form", Type: corpus.StoryEventForm},
				{Name: "size", Type: corpus.StoryEventSlot, Value: "large"},
				{Name: "utter_confirm", Type: corpus.StoryEventAction},
			},
		},
	}

	serialized := serializeStories(stories)
	text := string(serialized)
	if !strings.Contains(text, `- slot{"size":"large"}`) {
		t.Errorf("slot event not serialised:\n%s", text)
	}

	reparsed, err := parseStories(serialized)
	if err != nil {
		t.Fatalf("reparse failed: %v", err)
	}
	if len(reparsed) != 1 {
		t.Fatalf("roundtrip lost stories: %d", len(reparsed))
	}
	got := reparsed[0]
	if got.BlockName != "order pizza" {
		t.Errorf("block name changed: %q", got.BlockName)
	}
	if len(got.Events) != 4 {
		t.Fatalf("events changed: %+v", got.Events)
	}
	if got.Events[1].Type != corpus.StoryEventForm {
		t.Errorf("form event lost: %+v", got.Events[1])
	}
	if got.Events[2].Type != corpus.StoryEventSlot || got.Events[2].Value != "large" {
		t.Errorf("slot event lost: %+v", got.Events[2])
	}
	if len(got.StartCheckpoints) != 1 || len(got.EndCheckpoints) != 1 {
		t.Errorf("checkpoints lost: %+v / %+v", got.StartCheckpoints, got.EndCheckpoints)
	}
}
