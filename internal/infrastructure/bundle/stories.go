package bundle

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/botforge/botforge/internal/domain/corpus"
)

// Stories are markdown: `## block name` headers, `* intent` user events,
// `- action` bot events, `- slot{"name": value}` slot events and `> name`
// checkpoints. A checkpoint before the first event of a block is a start
// checkpoint; after the last, an end checkpoint.

func parseStories(data []byte) ([]corpus.Story, error) {
	var stories []corpus.Story
	var current *corpus.Story

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "<!--") {
			continue
		}
		switch {
		case strings.HasPrefix(text, "## "):
			if current != nil {
				stories = append(stories, *current)
			}
			current = &corpus.Story{BlockName: strings.TrimSpace(strings.TrimPrefix(text, "## "))}
		case strings.HasPrefix(text, "> "):
			if current == nil {
				return nil, fmt.Errorf("line %d: checkpoint outside a story block", line)
			}
			name := strings.TrimSpace(strings.TrimPrefix(text, "> "))
			if len(current.Events) == 0 {
				current.StartCheckpoints = append(current.StartCheckpoints, name)
			} else {
				current.EndCheckpoints = append(current.EndCheckpoints, name)
			}
		case strings.HasPrefix(text, "* "):
			if current == nil {
				return nil, fmt.Errorf("line %d: event outside a story block", line)
			}
			name := strings.TrimSpace(strings.TrimPrefix(text, "* "))
			// strip any inline entity payload on the intent
			if idx := strings.IndexByte(name, '{'); idx > 0 {
				name = strings.TrimSpace(name[:idx])
			}
			current.Events = append(current.Events, corpus.StoryEvent{Name: name, Type: corpus.StoryEventUser})
		case strings.HasPrefix(text, "- "):
			if current == nil {
				return nil, fmt.Errorf("line %d: event outside a story block", line)
			}
			event, err := parseBotEvent(strings.TrimSpace(strings.TrimPrefix(text, "- ")))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			current.Events = append(current.Events, *event)
		default:
			return nil, fmt.Errorf("line %d: unrecognised story line %q", line, text)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if current != nil {
		stories = append(stories, *current)
	}
	return stories, nil
}

// parseBotEvent reads a `- ` line: `slot{"name": value}` sets a slot,
// `form_name` with a form suffix activates a form, anything else is an
// action by name.
func parseBotEvent(item string) (*corpus.StoryEvent, error) {
	if idx := strings.IndexByte(item, '{'); idx > 0 && strings.TrimSpace(item[:idx]) == "slot" {
		var payload map[string]any
		if err := json.Unmarshal([]byte(item[idx:]), &payload); err != nil {
			return nil, fmt.Errorf("bad slot event %q: %w", item, err)
		}
		for name, value := range payload {
			return &corpus.StoryEvent{Name: name, Type: corpus.StoryEventSlot, Value: value}, nil
		}
		return nil, fmt.Errorf("slot event %q has no slot", item)
	}
	if strings.HasSuffix(item, "_form") {
		return &corpus.StoryEvent{Name: item, Type: corpus.StoryEventForm}, nil
	}
	return &corpus.StoryEvent{Name: item, Type: corpus.StoryEventAction}, nil
}

func serializeStories(stories []corpus.Story) []byte {
	var b strings.Builder
	for _, story := range stories {
		fmt.Fprintf(&b, "## %s\n", story.BlockName)
		for _, name := range story.StartCheckpoints {
			fmt.Fprintf(&b, "> %s\n", name)
		}
		for _, event := range story.Events {
			switch event.Type {
			case corpus.StoryEventUser:
				fmt.Fprintf(&b, "* %s\n", event.Name)
			case corpus.StoryEventSlot:
				value, err := json.Marshal(map[string]any{event.Name: event.Value})
				if err != nil {
					continue
				}
				fmt.Fprintf(&b, "- slot%s\n", value)
			default:
				fmt.Fprintf(&b, "- %s\n", event.Name)
			}
		}
		for _, name := range story.EndCheckpoints {
			fmt.Fprintf(&b, "> %s\n", name)
		}
		b.WriteString("\n")
	}
	return []byte(b.String())
}
