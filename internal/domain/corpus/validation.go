package corpus

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/botforge/botforge/internal/utils/platformerrors"
)

// normalizeName trims and lowercases a name for case-insensitive matching.
func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func requireNonBlank(ctx context.Context, field, value string) error {
	if strings.TrimSpace(value) == "" {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("%s cannot be empty or blank", field), nil)
	}
	return nil
}

// validateEntityRefs checks that every annotated span matches its value.
func validateEntityRefs(ctx context.Context, text string, entities []EntityRef) error {
	for _, ref := range entities {
		if ref.Start < 0 || ref.End > len(text) || ref.Start >= ref.End {
			return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
				fmt.Sprintf("invalid entity span [%d:%d] for text of length %d", ref.Start, ref.End, len(text)), nil)
		}
		if text[ref.Start:ref.End] != ref.Value {
			return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
				fmt.Sprintf("entity value %q does not match text span %q", ref.Value, text[ref.Start:ref.End]), nil)
		}
		if strings.TrimSpace(ref.Entity) == "" {
			return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
				"entity name cannot be empty", nil)
		}
	}
	return nil
}

// validateSlot enforces the per-type slot rules. Float slots default their
// bounds to [0.0, 1.0]; categorical slots require a non-empty values list.
func validateSlot(ctx context.Context, slot *Slot) error {
	switch slot.Type {
	case SlotTypeText, SlotTypeBool, SlotTypeList, SlotTypeUnfeaturized:
		return nil
	case SlotTypeFloat:
		if slot.MinValue == nil && slot.MaxValue == nil {
			minValue, maxValue := 0.0, 1.0
			slot.MinValue = &minValue
			slot.MaxValue = &maxValue
		}
		if slot.MinValue == nil || slot.MaxValue == nil {
			return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
				"float slot requires both min_value and max_value", nil)
		}
		if *slot.MinValue >= *slot.MaxValue {
			return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
				"float slot min_value must be less than max_value", nil)
		}
		return nil
	case SlotTypeCategorical:
		if len(slot.Values) == 0 {
			return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
				"categorical slot requires a non-empty values list", nil)
		}
		return nil
	default:
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("unknown slot type %q", slot.Type), nil)
	}
}

// validateResponse enforces exactly one content variant and non-empty buttons.
func validateResponse(ctx context.Context, response *Response) error {
	if (response.Text == nil) == (response.Custom == nil) {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"response requires exactly one of text or custom content", nil)
	}
	if response.Text != nil {
		if err := requireNonBlank(ctx, "response text", response.Text.Text); err != nil {
			return err
		}
		for _, button := range response.Text.Buttons {
			if strings.TrimSpace(button.Title) == "" || strings.TrimSpace(button.Payload) == "" {
				return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
					"response button requires non-empty title and payload", nil)
			}
		}
	}
	if response.Custom != nil && len(response.Custom.Custom) == 0 {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"custom response cannot be empty", nil)
	}
	return nil
}

// validateStory enforces the event-shape invariants.
func validateStory(ctx context.Context, story *Story) error {
	if err := requireNonBlank(ctx, "story block name", story.BlockName); err != nil {
		return err
	}
	if len(story.Events) == 0 {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"story requires at least one event", nil)
	}
	if story.Events[0].Type != StoryEventUser {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"story must begin with a user event", nil)
	}
	if story.Events[len(story.Events)-1].Type != StoryEventAction {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"story must end with an action event", nil)
	}
	for _, event := range story.Events {
		if strings.TrimSpace(event.Name) == "" {
			return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
				"story event name cannot be empty", nil)
		}
	}
	return nil
}

// validateRegexPattern requires the pattern to compile at write time.
func validateRegexPattern(ctx context.Context, pattern string) error {
	if _, err := regexp.Compile(pattern); err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("invalid regex pattern %q", pattern), err)
	}
	return nil
}

// validateEndpointURL rejects anything that does not parse as an absolute URL.
func validateEndpointURL(ctx context.Context, field, raw string) error {
	if raw == "" {
		return nil
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("%s is not a valid URL: %q", field, raw), err)
	}
	return nil
}

// storyEventsEqual reports whether two event sequences are identical; used
// for duplicate story detection.
func storyEventsEqual(a, b []StoryEvent) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Type != b[i].Type || normalizeName(a[i].Name) != normalizeName(b[i].Name) {
			return false
		}
	}
	return true
}
