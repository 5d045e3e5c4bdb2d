package corpus

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/botforge/botforge/internal/utils/platformerrors"
)

func newTestService() (*Service, *memRepo) {
	repo := newMemRepo()
	return NewService(repo, zerolog.Nop()), repo
}

func TestAddIntentCaseInsensitiveDuplicate(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()

	id, err := service.AddIntent(ctx, "greet", "bot-a", "tester")
	if err != nil {
		t.Fatalf("AddIntent failed: %v", err)
	}
	if id == 0 {
		t.Error("expected a row id")
	}

	_, err = service.AddIntent(ctx, "  GREET ", "bot-a", "tester")
	if !platformerrors.IsType(err, platformerrors.ErrorTypeConflict) {
		t.Errorf("expected CONFLICT for case-variant duplicate, got %v", err)
	}

	// Same name under another bot is fine.
	if _, err := service.AddIntent(ctx, "greet", "bot-b", "tester"); err != nil {
		t.Errorf("tenant isolation broken: %v", err)
	}
}

func TestAddIntentRejectsBlankName(t *testing.T) {
	service, _ := newTestService()
	_, err := service.AddIntent(context.Background(), "   ", "bot-a", "tester")
	if !platformerrors.IsType(err, platformerrors.ErrorTypeValidation) {
		t.Errorf("expected VALIDATION, got %v", err)
	}
}

func TestAddTrainingExampleRegistersEntitiesAndSlots(t *testing.T) {
	service, repo := newTestService()
	ctx := context.Background()

	text := "book a flight to paris"
	refs := []EntityRef{{Start: 17, End: 22, Value: "paris", Entity: "city"}}
	if _, err := service.AddTrainingExample(ctx, "book_flight", text, refs, "bot-a", "tester"); err != nil {
		t.Fatalf("AddTrainingExample failed: %v", err)
	}

	if intent, _ := repo.FindIntent(ctx, "bot-a", "book_flight"); intent == nil {
		t.Error("intent should be auto-created")
	}
	if entity, _ := repo.FindEntity(ctx, "bot-a", "city"); entity == nil {
		t.Error("entity should be auto-created")
	}
	slot, _ := repo.FindSlot(ctx, "bot-a", "city")
	if slot == nil {
		t.Fatal("backing slot should be auto-created")
	}
	if slot.Type != SlotTypeText || !slot.AutoFill {
		t.Errorf("backing slot should be auto-fill text, got %+v", slot)
	}
}

func TestAddTrainingExampleRejectsBadSpan(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()

	cases := []struct {
		name string
		refs []EntityRef
	}{
		{"out of range", []EntityRef{{Start: 0, End: 99, Value: "x", Entity: "e"}}},
		{"inverted", []EntityRef{{Start: 5, End: 2, Value: "x", Entity: "e"}}},
		{"value mismatch", []EntityRef{{Start: 0, End: 4, Value: "nope", Entity: "e"}}},
		{"blank entity", []EntityRef{{Start: 0, End: 4, Value: "book", Entity: " "}}},
	}
	for _, tc := range cases {
		_, err := service.AddTrainingExample(ctx, "intent", "book a flight", tc.refs, "bot-a", "tester")
		if !platformerrors.IsType(err, platformerrors.ErrorTypeValidation) {
			t.Errorf("%s: expected VALIDATION, got %v", tc.name, err)
		}
	}
}

func TestAddTrainingExampleDuplicateText(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()

	if _, err := service.AddTrainingExample(ctx, "greet", "hello there", nil, "bot-a", "tester"); err != nil {
		t.Fatal(err)
	}
	_, err := service.AddTrainingExample(ctx, "goodbye", "Hello There", nil, "bot-a", "tester")
	if !platformerrors.IsType(err, platformerrors.ErrorTypeConflict) {
		t.Errorf("expected CONFLICT for duplicate text across intents, got %v", err)
	}
}

func TestAddLookupTableRejectsDuplicateValue(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()

	ids, err := service.AddLookupTable(ctx, "cities", []string{"paris", "tokyo"}, "bot-a", "tester")
	if err != nil {
		t.Fatalf("AddLookupTable failed: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("expected one row per value, got %d", len(ids))
	}

	_, err = service.AddLookupTable(ctx, "cities", []string{"PARIS"}, "bot-a", "tester")
	if !platformerrors.IsType(err, platformerrors.ErrorTypeConflict) {
		t.Errorf("expected CONFLICT, got %v", err)
	}
}

func TestAddRegexFeatureRejectsInvalidPattern(t *testing.T) {
	service, _ := newTestService()
	_, err := service.AddRegexFeature(context.Background(), "zip", "[0-9", "bot-a", "tester")
	if !platformerrors.IsType(err, platformerrors.ErrorTypeValidation) {
		t.Errorf("expected VALIDATION for non-compiling pattern, got %v", err)
	}
}

func TestAddSlotValidation(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()

	floatSlot := &Slot{Name: "score", Type: SlotTypeFloat}
	if _, err := service.AddSlot(ctx, floatSlot, "bot-a", "tester"); err != nil {
		t.Fatalf("float slot with defaulted bounds rejected: %v", err)
	}
	if floatSlot.MinValue == nil || floatSlot.MaxValue == nil || *floatSlot.MinValue != 0.0 || *floatSlot.MaxValue != 1.0 {
		t.Errorf("float bounds should default to [0,1], got %+v", floatSlot)
	}

	minValue, maxValue := 5.0, 2.0
	badFloat := &Slot{Name: "bad", Type: SlotTypeFloat, MinValue: &minValue, MaxValue: &maxValue}
	if _, err := service.AddSlot(ctx, badFloat, "bot-a", "tester"); !platformerrors.IsType(err, platformerrors.ErrorTypeValidation) {
		t.Errorf("inverted float bounds should be rejected, got %v", err)
	}

	badCategorical := &Slot{Name: "color", Type: SlotTypeCategorical}
	if _, err := service.AddSlot(ctx, badCategorical, "bot-a", "tester"); !platformerrors.IsType(err, platformerrors.ErrorTypeValidation) {
		t.Errorf("categorical slot without values should be rejected, got %v", err)
	}

	unknown := &Slot{Name: "odd", Type: "matrix"}
	if _, err := service.AddSlot(ctx, unknown, "bot-a", "tester"); !platformerrors.IsType(err, platformerrors.ErrorTypeValidation) {
		t.Errorf("unknown slot type should be rejected, got %v", err)
	}
}

func TestAddResponseCreatesBackingAction(t *testing.T) {
	service, repo := newTestService()
	ctx := context.Background()

	response := &Response{Name: "utter_greet", Text: &ResponseText{Text: "hi!"}}
	if _, err := service.AddResponse(ctx, response, "bot-a", "tester"); err != nil {
		t.Fatalf("AddResponse failed: %v", err)
	}
	if action, _ := repo.FindAction(ctx, "bot-a", "utter_greet"); action == nil {
		t.Error("response should register a same-named action")
	}

	// Multiple responses may share a name (variants); no conflict.
	variant := &Response{Name: "utter_greet", Text: &ResponseText{Text: "hello!"}}
	if _, err := service.AddResponse(ctx, variant, "bot-a", "tester"); err != nil {
		t.Errorf("response variants should be allowed: %v", err)
	}
}

func TestAddResponseVariantValidation(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()

	both := &Response{Name: "r", Text: &ResponseText{Text: "x"}, Custom: &ResponseCustom{Custom: map[string]any{"a": 1}}}
	if _, err := service.AddResponse(ctx, both, "bot-a", "tester"); !platformerrors.IsType(err, platformerrors.ErrorTypeValidation) {
		t.Errorf("both variants set should be rejected, got %v", err)
	}

	neither := &Response{Name: "r"}
	if _, err := service.AddResponse(ctx, neither, "bot-a", "tester"); !platformerrors.IsType(err, platformerrors.ErrorTypeValidation) {
		t.Errorf("no variant set should be rejected, got %v", err)
	}

	badButton := &Response{Name: "r", Text: &ResponseText{Text: "x", Buttons: []Button{{Title: "", Payload: "/greet"}}}}
	if _, err := service.AddResponse(ctx, badButton, "bot-a", "tester"); !platformerrors.IsType(err, platformerrors.ErrorTypeValidation) {
		t.Errorf("empty button title should be rejected, got %v", err)
	}
}

func TestAddStoryShapeAndDuplicates(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()

	valid := &Story{BlockName: "greet path", Events: []StoryEvent{
		{Name: "greet", Type: StoryEventUser},
		{Name: "utter_greet", Type: StoryEventAction},
	}}
	if _, err := service.AddStory(ctx, valid, "bot-a", "tester"); err != nil {
		t.Fatalf("AddStory failed: %v", err)
	}

	sameName := &Story{BlockName: "Greet Path", Events: []StoryEvent{
		{Name: "bye", Type: StoryEventUser},
		{Name: "utter_bye", Type: StoryEventAction},
	}}
	if _, err := service.AddStory(ctx, sameName, "bot-a", "tester"); !platformerrors.IsType(err, platformerrors.ErrorTypeConflict) {
		t.Errorf("duplicate block name should conflict, got %v", err)
	}

	sameEvents := &Story{BlockName: "another name", Events: []StoryEvent{
		{Name: "GREET", Type: StoryEventUser},
		{Name: "utter_greet", Type: StoryEventAction},
	}}
	if _, err := service.AddStory(ctx, sameEvents, "bot-a", "tester"); !platformerrors.IsType(err, platformerrors.ErrorTypeConflict) {
		t.Errorf("identical event sequence should conflict, got %v", err)
	}

	badStart := &Story{BlockName: "bad start", Events: []StoryEvent{
		{Name: "utter_greet", Type: StoryEventAction},
	}}
	if _, err := service.AddStory(ctx, badStart, "bot-a", "tester"); !platformerrors.IsType(err, platformerrors.ErrorTypeValidation) {
		t.Errorf("story not starting with a user event should be rejected, got %v", err)
	}

	badEnd := &Story{BlockName: "bad end", Events: []StoryEvent{
		{Name: "greet", Type: StoryEventUser},
	}}
	if _, err := service.AddStory(ctx, badEnd, "bot-a", "tester"); !platformerrors.IsType(err, platformerrors.ErrorTypeValidation) {
		t.Errorf("story not ending with an action event should be rejected, got %v", err)
	}
}

func TestDeleteIntentWithDependencies(t *testing.T) {
	service, repo := newTestService()
	ctx := context.Background()

	if _, err := service.AddTrainingExample(ctx, "greet", "hello", nil, "bot-a", "tester"); err != nil {
		t.Fatal(err)
	}
	if _, err := service.AddTrainingExample(ctx, "greet", "hi there", nil, "bot-a", "tester"); err != nil {
		t.Fatal(err)
	}
	if _, err := service.AddTrainingExample(ctx, "bye", "goodbye", nil, "bot-a", "tester"); err != nil {
		t.Fatal(err)
	}
	story := &Story{BlockName: "greet path", Events: []StoryEvent{
		{Name: "greet", Type: StoryEventUser},
		{Name: "utter_greet", Type: StoryEventAction},
	}}
	if _, err := service.AddStory(ctx, story, "bot-a", "tester"); err != nil {
		t.Fatal(err)
	}

	if err := service.DeleteIntentWithDependencies(ctx, "greet", "bot-a", "tester"); err != nil {
		t.Fatalf("DeleteIntentWithDependencies failed: %v", err)
	}

	if intent, _ := repo.FindIntent(ctx, "bot-a", "greet"); intent != nil {
		t.Error("intent should be soft-deleted")
	}
	examples, _ := repo.ListTrainingExamples(ctx, "bot-a")
	if len(examples) != 1 || examples[0].Intent != "bye" {
		t.Errorf("only unrelated examples should survive, got %+v", examples)
	}
	stories, _ := repo.ListStories(ctx, "bot-a")
	if len(stories) != 0 {
		t.Error("dependent story should be soft-deleted")
	}

	err := service.DeleteIntentWithDependencies(ctx, "greet", "bot-a", "tester")
	if !platformerrors.IsType(err, platformerrors.ErrorTypeNotFound) {
		t.Errorf("deleting an absent intent should be NOT_FOUND, got %v", err)
	}
}

func TestGetUtteranceFromIntentOldestStoryWins(t *testing.T) {
	service, repo := newTestService()
	ctx := context.Background()

	if _, err := service.AddResponse(ctx, &Response{Name: "utter_old", Text: &ResponseText{Text: "old"}}, "bot-a", "tester"); err != nil {
		t.Fatal(err)
	}
	if _, err := service.AddResponse(ctx, &Response{Name: "utter_new", Text: &ResponseText{Text: "new"}}, "bot-a", "tester"); err != nil {
		t.Fatal(err)
	}

	older := &Story{
		Audit:     Audit{Bot: "bot-a", User: "tester", Timestamp: time.Now().UTC().Add(-time.Hour), Status: true},
		BlockName: "older",
		Events: []StoryEvent{
			{Name: "greet", Type: StoryEventUser},
			{Name: "utter_old", Type: StoryEventAction},
		},
	}
	newer := &Story{
		Audit:     Audit{Bot: "bot-a", User: "tester", Timestamp: time.Now().UTC(), Status: true},
		BlockName: "newer",
		Events: []StoryEvent{
			{Name: "greet", Type: StoryEventUser},
			{Name: "utter_new", Type: StoryEventAction},
		},
	}
	if err := repo.CreateStory(ctx, newer); err != nil {
		t.Fatal(err)
	}
	if err := repo.CreateStory(ctx, older); err != nil {
		t.Fatal(err)
	}

	utterance, err := service.GetUtteranceFromIntent(ctx, "greet", "bot-a")
	if err != nil {
		t.Fatalf("GetUtteranceFromIntent failed: %v", err)
	}
	if utterance != "utter_old" {
		t.Errorf("oldest story should win, got %q", utterance)
	}

	_, err = service.GetUtteranceFromIntent(ctx, "unknown", "bot-a")
	if !platformerrors.IsType(err, platformerrors.ErrorTypeNotFound) {
		t.Errorf("expected NOT_FOUND for intent with no story, got %v", err)
	}
}

func TestMatchIntent(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()

	if _, err := service.AddTrainingExample(ctx, "greet", "hello", nil, "bot-a", "tester"); err != nil {
		t.Fatal(err)
	}

	intent, confidence, err := service.MatchIntent(ctx, "HELLO", "bot-a")
	if err != nil {
		t.Fatalf("MatchIntent failed: %v", err)
	}
	if intent != "greet" || confidence != 1.0 {
		t.Errorf("got (%q, %v)", intent, confidence)
	}

	intent, confidence, err = service.MatchIntent(ctx, "unknown text", "bot-a")
	if err != nil {
		t.Fatalf("unmatched text must not error: %v", err)
	}
	if intent != "" || confidence != 0 {
		t.Errorf("expected empty match, got (%q, %v)", intent, confidence)
	}
}

func TestSessionConfigSingleton(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()

	if err := service.SaveSessionConfig(ctx, 60, true, "bot-a", "tester"); err != nil {
		t.Fatal(err)
	}
	if err := service.SaveSessionConfig(ctx, 120, false, "bot-a", "tester"); err != nil {
		t.Fatal(err)
	}

	cfg, err := service.GetSessionConfig(ctx, "bot-a")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SessionExpirationTime != 120 || cfg.CarryOverSlots {
		t.Errorf("second save should update in place, got %+v", cfg)
	}

	if err := service.SaveSessionConfig(ctx, 0, true, "bot-a", "tester"); !platformerrors.IsType(err, platformerrors.ErrorTypeValidation) {
		t.Errorf("non-positive expiration should be rejected, got %v", err)
	}
}

func TestSaveEndpointsValidation(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()

	bad := &Endpoints{BotEndpoint: "not a url"}
	if err := service.SaveEndpoints(ctx, bad, "bot-a", "tester"); !platformerrors.IsType(err, platformerrors.ErrorTypeValidation) {
		t.Errorf("invalid URL should be rejected, got %v", err)
	}

	good := &Endpoints{BotEndpoint: "http://runtime:5005", ActionEndpoint: "http://actions:5055"}
	if err := service.SaveEndpoints(ctx, good, "bot-a", "tester"); err != nil {
		t.Fatalf("valid endpoints rejected: %v", err)
	}

	saved, err := service.GetEndpoints(ctx, "bot-a")
	if err != nil {
		t.Fatal(err)
	}
	if saved.BotEndpoint != "http://runtime:5005" {
		t.Errorf("unexpected endpoints %+v", saved)
	}
}

func TestDeleteBotSweepsEveryCollection(t *testing.T) {
	service, repo := newTestService()
	ctx := context.Background()

	if _, err := service.AddTrainingExample(ctx, "greet", "hello", nil, "bot-a", "tester"); err != nil {
		t.Fatal(err)
	}
	if _, err := service.AddResponse(ctx, &Response{Name: "utter_greet", Text: &ResponseText{Text: "hi"}}, "bot-a", "tester"); err != nil {
		t.Fatal(err)
	}
	if _, err := service.AddIntent(ctx, "keepme", "bot-b", "tester"); err != nil {
		t.Fatal(err)
	}

	if err := service.DeleteBot(ctx, "bot-a", "tester"); err != nil {
		t.Fatalf("DeleteBot failed: %v", err)
	}

	if intents, _ := repo.ListIntents(ctx, "bot-a"); len(intents) != 0 {
		t.Error("bot-a intents should be gone")
	}
	if examples, _ := repo.ListTrainingExamples(ctx, "bot-a"); len(examples) != 0 {
		t.Error("bot-a examples should be gone")
	}
	if responses, _ := repo.ListResponses(ctx, "bot-a"); len(responses) != 0 {
		t.Error("bot-a responses should be gone")
	}
	if intents, _ := repo.ListIntents(ctx, "bot-b"); len(intents) != 1 {
		t.Error("other bots must be untouched")
	}
}
