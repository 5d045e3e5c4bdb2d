package bundle

import (
	"strings"
	"testing"

	"github.com/botforge/botforge/internal/domain/corpus"
)

func TestParseDomain(t *testing.T) {
	data := []byte(`
intents:
  - greet
  - order_pizza
entities:
  - size
slots:
  size:
    type: categorical
    values: [small, large]
  rating:
    type: float
    min_value: 0.0
    max_value: 5.0
    auto_fill: false
responses:
  utter_greet:
    - text: hello there
      buttons:
        - title: hi
          payload: /greet
  utter_offer:
    - custom:
        kind: card
actions:
  - action_check_order
forms:
  - pizza_form
session_config:
  session_expiration_time: 45
  carry_over_slots: false
`)
	domain, err := parseDomain(data)
	if err != nil {
		t.Fatalf("parseDomain failed: %v", err)
	}
	if len(domain.Intents) != 2 || len(domain.Entities) != 1 {
		t.Errorf("unexpected intents/entities: %+v / %+v", domain.Intents, domain.Entities)
	}

	if len(domain.Slots) != 2 {
		t.Fatalf("expected 2 slots, got %+v", domain.Slots)
	}
	// slots come back sorted by name for deterministic output
	if domain.Slots[0].Name != "rating" || domain.Slots[1].Name != "size" {
		t.Errorf("slots not sorted by name: %+v", domain.Slots)
	}
	rating := domain.Slots[0]
	if rating.Type != corpus.SlotTypeFloat || rating.AutoFill {
		t.Errorf("unexpected rating slot %+v", rating)
	}
	if rating.MinValue == nil || *rating.MinValue != 0 || rating.MaxValue == nil || *rating.MaxValue != 5 {
		t.Errorf("float bounds lost: %+v", rating)
	}
	size := domain.Slots[1]
	if !size.AutoFill {
		t.Error("auto_fill should default to true when absent")
	}
	if len(size.Values) != 2 {
		t.Errorf("categorical values lost: %+v", size)
	}

	greet := domain.Responses["utter_greet"]
	if len(greet) != 1 || greet[0].Text == nil || greet[0].Text.Text != "hello there" {
		t.Fatalf("unexpected utter_greet: %+v", greet)
	}
	if len(greet[0].Text.Buttons) != 1 || greet[0].Text.Buttons[0].Payload != "/greet" {
		t.Errorf("buttons lost: %+v", greet[0].Text)
	}
	offer := domain.Responses["utter_offer"]
	if len(offer) != 1 || offer[0].Custom == nil || offer[0].Custom.Custom["kind"] != "card" {
		t.Errorf("custom response lost: %+v", offer)
	}

	if domain.SessionConfig == nil || domain.SessionConfig.SessionExpirationTime != 45 || domain.SessionConfig.CarryOverSlots {
		t.Errorf("unexpected session config %+v", domain.SessionConfig)
	}
}

func TestParseDomainTemplatesAlias(t *testing.T) {
	data := []byte(`
templates:
  utter_bye:
    - text: goodbye
`)
	domain, err := parseDomain(data)
	if err != nil {
		t.Fatalf("parseDomain failed: %v", err)
	}
	bye := domain.Responses["utter_bye"]
	if len(bye) != 1 || bye[0].Text == nil || bye[0].Text.Text != "goodbye" {
		t.Errorf("legacy templates key not honoured: %+v", domain.Responses)
	}
}

func TestSerializeDomainRoundtrip(t *testing.T) {
	delay := 30
	domain := &corpus.DomainData{
		Intents:  []string{"greet"},
		Entities: []string{"city"},
		Slots: []corpus.Slot{
			{Name: "city", Type: corpus.SlotTypeText, AutoFill: false, ValueResetDelay: &delay},
		},
		Responses: map[string][]corpus.Response{
			"utter_greet": {
				{Name: "utter_greet", Text: &corpus.ResponseText{Text: "hi"}},
				{Name: "utter_greet", Custom: &corpus.ResponseCustom{Custom: map[string]any{"kind": "card"}}},
			},
		},
		Actions:       []string{"action_lookup"},
		Forms:         []string{"city_form"},
		SessionConfig: &corpus.SessionConfig{SessionExpirationTime: 60, CarryOverSlots: true},
	}

	data, err := serializeDomain(domain)
	if err != nil {
		t.Fatalf("serializeDomain failed: %v", err)
	}
	reparsed, err := parseDomain(data)
	if err != nil {
		t.Fatalf("reparse failed: %v", err)
	}
	if len(reparsed.Slots) != 1 || reparsed.Slots[0].AutoFill {
		t.Errorf("auto_fill=false lost in roundtrip: %+v", reparsed.Slots)
	}
	if reparsed.Slots[0].ValueResetDelay == nil || *reparsed.Slots[0].ValueResetDelay != 30 {
		t.Errorf("value_reset_delay lost: %+v", reparsed.Slots[0])
	}
	variants := reparsed.Responses["utter_greet"]
	if len(variants) != 2 {
		t.Fatalf("expected 2 response variants, got %+v", variants)
	}
	var sawText, sawCustom bool
	for _, v := range variants {
		if v.Text != nil && v.Text.Text == "hi" {
			sawText = true
		}
		if v.Custom != nil {
			sawCustom = true
		}
	}
	if !sawText || !sawCustom {
		t.Errorf("variant shapes lost: %+v", variants)
	}
	if reparsed.SessionConfig == nil || !reparsed.SessionConfig.CarryOverSlots {
		t.Errorf("session config lost: %+v", reparsed.SessionConfig)
	}
}

func TestSerializeDomainRejectsEmptyResponse(t *testing.T) {
	domain := &corpus.DomainData{
		Responses: map[string][]corpus.Response{
			"utter_broken": {{Name: "utter_broken"}},
		},
	}
	if _, err := serializeDomain(domain); err == nil {
		t.Fatal("expected error for response with neither text nor custom")
	}
}

func TestParseConfig(t *testing.T) {
	config, err := parseConfig(nil)
	if err != nil {
		t.Fatalf("empty config should parse: %v", err)
	}
	if config != nil {
		t.Fatalf("empty config should yield nil, got %+v", config)
	}

	config, err = parseConfig([]byte(`
language: en
pipeline:
  - name: WhitespaceTokenizer
policies:
  - name: MemoizationPolicy
`))
	if err != nil {
		t.Fatalf("parseConfig failed: %v", err)
	}
	if config.Language != "en" || len(config.Pipeline) != 1 || len(config.Policies) != 1 {
		t.Errorf("unexpected config %+v", config)
	}
	if config.Pipeline[0]["name"] != "WhitespaceTokenizer" {
		t.Errorf("pipeline component lost: %+v", config.Pipeline)
	}
}

func TestSerializeConfig(t *testing.T) {
	data, err := serializeConfig(nil)
	if err != nil || data != nil {
		t.Fatalf("nil config should serialise to nothing, got %q / %v", data, err)
	}

	data, err = serializeConfig(&corpus.PipelineConfig{Language: "de"})
	if err != nil {
		t.Fatalf("serializeConfig failed: %v", err)
	}
	if !strings.Contains(string(data), "language: de") {
		t.Errorf("language missing from output:\n%s", data)
	}
}
