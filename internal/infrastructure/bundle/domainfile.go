package bundle

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/botforge/botforge/internal/domain/corpus"
)

type domainFile struct {
	Intents       []string                 `yaml:"intents,omitempty"`
	Entities      []string                 `yaml:"entities,omitempty"`
	Slots         map[string]slotDef       `yaml:"slots,omitempty"`
	Responses     map[string][]responseDef `yaml:"responses,omitempty"`
	Templates     map[string][]responseDef `yaml:"templates,omitempty"`
	Actions       []string                 `yaml:"actions,omitempty"`
	Forms         []string                 `yaml:"forms,omitempty"`
	SessionConfig *sessionConfigDef        `yaml:"session_config,omitempty"`
}

type slotDef struct {
	Type            string   `yaml:"type"`
	InitialValue    any      `yaml:"initial_value,omitempty"`
	ValueResetDelay *int     `yaml:"value_reset_delay,omitempty"`
	AutoFill        *bool    `yaml:"auto_fill,omitempty"`
	MinValue        *float64 `yaml:"min_value,omitempty"`
	MaxValue        *float64 `yaml:"max_value,omitempty"`
	Values          []string `yaml:"values,omitempty"`
}

type responseDef struct {
	Text    string         `yaml:"text,omitempty"`
	Image   string         `yaml:"image,omitempty"`
	Channel string         `yaml:"channel,omitempty"`
	Buttons []buttonDef    `yaml:"buttons,omitempty"`
	Custom  map[string]any `yaml:"custom,omitempty"`
}

type buttonDef struct {
	Title   string `yaml:"title"`
	Payload string `yaml:"payload"`
}

type sessionConfigDef struct {
	SessionExpirationTime int  `yaml:"session_expiration_time"`
	CarryOverSlots        bool `yaml:"carry_over_slots"`
}

func parseDomain(data []byte) (*corpus.DomainData, error) {
	var file domainFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	// templates is the legacy key for responses
	responses := file.Responses
	if len(responses) == 0 {
		responses = file.Templates
	}

	domain := &corpus.DomainData{
		Intents:   file.Intents,
		Entities:  file.Entities,
		Actions:   file.Actions,
		Forms:     file.Forms,
		Responses: map[string][]corpus.Response{},
	}
	for name, def := range file.Slots {
		autoFill := true
		if def.AutoFill != nil {
			autoFill = *def.AutoFill
		}
		domain.Slots = append(domain.Slots, corpus.Slot{
			Name:            name,
			Type:            corpus.SlotType(def.Type),
			InitialValue:    def.InitialValue,
			ValueResetDelay: def.ValueResetDelay,
			AutoFill:        autoFill,
			MinValue:        def.MinValue,
			MaxValue:        def.MaxValue,
			Values:          def.Values,
		})
	}
	sort.Slice(domain.Slots, func(i, j int) bool { return domain.Slots[i].Name < domain.Slots[j].Name })

	for name, defs := range responses {
		for _, def := range defs {
			response := corpus.Response{Name: name}
			if len(def.Custom) > 0 {
				response.Custom = &corpus.ResponseCustom{Custom: def.Custom}
			} else {
				text := corpus.ResponseText{Text: def.Text, Image: def.Image, Channel: def.Channel}
				for _, button := range def.Buttons {
					text.Buttons = append(text.Buttons, corpus.Button{Title: button.Title, Payload: button.Payload})
				}
				response.Text = &text
			}
			domain.Responses[name] = append(domain.Responses[name], response)
		}
	}
	if file.SessionConfig != nil {
		domain.SessionConfig = &corpus.SessionConfig{
			SessionExpirationTime: file.SessionConfig.SessionExpirationTime,
			CarryOverSlots:        file.SessionConfig.CarryOverSlots,
		}
	}
	return domain, nil
}

func serializeDomain(domain *corpus.DomainData) ([]byte, error) {
	file := domainFile{
		Intents:  domain.Intents,
		Entities: domain.Entities,
		Actions:  domain.Actions,
		Forms:    domain.Forms,
	}
	if len(domain.Slots) > 0 {
		file.Slots = map[string]slotDef{}
		for _, slot := range domain.Slots {
			autoFill := slot.AutoFill
			file.Slots[slot.Name] = slotDef{
				Type:            string(slot.Type),
				InitialValue:    slot.InitialValue,
				ValueResetDelay: slot.ValueResetDelay,
				AutoFill:        &autoFill,
				MinValue:        slot.MinValue,
				MaxValue:        slot.MaxValue,
				Values:          slot.Values,
			}
		}
	}
	if len(domain.Responses) > 0 {
		file.Responses = map[string][]responseDef{}
		for name, responses := range domain.Responses {
			for _, response := range responses {
				var def responseDef
				switch {
				case response.Custom != nil:
					def.Custom = response.Custom.Custom
				case response.Text != nil:
					def.Text = response.Text.Text
					def.Image = response.Text.Image
					def.Channel = response.Text.Channel
					for _, button := range response.Text.Buttons {
						def.Buttons = append(def.Buttons, buttonDef{Title: button.Title, Payload: button.Payload})
					}
				default:
					return nil, fmt.Errorf("response %q has neither text nor custom content", name)
				}
				file.Responses[name] = append(file.Responses[name], def)
			}
		}
	}
	if domain.SessionConfig != nil {
		file.SessionConfig = &sessionConfigDef{
			SessionExpirationTime: domain.SessionConfig.SessionExpirationTime,
			CarryOverSlots:        domain.SessionConfig.CarryOverSlots,
		}
	}
	return yaml.Marshal(&file)
}

type configFile struct {
	Language string           `yaml:"language"`
	Pipeline []map[string]any `yaml:"pipeline,omitempty"`
	Policies []map[string]any `yaml:"policies,omitempty"`
}

func parseConfig(data []byte) (*corpus.PipelineConfig, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var file configFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	return &corpus.PipelineConfig{
		Language: file.Language,
		Pipeline: file.Pipeline,
		Policies: file.Policies,
	}, nil
}

func serializeConfig(config *corpus.PipelineConfig) ([]byte, error) {
	if config == nil {
		return nil, nil
	}
	return yaml.Marshal(&configFile{
		Language: config.Language,
		Pipeline: config.Pipeline,
		Policies: config.Policies,
	})
}
