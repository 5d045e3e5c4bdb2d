package corpus

import (
	"archive/zip"
	"bytes"
	"context"
	"strings"

	"github.com/botforge/botforge/internal/utils/platformerrors"
)

// Importer bundles the corpus service with the file codec and template source.
type Importer struct {
	service   *Service
	codec     BundleCodec
	templates TemplateReader
}

// NewImporter creates an importer over the corpus service.
func NewImporter(service *Service, codec BundleCodec, templates TemplateReader) *Importer {
	return &Importer{service: service, codec: codec, templates: templates}
}

// Import loads a four-file bundle into the corpus. The bundle is parsed in
// full before any write; a malformed bundle aborts with no changes. With
// overwrite set, every live row of every kind is soft-deleted first. Items
// already live in the corpus are skipped, keyed per kind (example text,
// synonym value, lookup value, regex pattern, name, story block name and
// event sequence).
func (im *Importer) Import(ctx context.Context, files BundleFiles, bot, user string, overwrite bool) error {
	bundle, err := im.codec.Parse(files)
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"failed to parse training bundle", err)
	}

	if overwrite {
		for _, kind := range AllKinds {
			if _, err := im.service.repo.SoftDeleteAll(ctx, kind, bot, user); err != nil {
				return err
			}
		}
	}

	if err := im.importDomain(ctx, &bundle.Domain, bot, user); err != nil {
		return err
	}
	if err := im.importNLU(ctx, &bundle.NLU, bot, user); err != nil {
		return err
	}
	if err := im.importStories(ctx, bundle.Stories, bot, user); err != nil {
		return err
	}
	if bundle.Config != nil {
		if err := im.service.SavePipelineConfig(ctx, bundle.Config, bot, user); err != nil {
			return err
		}
	}
	return nil
}

func (im *Importer) importDomain(ctx context.Context, domain *DomainData, bot, user string) error {
	for _, name := range domain.Intents {
		if err := im.service.ensureIntent(ctx, name, bot, user); err != nil {
			return err
		}
	}
	for _, name := range domain.Entities {
		if err := im.service.ensureEntity(ctx, name, bot, user); err != nil {
			return err
		}
	}
	for i := range domain.Slots {
		slot := domain.Slots[i]
		existing, err := im.service.repo.FindSlot(ctx, bot, slot.Name)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		if _, err := im.service.AddSlot(ctx, &slot, bot, user); err != nil {
			return err
		}
	}
	for name, variants := range domain.Responses {
		existing, err := im.service.repo.ListResponsesByName(ctx, bot, name)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			continue
		}
		for i := range variants {
			variant := variants[i]
			variant.Name = name
			if _, err := im.service.AddResponse(ctx, &variant, bot, user); err != nil {
				return err
			}
		}
	}
	for _, name := range domain.Actions {
		if err := im.service.ensureAction(ctx, name, bot, user); err != nil {
			return err
		}
	}
	if domain.SessionConfig != nil {
		if err := im.service.SaveSessionConfig(ctx, domain.SessionConfig.SessionExpirationTime,
			domain.SessionConfig.CarryOverSlots, bot, user); err != nil {
			return err
		}
	}
	return nil
}

func (im *Importer) importNLU(ctx context.Context, nlu *NLUData, bot, user string) error {
	for _, block := range nlu.Intents {
		if err := im.service.ensureIntent(ctx, block.Intent, bot, user); err != nil {
			return err
		}
		for _, example := range block.Examples {
			existing, err := im.service.repo.FindTrainingExampleByText(ctx, bot, example.Text)
			if err != nil {
				return err
			}
			if existing != nil {
				continue
			}
			entities, err := im.resolveCanonicalValues(ctx, example, bot, user)
			if err != nil {
				return err
			}
			if _, err := im.service.AddTrainingExample(ctx, block.Intent, example.Text, entities, bot, user); err != nil {
				return err
			}
		}
	}
	for value, synonyms := range nlu.Synonyms {
		if len(synonyms) == 0 {
			continue
		}
		existing, err := im.service.repo.FindEntitySynonym(ctx, bot, value)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		// The synonym store keys on (bot, value); one surface form per
		// canonical value survives the import.
		if _, err := im.service.AddEntitySynonym(ctx, value, synonyms[0], bot, user); err != nil {
			return err
		}
		if dropped := synonyms[1:]; len(dropped) > 0 {
			im.service.log.Warn().Str("bot", bot).Str("value", value).Strs("dropped", dropped).
				Msg("synonym section has multiple surface forms; keeping the first")
		}
	}
	for name, values := range nlu.Lookups {
		fresh := make([]string, 0, len(values))
		for _, value := range values {
			existing, err := im.service.repo.FindLookupTableValue(ctx, bot, name, value)
			if err != nil {
				return err
			}
			if existing == nil {
				fresh = append(fresh, value)
			}
		}
		if len(fresh) == 0 {
			continue
		}
		if _, err := im.service.AddLookupTable(ctx, name, fresh, bot, user); err != nil {
			return err
		}
	}
	for name, patterns := range nlu.Regexes {
		for _, pattern := range patterns {
			existing, err := im.service.repo.FindRegexFeatureByPattern(ctx, bot, pattern)
			if err != nil {
				return err
			}
			if existing != nil {
				continue
			}
			if _, err := im.service.AddRegexFeature(ctx, name, pattern, bot, user); err != nil {
				return err
			}
		}
	}
	return nil
}

// resolveCanonicalValues reconciles annotations of the form
// `[span]{"entity": ..., "value": ...}` with the rule that an example's
// entity value must equal its text span: the example keeps the surface span
// and the canonical value is recorded as an entity synonym for it.
func (im *Importer) resolveCanonicalValues(ctx context.Context, example ParsedExample, bot, user string) ([]EntityRef, error) {
	if len(example.Entities) == 0 {
		return nil, nil
	}
	entities := append([]EntityRef(nil), example.Entities...)
	for i, ref := range entities {
		if ref.Start < 0 || ref.End > len(example.Text) || ref.Start >= ref.End {
			continue // bad spans are reported by example validation
		}
		span := example.Text[ref.Start:ref.End]
		if ref.Value == span {
			continue
		}
		existing, err := im.service.repo.FindEntitySynonym(ctx, bot, ref.Value)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			if _, err := im.service.AddEntitySynonym(ctx, ref.Value, span, bot, user); err != nil {
				return nil, err
			}
		}
		entities[i].Value = span
	}
	return entities, nil
}

func (im *Importer) importStories(ctx context.Context, stories []Story, bot, user string) error {
	existing, err := im.service.repo.ListStories(ctx, bot)
	if err != nil {
		return err
	}
	for i := range stories {
		story := stories[i]
		duplicate := false
		for _, other := range existing {
			if normalizeName(other.BlockName) == normalizeName(story.BlockName) ||
				storyEventsEqual(other.Events, story.Events) {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		if _, err := im.service.AddStory(ctx, &story, bot, user); err != nil {
			return err
		}
		existing = append(existing, story)
	}
	return nil
}

// ApplyTemplate imports a named template bundle with overwrite semantics.
func (im *Importer) ApplyTemplate(ctx context.Context, name, bot, user string) error {
	if strings.TrimSpace(name) == "" {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"template name cannot be empty", nil)
	}
	files, err := im.templates.Read(name)
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
			"template not found: "+name, err)
	}
	return im.Import(ctx, files, bot, user, true)
}

// ExportFiles projects the live corpus of a bot back to the serialised
// four-file bundle.
func (im *Importer) ExportFiles(ctx context.Context, bot string) (BundleFiles, error) {
	bundle, err := im.buildBundle(ctx, bot)
	if err != nil {
		return BundleFiles{}, err
	}
	files, err := im.codec.Serialize(bundle)
	if err != nil {
		return BundleFiles{}, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to serialise training bundle")
	}
	return files, nil
}

// Export returns the serialised bundle as a zip archive.
func (im *Importer) Export(ctx context.Context, bot string) ([]byte, error) {
	files, err := im.ExportFiles(ctx, bot)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	archive := zip.NewWriter(&buf)
	for name, content := range map[string][]byte{
		"data/nlu.md":     files.NLU,
		"domain.yml":      files.Domain,
		"data/stories.md": files.Stories,
		"config.yml":      files.Config,
	} {
		writer, err := archive.Create(name)
		if err != nil {
			return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to write export archive")
		}
		if _, err := writer.Write(content); err != nil {
			return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to write export archive")
		}
	}
	if err := archive.Close(); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to finalise export archive")
	}
	return buf.Bytes(), nil
}

// buildBundle projects live rows to the bundle form, preserving entity
// offsets, synonym direction, lookup grouping by name and regex grouping by
// pattern.
func (im *Importer) buildBundle(ctx context.Context, bot string) (*Bundle, error) {
	repo := im.service.repo
	bundle := &Bundle{
		NLU: NLUData{
			Synonyms: map[string][]string{},
			Lookups:  map[string][]string{},
			Regexes:  map[string][]string{},
		},
		Domain: DomainData{Responses: map[string][]Response{}},
	}

	intents, err := repo.ListIntents(ctx, bot)
	if err != nil {
		return nil, err
	}
	for _, intent := range intents {
		bundle.Domain.Intents = append(bundle.Domain.Intents, intent.Name)
		examples, err := repo.ListTrainingExamplesByIntent(ctx, bot, intent.Name)
		if err != nil {
			return nil, err
		}
		block := IntentExamples{Intent: intent.Name}
		for _, example := range examples {
			block.Examples = append(block.Examples, ParsedExample{Text: example.Text, Entities: example.Entities})
		}
		bundle.NLU.Intents = append(bundle.NLU.Intents, block)
	}

	synonyms, err := repo.ListEntitySynonyms(ctx, bot)
	if err != nil {
		return nil, err
	}
	for _, synonym := range synonyms {
		bundle.NLU.Synonyms[synonym.Value] = append(bundle.NLU.Synonyms[synonym.Value], synonym.Synonym)
	}

	lookups, err := repo.ListLookupTables(ctx, bot)
	if err != nil {
		return nil, err
	}
	for _, row := range lookups {
		bundle.NLU.Lookups[row.Name] = append(bundle.NLU.Lookups[row.Name], row.Value)
	}

	regexes, err := repo.ListRegexFeatures(ctx, bot)
	if err != nil {
		return nil, err
	}
	for _, feature := range regexes {
		bundle.NLU.Regexes[feature.Name] = append(bundle.NLU.Regexes[feature.Name], feature.Pattern)
	}

	entities, err := repo.ListEntities(ctx, bot)
	if err != nil {
		return nil, err
	}
	for _, entity := range entities {
		bundle.Domain.Entities = append(bundle.Domain.Entities, entity.Name)
	}

	slots, err := repo.ListSlots(ctx, bot)
	if err != nil {
		return nil, err
	}
	bundle.Domain.Slots = slots

	responses, err := repo.ListResponses(ctx, bot)
	if err != nil {
		return nil, err
	}
	for i := range responses {
		bundle.Domain.Responses[responses[i].Name] = append(bundle.Domain.Responses[responses[i].Name], responses[i])
	}

	actions, err := repo.ListActions(ctx, bot)
	if err != nil {
		return nil, err
	}
	for _, action := range actions {
		bundle.Domain.Actions = append(bundle.Domain.Actions, action.Name)
	}

	sessionConfig, err := repo.GetSessionConfig(ctx, bot)
	if err != nil {
		return nil, err
	}
	bundle.Domain.SessionConfig = sessionConfig

	stories, err := repo.ListStories(ctx, bot)
	if err != nil {
		return nil, err
	}
	bundle.Stories = stories

	pipelineConfig, err := repo.GetPipelineConfig(ctx, bot)
	if err != nil {
		return nil, err
	}
	bundle.Config = pipelineConfig

	return bundle, nil
}
