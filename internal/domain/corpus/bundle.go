package corpus

// IntentExamples groups the annotated examples of one intent as parsed from
// the NLU corpus file.
type IntentExamples struct {
	Intent   string
	Examples []ParsedExample
}

// ParsedExample is one annotated utterance from the NLU corpus.
type ParsedExample struct {
	Text     string
	Entities []EntityRef
}

// NLUData is the parsed NLU corpus file.
type NLUData struct {
	Intents  []IntentExamples
	Synonyms map[string][]string // canonical value -> surface forms
	Lookups  map[string][]string // list name -> elements
	Regexes  map[string][]string // feature name -> patterns
}

// DomainData is the parsed domain file.
type DomainData struct {
	Intents       []string
	Entities      []string
	Slots         []Slot
	Responses     map[string][]Response
	Actions       []string
	Forms         []string
	SessionConfig *SessionConfig
}

// Bundle is the parsed four-file training bundle.
type Bundle struct {
	NLU     NLUData
	Domain  DomainData
	Stories []Story
	Config  *PipelineConfig
}

// BundleFiles holds the raw contents of the four training files.
type BundleFiles struct {
	NLU     []byte
	Domain  []byte
	Stories []byte
	Config  []byte
}

// BundleCodec parses and serialises the four-file training bundle. The
// concrete markdown/YAML handling lives in infrastructure.
type BundleCodec interface {
	Parse(files BundleFiles) (*Bundle, error)
	Serialize(bundle *Bundle) (BundleFiles, error)
}

// TemplateReader resolves a named template directory to its bundle files.
type TemplateReader interface {
	Read(name string) (BundleFiles, error)
}
