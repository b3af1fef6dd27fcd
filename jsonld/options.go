package jsonld

// ProcessingMode selects the JSON-LD version semantics to apply.
type ProcessingMode string

const (
	// ModeJSONLD10 restricts processing to JSON-LD 1.0 features.
	ModeJSONLD10 ProcessingMode = "json-ld-1.0"
	// ModeJSONLD11 enables JSON-LD 1.1 processing. This is the default.
	ModeJSONLD11 ProcessingMode = "json-ld-1.1"
)

// UndefinedTermPolicy controls what happens when expansion meets a key that
// resolves to neither a keyword nor an absolute IRI.
type UndefinedTermPolicy int

const (
	// DropUndefinedTerms silently drops unresolvable keys (the default).
	DropUndefinedTerms UndefinedTermPolicy = iota
	// ErrorOnUndefinedTerms fails expansion on the first unresolvable key,
	// as required for conformance testing.
	ErrorOnUndefinedTerms
)

// DefaultMaxRemoteContexts bounds the remote context resolution chain.
const DefaultMaxRemoteContexts = 8

// Options configures JSON-LD processing. Zero values select the defaults
// described per field; DefaultOptions returns the conventional configuration.
type Options struct {
	// Base is the base IRI used to resolve relative IRI references.
	Base string
	// ExpandContext is a context applied before expanding the document, as
	// if it appeared at the document's top level.
	ExpandContext interface{}
	// ProcessingMode selects 1.0 or 1.1 semantics. Defaults to ModeJSONLD11.
	ProcessingMode ProcessingMode
	// Ordered requests lexicographic processing of object entries. Map
	// entries are always visited in lexicographic order in this
	// implementation, so output is deterministic either way; the flag is
	// honored for API compatibility.
	Ordered bool
	// CompactArrays collapses single-element arrays to their sole member
	// during compaction. DefaultOptions enables it.
	CompactArrays bool
	// UndefinedTermPolicy controls handling of unresolvable keys during
	// expansion. Defaults to DropUndefinedTerms.
	UndefinedTermPolicy UndefinedTermPolicy
	// MaxRemoteContexts bounds the remote context resolution chain. Zero
	// selects DefaultMaxRemoteContexts.
	MaxRemoteContexts int
	// DocumentLoader resolves remote documents and contexts. Defaults to
	// NoLoader, which fails every load.
	DocumentLoader DocumentLoader
	// Generator mints blank node identifiers for flattening and expansion.
	// Defaults to a fresh sequential BlankNodeGenerator per operation.
	Generator Generator
}

// DefaultOptions returns the conventional processing configuration:
// JSON-LD 1.1, ordered output, compacted arrays. Note that object entries
// are processed in lexicographic order even when Ordered is false; see
// Options.Ordered.
func DefaultOptions() Options {
	return Options{
		ProcessingMode:    ModeJSONLD11,
		Ordered:           true,
		CompactArrays:     true,
		MaxRemoteContexts: DefaultMaxRemoteContexts,
	}
}

func normalizeOptions(opts Options) Options {
	if opts.ProcessingMode == "" {
		opts.ProcessingMode = ModeJSONLD11
	}
	if opts.MaxRemoteContexts == 0 {
		opts.MaxRemoteContexts = DefaultMaxRemoteContexts
	}
	if opts.DocumentLoader == nil {
		opts.DocumentLoader = NoLoader{}
	}
	if opts.Generator == nil {
		opts.Generator = NewBlankNodeGenerator()
	}
	return opts
}
