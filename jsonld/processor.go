package jsonld

import "context"

// Processor applies the JSON-LD algorithms with a fixed configuration. The
// zero value is usable and equivalent to NewProcessor(Options{}); a Processor
// is safe for concurrent use when its DocumentLoader and Generator are.
type Processor struct {
	opts Options
}

// NewProcessor returns a Processor configured by opts. Zero-valued fields
// select the documented defaults.
func NewProcessor(opts Options) *Processor {
	return &Processor{opts: opts}
}

// state builds the per-operation processing state. Options are normalized
// here rather than in NewProcessor so a caller that supplied no Generator
// gets a fresh sequential one per operation, keeping blank node labels
// independent across calls.
func (p *Processor) state() *processorState {
	return &processorState{opts: normalizeOptions(p.opts)}
}

// Expand expands input to the expanded document model. input may be a parsed
// JSON value (map or array), a string IRI to load through the configured
// DocumentLoader, a RemoteDocument, or an already expanded Document, which is
// returned unchanged.
func (p *Processor) Expand(ctx context.Context, input interface{}) (Document, error) {
	s := p.state()
	doc, _, err := p.expandInput(ctx, s, input)
	return doc, err
}

// Compact expands input as Expand does, then compacts the result against
// contextValue. contextValue may be a context definition, an array of them, a
// string IRI, or a document wrapping one under @context; it is attached to
// the output under @context.
func (p *Processor) Compact(ctx context.Context, input, contextValue interface{}) (map[string]interface{}, error) {
	s := p.state()
	doc, baseURL, err := p.expandInput(ctx, s, input)
	if err != nil {
		return nil, err
	}
	if baseURL == "" {
		baseURL = s.opts.Base
	}
	return s.compactDocument(ctx, doc, contextValue, baseURL)
}

// Flatten expands input as Expand does, then flattens it: every node gets an
// identifier, nesting is replaced by references, named graph content is
// collected under its graph node, and the result is ordered by identifier.
func (p *Processor) Flatten(ctx context.Context, input interface{}) (Document, error) {
	s := p.state()
	doc, _, err := p.expandInput(ctx, s, input)
	if err != nil {
		return nil, err
	}
	return s.flattenDocument(doc)
}

// FlattenAndCompact flattens input and compacts the flattened nodes against
// contextValue, producing the compacted flattened form of the flattening API.
func (p *Processor) FlattenAndCompact(ctx context.Context, input, contextValue interface{}) (map[string]interface{}, error) {
	s := p.state()
	doc, baseURL, err := p.expandInput(ctx, s, input)
	if err != nil {
		return nil, err
	}
	flat, err := s.flattenDocument(doc)
	if err != nil {
		return nil, err
	}
	if baseURL == "" {
		baseURL = s.opts.Base
	}
	return s.compactDocument(ctx, flat, contextValue, baseURL)
}

// ProcessContext applies a local context value on top of an initial active
// context built from the configured base IRI. contextValue may be a context
// definition, an array of them, a string IRI, or a document wrapping one
// under @context.
func (p *Processor) ProcessContext(ctx context.Context, contextValue interface{}) (*ActiveContext, error) {
	s := p.state()
	if wrapper, ok := contextValue.(map[string]interface{}); ok {
		if inner, has := wrapper[KeywordContext]; has {
			contextValue = inner
		}
	}
	return s.processContext(ctx, newActiveContext(s.opts.Base), contextValue, s.opts.Base, nil, false, true)
}

// expandInput resolves the input form and expands it, returning the expanded
// document and the document URL new relative references resolve against.
func (p *Processor) expandInput(ctx context.Context, s *processorState, input interface{}) (Document, string, error) {
	switch v := input.(type) {
	case Document:
		return v, "", nil
	case RemoteDocument:
		doc, err := p.expandParsed(ctx, s, v.Document, v.DocumentURL)
		return doc, v.DocumentURL, err
	case string:
		remote, err := s.opts.DocumentLoader.LoadDocument(ctx, v)
		if err != nil {
			return nil, "", wrapError(ErrCodeLoadingDocumentFailed, v, err)
		}
		doc, err := p.expandParsed(ctx, s, remote.Document, remote.DocumentURL)
		return doc, remote.DocumentURL, err
	default:
		doc, err := p.expandParsed(ctx, s, input, s.opts.Base)
		return doc, s.opts.Base, err
	}
}

func (p *Processor) expandParsed(ctx context.Context, s *processorState, input interface{}, baseURL string) (Document, error) {
	base := s.opts.Base
	if base == "" {
		base = baseURL
	}
	active := newActiveContext(base)

	if s.opts.ExpandContext != nil {
		expandContext := s.opts.ExpandContext
		if wrapper, ok := expandContext.(map[string]interface{}); ok {
			if inner, has := wrapper[KeywordContext]; has {
				expandContext = inner
			}
		}
		var err error
		active, err = s.processContext(ctx, active, expandContext, baseURL, nil, false, true)
		if err != nil {
			return nil, err
		}
	}

	return s.expandDocument(ctx, input, active, baseURL)
}

// Expand expands input with the default configuration. See Processor.Expand.
func Expand(ctx context.Context, input interface{}, opts Options) (Document, error) {
	return NewProcessor(opts).Expand(ctx, input)
}

// Compact compacts input against contextValue. See Processor.Compact.
func Compact(ctx context.Context, input, contextValue interface{}, opts Options) (map[string]interface{}, error) {
	return NewProcessor(opts).Compact(ctx, input, contextValue)
}

// Flatten flattens input. See Processor.Flatten.
func Flatten(ctx context.Context, input interface{}, opts Options) (Document, error) {
	return NewProcessor(opts).Flatten(ctx, input)
}
