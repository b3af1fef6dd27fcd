package jsonld

import (
	"sort"

	"bitbucket.org/creachadair/stringset"
)

// TermDefinition is one resolved term of an active context.
type TermDefinition struct {
	// IRI is the term's IRI mapping: an absolute IRI, a blank node
	// identifier, or a keyword. Empty means the term is explicitly defined
	// as null, suppressing any inherited or vocab-derived meaning.
	IRI string
	// Type is the type coercion: an IRI, @id, @vocab, @json or @none.
	Type string
	// Containers is the term's container mapping.
	Containers stringset.Set
	// Language is a per-term language override; meaningful only when
	// HasLanguage is set. The empty string with HasLanguage set means the
	// term explicitly clears the default language.
	Language    string
	HasLanguage bool
	// Direction is a per-term base direction override, same convention.
	Direction    string
	HasDirection bool
	// Context is an unresolved scoped context fragment, applied lazily when
	// the term is used. BaseURL is the base it must be resolved against.
	Context    interface{}
	HasContext bool
	BaseURL    string
	// IndexMapping is the property used as index key for @container: @index
	// with a property-based index (JSON-LD 1.1).
	IndexMapping string
	// Nest names the nest target for this term (@nest or an alias of it).
	Nest string
	// Reverse marks the term as a reverse property.
	Reverse bool
	// Prefix allows the term to be used as a compact IRI prefix.
	Prefix bool
	// Protected prevents later local contexts from redefining the term.
	Protected bool
}

// sameDefinition compares two definitions ignoring the protected flag, as
// required by the protected-term redefinition check.
func sameDefinition(a, b *TermDefinition) bool {
	if a.IRI != b.IRI || a.Type != b.Type || a.Reverse != b.Reverse ||
		a.Prefix != b.Prefix || a.Nest != b.Nest || a.IndexMapping != b.IndexMapping ||
		a.HasLanguage != b.HasLanguage || a.Language != b.Language ||
		a.HasDirection != b.HasDirection || a.Direction != b.Direction ||
		a.HasContext != b.HasContext {
		return false
	}
	if !a.Containers.Equals(b.Containers) {
		return false
	}
	return true
}

// ActiveContext is the fully merged set of term and keyword mappings in
// effect at a point in the document. Values are never mutated once returned
// from context processing; every local context application derives a fresh
// value.
type ActiveContext struct {
	terms map[string]*TermDefinition

	// Base is the current base IRI, adjustable via @base.
	Base string
	// OriginalBase is the document base the processor started from; @context
	// null resets Base to it.
	OriginalBase string
	// Vocab is the vocabulary mapping, if any.
	Vocab string
	// DefaultLanguage applies to plain strings with no term override.
	DefaultLanguage string
	// DefaultDirection applies to strings with no term override.
	DefaultDirection string

	previousContext *ActiveContext
}

// newActiveContext returns the initial context for the given document base.
func newActiveContext(base string) *ActiveContext {
	return &ActiveContext{
		terms:        make(map[string]*TermDefinition),
		Base:         base,
		OriginalBase: base,
	}
}

// clone derives a mutable copy sharing no term map with the original.
func (c *ActiveContext) clone() *ActiveContext {
	dup := *c
	dup.terms = make(map[string]*TermDefinition, len(c.terms))
	for term, def := range c.terms {
		copied := *def
		dup.terms[term] = &copied
	}
	return &dup
}

// Term returns the definition for term, or nil when undefined.
func (c *ActiveContext) Term(term string) *TermDefinition {
	return c.terms[term]
}

// Terms returns the defined term names in lexicographic order.
func (c *ActiveContext) Terms() []string {
	names := make([]string, 0, len(c.terms))
	for name := range c.terms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// hasProtectedTerms reports whether any term is protected, which blocks
// context nullification.
func (c *ActiveContext) hasProtectedTerms() bool {
	for _, def := range c.terms {
		if def.Protected {
			return true
		}
	}
	return false
}

// keywordAlias returns the shortest, lexicographically least term aliasing
// the given keyword, or the keyword itself when no alias exists. Compaction
// uses it to emit aliased keywords.
func (c *ActiveContext) keywordAlias(keyword string) string {
	best := ""
	for term, def := range c.terms {
		if def.IRI != keyword || def.Reverse {
			continue
		}
		if best == "" || len(term) < len(best) || (len(term) == len(best) && term < best) {
			best = term
		}
	}
	if best == "" {
		return keyword
	}
	return best
}

// termLanguage resolves the effective language for a term: the term override
// when present, else the context default.
func (c *ActiveContext) termLanguage(def *TermDefinition) string {
	if def != nil && def.HasLanguage {
		return def.Language
	}
	return c.DefaultLanguage
}

// termDirection resolves the effective base direction for a term.
func (c *ActiveContext) termDirection(def *TermDefinition) string {
	if def != nil && def.HasDirection {
		return def.Direction
	}
	return c.DefaultDirection
}
