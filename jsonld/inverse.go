package jsonld

import (
	"sort"
	"strings"
)

// inverseContext indexes terms by IRI, container signature, and type or
// language requirement so compaction can pick the best term for a value in
// amortized constant time. Shape: iri -> container -> ("@type" | "@language"
// | "@any") -> specific value -> term.
type inverseContext map[string]map[string]map[string]map[string]string

const anyKey = "@any"

// langDirKey builds the language map key for a language/direction pair.
func langDirKey(language, direction string) string {
	switch {
	case language != "" && direction != "":
		return language + "_" + direction
	case language != "":
		return language
	case direction != "":
		return "_" + direction
	default:
		return "@null"
	}
}

// containerSignature is the inverse-context key for a term's container set:
// the sorted concatenation of its container keywords, or @none.
func containerSignature(def *TermDefinition) string {
	if def.Containers.Empty() {
		return KeywordNone
	}
	return strings.Join(def.Containers.Elements(), "")
}

// buildInverseContext indexes the active context's terms. Terms are visited
// shortest first, then lexicographically, so the preferred term for any slot
// is the shortest one — the deterministic tie-break contract.
func buildInverseContext(active *ActiveContext) inverseContext {
	inv := make(inverseContext)

	terms := active.Terms()
	sort.SliceStable(terms, func(i, j int) bool {
		if len(terms[i]) != len(terms[j]) {
			return len(terms[i]) < len(terms[j])
		}
		return terms[i] < terms[j]
	})

	defaultLang := langDirKey(active.DefaultLanguage, active.DefaultDirection)

	for _, term := range terms {
		def := active.Term(term)
		if def == nil || def.IRI == "" {
			continue
		}
		container := containerSignature(def)

		byContainer, ok := inv[def.IRI]
		if !ok {
			byContainer = make(map[string]map[string]map[string]string)
			inv[def.IRI] = byContainer
		}
		slot, ok := byContainer[container]
		if !ok {
			slot = map[string]map[string]string{
				KeywordLanguage: {},
				KeywordType:     {},
				anyKey:          {},
			}
			byContainer[container] = slot
		}
		setIfAbsent(slot[anyKey], KeywordNone, term)

		switch {
		case def.Reverse:
			setIfAbsent(slot[KeywordType], KeywordReverse, term)
		case def.Type == KeywordNone:
			setIfAbsent(slot[KeywordLanguage], anyKey, term)
			setIfAbsent(slot[KeywordType], anyKey, term)
		case def.Type != "":
			setIfAbsent(slot[KeywordType], def.Type, term)
		case def.HasLanguage || def.HasDirection:
			setIfAbsent(slot[KeywordLanguage], langDirKey(def.Language, def.Direction), term)
		default:
			setIfAbsent(slot[KeywordLanguage], defaultLang, term)
			setIfAbsent(slot[KeywordLanguage], KeywordNone, term)
			setIfAbsent(slot[KeywordType], KeywordNone, term)
		}
	}
	return inv
}

func setIfAbsent(m map[string]string, key, term string) {
	if _, ok := m[key]; !ok {
		m[key] = term
	}
}

// selectTerm picks the most specific term for iri given the preferred
// container signatures (most specific first), the type/language axis, and
// the preferred values along that axis.
func (inv inverseContext) selectTerm(iri string, containers []string, typeLanguage string, preferredValues []string) string {
	byContainer := inv[iri]
	if byContainer == nil {
		return ""
	}
	for _, container := range containers {
		slot := byContainer[container]
		if slot == nil {
			continue
		}
		valueMap := slot[typeLanguage]
		for _, pv := range preferredValues {
			if term, ok := valueMap[pv]; ok {
				return term
			}
		}
	}
	return ""
}
