package jsonld

import (
	"context"
	"strings"

	"bitbucket.org/creachadair/stringset"
)

// processorState carries the normalized options and collaborators for one
// processing run.
type processorState struct {
	opts Options
}

func (s *processorState) mode10() bool {
	return s.opts.ProcessingMode == ModeJSONLD10
}

// defineScope bundles the inputs shared by createTermDefinition and IRI
// expansion while a local context object is being applied.
type defineScope struct {
	contextMap       map[string]interface{}
	defined          map[string]bool
	baseURL          string
	protectedDefault bool
	overrideProtected bool
}

func toArray(v interface{}) []interface{} {
	if arr, ok := v.([]interface{}); ok {
		return arr
	}
	return []interface{}{v}
}

// processContext applies a local context to an active context, returning a
// new active context. remote tracks the chain of remote context IRIs being
// resolved for cycle and depth enforcement.
func (s *processorState) processContext(ctx context.Context, active *ActiveContext, local interface{}, baseURL string, remote []string, overrideProtected, propagate bool) (*ActiveContext, error) {
	result := active.clone()

	if obj, ok := local.(map[string]interface{}); ok {
		if p, present := obj[KeywordPropagate]; present {
			b, ok := p.(bool)
			if !ok {
				return nil, newError(ErrCodeInvalidPropagateValue, KeywordPropagate)
			}
			propagate = b
		}
	}
	if !propagate && result.previousContext == nil {
		result.previousContext = active
	}

	for _, item := range toArray(local) {
		switch v := item.(type) {
		case nil:
			if !overrideProtected && result.hasProtectedTerms() {
				return nil, newError(ErrCodeInvalidContextNullification, "")
			}
			previous := result
			result = newActiveContext(active.OriginalBase)
			if !propagate {
				result.previousContext = previous
			}

		case string:
			uri := resolveIRI(baseURL, v)
			if len(remote) >= s.opts.MaxRemoteContexts {
				return nil, newError(ErrCodeContextOverflow, uri)
			}
			for _, seen := range remote {
				if seen == uri {
					return nil, newError(ErrCodeRecursiveContextInclusion, uri)
				}
			}
			remoteDoc, err := s.opts.DocumentLoader.LoadDocument(ctx, uri)
			if err != nil {
				return nil, wrapError(ErrCodeLoadingRemoteContextFailed, uri, err)
			}
			obj, ok := remoteDoc.Document.(map[string]interface{})
			if !ok {
				return nil, newError(ErrCodeLoadingRemoteContextFailed, uri)
			}
			imported, ok := obj[KeywordContext]
			if !ok {
				return nil, newError(ErrCodeLoadingRemoteContextFailed, uri)
			}
			result, err = s.processContext(ctx, result, imported, remoteDoc.DocumentURL,
				append(remote, uri), overrideProtected, true)
			if err != nil {
				return nil, err
			}

		case map[string]interface{}:
			var err error
			result, err = s.applyContextObject(ctx, result, v, baseURL, remote, overrideProtected)
			if err != nil {
				return nil, err
			}

		default:
			return nil, newError(ErrCodeInvalidLocalContext, "")
		}
	}
	return result, nil
}

// applyContextObject merges one context object into result. result is the
// private clone owned by processContext and may be mutated here.
func (s *processorState) applyContextObject(ctx context.Context, result *ActiveContext, obj map[string]interface{}, baseURL string, remote []string, overrideProtected bool) (*ActiveContext, error) {
	if v, ok := obj[KeywordVersion]; ok {
		if !isVersion11(v) {
			return nil, newError(ErrCodeInvalidVersionValue, KeywordVersion)
		}
		if s.mode10() {
			return nil, newError(ErrCodeProcessingModeConflict, KeywordVersion)
		}
	}

	if v, ok := obj[KeywordImport]; ok {
		if s.mode10() {
			return nil, newError(ErrCodeInvalidContextEntry, KeywordImport)
		}
		iri, ok := v.(string)
		if !ok {
			return nil, newError(ErrCodeInvalidImportValue, KeywordImport)
		}
		resolved := resolveIRI(baseURL, iri)
		remoteDoc, err := s.opts.DocumentLoader.LoadDocument(ctx, resolved)
		if err != nil {
			return nil, wrapError(ErrCodeLoadingRemoteContextFailed, resolved, err)
		}
		wrapper, ok := remoteDoc.Document.(map[string]interface{})
		if !ok {
			return nil, newError(ErrCodeInvalidRemoteContext, resolved)
		}
		importedCtx, ok := wrapper[KeywordContext].(map[string]interface{})
		if !ok {
			return nil, newError(ErrCodeInvalidRemoteContext, resolved)
		}
		if _, nested := importedCtx[KeywordImport]; nested {
			return nil, newError(ErrCodeInvalidContextEntry, KeywordImport)
		}
		// Imported entries are defaults; local entries win.
		merged := make(map[string]interface{}, len(importedCtx)+len(obj))
		for k, val := range importedCtx {
			merged[k] = val
		}
		for k, val := range obj {
			if k != KeywordImport {
				merged[k] = val
			}
		}
		obj = merged
	}

	if v, ok := obj[KeywordBase]; ok && len(remote) == 0 {
		switch base := v.(type) {
		case nil:
			result.Base = ""
		case string:
			switch {
			case isAbsoluteIRI(base):
				result.Base = base
			case result.Base != "":
				result.Base = resolveIRI(result.Base, base)
			default:
				return nil, newError(ErrCodeInvalidBaseIRI, base)
			}
		default:
			return nil, newError(ErrCodeInvalidBaseIRI, KeywordBase)
		}
	}

	if v, ok := obj[KeywordVocab]; ok {
		switch vocab := v.(type) {
		case nil:
			result.Vocab = ""
		case string:
			expanded, err := s.expandIRI(result, vocab, true, true, nil)
			if err != nil {
				return nil, err
			}
			if expanded == "" || (!isAbsoluteIRI(expanded) && !isBlankNode(expanded)) {
				return nil, newError(ErrCodeInvalidVocabMapping, vocab)
			}
			result.Vocab = expanded
		default:
			return nil, newError(ErrCodeInvalidVocabMapping, KeywordVocab)
		}
	}

	if v, ok := obj[KeywordLanguage]; ok {
		switch lang := v.(type) {
		case nil:
			result.DefaultLanguage = ""
		case string:
			result.DefaultLanguage = strings.ToLower(lang)
		default:
			return nil, newError(ErrCodeInvalidDefaultLanguage, KeywordLanguage)
		}
	}

	if v, ok := obj[KeywordDirection]; ok {
		if s.mode10() {
			return nil, newError(ErrCodeInvalidContextEntry, KeywordDirection)
		}
		switch dir := v.(type) {
		case nil:
			result.DefaultDirection = ""
		case string:
			if dir != "ltr" && dir != "rtl" {
				return nil, newError(ErrCodeInvalidBaseDirection, dir)
			}
			result.DefaultDirection = dir
		default:
			return nil, newError(ErrCodeInvalidBaseDirection, KeywordDirection)
		}
	}

	if v, ok := obj[KeywordPropagate]; ok {
		if s.mode10() {
			return nil, newError(ErrCodeInvalidContextEntry, KeywordPropagate)
		}
		if _, isBool := v.(bool); !isBool {
			return nil, newError(ErrCodeInvalidPropagateValue, KeywordPropagate)
		}
	}

	protectedDefault := false
	if v, ok := obj[KeywordProtected]; ok {
		if s.mode10() {
			return nil, newError(ErrCodeInvalidContextEntry, KeywordProtected)
		}
		b, ok := v.(bool)
		if !ok {
			return nil, newError(ErrCodeInvalidProtectedValue, KeywordProtected)
		}
		protectedDefault = b
	}

	scope := &defineScope{
		contextMap:        obj,
		defined:           make(map[string]bool),
		baseURL:           baseURL,
		protectedDefault:  protectedDefault,
		overrideProtected: overrideProtected,
	}
	for _, term := range sortedKeys(obj) {
		switch term {
		case KeywordBase, KeywordDirection, KeywordImport, KeywordLanguage,
			KeywordPropagate, KeywordProtected, KeywordVersion, KeywordVocab:
			continue
		}
		if err := s.createTermDefinition(result, term, scope); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func isVersion11(v interface{}) bool {
	switch n := v.(type) {
	case float64:
		return n == 1.1
	case interface{ String() string }:
		return n.String() == "1.1"
	default:
		return false
	}
}

// createTermDefinition resolves one term of the local context object into
// active, recursing through dependent terms with cycle detection.
func (s *processorState) createTermDefinition(active *ActiveContext, term string, scope *defineScope) error {
	if done, seen := scope.defined[term]; seen {
		if done {
			return nil
		}
		return newError(ErrCodeCyclicIRIMapping, term)
	}
	if term == "" {
		return newError(ErrCodeInvalidTermDefinition, term)
	}
	scope.defined[term] = false

	value := scope.contextMap[term]

	if term == KeywordType {
		if err := s.validateTypeRedefinition(value); err != nil {
			return err
		}
	} else if IsKeyword(term) {
		return newError(ErrCodeKeywordRedefinition, term)
	} else if isKeywordLike(term) {
		// Reserved keyword-like terms are ignored, not defined.
		scope.defined[term] = true
		return nil
	}

	previous := active.terms[term]
	delete(active.terms, term)

	var valueMap map[string]interface{}
	simpleTerm := false
	switch v := value.(type) {
	case nil:
		valueMap = map[string]interface{}{KeywordID: nil}
	case string:
		valueMap = map[string]interface{}{KeywordID: v}
		simpleTerm = true
	case map[string]interface{}:
		valueMap = v
	default:
		return newError(ErrCodeInvalidTermDefinition, term)
	}

	def := &TermDefinition{Protected: scope.protectedDefault, BaseURL: scope.baseURL}

	if p, ok := valueMap[KeywordProtected]; ok {
		if s.mode10() {
			return newError(ErrCodeInvalidTermDefinition, term)
		}
		b, ok := p.(bool)
		if !ok {
			return newError(ErrCodeInvalidProtectedValue, term)
		}
		def.Protected = b
	}

	if t, ok := valueMap[KeywordType]; ok {
		ts, ok := t.(string)
		if !ok {
			return newError(ErrCodeInvalidTypeMapping, term)
		}
		expanded, err := s.expandIRIInScope(active, ts, false, true, scope)
		if err != nil {
			return err
		}
		switch expanded {
		case KeywordID, KeywordVocab:
		case KeywordJSON, KeywordNone:
			if s.mode10() {
				return newError(ErrCodeInvalidTypeMapping, term)
			}
		default:
			if !isAbsoluteIRI(expanded) && !isBlankNode(expanded) {
				return newError(ErrCodeInvalidTypeMapping, term)
			}
		}
		def.Type = expanded
	}

	if rv, ok := valueMap[KeywordReverse]; ok {
		return s.defineReverseTerm(active, term, rv, valueMap, def, previous, scope)
	}

	if err := s.resolveTermIRI(active, term, valueMap, def, simpleTerm, scope); err != nil {
		return err
	}
	if resolved := scope.defined[term]; resolved {
		// The term turned out to be reserved and was skipped.
		return nil
	}

	if cv, ok := valueMap[KeywordContainer]; ok {
		containers, err := s.parseContainer(term, cv)
		if err != nil {
			return err
		}
		def.Containers = containers
		if containers.Contains(KeywordType) {
			if def.Type == "" {
				def.Type = KeywordID
			}
			if def.Type != KeywordID && def.Type != KeywordVocab {
				return newError(ErrCodeInvalidTypeMapping, term)
			}
		}
	}

	if iv, ok := valueMap[KeywordIndex]; ok {
		if s.mode10() || !def.Containers.Contains(KeywordIndex) {
			return newError(ErrCodeInvalidTermDefinition, term)
		}
		is, ok := iv.(string)
		if !ok {
			return newError(ErrCodeInvalidTermDefinition, term)
		}
		expanded, err := s.expandIRIInScope(active, is, false, true, scope)
		if err != nil || !isAbsoluteIRI(expanded) {
			return newError(ErrCodeInvalidTermDefinition, term)
		}
		def.IndexMapping = is
	}

	if cv, ok := valueMap[KeywordContext]; ok {
		if s.mode10() {
			return newError(ErrCodeInvalidTermDefinition, term)
		}
		// Scoped contexts are stored unresolved and applied lazily when the
		// term is used during expansion or compaction.
		def.Context = cv
		def.HasContext = true
	}

	if lv, ok := valueMap[KeywordLanguage]; ok {
		if _, typed := valueMap[KeywordType]; !typed {
			switch lang := lv.(type) {
			case nil:
				def.HasLanguage = true
			case string:
				def.HasLanguage = true
				def.Language = strings.ToLower(lang)
			default:
				return newError(ErrCodeInvalidLanguageMapping, term)
			}
		}
	}

	if dv, ok := valueMap[KeywordDirection]; ok {
		if _, typed := valueMap[KeywordType]; !typed {
			switch dir := dv.(type) {
			case nil:
				def.HasDirection = true
			case string:
				if dir != "ltr" && dir != "rtl" {
					return newError(ErrCodeInvalidBaseDirection, term)
				}
				def.HasDirection = true
				def.Direction = dir
			default:
				return newError(ErrCodeInvalidBaseDirection, term)
			}
		}
	}

	if nv, ok := valueMap[KeywordNest]; ok {
		if s.mode10() {
			return newError(ErrCodeInvalidTermDefinition, term)
		}
		ns, ok := nv.(string)
		if !ok || (ns != KeywordNest && IsKeyword(ns)) {
			return newError(ErrCodeInvalidNestValue, term)
		}
		def.Nest = ns
	}

	if pv, ok := valueMap[KeywordPrefix]; ok {
		if s.mode10() || strings.Contains(term, ":") || strings.Contains(term, "/") {
			return newError(ErrCodeInvalidTermDefinition, term)
		}
		b, ok := pv.(bool)
		if !ok {
			return newError(ErrCodeInvalidPrefixValue, term)
		}
		def.Prefix = b
		if def.Prefix && IsKeyword(def.IRI) {
			return newError(ErrCodeInvalidTermDefinition, term)
		}
	}

	for key := range valueMap {
		switch key {
		case KeywordID, KeywordReverse, KeywordContainer, KeywordContext,
			KeywordDirection, KeywordIndex, KeywordLanguage, KeywordNest,
			KeywordPrefix, KeywordProtected, KeywordType:
		default:
			return newError(ErrCodeInvalidTermDefinition, term)
		}
	}

	return s.storeTermDefinition(active, term, def, previous, scope)
}

func (s *processorState) validateTypeRedefinition(value interface{}) error {
	if s.mode10() {
		return newError(ErrCodeKeywordRedefinition, KeywordType)
	}
	m, ok := value.(map[string]interface{})
	if !ok {
		return newError(ErrCodeKeywordRedefinition, KeywordType)
	}
	for k, v := range m {
		switch k {
		case KeywordContainer:
			if v != KeywordSet {
				return newError(ErrCodeKeywordRedefinition, KeywordType)
			}
		case KeywordProtected:
		default:
			return newError(ErrCodeKeywordRedefinition, KeywordType)
		}
	}
	return nil
}

func (s *processorState) defineReverseTerm(active *ActiveContext, term string, rv interface{}, valueMap map[string]interface{}, def *TermDefinition, previous *TermDefinition, scope *defineScope) error {
	if _, has := valueMap[KeywordID]; has {
		return newError(ErrCodeInvalidReverseProperty, term)
	}
	if _, has := valueMap[KeywordNest]; has {
		return newError(ErrCodeInvalidReverseProperty, term)
	}
	rs, ok := rv.(string)
	if !ok {
		return newError(ErrCodeInvalidIRIMapping, term)
	}
	if isKeywordLike(rs) {
		scope.defined[term] = true
		return nil
	}
	iri, err := s.expandIRIInScope(active, rs, false, true, scope)
	if err != nil {
		return err
	}
	if !isAbsoluteIRI(iri) && !isBlankNode(iri) {
		return newError(ErrCodeInvalidIRIMapping, term)
	}
	def.IRI = iri
	def.Reverse = true
	if cv, has := valueMap[KeywordContainer]; has {
		switch cv {
		case nil:
		case KeywordSet, KeywordIndex:
			def.Containers = stringset.New(cv.(string))
		default:
			return newError(ErrCodeInvalidReverseProperty, term)
		}
	}
	return s.storeTermDefinition(active, term, def, previous, scope)
}

// resolveTermIRI determines the term's IRI mapping from @id, compact IRI
// shape, or the vocabulary mapping.
func (s *processorState) resolveTermIRI(active *ActiveContext, term string, valueMap map[string]interface{}, def *TermDefinition, simpleTerm bool, scope *defineScope) error {
	idv, hasID := valueMap[KeywordID]
	if hasID {
		if ids, isString := idv.(string); !isString || ids != term {
			if idv == nil {
				// Explicit null mapping: the term is defined but expands to
				// nothing, shadowing any vocab-derived meaning.
				return nil
			}
			ids, ok := idv.(string)
			if !ok {
				return newError(ErrCodeInvalidIRIMapping, term)
			}
			if isKeywordLike(ids) {
				scope.defined[term] = true
				return nil
			}
			iri, err := s.expandIRIInScope(active, ids, false, true, scope)
			if err != nil {
				return err
			}
			if !IsKeyword(iri) && !isAbsoluteIRI(iri) && !isBlankNode(iri) {
				return newError(ErrCodeInvalidIRIMapping, term)
			}
			if iri == KeywordContext {
				return newError(ErrCodeInvalidKeywordAlias, term)
			}
			def.IRI = iri
			if strings.Contains(trimFirst(term), ":") || strings.Contains(term, "/") {
				scope.defined[term] = true
				check, err := s.expandIRIInScope(active, term, false, true, scope)
				scope.defined[term] = false
				if err != nil || check != iri {
					return newError(ErrCodeInvalidIRIMapping, term)
				}
			} else if simpleTerm && (endsInGenDelim(iri) || isBlankNode(iri)) {
				def.Prefix = true
			}
			return nil
		}
	}

	if i := strings.Index(trimFirst(term), ":"); i >= 0 {
		colon := i + 1
		prefix, suffix := term[:colon], term[colon+1:]
		if _, inContext := scope.contextMap[prefix]; inContext {
			if err := s.createTermDefinition(active, prefix, scope); err != nil {
				return err
			}
		}
		if pdef := active.terms[prefix]; pdef != nil && pdef.IRI != "" {
			def.IRI = pdef.IRI + suffix
		} else {
			// The term itself is an absolute IRI or blank node identifier.
			def.IRI = term
		}
		return nil
	}

	if strings.Contains(term, "/") {
		iri, err := s.expandIRIInScope(active, term, false, true, scope)
		if err != nil {
			return err
		}
		if !isAbsoluteIRI(iri) {
			return newError(ErrCodeInvalidIRIMapping, term)
		}
		def.IRI = iri
		return nil
	}

	if term == KeywordType {
		def.IRI = KeywordType
		return nil
	}

	if active.Vocab == "" {
		return newError(ErrCodeInvalidIRIMapping, term)
	}
	def.IRI = active.Vocab + term
	return nil
}

func trimFirst(s string) string {
	if s == "" {
		return s
	}
	return s[1:]
}

func (s *processorState) storeTermDefinition(active *ActiveContext, term string, def *TermDefinition, previous *TermDefinition, scope *defineScope) error {
	if previous != nil && previous.Protected && !scope.overrideProtected {
		if !sameDefinition(previous, def) {
			return newError(ErrCodeProtectedTermRedefinition, term)
		}
		kept := *previous
		def = &kept
	}
	active.terms[term] = def
	scope.defined[term] = true
	return nil
}

// parseContainer validates an @container value and returns the container
// keyword set.
func (s *processorState) parseContainer(term string, value interface{}) (stringset.Set, error) {
	var entries []string
	switch v := value.(type) {
	case string:
		entries = []string{v}
	case []interface{}:
		if s.mode10() {
			return nil, newError(ErrCodeInvalidContainerMapping, term)
		}
		for _, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, newError(ErrCodeInvalidContainerMapping, term)
			}
			entries = append(entries, str)
		}
	default:
		return nil, newError(ErrCodeInvalidContainerMapping, term)
	}

	set := stringset.New(entries...)
	if set.Len() == 0 || !containerKeywords.Contains(set.Elements()...) {
		return nil, newError(ErrCodeInvalidContainerMapping, term)
	}
	if s.mode10() {
		switch entries[0] {
		case KeywordList, KeywordSet, KeywordIndex, KeywordLanguage:
		default:
			return nil, newError(ErrCodeInvalidContainerMapping, term)
		}
		return set, nil
	}

	switch {
	case set.Len() == 1:
	case set.Contains(KeywordList):
		return nil, newError(ErrCodeInvalidContainerMapping, term)
	case set.Contains(KeywordGraph):
		rest := set.Clone()
		rest.Discard(KeywordGraph, KeywordID, KeywordIndex, KeywordSet)
		if !rest.Empty() || (set.Contains(KeywordID) && set.Contains(KeywordIndex)) {
			return nil, newError(ErrCodeInvalidContainerMapping, term)
		}
	default:
		rest := set.Clone()
		rest.Discard(KeywordSet)
		if rest.Len() > 1 || !set.Contains(KeywordSet) {
			return nil, newError(ErrCodeInvalidContainerMapping, term)
		}
	}
	return set, nil
}

// expandIRI expands value against the active context outside of local
// context processing.
func (s *processorState) expandIRI(active *ActiveContext, value string, docRelative, vocab bool, _ *defineScope) (string, error) {
	return s.expandIRIInScope(active, value, docRelative, vocab, nil)
}

// expandIRIInScope is the IRI expansion algorithm. When scope is non-nil,
// terms referenced by value that are defined in the local context being
// processed are resolved first, detecting cyclic IRI mappings.
func (s *processorState) expandIRIInScope(active *ActiveContext, value string, docRelative, vocab bool, scope *defineScope) (string, error) {
	if IsKeyword(value) {
		return value, nil
	}
	if isKeywordLike(value) {
		return "", nil
	}
	if scope != nil {
		if _, inContext := scope.contextMap[value]; inContext && !scope.defined[value] {
			if err := s.createTermDefinition(active, value, scope); err != nil {
				return "", err
			}
		}
	}
	if def := active.terms[value]; def != nil {
		if IsKeyword(def.IRI) {
			return def.IRI, nil
		}
		if vocab {
			return def.IRI, nil
		}
	}
	if i := strings.Index(trimFirst(value), ":"); i >= 0 {
		colon := i + 1
		prefix, suffix := value[:colon], value[colon+1:]
		if prefix == "_" || strings.HasPrefix(suffix, "//") {
			return value, nil
		}
		if scope != nil {
			if _, inContext := scope.contextMap[prefix]; inContext && !scope.defined[prefix] {
				if err := s.createTermDefinition(active, prefix, scope); err != nil {
					return "", err
				}
			}
		}
		if pdef := active.terms[prefix]; pdef != nil && pdef.IRI != "" && pdef.Prefix {
			return pdef.IRI + suffix, nil
		}
		if isAbsoluteIRI(value) {
			return value, nil
		}
	}
	if vocab && active.Vocab != "" {
		return active.Vocab + value, nil
	}
	if docRelative {
		return resolveIRI(active.Base, value), nil
	}
	return value, nil
}
