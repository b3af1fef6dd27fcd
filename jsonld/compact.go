package jsonld

import (
	"context"
	"sort"
	"strings"

	"bitbucket.org/creachadair/stringset"
)

// compactor runs one compaction operation. Inverse contexts are memoized per
// active context value so repeated term lookups stay O(1) amortized.
type compactor struct {
	*processorState
	ctx      context.Context
	inverses map[*ActiveContext]inverseContext
}

func newCompactor(ctx context.Context, s *processorState) *compactor {
	return &compactor{
		processorState: s,
		ctx:            ctx,
		inverses:       make(map[*ActiveContext]inverseContext),
	}
}

func (c *compactor) inverse(active *ActiveContext) inverseContext {
	if inv, ok := c.inverses[active]; ok {
		return inv
	}
	inv := buildInverseContext(active)
	c.inverses[active] = inv
	return inv
}

// compactDocument compacts an expanded document against a target context.
// contextInput is the raw context value (possibly wrapped in a document with
// a @context entry) that will also be attached to the output.
func (s *processorState) compactDocument(ctx context.Context, doc Document, contextInput interface{}, baseURL string) (map[string]interface{}, error) {
	contextValue := contextInput
	if wrapper, ok := contextValue.(map[string]interface{}); ok {
		if inner, has := wrapper[KeywordContext]; has {
			contextValue = inner
		}
	}

	active := newActiveContext(s.opts.Base)
	if contextValue != nil {
		var err error
		active, err = s.processContext(ctx, active, contextValue, baseURL, nil, false, true)
		if err != nil {
			return nil, err
		}
	}

	c := newCompactor(ctx, s)
	compacted := make([]interface{}, 0, len(doc))
	for _, node := range doc {
		item, err := c.compactNode(active, "", node)
		if err != nil {
			return nil, err
		}
		compacted = append(compacted, item)
	}

	var result map[string]interface{}
	switch {
	case len(compacted) == 0:
		result = make(map[string]interface{})
	case len(compacted) == 1 && s.opts.CompactArrays:
		if m, ok := compacted[0].(map[string]interface{}); ok {
			result = m
		} else {
			result = map[string]interface{}{active.keywordAlias(KeywordGraph): compacted}
		}
	default:
		result = map[string]interface{}{active.keywordAlias(KeywordGraph): compacted}
	}

	if contextValue != nil && !emptyContext(contextValue) {
		result[KeywordContext] = contextValue
	}
	return result, nil
}

func emptyContext(v interface{}) bool {
	switch c := v.(type) {
	case map[string]interface{}:
		return len(c) == 0
	case []interface{}:
		return len(c) == 0
	default:
		return v == nil
	}
}

// compactNode compacts one expanded object. Value objects and bare node
// references compact to scalars or small maps; node objects recurse over
// their entries.
func (c *compactor) compactNode(active *ActiveContext, activeProperty string, node Node) (interface{}, error) {
	if node.IsValue() || node.IsSubjectReference() {
		return c.compactValue(active, activeProperty, node), nil
	}

	// Type-scoped contexts apply during compaction too, in lexicographic
	// order of the compacted type terms.
	if len(node.Types) > 0 {
		compactedTypes := make([]string, 0, len(node.Types))
		for _, t := range node.Types {
			compactedTypes = append(compactedTypes, c.compactIRI(active, t, nil, true, false))
		}
		sort.Strings(compactedTypes)
		for _, ct := range compactedTypes {
			if tdef := active.Term(ct); tdef != nil && tdef.HasContext {
				scoped, err := c.processContext(c.ctx, active, tdef.Context, tdef.BaseURL, nil, true, true)
				if err != nil {
					return nil, err
				}
				active = scoped
			}
		}
	}

	result := make(map[string]interface{})
	propertyDef := active.Term(activeProperty)

	if node.ID != "" {
		result[active.keywordAlias(KeywordID)] = c.compactIRI(active, node.ID, nil, false, false)
	}

	if len(node.Types) > 0 {
		types := make([]interface{}, 0, len(node.Types))
		for _, t := range node.Types {
			types = append(types, c.compactIRI(active, t, nil, true, false))
		}
		key := active.keywordAlias(KeywordType)
		if len(types) == 1 && c.opts.CompactArrays {
			result[key] = types[0]
		} else {
			result[key] = types
		}
	}

	if len(node.Reverse) > 0 {
		reverseResult := make(map[string]interface{})
		if err := c.compactProperties(active, node.Reverse, true, reverseResult); err != nil {
			return nil, err
		}
		for key, val := range reverseResult {
			if def := active.Term(key); def != nil && def.Reverse {
				mergeEntry(result, key, val)
				delete(reverseResult, key)
			}
		}
		if len(reverseResult) > 0 {
			result[active.keywordAlias(KeywordReverse)] = reverseResult
		}
	}

	if node.Graph != nil {
		inner := make([]interface{}, 0, len(node.Graph))
		for _, gn := range node.Graph {
			v, err := c.compactNode(active, KeywordGraph, gn)
			if err != nil {
				return nil, err
			}
			inner = append(inner, v)
		}
		result[active.keywordAlias(KeywordGraph)] = inner
	}

	if node.Included != nil {
		included := make([]interface{}, 0, len(node.Included))
		for _, in := range node.Included {
			v, err := c.compactNode(active, "", in)
			if err != nil {
				return nil, err
			}
			included = append(included, v)
		}
		result[active.keywordAlias(KeywordIncluded)] = included
	}

	if node.Index != "" && !(propertyDef != nil && propertyDef.Containers.Contains(KeywordIndex)) {
		result[active.keywordAlias(KeywordIndex)] = node.Index
	}

	if err := c.compactProperties(active, node.Properties, false, result); err != nil {
		return nil, err
	}
	return result, nil
}

// compactProperties compacts a property map into result, selecting a term
// per item and reconstructing container shapes.
func (c *compactor) compactProperties(active *ActiveContext, props Properties, insideReverse bool, result map[string]interface{}) error {
	iris := make([]string, 0, len(props))
	for iri := range props {
		iris = append(iris, iri)
	}
	sort.Strings(iris)

	for _, iri := range iris {
		for _, item := range props[iri] {
			if err := c.compactPropertyItem(active, iri, item, insideReverse, result); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *compactor) compactPropertyItem(active *ActiveContext, iri string, item Node, insideReverse bool, result map[string]interface{}) error {
	itemActive := c.compactIRI(active, iri, &item, true, insideReverse)
	tdef := active.Term(itemActive)

	nestedActive := active
	if tdef != nil && tdef.HasContext {
		scoped, err := c.processContext(c.ctx, active, tdef.Context, tdef.BaseURL, nil, true, true)
		if err != nil {
			return err
		}
		nestedActive = scoped
	}

	target := result
	if tdef != nil && tdef.Nest != "" {
		nestKey := tdef.Nest
		if nestKey == KeywordNest {
			nestKey = active.keywordAlias(KeywordNest)
		}
		nested, ok := target[nestKey].(map[string]interface{})
		if !ok {
			nested = make(map[string]interface{})
			target[nestKey] = nested
		}
		target = nested
	}

	var container stringset.Set
	if tdef != nil {
		container = tdef.Containers
	}
	asArray := !c.opts.CompactArrays || container.Contains(KeywordSet)

	switch {
	case item.IsList():
		return c.compactListItem(nestedActive, itemActive, item, container, asArray, target)
	case item.IsGraph():
		return c.compactGraphItem(nestedActive, itemActive, item, container, asArray, target)
	}

	compacted, err := c.compactNode(nestedActive, itemActive, item)
	if err != nil {
		return err
	}

	switch {
	case container.Contains(KeywordLanguage) && item.IsValue():
		key := item.Language
		if key == "" {
			key = nestedActive.keywordAlias(KeywordNone)
		}
		addMapEntry(target, itemActive, key, item.Value, asArray)

	case container.Contains(KeywordIndex):
		key := item.Index
		if key == "" {
			key = nestedActive.keywordAlias(KeywordNone)
		}
		addMapEntry(target, itemActive, key, compacted, asArray)

	case container.Contains(KeywordID):
		key := ""
		if item.ID != "" {
			key = c.compactIRI(nestedActive, item.ID, nil, false, false)
		}
		if key == "" {
			key = nestedActive.keywordAlias(KeywordNone)
		}
		if m, ok := compacted.(map[string]interface{}); ok {
			delete(m, nestedActive.keywordAlias(KeywordID))
		}
		addMapEntry(target, itemActive, key, compacted, asArray)

	case container.Contains(KeywordType):
		key := nestedActive.keywordAlias(KeywordNone)
		if len(item.Types) > 0 {
			key = c.compactIRI(nestedActive, item.Types[0], nil, true, false)
		}
		if m, ok := compacted.(map[string]interface{}); ok {
			typeKey := nestedActive.keywordAlias(KeywordType)
			switch types := m[typeKey].(type) {
			case string:
				delete(m, typeKey)
			case []interface{}:
				if len(types) > 1 {
					m[typeKey] = types[1:]
				} else {
					delete(m, typeKey)
				}
			}
		}
		addMapEntry(target, itemActive, key, compacted, asArray)

	default:
		addEntry(target, itemActive, compacted, asArray)
	}
	return nil
}

func (c *compactor) compactListItem(active *ActiveContext, itemActive string, item Node, container stringset.Set, asArray bool, target map[string]interface{}) error {
	inner := make([]interface{}, 0, len(item.List))
	for _, li := range item.List {
		v, err := c.compactNode(active, itemActive, li)
		if err != nil {
			return err
		}
		inner = append(inner, v)
	}
	if container.Contains(KeywordList) {
		target[itemActive] = inner
		return nil
	}
	m := map[string]interface{}{active.keywordAlias(KeywordList): inner}
	if item.Index != "" {
		if container.Contains(KeywordIndex) {
			addMapEntry(target, itemActive, item.Index, m, asArray)
			return nil
		}
		m[active.keywordAlias(KeywordIndex)] = item.Index
	}
	addEntry(target, itemActive, m, asArray)
	return nil
}

func (c *compactor) compactGraphItem(active *ActiveContext, itemActive string, item Node, container stringset.Set, asArray bool, target map[string]interface{}) error {
	inner := make([]interface{}, 0, len(item.Graph))
	for _, gn := range item.Graph {
		v, err := c.compactNode(active, itemActive, gn)
		if err != nil {
			return err
		}
		inner = append(inner, v)
	}
	value := collapseArray(inner, c.opts.CompactArrays)

	switch {
	case container.Contains(KeywordGraph) && container.Contains(KeywordID):
		key := active.keywordAlias(KeywordNone)
		if item.ID != "" {
			key = c.compactIRI(active, item.ID, nil, false, false)
		}
		addMapEntry(target, itemActive, key, value, asArray)
	case container.Contains(KeywordGraph) && container.Contains(KeywordIndex) && item.ID == "":
		key := item.Index
		if key == "" {
			key = active.keywordAlias(KeywordNone)
		}
		addMapEntry(target, itemActive, key, value, asArray)
	case container.Contains(KeywordGraph) && item.ID == "" && item.Index == "":
		addEntry(target, itemActive, value, asArray)
	default:
		m := map[string]interface{}{active.keywordAlias(KeywordGraph): value}
		if item.ID != "" {
			m[active.keywordAlias(KeywordID)] = c.compactIRI(active, item.ID, nil, false, false)
		}
		if item.Index != "" {
			m[active.keywordAlias(KeywordIndex)] = item.Index
		}
		addEntry(target, itemActive, m, asArray)
	}
	return nil
}

// compactValue compacts a value object or node reference, eliding the
// @value wrapper when the target context makes the elision lossless.
func (c *compactor) compactValue(active *ActiveContext, activeProperty string, v Node) interface{} {
	def := active.Term(activeProperty)

	if !v.IsValue() {
		if def != nil && def.Type == KeywordID {
			return c.compactIRI(active, v.ID, nil, false, false)
		}
		if def != nil && def.Type == KeywordVocab {
			return c.compactIRI(active, v.ID, nil, true, false)
		}
		return map[string]interface{}{
			active.keywordAlias(KeywordID): c.compactIRI(active, v.ID, nil, false, false),
		}
	}

	indexOK := v.Index == "" || (def != nil && def.Containers.Contains(KeywordIndex))
	if indexOK {
		if len(v.Types) == 1 && def != nil && def.Type == v.Types[0] {
			return v.Value
		}
		if len(v.Types) == 0 && (def == nil || def.Type == "" || def.Type == KeywordID || def.Type == KeywordVocab) {
			if _, isString := v.Value.(string); isString {
				if v.Language == active.termLanguage(def) && v.Direction == active.termDirection(def) {
					return v.Value
				}
			} else if v.Language == "" && v.Direction == "" {
				return v.Value
			}
		}
	}

	m := make(map[string]interface{})
	if len(v.Types) == 1 {
		m[active.keywordAlias(KeywordType)] = c.compactIRI(active, v.Types[0], nil, true, false)
	}
	if v.Language != "" {
		m[active.keywordAlias(KeywordLanguage)] = v.Language
	}
	if v.Direction != "" {
		m[active.keywordAlias(KeywordDirection)] = v.Direction
	}
	if v.Index != "" && !(def != nil && def.Containers.Contains(KeywordIndex)) {
		m[active.keywordAlias(KeywordIndex)] = v.Index
	}
	m[active.keywordAlias(KeywordValue)] = v.Value
	return m
}

// compactIRI is the IRI compaction algorithm: term selection through the
// inverse context, then vocabulary suffixing, then compact IRIs, then
// base-relative forms.
func (c *compactor) compactIRI(active *ActiveContext, iri string, value *Node, vocab, reverse bool) string {
	if iri == "" {
		return iri
	}

	if vocab {
		if term := c.selectBestTerm(active, iri, value, reverse); term != "" {
			return term
		}
		if active.Vocab != "" && strings.HasPrefix(iri, active.Vocab) && len(iri) > len(active.Vocab) {
			suffix := iri[len(active.Vocab):]
			if !IsKeyword(suffix) && !isKeywordLike(suffix) {
				if def := active.Term(suffix); def == nil || def.IRI == iri {
					return suffix
				}
			}
		}
	}

	// Compact IRI candidates: shortest wins, ties break lexicographically.
	best := ""
	for _, term := range active.Terms() {
		def := active.Term(term)
		if def == nil || !def.Prefix || def.Reverse || def.IRI == "" {
			continue
		}
		if !strings.HasPrefix(iri, def.IRI) || iri == def.IRI {
			continue
		}
		candidate := term + ":" + iri[len(def.IRI):]
		if cdef := active.Term(candidate); cdef != nil && cdef.IRI != iri {
			continue
		}
		if best == "" || len(candidate) < len(best) || (len(candidate) == len(best) && candidate < best) {
			best = candidate
		}
	}
	if best != "" {
		return best
	}

	if !vocab {
		return relativizeIRI(active.Base, iri)
	}
	return iri
}

// selectBestTerm consults the inverse context for the most specific term
// matching the value's container shape, type and language.
func (c *compactor) selectBestTerm(active *ActiveContext, iri string, value *Node, reverse bool) string {
	inv := c.inverse(active)
	if _, ok := inv[iri]; !ok {
		return ""
	}

	var containers []string
	typeLanguage := KeywordLanguage
	typeLanguageValue := "@null"

	if value != nil && value.Index != "" && !value.IsGraph() {
		containers = append(containers, KeywordIndex, KeywordIndex+KeywordSet)
	}

	switch {
	case reverse:
		typeLanguage = KeywordType
		typeLanguageValue = KeywordReverse
		containers = append(containers, KeywordSet)

	case value != nil && value.IsList():
		if value.Index == "" {
			containers = append(containers, KeywordList)
		}
		commonType, commonLang := listCommonTypeLanguage(active, value.List)
		if commonType != KeywordNone {
			typeLanguage = KeywordType
			typeLanguageValue = commonType
		} else {
			typeLanguageValue = commonLang
		}

	case value != nil && value.IsGraph():
		if value.Index != "" {
			containers = append(containers, "@graph@index", "@graph@index@set")
		}
		if value.ID != "" {
			containers = append(containers, "@graph@id", "@graph@id@set")
		}
		containers = append(containers, KeywordGraph, "@graph@set", KeywordSet)
		if value.Index == "" {
			containers = append(containers, "@graph@index", "@graph@index@set")
		}
		if value.ID == "" {
			containers = append(containers, "@graph@id", "@graph@id@set")
		}
		typeLanguage = KeywordType
		typeLanguageValue = KeywordID

	case value != nil && value.IsValue():
		if value.Index == "" {
			containers = append(containers, KeywordLanguage, "@language@set")
		}
		if len(value.Types) == 1 {
			typeLanguage = KeywordType
			typeLanguageValue = value.Types[0]
		} else if value.Language != "" || value.Direction != "" {
			typeLanguageValue = langDirKey(value.Language, value.Direction)
		}
		containers = append(containers, KeywordSet)

	default:
		typeLanguage = KeywordType
		typeLanguageValue = KeywordID
		containers = append(containers, KeywordID, "@id@set", KeywordType, "@set@type", KeywordSet)
	}

	containers = append(containers, KeywordNone)
	if !c.mode10() && (value == nil || value.Index == "") {
		containers = append(containers, KeywordIndex, KeywordIndex+KeywordSet)
	}
	if !c.mode10() && value != nil && value.IsValue() &&
		len(value.Types) == 0 && value.Language == "" && value.Direction == "" && value.Index == "" {
		containers = append(containers, KeywordLanguage, "@language@set")
	}

	var preferred []string
	if typeLanguageValue == "" {
		typeLanguageValue = "@null"
	}
	preferred = append(preferred, typeLanguageValue)
	if (typeLanguageValue == KeywordID || typeLanguageValue == KeywordReverse) &&
		value != nil && value.ID != "" {
		if compacted := c.compactIRI(active, value.ID, nil, true, false); roundTrips(active, compacted, value.ID) {
			preferred = append(preferred, KeywordVocab, KeywordID)
		} else {
			preferred = append(preferred, KeywordID, KeywordVocab)
		}
	}
	preferred = append(preferred, KeywordNone)

	if value == nil {
		typeLanguage = anyKey
		preferred = []string{KeywordNone}
	}

	return inv.selectTerm(iri, containers, typeLanguage, preferred)
}

func roundTrips(active *ActiveContext, term, iri string) bool {
	def := active.Term(term)
	return def != nil && def.IRI == iri
}

// listCommonTypeLanguage finds the type or language shared by every list
// item, used to pick a coercing term for the whole list.
func listCommonTypeLanguage(active *ActiveContext, list []Node) (commonType, commonLang string) {
	if len(list) == 0 {
		return KeywordNone, langDirKey(active.DefaultLanguage, active.DefaultDirection)
	}
	for i, item := range list {
		itemLang, itemType := KeywordNone, KeywordNone
		if item.IsValue() {
			switch {
			case item.Language != "" || item.Direction != "":
				itemLang = langDirKey(item.Language, item.Direction)
			case len(item.Types) == 1:
				itemType = item.Types[0]
			default:
				itemLang = "@null"
			}
		} else {
			itemType = KeywordID
		}
		if i == 0 {
			commonLang, commonType = itemLang, itemType
			continue
		}
		if commonLang != itemLang {
			commonLang = KeywordNone
		}
		if commonType != itemType {
			commonType = KeywordNone
		}
		if commonLang == KeywordNone && commonType == KeywordNone {
			break
		}
	}
	return commonType, commonLang
}

func collapseArray(items []interface{}, compactArrays bool) interface{} {
	if compactArrays && len(items) == 1 {
		return items[0]
	}
	return items
}

func addEntry(target map[string]interface{}, key string, value interface{}, asArray bool) {
	existing, ok := target[key]
	if !ok {
		if asArray {
			target[key] = []interface{}{value}
		} else {
			target[key] = value
		}
		return
	}
	arr, isArr := existing.([]interface{})
	if !isArr {
		arr = []interface{}{existing}
	}
	target[key] = append(arr, value)
}

func addMapEntry(target map[string]interface{}, prop, key string, value interface{}, asArray bool) {
	m, ok := target[prop].(map[string]interface{})
	if !ok {
		m = make(map[string]interface{})
		target[prop] = m
	}
	addEntry(m, key, value, asArray)
}

func mergeEntry(target map[string]interface{}, key string, value interface{}) {
	if arr, ok := value.([]interface{}); ok {
		for _, item := range arr {
			addEntry(target, key, item, true)
		}
		return
	}
	addEntry(target, key, value, false)
}
