package jsonld

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"bitbucket.org/creachadair/stringset"
)

// expandDocument expands a parsed JSON document against an active context,
// producing the expanded document model. The top level must be an object or
// an array.
func (s *processorState) expandDocument(ctx context.Context, doc interface{}, active *ActiveContext, baseURL string) (Document, error) {
	switch doc.(type) {
	case map[string]interface{}, []interface{}:
	default:
		return nil, newError(ErrCodeInvalidDocument, "")
	}
	nodes, err := s.expandElement(ctx, active, "", doc, baseURL)
	if err != nil {
		return nil, err
	}
	// A sole top-level simple graph object unwraps to its nodes.
	if len(nodes) == 1 && nodes[0].Graph != nil && nodes[0].ID == "" &&
		len(nodes[0].Types) == 0 && len(nodes[0].Properties) == 0 &&
		len(nodes[0].Reverse) == 0 && nodes[0].Included == nil && nodes[0].Index == "" {
		nodes = nodes[0].Graph
	}
	if nodes == nil {
		nodes = []Node{}
	}
	return Document(nodes), nil
}

// expandElement is the central recursive expansion procedure. activeProperty
// is "" at the top level and inside @graph entries without a property.
func (s *processorState) expandElement(ctx context.Context, active *ActiveContext, activeProperty string, element interface{}, baseURL string) ([]Node, error) {
	if element == nil {
		return nil, nil
	}
	var def *TermDefinition
	if activeProperty != "" {
		def = active.Term(activeProperty)
	}

	switch el := element.(type) {
	case map[string]interface{}:
		return s.expandObject(ctx, active, activeProperty, el, baseURL)

	case []interface{}:
		var result []Node
		listContainer := def != nil && def.Containers.Contains(KeywordList)
		for _, item := range el {
			expanded, err := s.expandElement(ctx, active, activeProperty, item, baseURL)
			if err != nil {
				return nil, err
			}
			if _, wasArray := item.([]interface{}); wasArray && listContainer {
				// A nested array under a list container becomes a nested
				// list object, which JSON-LD 1.0 forbids.
				if s.mode10() {
					return nil, newError(ErrCodeListOfLists, activeProperty)
				}
				result = append(result, Node{List: nonNilNodes(expanded)})
				continue
			}
			for _, n := range expanded {
				if n.IsNode() && n.IsEmpty() {
					continue
				}
				result = append(result, n)
			}
		}
		return result, nil

	default:
		// Scalar. Free-floating scalars are dropped.
		if activeProperty == "" || activeProperty == KeywordGraph {
			return nil, nil
		}
		if def != nil && def.HasContext {
			scoped, err := s.processContext(ctx, active, def.Context, def.BaseURL, nil, true, true)
			if err != nil {
				return nil, err
			}
			active = scoped
			def = active.Term(activeProperty)
		}
		value := s.expandValue(active, activeProperty, el)
		return []Node{value}, nil
	}
}

// expandValue applies the term's type coercion to a scalar, producing a
// value object or, under @id/@vocab coercion, a node reference.
func (s *processorState) expandValue(active *ActiveContext, activeProperty string, value interface{}) Node {
	def := active.Term(activeProperty)
	if str, ok := value.(string); ok && def != nil {
		switch def.Type {
		case KeywordID:
			iri, err := s.expandIRI(active, str, true, false, nil)
			if err == nil {
				return Node{ID: iri}
			}
		case KeywordVocab:
			iri, err := s.expandIRI(active, str, true, true, nil)
			if err == nil {
				return Node{ID: iri}
			}
		}
	}
	result := Node{Value: value}
	if def != nil && def.Type != "" && def.Type != KeywordID && def.Type != KeywordVocab && def.Type != KeywordNone {
		result.Types = []string{def.Type}
		return result
	}
	if _, isString := value.(string); isString {
		if lang := active.termLanguage(def); lang != "" {
			result.Language = lang
		}
		if dir := active.termDirection(def); dir != "" {
			result.Direction = dir
		}
	}
	return result
}

// expandState accumulates the entries of one object while they are
// processed, before the result is shaped into a node, value or list object.
type expandState struct {
	result    Node
	hasValue  bool
	valueNull bool
	hasList   bool
	hasSet    bool
	setNodes  []Node
	inputType string
	seen      stringset.Set
	nests     []string
}

func (s *processorState) expandObject(ctx context.Context, active *ActiveContext, activeProperty string, element map[string]interface{}, baseURL string) ([]Node, error) {
	var propertyDef *TermDefinition
	if activeProperty != "" {
		propertyDef = active.Term(activeProperty)
	}

	// Revert to the previous context unless the object is a value object or
	// a lone node reference; non-propagated (type-scoped) contexts only
	// survive into those.
	if active.previousContext != nil {
		revert := true
		for key := range element {
			expanded, err := s.expandIRI(active, key, false, true, nil)
			if err != nil {
				return nil, err
			}
			if expanded == KeywordValue || (len(element) == 1 && expanded == KeywordID) {
				revert = false
				break
			}
		}
		if revert {
			active = active.previousContext
		}
	}

	// Property-scoped context, applied lazily at the point of use.
	if propertyDef != nil && propertyDef.HasContext {
		scoped, err := s.processContext(ctx, active, propertyDef.Context, propertyDef.BaseURL, nil, true, true)
		if err != nil {
			return nil, err
		}
		active = scoped
	}

	if local, ok := element[KeywordContext]; ok {
		merged, err := s.processContext(ctx, active, local, baseURL, nil, false, true)
		if err != nil {
			return nil, err
		}
		active = merged
	}

	// Type-scoped contexts: each type value's scoped context applies, in
	// lexicographic order of the type values, without propagation. @type
	// values themselves are expanded against the context in effect here.
	typeContext := active
	st := &expandState{seen: stringset.New()}
	for _, key := range sortedKeys(element) {
		expanded, err := s.expandIRI(active, key, false, true, nil)
		if err != nil {
			return nil, err
		}
		if expanded != KeywordType {
			continue
		}
		types, err := typeStrings(element[key])
		if err != nil {
			return nil, err
		}
		sorted := append([]string(nil), types...)
		sort.Strings(sorted)
		for _, t := range sorted {
			tdef := typeContext.Term(t)
			if tdef != nil && tdef.HasContext {
				next, err := s.processContext(ctx, active, tdef.Context, tdef.BaseURL, nil, false, false)
				if err != nil {
					return nil, err
				}
				active = next
			}
		}
		if len(sorted) > 0 {
			st.inputType, err = s.expandIRI(typeContext, sorted[len(sorted)-1], true, true, nil)
			if err != nil {
				return nil, err
			}
		}
	}

	if err := s.expandEntries(ctx, active, typeContext, activeProperty, element, baseURL, st); err != nil {
		return nil, err
	}
	return s.shapeExpanded(activeProperty, st)
}

func typeStrings(value interface{}) ([]string, error) {
	var out []string
	for _, item := range toArray(value) {
		str, ok := item.(string)
		if !ok {
			return nil, newError(ErrCodeInvalidTypeValue, KeywordType)
		}
		out = append(out, str)
	}
	return out, nil
}

// expandEntries processes the entries of element into st. Nested objects
// reached through @nest recurse here with the same state.
func (s *processorState) expandEntries(ctx context.Context, active, typeContext *ActiveContext, activeProperty string, element map[string]interface{}, baseURL string, st *expandState) error {
	for _, key := range sortedKeys(element) {
		if key == KeywordContext {
			continue
		}
		value := element[key]
		expandedProperty, err := s.expandIRI(active, key, false, true, nil)
		if err != nil {
			return err
		}
		if expandedProperty == "" || (!strings.Contains(expandedProperty, ":") && !IsKeyword(expandedProperty)) {
			if s.opts.UndefinedTermPolicy == ErrorOnUndefinedTerms {
				return newError(ErrCodeUndefinedTerm, key)
			}
			continue
		}

		if IsKeyword(expandedProperty) {
			if err := s.expandKeywordEntry(ctx, active, typeContext, activeProperty, expandedProperty, key, value, baseURL, st); err != nil {
				return err
			}
			continue
		}

		if err := s.expandPropertyEntry(ctx, active, expandedProperty, key, value, baseURL, st); err != nil {
			return err
		}
	}

	// @nest entries merge their object's entries at this level.
	nests := st.nests
	st.nests = nil
	sort.Strings(nests)
	for _, nestKey := range nests {
		for _, nested := range toArray(element[nestKey]) {
			nestedMap, ok := nested.(map[string]interface{})
			if !ok {
				return newError(ErrCodeInvalidNestValue, nestKey)
			}
			for k := range nestedMap {
				expanded, err := s.expandIRI(active, k, false, true, nil)
				if err != nil {
					return err
				}
				if expanded == KeywordValue {
					return newError(ErrCodeInvalidNestValue, nestKey)
				}
			}
			if err := s.expandEntries(ctx, active, typeContext, activeProperty, nestedMap, baseURL, st); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *processorState) expandKeywordEntry(ctx context.Context, active, typeContext *ActiveContext, activeProperty, expandedProperty, key string, value interface{}, baseURL string, st *expandState) error {
	if activeProperty == KeywordReverse && expandedProperty != KeywordReverse {
		return newError(ErrCodeInvalidReversePropertyMap, key)
	}
	if st.seen.Contains(expandedProperty) && expandedProperty != KeywordIncluded && expandedProperty != KeywordType {
		return newError(ErrCodeCollidingKeywords, expandedProperty)
	}
	st.seen.Add(expandedProperty)

	switch expandedProperty {
	case KeywordID:
		str, ok := value.(string)
		if !ok {
			return newError(ErrCodeInvalidIDValue, key)
		}
		iri, err := s.expandIRI(active, str, true, false, nil)
		if err != nil {
			return err
		}
		st.result.ID = iri

	case KeywordType:
		types, err := typeStrings(value)
		if err != nil {
			return err
		}
		for _, t := range types {
			expanded, err := s.expandIRI(typeContext, t, true, true, nil)
			if err != nil {
				return err
			}
			st.result.Types = append(st.result.Types, expanded)
		}

	case KeywordGraph:
		expanded, err := s.expandElement(ctx, active, KeywordGraph, value, baseURL)
		if err != nil {
			return err
		}
		st.result.Graph = nonNilNodes(expanded)

	case KeywordIncluded:
		if s.mode10() {
			return nil
		}
		expanded, err := s.expandElement(ctx, active, "", value, baseURL)
		if err != nil {
			return err
		}
		for _, n := range expanded {
			if !n.IsNode() || n.Graph != nil {
				return newError(ErrCodeInvalidIncludedValue, key)
			}
		}
		st.result.Included = append(st.result.Included, expanded...)

	case KeywordValue:
		st.hasValue = true
		if st.inputType == KeywordJSON && !s.mode10() {
			if value == nil {
				value = json.RawMessage("null")
			}
			st.result.Value = value
			return nil
		}
		switch value.(type) {
		case nil:
			st.valueNull = true
		case string, bool, float64, json.Number:
			st.result.Value = value
		default:
			return newError(ErrCodeInvalidValueObjectValue, key)
		}

	case KeywordLanguage:
		str, ok := value.(string)
		if !ok {
			return newError(ErrCodeInvalidLanguageTaggedString, key)
		}
		st.result.Language = strings.ToLower(str)

	case KeywordDirection:
		if s.mode10() {
			return nil
		}
		str, ok := value.(string)
		if !ok || (str != "ltr" && str != "rtl") {
			return newError(ErrCodeInvalidBaseDirection, key)
		}
		st.result.Direction = str

	case KeywordIndex:
		str, ok := value.(string)
		if !ok {
			return newError(ErrCodeInvalidIndexValue, key)
		}
		st.result.Index = str

	case KeywordList:
		if activeProperty == "" || activeProperty == KeywordGraph {
			return nil // free-floating list, dropped
		}
		expanded, err := s.expandElement(ctx, active, activeProperty, value, baseURL)
		if err != nil {
			return err
		}
		if s.mode10() {
			for _, n := range expanded {
				if n.IsList() {
					return newError(ErrCodeListOfLists, key)
				}
			}
		}
		st.result.List = nonNilNodes(expanded)
		st.hasList = true

	case KeywordSet:
		expanded, err := s.expandElement(ctx, active, activeProperty, value, baseURL)
		if err != nil {
			return err
		}
		st.setNodes = expanded
		st.hasSet = true

	case KeywordReverse:
		m, ok := value.(map[string]interface{})
		if !ok {
			return newError(ErrCodeInvalidReverseValue, key)
		}
		expanded, err := s.expandObject(ctx, active, KeywordReverse, m, baseURL)
		if err != nil {
			return err
		}
		for _, rnode := range expanded {
			// Forward entries nested under a double @reverse.
			for _, prop := range rnode.reverseIRIs() {
				addProperty(&st.result, prop, rnode.Reverse[prop]...)
			}
			for _, prop := range rnode.propertyIRIs() {
				for _, item := range rnode.Properties[prop] {
					if item.IsValue() || item.IsList() {
						return newError(ErrCodeInvalidReversePropertyValue, key)
					}
					addReverse(&st.result, prop, item)
				}
			}
		}

	case KeywordNest:
		st.nests = append(st.nests, key)

	default:
		// @default and other framing keywords are ignored here.
	}
	return nil
}

func (s *processorState) expandPropertyEntry(ctx context.Context, active *ActiveContext, expandedProperty, key string, value interface{}, baseURL string, st *expandState) error {
	def := active.Term(key)
	var containers stringset.Set
	if def != nil {
		containers = def.Containers
	}

	var expandedValue []Node
	var err error
	valueMap, isMap := value.(map[string]interface{})
	switch {
	case def != nil && def.Type == KeywordJSON && !s.mode10():
		// JSON literal: the raw value is preserved, not expanded.
		if value == nil {
			value = json.RawMessage("null")
		}
		expandedValue = []Node{{Value: value, Types: []string{KeywordJSON}}}

	case containers.Contains(KeywordLanguage) && isMap:
		expandedValue, err = s.expandLanguageMap(active, def, key, valueMap)

	case isMap && (containers.Contains(KeywordIndex) || containers.Contains(KeywordID) || containers.Contains(KeywordType)):
		expandedValue, err = s.expandContainerMap(ctx, active, def, key, containers, valueMap, baseURL)

	default:
		expandedValue, err = s.expandElement(ctx, active, key, value, baseURL)
	}
	if err != nil {
		return err
	}

	// Wrap in a list object unless the raw value already was one. An array
	// whose elements expanded to list objects still wraps, producing a
	// nested list.
	rawList := isMap && len(expandedValue) == 1 && expandedValue[0].IsList()
	if containers.Contains(KeywordList) && !rawList {
		expandedValue = []Node{{List: nonNilNodes(expandedValue)}}
	}
	if len(expandedValue) == 0 {
		return nil
	}

	if containers.Contains(KeywordGraph) && !containers.Contains(KeywordID) && !containers.Contains(KeywordIndex) {
		for i, item := range expandedValue {
			if !item.IsGraph() {
				expandedValue[i] = Node{Graph: []Node{item}}
			}
		}
	}

	if def != nil && def.Reverse {
		for _, item := range expandedValue {
			if item.IsValue() || item.IsList() {
				return newError(ErrCodeInvalidReversePropertyValue, key)
			}
			addReverse(&st.result, expandedProperty, item)
		}
		return nil
	}
	addProperty(&st.result, expandedProperty, expandedValue...)
	return nil
}

// expandLanguageMap synthesizes language-tagged value objects from a
// @container: @language map.
func (s *processorState) expandLanguageMap(active *ActiveContext, def *TermDefinition, key string, m map[string]interface{}) ([]Node, error) {
	var result []Node
	for _, lang := range sortedKeys(m) {
		expandedLang, err := s.expandIRI(active, lang, false, true, nil)
		if err != nil {
			return nil, err
		}
		for _, item := range toArray(m[lang]) {
			if item == nil {
				continue
			}
			str, ok := item.(string)
			if !ok {
				return nil, newError(ErrCodeInvalidLanguageMapValue, key)
			}
			node := Node{Value: str}
			if expandedLang != KeywordNone {
				node.Language = strings.ToLower(lang)
			}
			if dir := active.termDirection(def); dir != "" {
				node.Direction = dir
			}
			result = append(result, node)
		}
	}
	return result, nil
}

// expandContainerMap handles @index, @id and @type container maps.
func (s *processorState) expandContainerMap(ctx context.Context, active *ActiveContext, def *TermDefinition, key string, containers stringset.Set, m map[string]interface{}, baseURL string) ([]Node, error) {
	var result []Node
	for _, entryKey := range sortedKeys(m) {
		mapContext := active
		if containers.Contains(KeywordType) {
			if kdef := mapContext.Term(entryKey); kdef != nil && kdef.HasContext {
				scoped, err := s.processContext(ctx, mapContext, kdef.Context, kdef.BaseURL, nil, false, false)
				if err != nil {
					return nil, err
				}
				mapContext = scoped
			}
		}
		expandedKey, err := s.expandIRI(active, entryKey, false, true, nil)
		if err != nil {
			return nil, err
		}
		items, err := s.expandElement(ctx, mapContext, key, m[entryKey], baseURL)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			if containers.Contains(KeywordGraph) && !item.IsGraph() {
				item = Node{Graph: []Node{item}}
			}
			switch {
			case containers.Contains(KeywordIndex):
				if def != nil && def.IndexMapping != "" && expandedKey != KeywordNone {
					// Property-based index: the key re-expands as a value of
					// the index property.
					propIRI, err := s.expandIRI(active, def.IndexMapping, false, true, nil)
					if err != nil {
						return nil, err
					}
					indexValue := s.expandValue(active, def.IndexMapping, entryKey)
					item.Properties = cloneProperties(item.Properties)
					item.Properties[propIRI] = append([]Node{indexValue}, item.Properties[propIRI]...)
				} else if item.Index == "" && expandedKey != KeywordNone {
					item.Index = entryKey
				}
			case containers.Contains(KeywordID):
				if item.ID == "" && expandedKey != KeywordNone {
					iri, err := s.expandIRI(active, entryKey, true, false, nil)
					if err != nil {
						return nil, err
					}
					item.ID = iri
				}
			case containers.Contains(KeywordType):
				if expandedKey != KeywordNone {
					item.Types = append([]string{expandedKey}, item.Types...)
				}
			}
			result = append(result, item)
		}
	}
	return result, nil
}

// shapeExpanded validates the accumulated entries and produces the final
// object(s) for one element.
func (s *processorState) shapeExpanded(activeProperty string, st *expandState) ([]Node, error) {
	r := &st.result
	freeFloating := activeProperty == "" || activeProperty == KeywordGraph

	if st.hasValue {
		if r.ID != "" || len(r.Properties) > 0 || len(r.Reverse) > 0 ||
			r.Graph != nil || r.Included != nil || st.hasList || st.hasSet {
			return nil, newError(ErrCodeInvalidValueObject, KeywordValue)
		}
		if st.inputType == KeywordJSON && !s.mode10() {
			r.Types = []string{KeywordJSON}
			if freeFloating {
				return nil, nil
			}
			return []Node{*r}, nil
		}
		if st.valueNull {
			return nil, nil
		}
		if len(r.Types) > 0 {
			if r.Language != "" || r.Direction != "" {
				return nil, newError(ErrCodeInvalidValueObject, KeywordValue)
			}
			if len(r.Types) > 1 || (!isAbsoluteIRI(r.Types[0]) && !isBlankNode(r.Types[0])) {
				return nil, newError(ErrCodeInvalidTypedValue, KeywordType)
			}
		}
		if r.Language != "" {
			if _, isString := r.Value.(string); !isString {
				return nil, newError(ErrCodeInvalidLanguageTaggedValue, KeywordLanguage)
			}
		}
		if freeFloating {
			return nil, nil
		}
		return []Node{*r}, nil
	}

	if st.hasList {
		if r.ID != "" || len(r.Types) > 0 || len(r.Properties) > 0 ||
			len(r.Reverse) > 0 || r.Graph != nil || r.Included != nil ||
			r.Language != "" || st.hasSet {
			return nil, newError(ErrCodeInvalidSetOrListObject, KeywordList)
		}
		if freeFloating {
			return nil, nil
		}
		return []Node{{List: r.List, Index: r.Index}}, nil
	}

	if st.hasSet {
		if r.ID != "" || len(r.Types) > 0 || len(r.Properties) > 0 ||
			len(r.Reverse) > 0 || r.Graph != nil || r.Included != nil ||
			r.Language != "" {
			return nil, newError(ErrCodeInvalidSetOrListObject, KeywordSet)
		}
		return st.setNodes, nil
	}

	// A map holding nothing but @language expands to nothing.
	if r.Language != "" && r.ID == "" && len(r.Types) == 0 && len(r.Properties) == 0 &&
		len(r.Reverse) == 0 && r.Graph == nil && r.Included == nil && r.Index == "" {
		return nil, nil
	}
	if r.Language != "" || r.Direction != "" {
		return nil, newError(ErrCodeInvalidValueObject, activeProperty)
	}

	for _, t := range r.Types {
		if !isAbsoluteIRI(t) && !isBlankNode(t) && t != KeywordJSON {
			return nil, newError(ErrCodeInvalidTypeValue, t)
		}
	}

	if freeFloating && (r.IsEmpty() || r.IsSubjectReference()) {
		return nil, nil
	}
	return []Node{*r}, nil
}

func nonNilNodes(nodes []Node) []Node {
	if nodes == nil {
		return []Node{}
	}
	return nodes
}

func addProperty(n *Node, iri string, values ...Node) {
	if n.Properties == nil {
		n.Properties = make(Properties)
	}
	n.Properties[iri] = append(n.Properties[iri], values...)
}

func addReverse(n *Node, iri string, values ...Node) {
	if n.Reverse == nil {
		n.Reverse = make(Properties)
	}
	n.Reverse[iri] = append(n.Reverse[iri], values...)
}

func cloneProperties(p Properties) Properties {
	out := make(Properties, len(p)+1)
	for k, v := range p {
		out[k] = v
	}
	return out
}
