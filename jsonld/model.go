package jsonld

import (
	"encoding/json"
	"sort"
)

// Properties maps an expanded property IRI to its ordered values.
type Properties map[string][]Node

// Node is one object of the expanded document model. It represents a node
// object, a value object or a list object; the predicates below distinguish
// the three. An optional @index string is carried on the object itself so
// index containers can be reconstructed during compaction.
//
// Presence conventions: ID, Index, Language and Direction are present when
// non-empty; Graph, Included, List, Properties and Reverse are present when
// non-nil (an empty, non-nil List is the empty list object); Value is present
// when non-nil.
type Node struct {
	ID         string
	Types      []string
	Properties Properties
	Reverse    Properties
	Graph      []Node
	Included   []Node
	Index      string
	List       []Node
	Value      interface{}
	Language   string
	Direction  string
}

// Document is the expanded document: an ordered sequence of objects. Top
// level order is positional and preserved by expansion; flattening re-sorts
// by identifier.
type Document []Node

// IsValue reports whether n is a value object.
func (n *Node) IsValue() bool { return n.Value != nil }

// IsList reports whether n is a list object.
func (n *Node) IsList() bool { return n.List != nil }

// IsNode reports whether n is a node object (neither value nor list).
func (n *Node) IsNode() bool { return !n.IsValue() && !n.IsList() }

// IsGraph reports whether n carries a named or simple graph.
func (n *Node) IsGraph() bool { return n.Graph != nil }

// IsSimpleGraph reports whether n is a graph object without an identifier.
func (n *Node) IsSimpleGraph() bool { return n.Graph != nil && n.ID == "" }

// IsSubjectReference reports whether n is a bare node reference: an
// identifier and nothing else. References are preserved through expansion to
// distinguish "referenced here" from "defined here".
func (n *Node) IsSubjectReference() bool {
	return n.ID != "" && len(n.Types) == 0 && len(n.Properties) == 0 &&
		len(n.Reverse) == 0 && n.Graph == nil && n.Included == nil &&
		!n.IsValue() && !n.IsList()
}

// IsEmpty reports whether n is an empty node object: no identifier, types,
// properties, reverse properties, graph or included entries. Empty nodes are
// dropped when they occur inside arrays.
func (n *Node) IsEmpty() bool {
	return n.ID == "" && len(n.Types) == 0 && len(n.Properties) == 0 &&
		len(n.Reverse) == 0 && n.Graph == nil && n.Included == nil &&
		!n.IsValue() && !n.IsList()
}

// propertyIRIs returns the node's forward property IRIs in lexicographic
// order.
func (n *Node) propertyIRIs() []string {
	iris := make([]string, 0, len(n.Properties))
	for iri := range n.Properties {
		iris = append(iris, iri)
	}
	sort.Strings(iris)
	return iris
}

func (n *Node) reverseIRIs() []string {
	iris := make([]string, 0, len(n.Reverse))
	for iri := range n.Reverse {
		iris = append(iris, iri)
	}
	sort.Strings(iris)
	return iris
}

// JSON converts n to its expanded-form JSON value tree.
func (n Node) JSON() interface{} {
	result := make(map[string]interface{})
	if n.ID != "" {
		result[KeywordID] = n.ID
	}
	if n.IsValue() {
		result[KeywordValue] = n.Value
		if len(n.Types) == 1 {
			result[KeywordType] = n.Types[0]
		}
		if n.Language != "" {
			result[KeywordLanguage] = n.Language
		}
		if n.Direction != "" {
			result[KeywordDirection] = n.Direction
		}
		if n.Index != "" {
			result[KeywordIndex] = n.Index
		}
		return result
	}
	if n.IsList() {
		result[KeywordList] = nodesToJSON(n.List)
		if n.Index != "" {
			result[KeywordIndex] = n.Index
		}
		return result
	}
	if len(n.Types) > 0 {
		types := make([]interface{}, len(n.Types))
		for i, t := range n.Types {
			types[i] = t
		}
		result[KeywordType] = types
	}
	if n.Graph != nil {
		result[KeywordGraph] = nodesToJSON(n.Graph)
	}
	if n.Included != nil {
		result[KeywordIncluded] = nodesToJSON(n.Included)
	}
	if n.Index != "" {
		result[KeywordIndex] = n.Index
	}
	if len(n.Reverse) > 0 {
		reverse := make(map[string]interface{}, len(n.Reverse))
		for iri, values := range n.Reverse {
			reverse[iri] = nodesToJSON(values)
		}
		result[KeywordReverse] = reverse
	}
	for iri, values := range n.Properties {
		result[iri] = nodesToJSON(values)
	}
	return result
}

func nodesToJSON(nodes []Node) []interface{} {
	out := make([]interface{}, len(nodes))
	for i, n := range nodes {
		out[i] = n.JSON()
	}
	return out
}

// JSON converts the document to its expanded-form JSON value tree: an array
// of node objects.
func (d Document) JSON() []interface{} {
	return nodesToJSON(d)
}

// MarshalJSON encodes the document in expanded form.
func (d Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.JSON())
}

// MarshalJSON encodes the node in expanded form.
func (n Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.JSON())
}

// equalNodes compares two objects structurally via their canonical expanded
// JSON encoding. Maps serialize with sorted keys, so the comparison is
// deterministic.
func equalNodes(a, b Node) bool {
	ab, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return string(ab) == string(bb)
}

// containsNode reports whether values already holds an object structurally
// equal to candidate. Flattening uses it to keep merged property arrays
// duplicate free.
func containsNode(values []Node, candidate Node) bool {
	for _, v := range values {
		if equalNodes(v, candidate) {
			return true
		}
	}
	return false
}

// sortedKeys returns the keys of m in lexicographic order. All object walks
// in the processor iterate in this order so results are deterministic.
func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
