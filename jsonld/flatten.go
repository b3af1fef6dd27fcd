package jsonld

import "sort"

// nodeMap accumulates the flattened view of a document: one namespace of
// nodes per graph, keyed by node identifier. Nodes the input defines in
// several places merge into a single entry per graph.
type nodeMap struct {
	gen    Generator
	graphs map[string]map[string]*Node
}

func newNodeMap(gen Generator) *nodeMap {
	return &nodeMap{
		gen:    gen,
		graphs: map[string]map[string]*Node{KeywordDefault: {}},
	}
}

func (m *nodeMap) graph(name string) map[string]*Node {
	g, ok := m.graphs[name]
	if !ok {
		g = make(map[string]*Node)
		m.graphs[name] = g
	}
	return g
}

func (m *nodeMap) entry(graphName, id string) *Node {
	g := m.graph(graphName)
	n, ok := g[id]
	if !ok {
		n = &Node{ID: id}
		g[id] = n
	}
	return n
}

// addNode merges a node object into graphName's namespace and returns a bare
// reference to it. Nodes without an identifier get a fresh blank node
// identifier; identifiers the caller supplied, blank or not, are kept.
func (m *nodeMap) addNode(graphName string, n Node) (Node, error) {
	id := n.ID
	if id == "" {
		id = m.gen.FreshBlankNode()
		if id == "" {
			return Node{}, newError(ErrCodeGeneratorFailed, "")
		}
	}
	entry := m.entry(graphName, id)

	for _, t := range n.Types {
		if !containsString(entry.Types, t) {
			entry.Types = append(entry.Types, t)
		}
	}
	if entry.Index == "" {
		entry.Index = n.Index
	}

	for _, iri := range n.propertyIRIs() {
		for _, v := range n.Properties[iri] {
			pv, err := m.addValue(graphName, v)
			if err != nil {
				return Node{}, err
			}
			addUniqueProperty(entry, iri, pv)
		}
	}

	// Reverse entries invert: the referenced node gains a forward property
	// pointing back at this node.
	for _, iri := range n.reverseIRIs() {
		for _, subject := range n.Reverse[iri] {
			ref, err := m.addValue(graphName, subject)
			if err != nil {
				return Node{}, err
			}
			addUniqueProperty(m.entry(graphName, ref.ID), iri, Node{ID: id})
		}
	}

	if n.Graph != nil {
		m.graph(id)
		for _, gn := range n.Graph {
			if _, err := m.addNode(id, gn); err != nil {
				return Node{}, err
			}
		}
	}

	for _, in := range n.Included {
		if _, err := m.addNode(graphName, in); err != nil {
			return Node{}, err
		}
	}

	return Node{ID: id}, nil
}

// addValue indexes one property value. Node objects are merged into the map
// and replaced by references; lists are rebuilt item by item; value objects
// pass through untouched.
func (m *nodeMap) addValue(graphName string, v Node) (Node, error) {
	switch {
	case v.IsValue():
		return v, nil
	case v.IsList():
		items := make([]Node, 0, len(v.List))
		for _, li := range v.List {
			pv, err := m.addValue(graphName, li)
			if err != nil {
				return Node{}, err
			}
			items = append(items, pv)
		}
		return Node{List: items, Index: v.Index}, nil
	default:
		return m.addNode(graphName, v)
	}
}

// flattenDocument flattens an expanded document: every node is labeled,
// deep nesting is replaced by references, named graph content is collected
// under its graph node, and the result is ordered by identifier.
func (s *processorState) flattenDocument(doc Document) (Document, error) {
	m := newNodeMap(s.opts.Generator)
	for _, n := range doc {
		if _, err := m.addNode(KeywordDefault, n); err != nil {
			return nil, err
		}
	}

	defaultNodes := m.graphs[KeywordDefault]
	graphNames := make([]string, 0, len(m.graphs))
	for name := range m.graphs {
		if name != KeywordDefault {
			graphNames = append(graphNames, name)
		}
	}
	sort.Strings(graphNames)
	for _, name := range graphNames {
		owner, ok := defaultNodes[name]
		if !ok {
			owner = &Node{ID: name}
			defaultNodes[name] = owner
		}
		owner.Graph = sortedGraphNodes(m.graphs[name])
	}

	return Document(sortedGraphNodes(defaultNodes)), nil
}

// sortedGraphNodes orders a graph namespace by node identifier. Nodes that
// are only ever the target of references keep their entry, so every
// identifier named anywhere in the graph has exactly one entry in the output.
func sortedGraphNodes(g map[string]*Node) []Node {
	ids := make([]string, 0, len(g))
	for id := range g {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, *g[id])
	}
	return out
}

func addUniqueProperty(n *Node, iri string, v Node) {
	if n.Properties == nil {
		n.Properties = make(Properties)
	}
	if containsNode(n.Properties[iri], v) {
		return
	}
	n.Properties[iri] = append(n.Properties[iri], v)
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
