package jsonld

import (
	"context"
	"testing"
)

func mustProcessContext(t *testing.T, contextJSON string, opts Options) *ActiveContext {
	t.Helper()
	active, err := NewProcessor(opts).ProcessContext(context.Background(), parseJSON(t, contextJSON))
	if err != nil {
		t.Fatalf("process context: %v", err)
	}
	return active
}

func TestProcessContextTermDefinitions(t *testing.T) {
	active := mustProcessContext(t, `{
		"ex": "http://example.com/",
		"name": "ex:name",
		"knows": {"@id": "ex:knows", "@type": "@id"},
		"list": {"@id": "ex:list", "@container": "@list"},
		"gone": null
	}`, DefaultOptions())

	if def := active.Term("ex"); def == nil || def.IRI != "http://example.com/" || !def.Prefix {
		t.Fatalf("ex: %+v", def)
	}
	if def := active.Term("name"); def == nil || def.IRI != "http://example.com/name" {
		t.Fatalf("name: %+v", def)
	}
	if def := active.Term("knows"); def == nil || def.Type != KeywordID {
		t.Fatalf("knows: %+v", def)
	}
	if def := active.Term("list"); def == nil || !def.Containers.Contains(KeywordList) {
		t.Fatalf("list: %+v", def)
	}
	if def := active.Term("gone"); def == nil || def.IRI != "" {
		t.Fatalf("null mapping should yield a definition with no IRI: %+v", def)
	}
}

func TestProcessContextBaseAndVocab(t *testing.T) {
	opts := DefaultOptions()
	opts.Base = "http://example.com/doc"
	active := mustProcessContext(t, `{
		"@base": "sub/",
		"@vocab": "http://vocab.example.com/"
	}`, opts)
	if active.Base != "http://example.com/sub/" {
		t.Fatalf("base: %q", active.Base)
	}
	if active.Vocab != "http://vocab.example.com/" {
		t.Fatalf("vocab: %q", active.Vocab)
	}
}

func TestProcessContextArrayMerges(t *testing.T) {
	active := mustProcessContext(t, `[
		{"name": "http://example.com/name"},
		{"age": "http://example.com/age"}
	]`, DefaultOptions())
	if active.Term("name") == nil || active.Term("age") == nil {
		t.Fatalf("expected both terms, have %v", active.Terms())
	}
}

func TestProtectedTermRedefinition(t *testing.T) {
	_, err := NewProcessor(DefaultOptions()).ProcessContext(context.Background(), parseJSON(t, `[
		{"name": {"@id": "http://example.com/name", "@protected": true}},
		{"name": "http://other.example.com/name"}
	]`))
	if Code(err) != ErrCodeProtectedTermRedefinition {
		t.Fatalf("expected protected term redefinition, got %v", err)
	}

	// Redefining to the identical mapping is allowed.
	active := mustProcessContext(t, `[
		{"name": {"@id": "http://example.com/name", "@protected": true}},
		{"name": {"@id": "http://example.com/name"}}
	]`, DefaultOptions())
	if def := active.Term("name"); def == nil || !def.Protected {
		t.Fatalf("name should stay protected: %+v", def)
	}
}

func TestProtectedContextNullification(t *testing.T) {
	_, err := NewProcessor(DefaultOptions()).ProcessContext(context.Background(), parseJSON(t, `[
		{"@protected": true, "name": "http://example.com/name"},
		null
	]`))
	if Code(err) != ErrCodeInvalidContextNullification {
		t.Fatalf("expected invalid context nullification, got %v", err)
	}
}

func TestCyclicIRIMapping(t *testing.T) {
	_, err := NewProcessor(DefaultOptions()).ProcessContext(context.Background(), parseJSON(t, `{
		"t1": "t2:x",
		"t2": "t1:y"
	}`))
	if Code(err) != ErrCodeCyclicIRIMapping {
		t.Fatalf("expected cyclic IRI mapping, got %v", err)
	}
}

func TestKeywordRedefinition(t *testing.T) {
	_, err := NewProcessor(DefaultOptions()).ProcessContext(context.Background(), parseJSON(t, `{
		"@language": "en",
		"@graph": "http://example.com/graph"
	}`))
	if Code(err) != ErrCodeKeywordRedefinition {
		t.Fatalf("expected keyword redefinition, got %v", err)
	}

	// @type may gain @container: @set in 1.1.
	active := mustProcessContext(t, `{"@type": {"@container": "@set"}}`, DefaultOptions())
	if def := active.Term(KeywordType); def == nil || !def.Containers.Contains(KeywordSet) {
		t.Fatalf("@type redefinition: %+v", def)
	}
}

func TestContextAliasForbidden(t *testing.T) {
	_, err := NewProcessor(DefaultOptions()).ProcessContext(context.Background(), parseJSON(t, `{
		"ctx": "@context"
	}`))
	if Code(err) != ErrCodeInvalidKeywordAlias {
		t.Fatalf("expected invalid keyword alias, got %v", err)
	}
}

func TestKeywordLikeTermsIgnored(t *testing.T) {
	active := mustProcessContext(t, `{
		"@ignoreMe": "http://example.com/x",
		"name": "http://example.com/name"
	}`, DefaultOptions())
	if active.Term("@ignoreMe") != nil {
		t.Fatalf("keyword-like term should not be defined")
	}
	if active.Term("name") == nil {
		t.Fatalf("regular term lost")
	}
}

func TestContainerValidation(t *testing.T) {
	valid := []string{
		`{"t": {"@id": "http://example.com/t", "@container": "@list"}}`,
		`{"t": {"@id": "http://example.com/t", "@container": ["@id", "@set"]}}`,
		`{"t": {"@id": "http://example.com/t", "@container": ["@graph", "@id", "@set"]}}`,
	}
	for _, c := range valid {
		mustProcessContext(t, c, DefaultOptions())
	}

	invalid := []string{
		`{"t": {"@id": "http://example.com/t", "@container": "@bogus"}}`,
		`{"t": {"@id": "http://example.com/t", "@container": ["@list", "@set"]}}`,
		`{"t": {"@id": "http://example.com/t", "@container": ["@graph", "@id", "@index"]}}`,
	}
	for _, c := range invalid {
		_, err := NewProcessor(DefaultOptions()).ProcessContext(context.Background(), parseJSON(t, c))
		if Code(err) != ErrCodeInvalidContainerMapping {
			t.Fatalf("context %s: expected invalid container mapping, got %v", c, err)
		}
	}

	// 1.0 allows only single simple containers.
	opts := DefaultOptions()
	opts.ProcessingMode = ModeJSONLD10
	_, err := NewProcessor(opts).ProcessContext(context.Background(), parseJSON(t,
		`{"t": {"@id": "http://example.com/t", "@container": "@id"}}`))
	if Code(err) != ErrCodeInvalidContainerMapping {
		t.Fatalf("expected invalid container mapping in 1.0 mode, got %v", err)
	}
}

func TestProcessingModeConflict(t *testing.T) {
	opts := DefaultOptions()
	opts.ProcessingMode = ModeJSONLD10
	_, err := NewProcessor(opts).ProcessContext(context.Background(), parseJSON(t, `{
		"@version": 1.1
	}`))
	if Code(err) != ErrCodeProcessingModeConflict {
		t.Fatalf("expected processing mode conflict, got %v", err)
	}
}

func TestRemoteContext(t *testing.T) {
	opts := DefaultOptions()
	opts.DocumentLoader = mapLoader{
		"http://example.com/ctx": `{"@context": {"name": "http://xmlns.com/foaf/0.1/name"}}`,
	}
	doc, err := Expand(context.Background(), parseJSON(t, `{
		"@context": "http://example.com/ctx",
		"name": "Alice"
	}`), opts)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	assertJSON(t, doc, `[{"http://xmlns.com/foaf/0.1/name": [{"@value": "Alice"}]}]`)
}

func TestRecursiveContextInclusion(t *testing.T) {
	opts := DefaultOptions()
	opts.DocumentLoader = mapLoader{
		"http://example.com/ctx": `{"@context": "http://example.com/ctx"}`,
	}
	_, err := NewProcessor(opts).ProcessContext(context.Background(), "http://example.com/ctx")
	if Code(err) != ErrCodeRecursiveContextInclusion {
		t.Fatalf("expected recursive context inclusion, got %v", err)
	}
}

func TestContextOverflow(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxRemoteContexts = 1
	opts.DocumentLoader = mapLoader{
		"http://example.com/a": `{"@context": "http://example.com/b"}`,
		"http://example.com/b": `{"@context": {}}`,
	}
	_, err := NewProcessor(opts).ProcessContext(context.Background(), "http://example.com/a")
	if Code(err) != ErrCodeContextOverflow {
		t.Fatalf("expected context overflow, got %v", err)
	}
}

func TestLoadingRemoteContextFailed(t *testing.T) {
	_, err := NewProcessor(DefaultOptions()).ProcessContext(context.Background(), "http://example.com/nope")
	if Code(err) != ErrCodeLoadingRemoteContextFailed {
		t.Fatalf("expected loading remote context failed, got %v", err)
	}
}

func TestContextImport(t *testing.T) {
	opts := DefaultOptions()
	opts.DocumentLoader = mapLoader{
		"http://example.com/base-ctx": `{"@context": {
			"name": "http://xmlns.com/foaf/0.1/name",
			"age": "http://example.com/age"
		}}`,
	}
	active := mustProcessContext(t, `{
		"@import": "http://example.com/base-ctx",
		"age": "http://other.example.com/age"
	}`, opts)
	if def := active.Term("name"); def == nil || def.IRI != "http://xmlns.com/foaf/0.1/name" {
		t.Fatalf("imported term: %+v", def)
	}
	if def := active.Term("age"); def == nil || def.IRI != "http://other.example.com/age" {
		t.Fatalf("local term should win over import: %+v", def)
	}
}

func TestTypeScopedContext(t *testing.T) {
	doc := mustExpand(t, `{
		"@context": {
			"ex": "http://example.com/",
			"Person": {"@id": "ex:Person", "@context": {"name": "ex:name"}}
		},
		"@type": "Person",
		"name": "Alice"
	}`, DefaultOptions())
	assertJSON(t, doc, `[{
		"@type": ["http://example.com/Person"],
		"http://example.com/name": [{"@value": "Alice"}]
	}]`)
}

func TestPropagateFalse(t *testing.T) {
	// The type-scoped term definition does not reach nested node objects.
	doc := mustExpand(t, `{
		"@context": {
			"ex": "http://example.com/",
			"other": "ex:other",
			"Person": {"@id": "ex:Person", "@context": {"name": "ex:name"}}
		},
		"@type": "Person",
		"name": "Alice",
		"other": {"@id": "ex:nested", "name": "dropped"}
	}`, DefaultOptions())
	assertJSON(t, doc, `[{
		"@type": ["http://example.com/Person"],
		"http://example.com/name": [{"@value": "Alice"}],
		"http://example.com/other": [{"@id": "http://example.com/nested"}]
	}]`)
}
