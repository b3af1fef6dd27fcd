package jsonld

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func parseJSON(t *testing.T, s string) interface{} {
	t.Helper()
	v, err := ParseJSON(strings.NewReader(s))
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return v
}

// assertJSON compares got against the expected JSON text, ignoring key order
// and preserving number lexical forms.
func assertJSON(t *testing.T, got interface{}, want string) {
	t.Helper()
	gotBytes, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	gotVal := parseJSON(t, string(gotBytes))
	wantVal := parseJSON(t, want)
	if !reflect.DeepEqual(gotVal, wantVal) {
		t.Fatalf("result mismatch\ngot:  %s\nwant: %s", gotBytes, want)
	}
}

func mustExpand(t *testing.T, input string, opts Options) Document {
	t.Helper()
	doc, err := Expand(context.Background(), parseJSON(t, input), opts)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	return doc
}

// mapLoader serves fixed documents by IRI.
type mapLoader map[string]string

func (l mapLoader) LoadDocument(_ context.Context, iri string) (RemoteDocument, error) {
	body, ok := l[iri]
	if !ok {
		return RemoteDocument{}, fmt.Errorf("no document for %s", iri)
	}
	doc, err := ParseJSON(strings.NewReader(body))
	if err != nil {
		return RemoteDocument{}, err
	}
	return RemoteDocument{DocumentURL: iri, Document: doc, ContentType: "application/ld+json"}, nil
}

func TestExpandSimple(t *testing.T) {
	doc := mustExpand(t, `{
		"@context": {"name": "http://xmlns.com/foaf/0.1/name"},
		"@id": "http://example.com/me",
		"name": "Alice"
	}`, DefaultOptions())
	assertJSON(t, doc, `[{
		"@id": "http://example.com/me",
		"http://xmlns.com/foaf/0.1/name": [{"@value": "Alice"}]
	}]`)
}

func TestExpandVocab(t *testing.T) {
	doc := mustExpand(t, `{
		"@context": {"@vocab": "http://example.com/"},
		"name": "Alice"
	}`, DefaultOptions())
	assertJSON(t, doc, `[{"http://example.com/name": [{"@value": "Alice"}]}]`)
}

func TestExpandTypeCoercion(t *testing.T) {
	doc := mustExpand(t, `{
		"@context": {
			"ex": "http://example.com/",
			"date": {"@id": "ex:date", "@type": "http://www.w3.org/2001/XMLSchema#dateTime"}
		},
		"date": "2020-01-01T00:00:00Z"
	}`, DefaultOptions())
	assertJSON(t, doc, `[{
		"http://example.com/date": [{
			"@type": "http://www.w3.org/2001/XMLSchema#dateTime",
			"@value": "2020-01-01T00:00:00Z"
		}]
	}]`)
}

func TestExpandIDCoercion(t *testing.T) {
	doc := mustExpand(t, `{
		"@context": {"knows": {"@id": "http://xmlns.com/foaf/0.1/knows", "@type": "@id"}},
		"knows": "http://example.com/bob"
	}`, DefaultOptions())
	assertJSON(t, doc, `[{
		"http://xmlns.com/foaf/0.1/knows": [{"@id": "http://example.com/bob"}]
	}]`)
}

func TestExpandNumbersKeepLexicalForm(t *testing.T) {
	doc := mustExpand(t, `{
		"@context": {"ex": "http://example.com/"},
		"ex:count": 5,
		"ex:ratio": 1.50
	}`, DefaultOptions())
	assertJSON(t, doc, `[{
		"http://example.com/count": [{"@value": 5}],
		"http://example.com/ratio": [{"@value": 1.50}]
	}]`)

	// No @type is synthesized for native numbers.
	out, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(out), "@type") {
		t.Fatalf("unexpected @type in %s", out)
	}
	if !strings.Contains(string(out), "1.50") {
		t.Fatalf("lexical form 1.50 lost in %s", out)
	}
}

func TestExpandDefaultLanguage(t *testing.T) {
	doc := mustExpand(t, `{
		"@context": {"@language": "EN", "label": "http://example.com/label"},
		"label": "hello"
	}`, DefaultOptions())
	assertJSON(t, doc, `[{
		"http://example.com/label": [{"@language": "en", "@value": "hello"}]
	}]`)
}

func TestExpandLanguageMap(t *testing.T) {
	doc := mustExpand(t, `{
		"@context": {"label": {"@id": "http://example.com/label", "@container": "@language"}},
		"label": {"en": "The Queen", "de": ["Die Königin"]}
	}`, DefaultOptions())
	assertJSON(t, doc, `[{
		"http://example.com/label": [
			{"@language": "de", "@value": "Die Königin"},
			{"@language": "en", "@value": "The Queen"}
		]
	}]`)
}

func TestExpandListContainer(t *testing.T) {
	doc := mustExpand(t, `{
		"@context": {"list": {"@id": "http://example.com/list", "@container": "@list"}},
		"list": ["a", "b"]
	}`, DefaultOptions())
	assertJSON(t, doc, `[{
		"http://example.com/list": [{"@list": [{"@value": "a"}, {"@value": "b"}]}]
	}]`)

	// An explicit list object under a list container is not wrapped again.
	doc = mustExpand(t, `{
		"@context": {"list": {"@id": "http://example.com/list", "@container": "@list"}},
		"list": {"@list": ["a"]}
	}`, DefaultOptions())
	assertJSON(t, doc, `[{
		"http://example.com/list": [{"@list": [{"@value": "a"}]}]
	}]`)
}

func TestExpandNestedList(t *testing.T) {
	input := `{
		"@context": {"list": {"@id": "http://example.com/list", "@container": "@list"}},
		"list": [["a"]]
	}`
	doc := mustExpand(t, input, DefaultOptions())
	assertJSON(t, doc, `[{
		"http://example.com/list": [{"@list": [{"@list": [{"@value": "a"}]}]}]
	}]`)

	opts := DefaultOptions()
	opts.ProcessingMode = ModeJSONLD10
	_, err := Expand(context.Background(), parseJSON(t, input), opts)
	if Code(err) != ErrCodeListOfLists {
		t.Fatalf("expected list of lists error in 1.0 mode, got %v", err)
	}
}

func TestExpandIndexMap(t *testing.T) {
	doc := mustExpand(t, `{
		"@context": {"post": {"@id": "http://example.com/post", "@container": "@index"}},
		"post": {"en": {"@id": "http://example.com/1"}}
	}`, DefaultOptions())
	assertJSON(t, doc, `[{
		"http://example.com/post": [{"@id": "http://example.com/1", "@index": "en"}]
	}]`)
}

func TestExpandSet(t *testing.T) {
	doc := mustExpand(t, `{
		"http://example.com/p": {"@set": ["a", "b"]}
	}`, DefaultOptions())
	assertJSON(t, doc, `[{
		"http://example.com/p": [{"@value": "a"}, {"@value": "b"}]
	}]`)
}

func TestExpandReverse(t *testing.T) {
	doc := mustExpand(t, `{
		"@context": {"children": {"@reverse": "http://example.com/parent"}},
		"@id": "http://example.com/bob",
		"children": [{"@id": "http://example.com/alice"}]
	}`, DefaultOptions())
	assertJSON(t, doc, `[{
		"@id": "http://example.com/bob",
		"@reverse": {"http://example.com/parent": [{"@id": "http://example.com/alice"}]}
	}]`)
}

func TestExpandReverseLiteralRejected(t *testing.T) {
	_, err := Expand(context.Background(), parseJSON(t, `{
		"@context": {"children": {"@reverse": "http://example.com/parent"}},
		"children": "not a node"
	}`), DefaultOptions())
	if Code(err) != ErrCodeInvalidReversePropertyValue {
		t.Fatalf("expected invalid reverse property value, got %v", err)
	}
}

func TestExpandJSONLiteral(t *testing.T) {
	doc := mustExpand(t, `{
		"@context": {"data": {"@id": "http://example.com/data", "@type": "@json"}},
		"data": {"key": [1, true, null]}
	}`, DefaultOptions())
	assertJSON(t, doc, `[{
		"http://example.com/data": [{"@type": "@json", "@value": {"key": [1, true, null]}}]
	}]`)
}

func TestExpandGraphUnwrap(t *testing.T) {
	doc := mustExpand(t, `{
		"@graph": [{"@id": "http://example.com/a", "http://example.com/p": "v"}]
	}`, DefaultOptions())
	assertJSON(t, doc, `[{
		"@id": "http://example.com/a",
		"http://example.com/p": [{"@value": "v"}]
	}]`)
}

func TestExpandNamedGraph(t *testing.T) {
	doc := mustExpand(t, `{
		"@id": "http://example.com/g",
		"@graph": [{"@id": "http://example.com/a", "http://example.com/p": "v"}]
	}`, DefaultOptions())
	assertJSON(t, doc, `[{
		"@id": "http://example.com/g",
		"@graph": [{"@id": "http://example.com/a", "http://example.com/p": [{"@value": "v"}]}]
	}]`)
}

func TestExpandFreeFloatingValuesDropped(t *testing.T) {
	for _, input := range []string{
		`{"@value": "free"}`,
		`{"@list": ["free"]}`,
		`{"@id": "http://example.com/lonely"}`,
		`{}`,
		`[{"@value": 1}, {}]`,
	} {
		doc := mustExpand(t, input, DefaultOptions())
		if len(doc) != 0 {
			t.Fatalf("input %s: expected empty document, got %v", input, doc)
		}
	}
}

func TestExpandNullValueDropped(t *testing.T) {
	doc := mustExpand(t, `{
		"@id": "http://example.com/a",
		"http://example.com/p": {"@value": null},
		"http://example.com/q": null,
		"http://example.com/r": "kept"
	}`, DefaultOptions())
	assertJSON(t, doc, `[{
		"@id": "http://example.com/a",
		"http://example.com/r": [{"@value": "kept"}]
	}]`)
}

func TestExpandValueObjectValidation(t *testing.T) {
	cases := []struct {
		input string
		code  ErrorCode
	}{
		{`{"http://example.com/p": {"@value": 1, "@type": "@id"}}`, ErrCodeInvalidTypedValue},
		{`{"http://example.com/p": {"@value": 1, "@language": "en"}}`, ErrCodeInvalidLanguageTaggedValue},
		{`{"http://example.com/p": {"@value": "v", "@id": "http://example.com/x"}}`, ErrCodeInvalidValueObject},
		{`{"http://example.com/p": {"@value": {"nested": true}}}`, ErrCodeInvalidValueObjectValue},
		{`{"http://example.com/p": {"@list": [], "@set": []}}`, ErrCodeInvalidSetOrListObject},
	}
	for _, tc := range cases {
		_, err := Expand(context.Background(), parseJSON(t, tc.input), DefaultOptions())
		if Code(err) != tc.code {
			t.Fatalf("input %s: expected %q, got %v", tc.input, tc.code, err)
		}
	}
}

func TestExpandCollidingKeywords(t *testing.T) {
	_, err := Expand(context.Background(), parseJSON(t, `{
		"@context": {"id": "@id"},
		"@id": "http://example.com/a",
		"id": "http://example.com/b"
	}`), DefaultOptions())
	if Code(err) != ErrCodeCollidingKeywords {
		t.Fatalf("expected colliding keywords, got %v", err)
	}
}

func TestExpandKeywordAliases(t *testing.T) {
	doc := mustExpand(t, `{
		"@context": {"id": "@id", "type": "@type", "value": "@value"},
		"id": "http://example.com/a",
		"type": "http://example.com/T",
		"http://example.com/p": {"value": "v", "type": "http://example.com/U"}
	}`, DefaultOptions())
	assertJSON(t, doc, `[{
		"@id": "http://example.com/a",
		"@type": ["http://example.com/T"],
		"http://example.com/p": [{"@value": "v", "@type": "http://example.com/U"}]
	}]`)
}

func TestExpandUndefinedTermPolicy(t *testing.T) {
	input := `{"undefined": "dropped", "http://example.com/p": "kept"}`

	doc := mustExpand(t, input, DefaultOptions())
	assertJSON(t, doc, `[{"http://example.com/p": [{"@value": "kept"}]}]`)

	opts := DefaultOptions()
	opts.UndefinedTermPolicy = ErrorOnUndefinedTerms
	_, err := Expand(context.Background(), parseJSON(t, input), opts)
	if Code(err) != ErrCodeUndefinedTerm {
		t.Fatalf("expected undefined term error, got %v", err)
	}
}

func TestExpandRelativeIRIs(t *testing.T) {
	opts := DefaultOptions()
	opts.Base = "http://example.com/dir/doc"
	doc := mustExpand(t, `{
		"@id": "other",
		"http://example.com/p": {"@id": "#frag"}
	}`, opts)
	assertJSON(t, doc, `[{
		"@id": "http://example.com/dir/other",
		"http://example.com/p": [{"@id": "http://example.com/dir/doc#frag"}]
	}]`)
}

func TestExpandIdempotent(t *testing.T) {
	doc := mustExpand(t, `{
		"@context": {
			"name": "http://xmlns.com/foaf/0.1/name",
			"knows": {"@id": "http://xmlns.com/foaf/0.1/knows", "@type": "@id"}
		},
		"@id": "http://example.com/me",
		"name": "Alice",
		"knows": "http://example.com/bob"
	}`, DefaultOptions())

	again, err := Expand(context.Background(), doc.JSON(), DefaultOptions())
	if err != nil {
		t.Fatalf("re-expand: %v", err)
	}
	if !reflect.DeepEqual(doc.JSON(), again.JSON()) {
		t.Fatalf("expansion not idempotent:\nfirst:  %v\nsecond: %v", doc.JSON(), again.JSON())
	}
}

func TestExpandScopedPropertyContext(t *testing.T) {
	doc := mustExpand(t, `{
		"@context": {
			"ex": "http://example.com/",
			"detail": {"@id": "ex:detail", "@context": {"note": "ex:note"}}
		},
		"detail": {"note": "scoped"}
	}`, DefaultOptions())
	assertJSON(t, doc, `[{
		"http://example.com/detail": [{"http://example.com/note": [{"@value": "scoped"}]}]
	}]`)
}

func TestExpandNest(t *testing.T) {
	doc := mustExpand(t, `{
		"@context": {
			"ex": "http://example.com/",
			"meta": "@nest",
			"label": "ex:label"
		},
		"@id": "ex:thing",
		"meta": {"label": "nested"}
	}`, DefaultOptions())
	assertJSON(t, doc, `[{
		"@id": "http://example.com/thing",
		"http://example.com/label": [{"@value": "nested"}]
	}]`)
}

func TestExpandDocumentShape(t *testing.T) {
	_, err := Expand(context.Background(), "scalar-is-an-iri", DefaultOptions())
	if Code(err) != ErrCodeLoadingDocumentFailed {
		t.Fatalf("string input should hit the loader, got %v", err)
	}
	_, err = Expand(context.Background(), 42, DefaultOptions())
	if Code(err) != ErrCodeInvalidDocument {
		t.Fatalf("expected invalid document, got %v", err)
	}
}

func TestExpandRemoteDocument(t *testing.T) {
	opts := DefaultOptions()
	opts.DocumentLoader = mapLoader{
		"http://example.com/doc": `{
			"@context": {"name": "http://xmlns.com/foaf/0.1/name"},
			"@id": "me",
			"name": "Alice"
		}`,
	}
	doc, err := Expand(context.Background(), "http://example.com/doc", opts)
	if err != nil {
		t.Fatalf("expand remote: %v", err)
	}
	assertJSON(t, doc, `[{
		"@id": "http://example.com/me",
		"http://xmlns.com/foaf/0.1/name": [{"@value": "Alice"}]
	}]`)
}

func TestExpandContextOption(t *testing.T) {
	opts := DefaultOptions()
	opts.ExpandContext = parseJSON(t, `{"@context": {"name": "http://xmlns.com/foaf/0.1/name"}}`)
	doc, err := Expand(context.Background(), parseJSON(t, `{"name": "Alice"}`), opts)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	assertJSON(t, doc, `[{"http://xmlns.com/foaf/0.1/name": [{"@value": "Alice"}]}]`)
}

func TestExpandErrorUnwrapping(t *testing.T) {
	_, err := Expand(context.Background(), "http://example.com/missing", DefaultOptions())
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if perr.Code != ErrCodeLoadingDocumentFailed {
		t.Fatalf("unexpected code %q", perr.Code)
	}
	if perr.Unwrap() == nil {
		t.Fatalf("expected wrapped cause")
	}
}
