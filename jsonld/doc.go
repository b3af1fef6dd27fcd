// Package jsonld implements the JSON-LD 1.1 processing algorithms: context
// processing, expansion, compaction and flattening.
//
// Copyright 2026 Geoknoesis LLC (www.geoknoesis.com)
//
// Author: Stephane Fellah (stephanef@geoknoesis.com)
// Geosemantic-AI expert with 30 years of experience
//
// Processing revolves around the expanded document model: a typed tree of
// Node values in which every term has been resolved to an absolute IRI and
// every value carries its type, language and direction explicitly. Expand
// converts arbitrary JSON-LD into that model, Compact converts it back into
// the shape a target context describes, and Flatten collects every node into
// a flat, identifier-ordered sequence.
//
// Example (expanding a document):
//
//	doc, err := jsonld.ParseJSON(strings.NewReader(input))
//	if err != nil {
//	    // handle error
//	}
//
//	p := jsonld.NewProcessor(jsonld.DefaultOptions())
//	expanded, err := p.Expand(ctx, doc)
//	if err != nil {
//	    // handle error
//	}
//	for _, node := range expanded {
//	    fmt.Println(node.ID)
//	}
//
// Example (compacting against a context):
//
//	compacted, err := p.Compact(ctx, doc, map[string]interface{}{
//	    "@context": map[string]interface{}{
//	        "name": "http://xmlns.com/foaf/0.1/name",
//	    },
//	})
//
// Remote documents and contexts are fetched through a DocumentLoader. The
// package provides NewHTTPLoader, which caches responses per their
// Cache-Control headers, and FSLoader for serving contexts from a local
// directory; NoLoader, the default, refuses all remote access.
//
// A Processor is safe for concurrent use when its DocumentLoader and
// Generator are; the bundled loaders and generators are. Errors carry an
// ErrorCode matching the JSON-LD API error taxonomy and can be inspected
// with errors.As or the Code helper.
package jsonld
