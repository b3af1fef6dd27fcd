package jsonld

import (
	"net/url"
	"strings"
)

// isBlankNode reports whether s is a blank node identifier.
func isBlankNode(s string) bool {
	return strings.HasPrefix(s, "_:")
}

// isAbsoluteIRI reports whether s is an absolute IRI, i.e. it carries a
// scheme. Blank node identifiers are not absolute IRIs.
func isAbsoluteIRI(s string) bool {
	if s == "" || isBlankNode(s) {
		return false
	}
	colon := strings.IndexByte(s, ':')
	if colon < 1 {
		return false
	}
	scheme := s[:colon]
	for i := 0; i < len(scheme); i++ {
		c := scheme[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && (c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return false
		}
	}
	return true
}

// resolveIRI resolves a relative IRI reference against a base IRI according
// to RFC 3986.
func resolveIRI(baseStr, relative string) string {
	if baseStr == "" {
		return relative
	}
	baseURL, err := url.Parse(baseStr)
	if err != nil {
		// Fallback to simple concatenation if base is invalid.
		if strings.HasSuffix(baseStr, "/") {
			return baseStr + relative
		}
		lastSlash := strings.LastIndex(baseStr, "/")
		if lastSlash >= 0 {
			return baseStr[:lastSlash+1] + relative
		}
		return baseStr + "/" + relative
	}

	relURL, err := url.Parse(relative)
	if err != nil {
		if strings.HasSuffix(baseStr, "/") {
			return baseStr + relative
		}
		lastSlash := strings.LastIndex(baseStr, "/")
		if lastSlash >= 0 {
			return baseStr[:lastSlash+1] + relative
		}
		return baseStr + "/" + relative
	}

	// If relative URL has a scheme, it's absolute - return as-is.
	if relURL.Scheme != "" {
		return relative
	}

	return baseURL.ResolveReference(relURL).String()
}

// relativizeIRI compacts iri against base, returning the shortest relative
// reference that resolves back to iri, or iri unchanged when no shorter form
// exists. Used for @id/@base-relative compaction.
func relativizeIRI(base, iri string) string {
	if base == "" || base == iri {
		if base == iri && base != "" {
			return ""
		}
		return iri
	}
	baseURL, err := url.Parse(base)
	if err != nil || baseURL.Scheme == "" {
		return iri
	}
	iriURL, err := url.Parse(iri)
	if err != nil || iriURL.Scheme != baseURL.Scheme || iriURL.Host != baseURL.Host {
		return iri
	}
	if iriURL.Path == baseURL.Path {
		if iriURL.RawQuery != baseURL.RawQuery {
			if iriURL.RawQuery == "" {
				return iri
			}
			rel := "?" + iriURL.RawQuery
			if iriURL.Fragment != "" {
				rel += "#" + iriURL.Fragment
			}
			return rel
		}
		if iriURL.Fragment != "" {
			return "#" + iriURL.Fragment
		}
		return iri
	}
	baseDir := baseURL.Path
	if i := strings.LastIndex(baseDir, "/"); i >= 0 {
		baseDir = baseDir[:i+1]
	}
	if strings.HasPrefix(iriURL.Path, baseDir) {
		rel := iriURL.Path[len(baseDir):]
		if rel == "" {
			return iri
		}
		if iriURL.RawQuery != "" {
			rel += "?" + iriURL.RawQuery
		}
		if iriURL.Fragment != "" {
			rel += "#" + iriURL.Fragment
		}
		if len(rel) < len(iri) {
			return rel
		}
	}
	return iri
}

// isWellFormedLanguageTag performs a light syntactic check of a BCP 47
// language tag. Processing is lenient: malformed tags are preserved, this
// check only drives optional warnings.
func isWellFormedLanguageTag(tag string) bool {
	if tag == "" {
		return false
	}
	for _, part := range strings.Split(tag, "-") {
		if part == "" || len(part) > 8 {
			return false
		}
		for i := 0; i < len(part); i++ {
			c := part[i]
			if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
				return false
			}
		}
	}
	return true
}

// genDelims are the RFC 3986 gen-delim characters. A simple term whose IRI
// mapping ends in one of these may be used as a prefix for compact IRIs.
func endsInGenDelim(iri string) bool {
	if iri == "" {
		return false
	}
	switch iri[len(iri)-1] {
	case ':', '/', '?', '#', '[', ']', '@':
		return true
	}
	return false
}
