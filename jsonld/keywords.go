package jsonld

import "bitbucket.org/creachadair/stringset"

// JSON-LD keywords recognized by the processor.
const (
	KeywordBase      = "@base"
	KeywordContainer = "@container"
	KeywordContext   = "@context"
	KeywordDefault   = "@default"
	KeywordDirection = "@direction"
	KeywordGraph     = "@graph"
	KeywordID        = "@id"
	KeywordImport    = "@import"
	KeywordIncluded  = "@included"
	KeywordIndex     = "@index"
	KeywordJSON      = "@json"
	KeywordLanguage  = "@language"
	KeywordList      = "@list"
	KeywordNest      = "@nest"
	KeywordNone      = "@none"
	KeywordPrefix    = "@prefix"
	KeywordPropagate = "@propagate"
	KeywordProtected = "@protected"
	KeywordReverse   = "@reverse"
	KeywordSet       = "@set"
	KeywordType      = "@type"
	KeywordValue     = "@value"
	KeywordVersion   = "@version"
	KeywordVocab     = "@vocab"
)

var keywords = stringset.New(
	KeywordBase, KeywordContainer, KeywordContext, KeywordDefault,
	KeywordDirection, KeywordGraph, KeywordID, KeywordImport,
	KeywordIncluded, KeywordIndex, KeywordJSON, KeywordLanguage,
	KeywordList, KeywordNest, KeywordNone, KeywordPrefix,
	KeywordPropagate, KeywordProtected, KeywordReverse, KeywordSet,
	KeywordType, KeywordValue, KeywordVersion, KeywordVocab,
)

// containerKeywords is the set of keywords allowed inside @container.
var containerKeywords = stringset.New(
	KeywordGraph, KeywordID, KeywordIndex, KeywordLanguage,
	KeywordList, KeywordSet, KeywordType,
)

// IsKeyword reports whether s is a JSON-LD keyword.
func IsKeyword(s string) bool {
	return keywords.Contains(s)
}

// isKeywordLike reports whether s has the form of a keyword ("@" followed by
// one or more ASCII letters) without being one. Such strings are reserved and
// are ignored wherever a term or IRI is expected.
func isKeywordLike(s string) bool {
	if len(s) < 2 || s[0] != '@' {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return !IsKeyword(s)
}
