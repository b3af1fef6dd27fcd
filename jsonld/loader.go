package jsonld

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pquerna/cachecontrol"
)

// RemoteDocument represents a fetched JSON-LD document or context.
type RemoteDocument struct {
	// DocumentURL is the final IRI of the document after redirects.
	DocumentURL string
	// Document is the parsed JSON value tree.
	Document interface{}
	// ContentType is the media type reported for the document, if known.
	ContentType string
}

// DocumentLoader resolves remote contexts and documents. Implementations own
// transport concerns such as redirects and timeouts; the processor only
// bounds recursion depth.
type DocumentLoader interface {
	LoadDocument(ctx context.Context, iri string) (RemoteDocument, error)
}

// ParseJSON decodes a JSON document from r. Numbers are decoded as
// json.Number so their lexical form survives expansion and re-serialization.
func ParseJSON(r io.Reader) (interface{}, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// NoLoader is a DocumentLoader that fails every load. It is the default
// loader: processing documents with remote references requires opting in to
// a real loader.
type NoLoader struct{}

func (NoLoader) LoadDocument(_ context.Context, iri string) (RemoteDocument, error) {
	return RemoteDocument{}, wrapError(ErrCodeLoadingDocumentFailed, iri,
		fmt.Errorf("remote document loading is disabled"))
}

// FSLoader serves documents whose IRI starts with Prefix from the local
// directory Dir, mapping the IRI path suffix onto the filesystem. It is
// sufficient for test fixtures and offline processing.
type FSLoader struct {
	Prefix string
	Dir    string
}

func (l FSLoader) LoadDocument(_ context.Context, iri string) (RemoteDocument, error) {
	if !strings.HasPrefix(iri, l.Prefix) {
		return RemoteDocument{}, wrapError(ErrCodeLoadingDocumentFailed, iri,
			fmt.Errorf("IRI outside mounted prefix %s", l.Prefix))
	}
	rel := strings.TrimPrefix(iri, l.Prefix)
	rel = strings.TrimPrefix(rel, "/")
	f, err := os.Open(filepath.Join(l.Dir, filepath.FromSlash(rel)))
	if err != nil {
		return RemoteDocument{}, wrapError(ErrCodeLoadingDocumentFailed, iri, err)
	}
	defer f.Close()
	doc, err := ParseJSON(f)
	if err != nil {
		return RemoteDocument{}, wrapError(ErrCodeLoadingDocumentFailed, iri, err)
	}
	return RemoteDocument{DocumentURL: iri, Document: doc, ContentType: "application/ld+json"}, nil
}

type cachedDocument struct {
	doc     RemoteDocument
	expires time.Time
}

// HTTPLoader fetches documents over HTTP(S) and caches responses according
// to their Cache-Control headers.
type HTTPLoader struct {
	// Client is the HTTP client to use. http.DefaultClient when nil.
	Client *http.Client

	mu    sync.Mutex
	cache map[string]cachedDocument
}

// NewHTTPLoader returns an HTTPLoader using the given client, which may be
// nil for http.DefaultClient.
func NewHTTPLoader(client *http.Client) *HTTPLoader {
	return &HTTPLoader{Client: client, cache: make(map[string]cachedDocument)}
}

func (l *HTTPLoader) LoadDocument(ctx context.Context, iri string) (RemoteDocument, error) {
	l.mu.Lock()
	if entry, ok := l.cache[iri]; ok && time.Now().Before(entry.expires) {
		l.mu.Unlock()
		return entry.doc, nil
	}
	l.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, iri, nil)
	if err != nil {
		return RemoteDocument{}, wrapError(ErrCodeLoadingDocumentFailed, iri, err)
	}
	req.Header.Set("Accept", "application/ld+json, application/json")

	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return RemoteDocument{}, wrapError(ErrCodeLoadingDocumentFailed, iri, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return RemoteDocument{}, wrapError(ErrCodeLoadingDocumentFailed, iri,
			fmt.Errorf("unexpected status %s", resp.Status))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return RemoteDocument{}, wrapError(ErrCodeLoadingDocumentFailed, iri, err)
	}
	doc, err := ParseJSON(bytes.NewReader(body))
	if err != nil {
		return RemoteDocument{}, wrapError(ErrCodeLoadingDocumentFailed, iri, err)
	}

	finalURL := iri
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	remote := RemoteDocument{
		DocumentURL: finalURL,
		Document:    doc,
		ContentType: resp.Header.Get("Content-Type"),
	}

	reasons, expires, err := cachecontrol.CachableResponse(req, resp, cachecontrol.Options{})
	if err == nil && len(reasons) == 0 && expires.After(time.Now()) {
		l.mu.Lock()
		if l.cache == nil {
			l.cache = make(map[string]cachedDocument)
		}
		l.cache[iri] = cachedDocument{doc: remote, expires: expires}
		l.mu.Unlock()
	}
	return remote, nil
}
