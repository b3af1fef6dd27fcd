//go:build ignore

// Downloads the W3C JSON-LD 1.1 test suites (expand, compact, flatten and
// remote-doc manifests) for local conformance runs.
//
// Usage: go run scripts/download-w3c-tests.go <output-directory>
package main

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

type testSuite struct {
	name string
	url  string
	// subdir is the directory inside the archive holding the tests.
	subdir string
}

var testSuites = []testSuite{
	{
		name:   "json-ld-api",
		url:    "https://github.com/w3c/json-ld-api/archive/refs/heads/main.zip",
		subdir: "tests",
	},
	{
		name:   "json-ld-framing",
		url:    "https://github.com/w3c/json-ld-framing/archive/refs/heads/main.zip",
		subdir: "tests",
	},
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <output-directory>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nDownloads the W3C JSON-LD test suites into <output-directory>/<suite>/.\n")
		os.Exit(1)
	}
	outDir := os.Args[1]

	for _, suite := range testSuites {
		fmt.Printf("Downloading %s...\n", suite.name)
		if err := download(suite, filepath.Join(outDir, suite.name)); err != nil {
			fmt.Fprintf(os.Stderr, "Error downloading %s: %v\n", suite.name, err)
			os.Exit(1)
		}
	}
	fmt.Println("Done.")
}

func download(suite testSuite, dest string) error {
	resp, err := http.Get(suite.url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	archive, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return err
	}

	extracted := 0
	for _, f := range archive.File {
		// Strip the repository prefix ("json-ld-api-main/") and keep only
		// files under the tests subdirectory.
		parts := strings.SplitN(f.Name, "/", 2)
		if len(parts) < 2 || !strings.HasPrefix(parts[1], suite.subdir+"/") {
			continue
		}
		rel := strings.TrimPrefix(parts[1], suite.subdir+"/")
		if rel == "" || f.FileInfo().IsDir() {
			continue
		}
		if err := extractFile(f, filepath.Join(dest, filepath.FromSlash(rel))); err != nil {
			return err
		}
		extracted++
	}
	if extracted == 0 {
		return fmt.Errorf("no files under %s/ in archive", suite.subdir)
	}
	fmt.Printf("  %d files -> %s\n", extracted, dest)
	return nil
}

func extractFile(f *zip.File, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	in, err := f.Open()
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}
