package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/geoknoesis/jsonld-go/jsonld"
	"github.com/spf13/cobra"
)

var (
	baseIRI     string
	mode10      bool
	safe        bool
	allowRemote bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "jsonld",
	Short: "Expand, compact and flatten JSON-LD documents",
	Long: `jsonld applies the JSON-LD 1.1 processing algorithms to documents
read from files or standard input. Remote contexts are refused unless
--allow-remote is given.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseIRI, "base", "", "Base IRI for resolving relative references")
	rootCmd.PersistentFlags().BoolVar(&mode10, "json-ld-1.0", false, "Restrict processing to JSON-LD 1.0 features")
	rootCmd.PersistentFlags().BoolVar(&safe, "safe", false, "Fail on terms that do not resolve to an IRI")
	rootCmd.PersistentFlags().BoolVar(&allowRemote, "allow-remote", false, "Allow fetching remote documents and contexts over HTTP")
}

func processorOptions() jsonld.Options {
	opts := jsonld.DefaultOptions()
	opts.Base = baseIRI
	if mode10 {
		opts.ProcessingMode = jsonld.ModeJSONLD10
	}
	if safe {
		opts.UndefinedTermPolicy = jsonld.ErrorOnUndefinedTerms
	}
	if allowRemote {
		opts.DocumentLoader = jsonld.NewHTTPLoader(http.DefaultClient)
	}
	return opts
}

// readDocument parses a JSON document from path, or from stdin when path
// is "-".
func readDocument(path string) (interface{}, error) {
	if path == "-" {
		return jsonld.ParseJSON(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return jsonld.ParseJSON(f)
}

func writeJSON(v interface{}) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}
