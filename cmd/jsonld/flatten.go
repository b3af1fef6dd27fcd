package main

import (
	"fmt"
	"os"

	"github.com/geoknoesis/jsonld-go/jsonld"
	"github.com/spf13/cobra"
)

var flattenContext string

var flattenCmd = &cobra.Command{
	Use:   "flatten [file]",
	Short: "Flatten a JSON-LD document",
	Long: `Flatten a JSON-LD document into an identifier-ordered sequence of
labeled nodes. With --context the flattened nodes are compacted against the
given context. Reads from stdin when file is "-".`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		doc, err := readDocument(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading document: %v\n", err)
			os.Exit(1)
		}

		p := jsonld.NewProcessor(processorOptions())
		if flattenContext != "" {
			contextValue, err := readDocument(flattenContext)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error reading context: %v\n", err)
				os.Exit(1)
			}
			compacted, err := p.FlattenAndCompact(cmd.Context(), doc, contextValue)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error flattening document: %v\n", err)
				os.Exit(1)
			}
			writeJSON(compacted)
			return
		}

		flat, err := p.Flatten(cmd.Context(), doc)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error flattening document: %v\n", err)
			os.Exit(1)
		}
		writeJSON(flat.JSON())
	},
}

func init() {
	rootCmd.AddCommand(flattenCmd)
	flattenCmd.Flags().StringVar(&flattenContext, "context", "", "File holding a context to compact the flattened output against")
}
