package main

import (
	"fmt"
	"os"

	"github.com/geoknoesis/jsonld-go/jsonld"
	"github.com/spf13/cobra"
)

var compactContext string

var compactCmd = &cobra.Command{
	Use:   "compact [file]",
	Short: "Compact a JSON-LD document against a context",
	Long:  `Compact a JSON-LD document against the context given with --context. Reads from stdin when file is "-".`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		doc, err := readDocument(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading document: %v\n", err)
			os.Exit(1)
		}
		contextValue, err := readDocument(compactContext)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading context: %v\n", err)
			os.Exit(1)
		}

		compacted, err := jsonld.Compact(cmd.Context(), doc, contextValue, processorOptions())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error compacting document: %v\n", err)
			os.Exit(1)
		}
		writeJSON(compacted)
	},
}

func init() {
	rootCmd.AddCommand(compactCmd)
	compactCmd.Flags().StringVar(&compactContext, "context", "", "File holding the target context")
	compactCmd.MarkFlagRequired("context")
}
