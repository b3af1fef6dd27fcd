package main

import (
	"fmt"
	"os"

	"github.com/geoknoesis/jsonld-go/jsonld"
	"github.com/spf13/cobra"
)

var expandCmd = &cobra.Command{
	Use:   "expand [file]",
	Short: "Expand a JSON-LD document",
	Long:  `Expand a JSON-LD document to its expanded form. Reads from stdin when file is "-".`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		doc, err := readDocument(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading document: %v\n", err)
			os.Exit(1)
		}

		expanded, err := jsonld.Expand(cmd.Context(), doc, processorOptions())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error expanding document: %v\n", err)
			os.Exit(1)
		}
		writeJSON(expanded.JSON())
	},
}

func init() {
	rootCmd.AddCommand(expandCmd)
}
