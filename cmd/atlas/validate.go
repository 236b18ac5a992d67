package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/atlas/pkg/core"
	"github.com/aretw0/atlas/pkg/validate"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a style document without persisting it",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		style, err := readStyleFile(args[0])
		if err != nil {
			fatal("Failed to load style", err)
		}

		errs := validate.New().Validate(style, core.CurrentSpecVersion)
		if len(errs) == 0 {
			fmt.Println("OK")
			return
		}

		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "%s: %s\n", e.Path, e.Message)
		}
		os.Exit(1)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
