package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/atlas"
)

var putID string

// putCmd persists a style file through the engine's commit path, so the
// document is validated exactly like an interactive edit.
var putCmd = &cobra.Command{
	Use:   "put <file>",
	Short: "Validate a style document and persist it to the store",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		style, err := readStyleFile(args[0])
		if err != nil {
			fatal("Failed to load style", err)
		}

		eng, err := atlas.New(storePath,
			atlas.WithAdapter(adapter),
			atlas.WithLogger(slog.Default()),
		)
		if err != nil {
			fatal("Failed to initialize atlas", err)
		}

		ctx := context.Background()
		if errs := eng.Open(ctx, style, putID); len(errs) > 0 {
			for _, e := range errs {
				fmt.Fprintf(os.Stderr, "%s: %s\n", e.Path, e.Message)
			}
			os.Exit(1)
		}

		if err := eng.Save(ctx); err != nil {
			fatal("Failed to save style", err)
		}
		fmt.Printf("Style '%s' saved as %s.\n", eng.Current().Name, eng.CurrentID())
	},
}

func init() {
	rootCmd.AddCommand(putCmd)
	putCmd.Flags().StringVar(&putID, "id", "", "Style ID (generated when omitted)")
}
