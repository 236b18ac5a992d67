package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/aretw0/atlas"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a persisted style as JSON",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store, err := atlas.Init(storePath,
			atlas.WithAdapter(adapter),
			atlas.WithMustExist(true),
			atlas.WithLogger(slog.Default()),
		)
		if err != nil {
			fatal("Failed to open store", err)
		}

		rec, err := store.Get(context.Background(), args[0])
		if err != nil {
			fatal("Failed to load style", err)
		}

		data, err := rec.Style.Encode()
		if err != nil {
			fatal("Failed to serialize style", err)
		}
		fmt.Println(string(data))
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
