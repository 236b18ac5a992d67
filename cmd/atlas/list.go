package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/atlas"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all styles in the store",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		store, err := atlas.Init(storePath,
			atlas.WithAdapter(adapter),
			atlas.WithMustExist(true),
			atlas.WithLogger(slog.Default()),
		)
		if err != nil {
			fatal("Failed to open store", err)
		}

		infos, err := store.List(context.Background())
		if err != nil {
			fatal("Failed to list styles", err)
		}

		if listJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(infos); err != nil {
				fatal("Failed to encode JSON", err)
			}
			return
		}

		for _, info := range infos {
			when := time.Unix(info.UpdatedAt, 0).Format(time.RFC3339)
			fmt.Printf("%s  %s  %s\n", info.ID, when, info.Name)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
}
