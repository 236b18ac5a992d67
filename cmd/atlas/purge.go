package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/atlas"
)

var purgeYes bool

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove all persisted styles from the store",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if !purgeYes {
			fmt.Printf("Remove ALL styles from %s? [y/N] ", storePath)
			line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			if strings.ToLower(strings.TrimSpace(line)) != "y" {
				fmt.Println("Aborted.")
				return
			}
		}

		store, err := atlas.Init(storePath,
			atlas.WithAdapter(adapter),
			atlas.WithMustExist(true),
			atlas.WithLogger(slog.Default()),
		)
		if err != nil {
			fatal("Failed to open store", err)
		}

		if err := store.Purge(context.Background()); err != nil {
			fatal("Failed to purge store", err)
		}
		fmt.Println("Store purged.")
	},
}

func init() {
	rootCmd.AddCommand(purgeCmd)
	purgeCmd.Flags().BoolVarP(&purgeYes, "yes", "y", false, "Skip confirmation")
}
