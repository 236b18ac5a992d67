package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/atlas"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of atlas",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("atlas version %s\n", atlas.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
