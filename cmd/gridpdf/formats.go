package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wudi/gridpdf/loader"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List supported image formats",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), strings.Join(loader.Default().Extensions(), " "))
	},
}

func init() {
	rootCmd.AddCommand(formatsCmd)
}
