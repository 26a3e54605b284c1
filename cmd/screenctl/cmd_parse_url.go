package main

import (
	"fmt"

	"github.com/spf13/cobra"

	domain "screen-dev-assistant/internal/domain/codegen"
)

var parseURLCmd = &cobra.Command{
	Use:   "parse-url <figma-url>",
	Short: "Print the file id and node id of a Figma link",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, err := domain.ParseDesignURL(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "file: %s\n", ref.FileID)
		fmt.Fprintf(out, "node: %s\n", ref.NodeID)
		return nil
	},
}
