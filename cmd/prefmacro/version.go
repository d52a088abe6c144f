package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"prefmacro/internal/version"
)

func newVersionCmd(_ *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show prefmacro build metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return fmt.Errorf("failed to get format flag: %w", err)
			}
			info := version.Current()
			out := cmd.OutOrStdout()
			switch strings.ToLower(format) {
			case "json":
				return version.WriteJSON(out, info)
			case "pretty", "":
				color, err := useColor(cmd, out)
				if err != nil {
					return err
				}
				return version.WritePretty(out, info, color)
			default:
				return fmt.Errorf("unknown format: %s", format)
			}
		},
	}
	cmd.Flags().String("format", "pretty", "output format (pretty|json)")
	return cmd
}
