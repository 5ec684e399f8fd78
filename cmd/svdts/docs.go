package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tsgonest/svdts/internal/build"
	"github.com/tsgonest/svdts/internal/comments"
)

func newDocsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "docs <component.svelte | sidecar.json | sidecar.yaml>",
		Short: "Print the documentation extracted for a component as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := build.LoadComments(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out, err := comments.Marshal(c)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}
