package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newShowRefCmd(a *app) *cobra.Command {
	var head bool

	cmd := &cobra.Command{
		Use:   "show-ref [--head] [<prefix>]",
		Short: "List references and the objects they point at",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openRepo()
			if err != nil {
				return err
			}
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			out := cmd.OutOrStdout()
			if head {
				if h, err := r.ResolveRef("HEAD"); err == nil {
					fmt.Fprintf(out, "%s HEAD\n", h)
				}
			}
			refs, err := r.ListRefs(prefix)
			if err != nil {
				return err
			}
			for _, ref := range refs {
				fmt.Fprintf(out, "%s %s\n", ref.Hash, ref.Name)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&head, "head", false, "include HEAD")
	return cmd
}
