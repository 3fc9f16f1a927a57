package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLsTreeCmd(a *app) *cobra.Command {
	var recursive, nameOnly bool

	cmd := &cobra.Command{
		Use:   "ls-tree [-r] [--name-only] <tree-ish>",
		Short: "List the contents of a tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openRepo()
			if err != nil {
				return err
			}
			entries, err := r.LsTree(args[0], recursive)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range entries {
				if nameOnly {
					fmt.Fprintln(out, e.Path)
					continue
				}
				fmt.Fprintln(out, formatTreeLine(e.Path, e.Entry))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "recurse into subtrees")
	cmd.Flags().BoolVar(&nameOnly, "name-only", false, "list only paths")
	return cmd
}
