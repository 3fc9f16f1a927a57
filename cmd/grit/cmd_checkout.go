package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newCheckoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "checkout <commit-ish> <directory>",
		Short: "Write the tree of a commit into an empty directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openRepo()
			if err != nil {
				return err
			}
			dest := args[1]
			if !filepath.IsAbs(dest) {
				dest = filepath.Join(a.workDir, dest)
			}
			if err := r.Checkout(args[0], dest); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "checked out %s into %s\n", args[0], dest)
			return nil
		},
	}
}
