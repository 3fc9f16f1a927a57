package main

import (
	"fmt"
	"strings"

	"github.com/odvcencio/grit/pkg/object"
	"github.com/spf13/cobra"
)

func newBranchCmd(a *app) *cobra.Command {
	var deleteBranch string
	var force bool

	cmd := &cobra.Command{
		Use:   "branch [<name> [<commit-ish>]]",
		Short: "List, create, or delete branches",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openRepo()
			if err != nil {
				return err
			}

			if strings.TrimSpace(deleteBranch) != "" {
				if len(args) > 0 {
					return fmt.Errorf("branch --delete does not accept positional args")
				}
				return r.DeleteBranch(deleteBranch)
			}

			if len(args) == 0 {
				current, err := r.CurrentBranch()
				if err != nil {
					return err
				}
				branches, err := r.ListBranches()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, b := range branches {
					marker := " "
					if b.Name == current {
						marker = "*"
					}
					fmt.Fprintf(out, "%s %s %s\n", marker, b.Hash.Short(8), b.Name)
				}
				return nil
			}

			targetName := "HEAD"
			if len(args) == 2 {
				targetName = args[1]
			}
			target, err := r.ResolveKind(targetName, object.KindCommit)
			if err != nil {
				return err
			}
			return r.CreateBranch(args[0], target, force)
		},
	}
	cmd.Flags().StringVarP(&deleteBranch, "delete", "d", "", "delete the named branch")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "move an existing branch")
	return cmd
}
