package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/odvcencio/grit/pkg/object"
	"github.com/odvcencio/grit/pkg/repo"
	"github.com/spf13/cobra"
)

func newCommitTreeCmd(a *app) *cobra.Command {
	var parents []string
	var message, keyPath, updateRef string
	var signCommit bool

	cmd := &cobra.Command{
		Use:   "commit-tree <tree> [-p <parent>]... [-m <message>]",
		Short: "Create a commit object for a tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openRepo()
			if err != nil {
				return err
			}
			tree, err := r.ResolveKind(args[0], object.KindTree)
			if err != nil {
				return err
			}

			opts := repo.CommitOptions{
				Tree:    tree,
				Author:  a.settings.Identity(),
				Message: message,
			}
			for _, p := range parents {
				h, err := r.ResolveKind(p, object.KindCommit)
				if err != nil {
					return err
				}
				opts.Parents = append(opts.Parents, h)
			}
			if !cmd.Flags().Changed("message") {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read message: %w", err)
				}
				opts.Message = string(data)
			}
			if strings.TrimSpace(opts.Message) == "" {
				return fmt.Errorf("commit-tree: empty commit message")
			}
			if signCommit {
				if opts.Signer, err = a.signer(keyPath); err != nil {
					return err
				}
			}

			h, err := r.CommitTree(opts)
			if err != nil {
				return err
			}
			if updateRef != "" {
				if err := r.UpdateRef(updateRef, h); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&parents, "parent", "p", nil, "parent commit (repeatable)")
	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message (read from stdin when omitted)")
	cmd.Flags().BoolVarP(&signCommit, "gpg-sign", "S", false, "sign the commit with an SSH key")
	cmd.Flags().StringVar(&keyPath, "key", "", "SSH private key for -S (default signing.key)")
	cmd.Flags().StringVar(&updateRef, "update-ref", "", "point this ref (e.g. refs/heads/master) at the new commit")
	return cmd
}
