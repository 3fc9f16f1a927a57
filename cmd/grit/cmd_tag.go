package main

import (
	"fmt"
	"strings"

	"github.com/odvcencio/grit/pkg/repo"
	"github.com/spf13/cobra"
)

func newTagCmd(a *app) *cobra.Command {
	var deleteTag string
	var force, annotate, signTag bool
	var message, keyPath string

	cmd := &cobra.Command{
		Use:   "tag [<name> [<object>]]",
		Short: "List, create, or delete tags",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openRepo()
			if err != nil {
				return err
			}

			if strings.TrimSpace(deleteTag) != "" {
				if len(args) > 0 {
					return fmt.Errorf("tag --delete does not accept positional args")
				}
				return r.DeleteTag(deleteTag)
			}

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				tags, err := r.ListTags()
				if err != nil {
					return err
				}
				for _, t := range tags {
					fmt.Fprintf(out, "%s %s\n", t.Hash, t.Name)
				}
				return nil
			}

			targetName := "HEAD"
			if len(args) == 2 {
				targetName = args[1]
			}
			target, err := r.ResolveName(targetName)
			if err != nil {
				return err
			}

			if !annotate && !signTag && message == "" {
				return r.CreateTag(args[0], target, force)
			}

			opts := repo.AnnotatedTagOptions{
				Tagger:  a.settings.Identity(),
				Message: message,
				Force:   force,
			}
			if signTag {
				if opts.Signer, err = a.signer(keyPath); err != nil {
					return err
				}
			}
			h, err := r.CreateAnnotatedTag(args[0], target, opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, h)
			return nil
		},
	}

	cmd.Flags().StringVarP(&deleteTag, "delete", "d", "", "delete the named tag")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "replace an existing tag")
	cmd.Flags().BoolVarP(&annotate, "annotate", "a", false, "create an annotated tag object")
	cmd.Flags().BoolVarP(&signTag, "sign", "s", false, "create an SSH-signed annotated tag")
	cmd.Flags().StringVarP(&message, "message", "m", "", "tag message (implies -a)")
	cmd.Flags().StringVar(&keyPath, "key", "", "SSH private key for -s (default signing.key)")
	return cmd
}
