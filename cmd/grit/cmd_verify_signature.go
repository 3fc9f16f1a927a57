package main

import (
	"fmt"

	"github.com/odvcencio/grit/pkg/object"
	"github.com/odvcencio/grit/pkg/sign"
	"github.com/spf13/cobra"
)

func newVerifyCommitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify-commit <commit-ish>",
		Short: "Check the SSH signature of a commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openRepo()
			if err != nil {
				return err
			}
			h, err := r.ResolveKind(args[0], object.KindCommit)
			if err != nil {
				return err
			}
			c, err := r.Store.ReadCommit(h)
			if err != nil {
				return err
			}
			armored, ok := object.CommitSignature(c)
			if !ok {
				return fmt.Errorf("verify-commit: commit %s is not signed", h)
			}
			payload, err := object.CommitSigningPayload(c)
			if err != nil {
				return err
			}
			return reportSignature(cmd, h, payload, armored)
		},
	}
}

func newVerifyTagCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify-tag <tag>",
		Short: "Check the SSH signature of an annotated tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openRepo()
			if err != nil {
				return err
			}
			h, err := r.ResolveName(args[0])
			if err != nil {
				return err
			}
			tag, err := r.Store.ReadTag(h)
			if err != nil {
				return err
			}
			_, armored, ok := object.SplitTagSignature(tag.Message)
			if !ok {
				return fmt.Errorf("verify-tag: tag %s is not signed", h)
			}
			payload, err := object.TagSigningPayload(tag)
			if err != nil {
				return err
			}
			return reportSignature(cmd, h, payload, armored)
		},
	}
}

func reportSignature(cmd *cobra.Command, h object.Hash, payload []byte, armored string) error {
	pub, err := sign.Verify(payload, armored, sign.Namespace)
	if err != nil {
		return fmt.Errorf("%s: %w", h, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Good signature on %s with %s key %s\n", h, pub.Type(), sign.Fingerprint(pub))
	return nil
}
