package main

import (
	"fmt"
	"sort"

	"github.com/odvcencio/grit/pkg/object"
	"github.com/spf13/cobra"
)

func newVerifyCmd(a *app) *cobra.Command {
	var connectivity bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify loose object integrity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openRepo()
			if err != nil {
				return err
			}

			report, err := r.Store.Verify()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(report.Corrupt) > 0 {
				bad := make([]object.Hash, 0, len(report.Corrupt))
				for h := range report.Corrupt {
					bad = append(bad, h)
				}
				sort.Slice(bad, func(i, j int) bool { return bad[i] < bad[j] })
				for _, h := range bad {
					fmt.Fprintf(out, "corrupt: %s: %v\n", h, report.Corrupt[h])
				}
				return fmt.Errorf("verify: %d of %d object(s) corrupt", len(report.Corrupt), report.Objects)
			}

			if connectivity {
				refs, err := r.ListRefs("")
				if err != nil {
					return err
				}
				roots := make([]object.Hash, 0, len(refs)+1)
				for _, ref := range refs {
					roots = append(roots, ref.Hash)
				}
				if h, err := r.ResolveRef("HEAD"); err == nil {
					roots = append(roots, h)
				}
				reachable, err := r.Store.Reachable(roots)
				if err != nil {
					return fmt.Errorf("verify: %w", err)
				}
				fmt.Fprintf(out, "ok: %d object(s) reachable from %d ref(s)\n", len(reachable), len(refs))
			}

			fmt.Fprintf(out, "ok: verified %d loose object(s)\n", report.Objects)
			return nil
		},
	}
	cmd.Flags().BoolVar(&connectivity, "connectivity", false, "also check that every object reachable from refs is present and well-typed")
	return cmd
}
