package main

import (
	"fmt"

	"github.com/odvcencio/grit/pkg/object"
	"github.com/spf13/cobra"
)

func newRevParseCmd(a *app) *cobra.Command {
	var kindName string

	cmd := &cobra.Command{
		Use:   "rev-parse [--type <kind>] <name>...",
		Short: "Resolve names to object hashes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openRepo()
			if err != nil {
				return err
			}
			var kind object.Kind
			if kindName != "" {
				if kind, err = object.ParseKind(kindName); err != nil {
					return err
				}
			}
			for _, name := range args {
				h, err := r.ResolveName(name)
				if err != nil {
					return err
				}
				if kind != "" {
					if h, err = r.Peel(h, kind); err != nil {
						return err
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), h)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&kindName, "type", "", "peel the result to this kind")
	return cmd
}
