package main

import (
	"fmt"

	"github.com/odvcencio/grit/pkg/object"
	"github.com/spf13/cobra"
)

func newCatFileCmd(a *app) *cobra.Command {
	var showType, showSize, pretty bool

	cmd := &cobra.Command{
		Use:   "cat-file (-t | -s | -p | <kind>) <object>",
		Short: "Print the content, kind or size of an object",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			modes := 0
			for _, set := range []bool{showType, showSize, pretty, len(args) == 2} {
				if set {
					modes++
				}
			}
			if modes != 1 {
				return fmt.Errorf("cat-file: exactly one of -t, -s, -p or <kind> is required")
			}

			r, err := a.openRepo()
			if err != nil {
				return err
			}
			name := args[len(args)-1]
			h, err := r.ResolveName(name)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(args) == 2 {
				kind, err := object.ParseKind(args[0])
				if err != nil {
					return err
				}
				if h, err = r.Peel(h, kind); err != nil {
					return err
				}
				_, payload, err := r.Store.ReadRaw(h)
				if err != nil {
					return err
				}
				_, err = out.Write(payload)
				return err
			}

			kind, payload, err := r.Store.ReadRaw(h)
			if err != nil {
				return err
			}
			switch {
			case showType:
				fmt.Fprintln(out, kind)
			case showSize:
				fmt.Fprintln(out, len(payload))
			case kind == object.KindTree:
				tree, err := object.UnmarshalTree(payload)
				if err != nil {
					return err
				}
				for _, e := range tree.Entries {
					fmt.Fprintln(out, formatTreeLine(e.Name, e))
				}
			default:
				_, err = out.Write(payload)
				return err
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&showType, "type", "t", false, "show the object kind")
	cmd.Flags().BoolVarP(&showSize, "size", "s", false, "show the payload size")
	cmd.Flags().BoolVarP(&pretty, "pretty", "p", false, "pretty-print the object")
	return cmd
}

// formatTreeLine renders an entry the way git ls-tree does:
// "<6-digit mode> <kind> <hash>\t<path>".
func formatTreeLine(path string, e object.TreeEntry) string {
	mode := e.Mode()
	for len(mode) < 6 {
		mode = "0" + mode
	}
	return fmt.Sprintf("%s %s %s\t%s", mode, e.Type.ObjectKind(), e.Hash, path)
}
