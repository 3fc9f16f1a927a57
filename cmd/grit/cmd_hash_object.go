package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/odvcencio/grit/pkg/object"
	"github.com/spf13/cobra"
)

func newHashObjectCmd(a *app) *cobra.Command {
	var write, stdin bool
	var kindName string

	cmd := &cobra.Command{
		Use:   "hash-object [-w] [-t <kind>] (--stdin | <file>...)",
		Short: "Compute object hashes and optionally store the objects",
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := object.ParseKind(kindName)
			if err != nil {
				return err
			}
			if stdin == (len(args) > 0) {
				return fmt.Errorf("hash-object: give either --stdin or at least one file")
			}

			var inputs [][]byte
			if stdin {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				inputs = append(inputs, data)
			}
			for _, name := range args {
				if !filepath.IsAbs(name) {
					name = filepath.Join(a.workDir, name)
				}
				data, err := os.ReadFile(name)
				if err != nil {
					return err
				}
				inputs = append(inputs, data)
			}

			var store *object.Store
			if write {
				r, err := a.openRepo()
				if err != nil {
					return err
				}
				store = r.Store
			}

			for _, payload := range inputs {
				if _, err := object.Decode(kind, payload); err != nil {
					return err
				}
				h := object.HashObject(kind, payload)
				if store != nil {
					if h, err = store.WriteRaw(kind, payload); err != nil {
						return err
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), h)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the object into the store")
	cmd.Flags().BoolVar(&stdin, "stdin", false, "read the payload from standard input")
	cmd.Flags().StringVarP(&kindName, "type", "t", string(object.KindBlob), "object kind")
	return cmd
}
