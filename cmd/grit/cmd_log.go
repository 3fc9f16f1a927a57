package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/odvcencio/grit/pkg/object"
	"github.com/odvcencio/grit/pkg/repo"
	"github.com/spf13/cobra"
)

func newLogCmd(a *app) *cobra.Command {
	var format string
	var limit int

	cmd := &cobra.Command{
		Use:   "log [<commit-ish>...]",
		Short: "Show commit history",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openRepo()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				args = []string{"HEAD"}
			}
			starts := make([]object.Hash, 0, len(args))
			for _, name := range args {
				h, err := r.ResolveKind(name, object.KindCommit)
				if err != nil {
					return err
				}
				starts = append(starts, h)
			}

			entries, err := r.Log(starts, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch format {
			case "graphviz":
				writeLogGraphviz(out, entries)
			case "oneline":
				for _, e := range entries {
					fmt.Fprintf(out, "%s %s\n", e.Hash.Short(8), firstLine(e.Commit.Message))
				}
			case "medium":
				for i, e := range entries {
					if i > 0 {
						fmt.Fprintln(out)
					}
					writeLogMedium(out, e)
				}
			default:
				return fmt.Errorf("log: unknown format %q (want graphviz, medium or oneline)", format)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "medium", "output format: graphviz, medium or oneline")
	cmd.Flags().IntVarP(&limit, "max-count", "n", 0, "limit the number of commits (0 = all)")
	return cmd
}

// writeLogGraphviz renders the history as a dot digraph, one node per
// commit labelled with its short hash and subject.
func writeLogGraphviz(w io.Writer, entries []repo.LogEntry) {
	fmt.Fprintln(w, "digraph gritlog {")
	fmt.Fprintln(w, "\tnode [shape=rect];")
	for _, e := range entries {
		subject := firstLine(e.Commit.Message)
		subject = strings.ReplaceAll(subject, `\`, `\\`)
		subject = strings.ReplaceAll(subject, `"`, `\"`)
		fmt.Fprintf(w, "\t\"c_%s\" [label=\"%s\\n%s\", shape=rect];\n", e.Hash, e.Hash.Short(8), subject)
		for _, p := range e.Commit.Parents {
			fmt.Fprintf(w, "\tc_%s -> c_%s;\n", e.Hash, p)
		}
	}
	fmt.Fprintln(w, "}")
}

func writeLogMedium(w io.Writer, e repo.LogEntry) {
	c := e.Commit
	fmt.Fprintf(w, "commit %s\n", e.Hash)
	if len(c.Parents) > 1 {
		short := make([]string, len(c.Parents))
		for i, p := range c.Parents {
			short[i] = p.Short(8)
		}
		fmt.Fprintf(w, "Merge: %s\n", strings.Join(short, " "))
	}
	identity, when, ok := splitSignatureLine(c.Author)
	fmt.Fprintf(w, "Author: %s\n", identity)
	if ok {
		fmt.Fprintf(w, "Date:   %s\n", when.Format("Mon Jan 2 15:04:05 2006 -0700"))
	}
	fmt.Fprintln(w)
	for _, line := range strings.Split(strings.TrimRight(c.Message, "\n"), "\n") {
		if line == "" {
			fmt.Fprintln(w)
			continue
		}
		fmt.Fprintf(w, "    %s\n", line)
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

// splitSignatureLine splits "Name <email> 1700000000 +0000" into the
// identity and its time. ok is false when the trailing fields are missing
// or malformed.
func splitSignatureLine(line string) (identity string, when time.Time, ok bool) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return line, time.Time{}, false
	}
	tz := fields[len(fields)-1]
	secs, err := strconv.ParseInt(fields[len(fields)-2], 10, 64)
	if err != nil || len(tz) != 5 || (tz[0] != '+' && tz[0] != '-') {
		return line, time.Time{}, false
	}
	hh, err1 := strconv.Atoi(tz[1:3])
	mm, err2 := strconv.Atoi(tz[3:5])
	if err1 != nil || err2 != nil {
		return line, time.Time{}, false
	}
	offset := hh*3600 + mm*60
	if tz[0] == '-' {
		offset = -offset
	}
	identity = strings.Join(fields[:len(fields)-2], " ")
	return identity, time.Unix(secs, 0).In(time.FixedZone(tz, offset)), true
}
