// cmd/vdiff/remote.go
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"vdiff/internal/client"
	"vdiff/internal/diff"
	"vdiff/internal/session"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// newRemoteCmd groups commands that talk to a running vdiff server.
func newRemoteCmd() *cobra.Command {
	var addr string

	remoteCmd := &cobra.Command{
		Use:   "remote",
		Short: "Work with diff sessions on a vdiff server",
	}
	remoteCmd.PersistentFlags().StringVar(&addr, "addr", "http://127.0.0.1:8080", "Server base URL")

	var remoteContext int
	createCmd := &cobra.Command{
		Use:   "create OLD NEW",
		Short: "Upload two files and start a diff session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			oldDoc, err := readDocument(args[0], nil)
			if err != nil {
				return err
			}
			newDoc, err := readDocument(args[1], nil)
			if err != nil {
				return err
			}
			if oldDoc == nil && newDoc == nil {
				return fmt.Errorf("neither %s nor %s exists", args[0], args[1])
			}

			var ctxLines *int
			if cmd.Flags().Changed("context") {
				ctxLines = &remoteContext
			}

			sess, err := client.New(addr).CreateDiff(filepath.Base(args[1]), oldDoc, newDoc, ctxLines, normalizeDoc)
			if err != nil {
				return fmt.Errorf("creating session: %w", err)
			}
			fmt.Println(sess.ID)
			return nil
		},
	}
	createCmd.Flags().IntVarP(&remoteContext, "context", "U", diff.DefaultContextLines, "Lines of context around each change")
	createCmd.Flags().BoolVar(&normalizeDoc, "normalize", false, "Let the server canonicalize YAML first")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List diff sessions, most recently used first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			summaries, err := client.New(addr).ListDiffs()
			if err != nil {
				return fmt.Errorf("listing sessions: %w", err)
			}

			green := color.New(color.FgGreen).SprintFunc()
			red := color.New(color.FgRed).SprintFunc()
			for _, s := range summaries {
				fmt.Printf("%s  %-24s %-9s %s %s  %d hunks\n", s.ID, s.Name, s.Status,
					green(fmt.Sprintf("+%d", s.Stats.Added)), red(fmt.Sprintf("-%d", s.Stats.Removed)), s.Hunks)
			}
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show ID",
		Short: "Print the visible hunks of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := client.New(addr).GetDiff(args[0])
			if err != nil {
				return fmt.Errorf("fetching session: %w", err)
			}
			printSession(sess)
			return nil
		},
	}

	var step int
	expandCmd := &cobra.Command{
		Use:   "expand ID INDEX before|after",
		Short: "Reveal more context around one hunk",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid hunk index %q", args[1])
			}
			dir, err := diff.ParseDirection(args[2])
			if err != nil {
				return err
			}

			sess, err := client.New(addr).ExpandDiff(args[0], index, dir, step)
			if err != nil {
				return fmt.Errorf("expanding hunk: %w", err)
			}
			printSession(sess)
			return nil
		},
	}
	expandCmd.Flags().IntVar(&step, "step", 0, "Lines to reveal (default: server setting)")

	deleteCmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a diff session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.New(addr).DeleteDiff(args[0]); err != nil {
				return fmt.Errorf("deleting session: %w", err)
			}
			fmt.Fprintln(os.Stderr, "Deleted", args[0])
			return nil
		},
	}

	remoteCmd.AddCommand(createCmd, listCmd, showCmd, expandCmd, deleteCmd)
	return remoteCmd
}

func printSession(sess *session.Session) {
	cyan := color.New(color.FgCyan).SprintFunc()
	for i, h := range sess.Hunks {
		var more []string
		if h.CanExpandBefore {
			more = append(more, "before")
		}
		if h.CanExpandAfter {
			more = append(more, "after")
		}
		fmt.Println(cyan(fmt.Sprintf("# hunk %d, expandable: %v", i, more)))
		printColoredDiff(diff.FormatHunks([]diff.Hunk{h}))
	}
}
