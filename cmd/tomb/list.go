package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var listLong bool

var listCmd = &cobra.Command{
	Use:     "list [pattern]",
	Aliases: []string{"ls"},
	Short:   "List secret paths matching a glob pattern",
	Long: `List the paths of stored secrets matching a glob pattern (default "*").

Patterns support *, ?, [abc], [!abc], {a,b} and backslash escapes. No key is
needed.`,
	Example: `  tomb list
  tomb list 'email/*'
  tomb list --long '{work,home}/*'`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVarP(&listLong, "long", "l", false, "Show username, url and update time")
}

type listEntry struct {
	Path      string    `json:"path"`
	Username  string    `json:"username,omitempty"`
	URL       string    `json:"url,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

func runList(cmd *cobra.Command, args []string) error {
	pattern := "*"
	if len(args) == 1 {
		pattern = args[0]
	}

	store, err := loadStore(cmd.Context())
	if err != nil {
		return err
	}
	secrets, err := store.List(pattern)
	if err != nil {
		return err
	}

	entries := make([]listEntry, 0, len(secrets))
	for _, secret := range secrets {
		entry := listEntry{Path: secret.Path, UpdatedAt: secret.UpdatedAt}
		if secret.Username != nil {
			entry.Username = *secret.Username
		}
		if secret.URL != nil {
			entry.URL = *secret.URL
		}
		entries = append(entries, entry)
	}

	if jsonOutput {
		return printJSON(entries)
	}

	if !listLong {
		for _, entry := range entries {
			fmt.Fprintln(stdout, entry.Path)
		}
		return nil
	}

	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join([]string{"PATH", "USERNAME", "URL", "UPDATED"}, "\t"))
	for _, entry := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", entry.Path, dash(entry.Username), dash(entry.URL),
			entry.UpdatedAt.Format(time.RFC3339))
	}
	return w.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
