// Command dbupgrade migrates a bot database file to the latest schema
// version and prints the steps it applied.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"discord-modbot/utils/database"

	"github.com/jedib0t/go-pretty/table"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintf(out, "usage: %s <database file>\n", filepath.Base(os.Args[0]))
		return 2
	}

	store, err := database.Open(args[0])
	if err != nil {
		fmt.Fprintln(out, "Error: ", err)
		return 1
	}
	defer store.Close()

	results, err := database.NewMigrator(store).Migrate(context.Background())

	tb := table.NewWriter()
	tb.AppendHeader(table.Row{"from", "to", "kind", "description", "took"})
	for _, r := range results {
		tb.AppendRow(table.Row{r.From, r.To, r.Kind, r.Description, r.Duration.Round(time.Microsecond)})
	}
	if len(results) > 0 {
		fmt.Fprintln(out, tb.Render())
	}

	if err != nil {
		fmt.Fprintln(out, "Error: ", err)
		return 1
	}

	version, err := store.UserVersion(context.Background())
	if err != nil {
		fmt.Fprintln(out, "Error: ", err)
		return 1
	}
	fmt.Fprintf(out, "Database is at version %d\n", version)
	return 0
}
