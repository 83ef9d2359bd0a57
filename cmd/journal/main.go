package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/how-als/how-als/internal/config"
	"github.com/how-als/how-als/internal/storage"
)

func main() {
	limit := flag.Int("n", 20, "number of entries to show")
	flag.Parse()

	config.LoadEnvFile()
	path := os.Getenv("JOURNAL_PATH")
	if flag.NArg() > 0 {
		path = flag.Arg(0)
	}
	if path == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s [-n N] [journal.db]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nJOURNAL_PATH is used when no path is given.\n")
		os.Exit(1)
	}

	journal, err := storage.NewJournal(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open journal: %v\n", err)
		os.Exit(1)
	}
	defer journal.Close()

	ctx := context.Background()
	entries, err := journal.Recent(ctx, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read journal: %v\n", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tSOURCE\tSTATUS\tOBJECT\tTYPE\tSIZE\tDURATION\tTOKENS\tCOST\tDIGEST")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\t%d\t$%.6f\t%.12s\n",
			e.At.Local().Format(time.DateTime), e.Source, e.Status, e.ObjectName, e.MIMEType,
			e.ByteSize, e.Duration, e.TotalTokens, e.CostUSD, e.ImageDigest)
	}
	w.Flush()

	counts, err := journal.StatusCounts(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to count statuses: %v\n", err)
		os.Exit(1)
	}
	statuses := make([]string, 0, len(counts))
	for s := range counts {
		statuses = append(statuses, s)
	}
	sort.Strings(statuses)
	fmt.Println()
	for _, s := range statuses {
		fmt.Printf("%-22s %d\n", s, counts[s])
	}
}
