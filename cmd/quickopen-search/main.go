package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/term"

	"quickopen/internal/database"
	"quickopen/internal/query"
	"quickopen/internal/settings"
)

const (
	exitMatch   = 0
	exitNoMatch = 1
	exitUsage   = 2

	defaultWidth = 80
)

var errUsage = errors.New("usage: quickopen-search DIR... -- QUERY")

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	dirs, text, err := parseArgs(os.Args[1:])
	if err != nil {
		printUsage()
		os.Exit(exitUsage)
	}

	q := query.New(text)
	if v := os.Getenv("MAX_HITS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			fmt.Fprintf(os.Stderr, "Error: MAX_HITS must be a non-negative integer, got %q\n", v)
			os.Exit(exitUsage)
		}
		q.MaxHits = n
	}

	res, err := run(ctx, dirs, q)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitUsage)
	}

	tty := term.IsTerminal(int(os.Stdout.Fd()))
	width := defaultWidth
	if tty {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
			width = w
		}
	}
	printResults(os.Stdout, res, tty, width)

	if res.Len() == 0 {
		os.Exit(exitNoMatch)
	}
}

// parseArgs splits DIR... -- QUERY. The query words are joined with spaces.
func parseArgs(args []string) (dirs []string, text string, err error) {
	sep := -1
	for i, a := range args {
		if a == "--" {
			sep = i
			break
		}
	}
	if sep <= 0 || sep == len(args)-1 {
		return nil, "", errUsage
	}
	return args[:sep], strings.Join(args[sep+1:], " "), nil
}

// run indexes dirs with an in-memory settings store and executes q.
func run(ctx context.Context, dirs []string, q query.Query) (query.Result, error) {
	db, err := database.New(settings.NewMemory(), database.Options{})
	if err != nil {
		return query.Result{}, err
	}
	for _, dir := range dirs {
		if err := db.AddDir(dir); err != nil {
			return query.Result{}, err
		}
	}
	if err := db.Sync(ctx); err != nil {
		return query.Result{}, fmt.Errorf("indexing failed: %w", err)
	}
	return db.Search(ctx, q)
}

// printResults writes one hit per line. On a terminal the rank is shown
// and paths are shortened from the left to fit width.
func printResults(w io.Writer, res query.Result, tty bool, width int) {
	if !tty {
		for _, f := range res.Filenames {
			fmt.Fprintln(w, f)
		}
		return
	}

	const rankWidth = 8
	pathWidth := width - rankWidth
	if pathWidth < 10 {
		pathWidth = 10
	}
	for i, f := range res.Filenames {
		fmt.Fprintf(w, "%6.1f  %s\n", res.Ranks[i], shorten(f, pathWidth))
	}
	if res.Truncated {
		fmt.Fprintln(w, "  ...   (more results; set MAX_HITS to see them)")
	}
}

func shorten(path string, width int) string {
	if len(path) <= width {
		return path
	}
	return "..." + path[len(path)-width+3:]
}

func printUsage() {
	fmt.Println("quickopen fuzzy file search")
	fmt.Println("")
	fmt.Println("Usage: quickopen-search DIR... -- QUERY")
	fmt.Println("")
	fmt.Println("Environment:")
	fmt.Printf("  MAX_HITS - Maximum number of results (default: %d)\n", query.DefaultMaxHits)
}
