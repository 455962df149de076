// Command tinyodbc is a small query shell over the embedded SQLite backend.
// It runs a single statement (-e) or a REPL, prints results as aligned
// columns, CSV, or JSON, and streams large results in chunks instead of
// loading them whole.
package main

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	tinyodbc "github.com/SimonWaldherr/tinyODBC"
	"github.com/SimonWaldherr/tinyODBC/backend/sqlite"
)

var (
	flagDSN    = flag.String("dsn", ":memory:", "database path, or :memory: for a throwaway database")
	flagExec   = flag.String("e", "", "execute one statement and exit")
	flagFormat = flag.String("format", "column", "output format: column, csv, json")
	flagChunk  = flag.Int("chunk", 256, "rows fetched per chunk")
)

func main() {
	flag.Parse()
	log.SetFlags(0)
	log.SetPrefix("tinyodbc: ")

	ctx := context.Background()
	client := sqlite.New()
	conn, status := client.Connect(ctx, *flagDSN)
	if !status.OK() {
		log.Fatal(tinyodbc.Diagnostics(client, tinyodbc.HandleDbc, conn))
	}
	defer client.Disconnect(ctx, conn)

	if *flagExec != "" {
		if err := run(ctx, client, conn, *flagExec); err != nil {
			log.Fatal(err)
		}
		return
	}
	repl(ctx, client, conn)
}

func repl(ctx context.Context, client tinyodbc.Client, conn tinyodbc.Handle) {
	sc := bufio.NewScanner(os.Stdin)
	fmt.Print("tinyodbc> ")
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
		case line == ".quit", line == ".exit":
			return
		default:
			if err := run(ctx, client, conn, line); err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
			}
		}
		fmt.Print("tinyodbc> ")
	}
}

func run(ctx context.Context, client tinyodbc.Client, conn tinyodbc.Handle, query string) error {
	cs, err := tinyodbc.Stream(ctx, client, conn, tinyodbc.Statement{SQL: query}, *flagChunk)
	if err != nil {
		return err
	}
	defer cs.Close()

	w, flush := writer(cs.Columns())
	rows := 0
	for cs.Next() {
		for _, row := range cs.Chunk().Rows {
			w(row)
			rows++
		}
	}
	flush()
	if err := cs.Err(); err != nil {
		return err
	}
	if len(cs.Columns()) == 0 {
		fmt.Println("ok")
	} else {
		fmt.Printf("(%d rows)\n", rows)
	}
	return nil
}

// writer returns a per-row emit function and a final flush for the selected
// output format.
func writer(cols []string) (func(tinyodbc.Row), func()) {
	switch *flagFormat {
	case "csv":
		cw := csv.NewWriter(os.Stdout)
		if len(cols) > 0 {
			cw.Write(cols)
		}
		return func(row tinyodbc.Row) {
			rec := make([]string, len(cols))
			for i, c := range cols {
				rec[i] = cell(row[c])
			}
			cw.Write(rec)
		}, cw.Flush

	case "json":
		enc := json.NewEncoder(os.Stdout)
		return func(row tinyodbc.Row) { enc.Encode(row) }, func() {}

	default:
		tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		if len(cols) > 0 {
			fmt.Fprintln(tw, strings.Join(cols, "\t"))
		}
		return func(row tinyodbc.Row) {
			rec := make([]string, len(cols))
			for i, c := range cols {
				rec[i] = cell(row[c])
			}
			fmt.Fprintln(tw, strings.Join(rec, "\t"))
		}, func() { tw.Flush() }
	}
}

func cell(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}
