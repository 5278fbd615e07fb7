// Command gametree solves the 3x3 game and writes the value table as JSON,
// in the format the server reads from value-table-path.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/HarshilD05/Super-XO/internal/valuetable"
)

func main() {
	out := flag.String("out", "", "output file, stdout when empty")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	if err := run(*out, os.Stdout); err != nil {
		logger.Error("failed to write game tree", "error", err)
		os.Exit(1)
	}
}

func run(path string, stdout io.Writer) error {
	table := valuetable.Build()

	if path == "" {
		return writeTable(table, stdout)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err = writeTable(table, file); err != nil {
		_ = file.Close()
		return err
	}

	if err = file.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	return nil
}

func writeTable(table *valuetable.Table, w io.Writer) error {
	buffered := bufio.NewWriter(w)

	if err := table.WriteJSON(buffered); err != nil {
		return err
	}

	if err := buffered.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}

	return nil
}
