package utils

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

type BSVOptions struct {
	// Lower lower-cases every row before it is split.
	Lower bool
	// Columns, when positive, is the minimal number of columns of a row.
	Columns int
}

// ReadBSV reads a bar separated file. Empty lines and lines starting with '#' or '//'
// are skipped, duplicate rows are returned once.
func ReadBSV(bsvPath string, opts BSVOptions) ([][]string, error) {
	f, err := os.Open(bsvPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows [][]string
	hashes := make(map[uint64]bool)
	scanner := bufio.NewScanner(f)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		if opts.Lower {
			line = strings.ToLower(line)
		}
		columns := strings.Split(line, "|")
		for i := range columns {
			columns[i] = strings.TrimSpace(columns[i])
		}
		if opts.Columns > 0 && len(columns) < opts.Columns {
			return nil, fmt.Errorf("%s:%d: expected at least %d columns, got %d", bsvPath, lineNumber, opts.Columns, len(columns))
		}

		hash := HashStrings(columns...)
		if hashes[hash] {
			continue
		}
		hashes[hash] = true
		rows = append(rows, columns)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}
