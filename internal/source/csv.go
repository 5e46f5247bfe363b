package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// csvRow is one data row keyed by lowercased header name.
type csvRow map[string]string

// readCSVFiles reads every *.csv under the locator (a file or a directory)
// and invokes fn once per data row. A malformed file is an error at load
// time; the caller marks the source type unavailable.
func readCSVFiles(locator string, fn func(row csvRow, origin string) error) error {
	info, err := os.Stat(locator)
	if err != nil {
		return fmt.Errorf("stat locator: %w", err)
	}

	var files []string
	if info.IsDir() {
		matches, err := filepath.Glob(filepath.Join(locator, "*.csv"))
		if err != nil {
			return fmt.Errorf("glob csv files: %w", err)
		}
		files = matches
	} else {
		files = []string{locator}
	}

	if len(files) == 0 {
		return fmt.Errorf("no csv files under %s", locator)
	}

	for _, file := range files {
		if err := readOneCSV(file, fn); err != nil {
			return err
		}
	}
	return nil
}

func readOneCSV(path string, fn func(row csvRow, origin string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("read header of %s: %w", path, err)
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}

	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		row := make(csvRow, len(header))
		for i, v := range rec {
			if i < len(header) {
				row[header[i]] = strings.TrimSpace(v)
			}
		}
		if err := fn(row, path); err != nil {
			return err
		}
	}
	return nil
}

// parseDate accepts the date layouts that occur in the source files.
func parseDate(s string) (time.Time, bool) {
	for _, layout := range []string{"2006-01-02", "2006/01/02", "01/02/2006", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// slugify builds a stable key fragment from free text.
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var sb strings.Builder
	lastDash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && sb.Len() > 0 {
				sb.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(sb.String(), "-")
}
