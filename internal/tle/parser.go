package tle

import (
	"bufio"
	"log/slog"
	"strings"
)

// Parse scans raw TLE text in fixed non-overlapping windows of three trimmed,
// non-empty lines. A window is accepted only when its second line starts with
// "1 " and its third with "2 "; a rejected window is skipped whole — the scan
// never re-aligns mid-triplet. Parsing stops once max records are collected
// (max <= 0 means unlimited). Malformed input yields fewer records, never an
// error.
func Parse(text string, max int, logger *slog.Logger) []Record {
	scanner := bufio.NewScanner(strings.NewReader(text))
	var lines []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}

	var records []Record
	for i := 0; i+2 < len(lines); i += 3 {
		if max > 0 && len(records) >= max {
			break
		}

		name := lines[i]
		line1 := lines[i+1]
		line2 := lines[i+2]

		if !strings.HasPrefix(line1, "1 ") || !strings.HasPrefix(line2, "2 ") {
			logger.Warn("skipping malformed TLE window", "line_index", i, "name", name)
			continue
		}

		records = append(records, Record{
			Name:  name,
			Line1: line1,
			Line2: line2,
		})
	}

	return records
}
