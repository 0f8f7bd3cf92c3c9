package tle

import (
	"strconv"
	"strings"
	"time"
)

// Record is a single satellite's two-line element set plus its name line.
type Record struct {
	Name  string `json:"name"`
	Line1 string `json:"line1"`
	Line2 string `json:"line2"`
}

// CatalogID extracts the NORAD catalog number from line1 cols 3-7
// (0-indexed 2..7). Returns 0 if the field is not numeric.
func (r Record) CatalogID() int {
	if len(r.Line1) < 7 {
		return 0
	}
	id, err := strconv.Atoi(strings.TrimSpace(r.Line1[2:7]))
	if err != nil {
		return 0
	}
	return id
}

// Dataset is a complete set of TLE records from one fetch.
type Dataset struct {
	Source    string
	FetchedAt time.Time
	Records   []Record
}
