package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

var labelIDPattern = regexp.MustCompile(`[0-9]+`)

// ImportLabels reads "label;url" rows and sets the custom label of the record
// whose id is the first number in the url. Blank rows and rows starting with
// '#' are ignored. It returns the number of labelled records.
func (s *Store) ImportLabels(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening labels file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = ';'
	r.Comment = '#'
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	count := 0
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return count, fmt.Errorf("reading labels file: %w", err)
		}
		if len(row) < 2 {
			continue
		}
		label := strings.TrimSpace(row[0])
		id := labelIDPattern.FindString(row[1])
		if label == "" || id == "" {
			s.logger.Debug("skipping label row", "row", row)
			continue
		}
		s.Get(id).CustomLabel = label
		count++
	}
	s.logger.Info("imported labels", "path", path, "count", count)
	return count, nil
}
