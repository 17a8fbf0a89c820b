package lookup

import (
	"FlowTagger/internal/model"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

const (
	columnPort     = "dstport"
	columnProtocol = "protocol"
	columnTag      = "tag"
)

// LoadFile reads the lookup table CSV at path.
func LoadFile(path string) (*model.LookupTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open lookup table: %w", err)
	}
	defer file.Close()

	table, err := Load(file)
	if err != nil {
		return nil, fmt.Errorf("failed to load lookup table '%s': %w", path, err)
	}
	return table, nil
}

// Load builds a lookup table from CSV with a header naming the dstport,
// protocol and tag columns. Rows with a non-numeric port or missing columns
// are skipped; a later row overwrites an earlier row with the same key.
func Load(r io.Reader) (*model.LookupTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return model.NewLookupTable(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	portIdx, protoIdx, tagIdx := -1, -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case columnPort:
			portIdx = i
		case columnProtocol:
			protoIdx = i
		case columnTag:
			tagIdx = i
		}
	}
	if portIdx < 0 || protoIdx < 0 || tagIdx < 0 {
		log.Printf("Warning: lookup table header %v lacks one of %s, %s, %s; no rows will match.", header, columnPort, columnProtocol, columnTag)
	}

	entries := make(map[model.LookupKey]string)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				continue
			}
			return nil, fmt.Errorf("failed to read row: %w", err)
		}

		key, tag, ok := parseRow(row, portIdx, protoIdx, tagIdx)
		if !ok {
			continue
		}
		entries[key] = tag
	}

	return model.NewLookupTable(entries), nil
}

// parseRow extracts a normalized entry from a row, reporting false when the
// row lacks a column or its port is not a non-negative integer.
func parseRow(row []string, portIdx, protoIdx, tagIdx int) (model.LookupKey, string, bool) {
	if !hasColumn(row, portIdx) || !hasColumn(row, protoIdx) || !hasColumn(row, tagIdx) {
		return model.LookupKey{}, "", false
	}

	port, err := model.ParseNonNegative(strings.TrimSpace(row[portIdx]))
	if err != nil {
		return model.LookupKey{}, "", false
	}

	tag := strings.ToLower(strings.TrimSpace(row[tagIdx]))
	return model.NewLookupKey(port, row[protoIdx]), tag, true
}

func hasColumn(row []string, idx int) bool {
	return idx >= 0 && idx < len(row)
}
