// Package storage handles record persistence: JSONL snapshots (optionally
// zstd-compressed) as the source of truth and an ephemeral SQLite index for
// queries.
package storage

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"lukechampine.com/blake3"

	"github.com/matsen/citeweb/internal/record"
)

// MaxJSONLLineCapacity is the maximum buffer size for one snapshot line.
// Heavily cited records carry tens of thousands of citation ids.
const MaxJSONLLineCapacity = 16 * 1024 * 1024

// CompressedSuffix marks snapshot files stored with zstd compression.
const CompressedSuffix = ".zst"

// IsCompressed reports whether path names a zstd-compressed snapshot.
func IsCompressed(path string) bool {
	return strings.HasSuffix(path, CompressedSuffix)
}

// ReadSnapshot reads all records from a JSONL snapshot.
// A missing file is reported with an error satisfying errors.Is(err, fs.ErrNotExist).
func ReadSnapshot(path string) ([]*record.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if IsCompressed(path) {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("creating zstd decoder: %w", err)
		}
		defer dec.Close()
		r = dec
	}

	return decodeSnapshot(r)
}

func decodeSnapshot(r io.Reader) ([]*record.Record, error) {
	var records []*record.Record
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		var rec record.Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("invalid record at line %d: %w", lineNum, err)
		}
		records = append(records, &rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	return records, nil
}

// EncodeSnapshot renders records as JSONL in the order given.
func EncodeSnapshot(records []*record.Record) ([]byte, error) {
	var buf bytes.Buffer
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("encoding record %s: %w", rec.ID, err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// WriteSnapshot writes encoded JSONL to path, compressing when the path ends
// in CompressedSuffix. The file is written to a temporary sibling and renamed
// into place so an interrupted save leaves the previous snapshot intact.
func WriteSnapshot(path string, data []byte) error {
	if IsCompressed(path) {
		compressed, err := compress(data)
		if err != nil {
			return err
		}
		data = compressed
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp snapshot: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}

func compress(data []byte) ([]byte, error) {
	var compressed bytes.Buffer
	encoder, err := zstd.NewWriter(&compressed)
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	if _, err := encoder.Write(data); err != nil {
		encoder.Close()
		return nil, fmt.Errorf("compressing: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("closing encoder: %w", err)
	}
	return compressed.Bytes(), nil
}

// Digest returns the hex BLAKE3 hash of data.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
