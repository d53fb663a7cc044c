package persistence

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/tidwall/jsonc"
	"go.uber.org/zap"
)

// RecordStore persists the complete collection of one entity type. There are no
// partial updates: callers load everything, modify, and save everything back.
// Concurrent load/save cycles are not coordinated and the last writer wins.
type RecordStore[T any] interface {
	// LoadAll returns every stored record in insertion order. A missing,
	// unreadable or malformed resource yields an empty slice, never an error.
	LoadAll(ctx context.Context) []T
	// SaveAll replaces the stored collection with records.
	SaveAll(ctx context.Context, records []T) error
}

// Pinger is implemented by stores that can report backend health.
type Pinger interface {
	Ping(ctx context.Context) error
}

var jsonNull = []byte("null")

// decodeRecords parses a JSON array of records. Comments and trailing commas are
// tolerated. Anything other than a top-level array collapses to an empty slice.
func decodeRecords[T any](data []byte, logger *zap.Logger) []T {
	var items []json.RawMessage
	if err := json.Unmarshal(jsonc.ToJSON(data), &items); err != nil {
		logger.Warn("record collection is not a JSON array; treating as empty", zap.Error(err))
		return []T{}
	}

	records := make([]T, 0, len(items))
	for i, item := range items {
		rec, ok := decodeRecord[T](item)
		if !ok {
			logger.Warn("skipping malformed record", zap.Int("index", i))
			continue
		}
		records = append(records, rec)
	}
	return records
}

// decodeRecord decodes one object. When a field has the wrong JSON type, scalars
// are coerced to strings and anything else is dropped, so a single bad field never
// discards the record.
func decodeRecord[T any](item json.RawMessage) (T, bool) {
	var rec T
	if bytes.Equal(bytes.TrimSpace(item), jsonNull) {
		return rec, false
	}
	if err := json.Unmarshal(item, &rec); err == nil {
		return rec, true
	}

	var fields map[string]any
	dec := json.NewDecoder(bytes.NewReader(item))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil || fields == nil {
		return rec, false
	}
	for key, val := range fields {
		switch v := val.(type) {
		case string:
		case json.Number:
			fields[key] = v.String()
		case bool:
			if v {
				fields[key] = "1"
			} else {
				delete(fields, key)
			}
		default:
			delete(fields, key)
		}
	}

	normalized, err := json.Marshal(fields)
	if err != nil {
		return rec, false
	}
	var lenient T
	if err := json.Unmarshal(normalized, &lenient); err != nil {
		return lenient, false
	}
	return lenient, true
}

// encodeRecords renders records as an indented JSON array. A nil slice encodes as [].
func encodeRecords[T any](records []T) ([]byte, error) {
	if records == nil {
		records = []T{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
