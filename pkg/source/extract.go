package source

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/ajitpratap0/oraexport/pkg/errors"
	"github.com/ajitpratap0/oraexport/pkg/models"
)

const (
	resultsMarker = `{"results"`
	// snippetLen bounds the payload excerpt attached to decode errors
	snippetLen = 500
)

// trailers are banners SQLcl prints after the JSON document. Only the
// first one found (in this order) after the last closing bracket is cut.
var trailers = []string{"Déconnecté", "Disconnected", "Version ", "Oracle "}

// Extract parses SQLcl JSON output into records. It accepts the SQLcl
// envelope {"results":[{"items":[...]}]}, a bare array of objects or a
// single object. Field order within each object is preserved.
func Extract(output []byte) ([]*models.Record, error) {
	doc := locateJSON(output)
	if len(doc) == 0 {
		return nil, nil
	}

	items, err := splitItems(doc)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to parse SQLcl JSON output").
			WithDetail("snippet", snippet(doc)).
			WithDetail("output_bytes", len(output))
	}

	records := make([]*models.Record, 0, len(items))
	for i, item := range items {
		r, err := decodeObject(item)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, fmt.Sprintf("failed to decode item %d", i)).
				WithDetail("snippet", snippet(item))
		}
		records = append(records, r)
	}
	return records, nil
}

// locateJSON strips the banner text SQLcl wraps around the JSON document
func locateJSON(output []byte) []byte {
	start := bytes.Index(output, []byte(resultsMarker))
	if start < 0 {
		start = bytes.IndexByte(output, '[')
	}
	if start < 0 {
		start = 0
	}
	doc := output[start:]

	// banners follow the document, so cell values are never searched
	tail := bytes.LastIndexAny(doc, "]}") + 1
	for _, t := range trailers {
		if pos := bytes.Index(doc[tail:], []byte(t)); pos >= 0 {
			doc = doc[:tail+pos]
			break
		}
	}
	return bytes.TrimSpace(doc)
}

// splitItems returns the raw row objects of the document
func splitItems(doc []byte) ([]json.RawMessage, error) {
	switch doc[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(doc, &items); err != nil {
			return nil, err
		}
		return items, nil
	case '{':
		var top map[string]json.RawMessage
		if err := json.Unmarshal(doc, &top); err != nil {
			return nil, err
		}
		raw, ok := top["results"]
		if !ok {
			return []json.RawMessage{doc}, nil
		}
		var results []struct {
			Items []json.RawMessage `json:"items"`
		}
		if err := json.Unmarshal(raw, &results); err != nil {
			return nil, err
		}
		if len(results) == 0 {
			return nil, nil
		}
		return results[0].Items, nil
	default:
		return nil, fmt.Errorf("unexpected character %q at start of document", doc[0])
	}
}

// decodeObject reads one JSON object into a record, keeping key order
func decodeObject(raw json.RawMessage) (*models.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected an object, got %v", tok)
	}

	r := models.NewRecord()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected an object key, got %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		v, err := decodeValue(value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		r.Set(key, v)
	}
	return r, nil
}

// decodeValue maps a raw JSON value onto the closed Value variants. Nested
// objects and arrays are kept as their compact JSON text.
func decodeValue(raw json.RawMessage) (models.Value, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return models.Null(), nil
	}

	switch raw[0] {
	case 'n':
		return models.Null(), nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return models.Value{}, err
		}
		return models.Bool(b), nil
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return models.Value{}, err
		}
		return models.String(s), nil
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return models.Value{}, err
		}
		return models.String(buf.String()), nil
	default:
		return decodeNumber(string(raw))
	}
}

// decodeNumber keeps integral literals as Int unless they overflow int64
func decodeNumber(s string) (models.Value, error) {
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return models.Int(i), nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return models.Value{}, fmt.Errorf("invalid number %q", s)
	}
	return models.Float(f), nil
}

func snippet(b []byte) string {
	if len(b) > snippetLen {
		b = b[:snippetLen]
	}
	return string(b)
}
