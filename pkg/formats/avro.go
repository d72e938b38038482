package formats

import (
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/linkedin/goavro/v2"

	"github.com/ajitpratap0/oraexport/pkg/columnar"
)

const avroRecordName = "oraexport_row"

// avroWriter writes an Avro object container file. Every field is a
// ["null", T] union; dates and timestamps use the date and
// timestamp-micros logical types.
type avroWriter struct {
	out            *countingWriter
	config         *WriterConfig
	ocfWriter      *goavro.OCFWriter
	fields         []avroField
	recordsWritten int64
}

type avroField struct {
	column string
	name   string
	branch string
}

func newAvroWriter(w *countingWriter, config *WriterConfig) (*avroWriter, error) {
	if _, err := getAvroCompression(config.Compression); err != nil {
		return nil, err
	}
	return &avroWriter{out: w, config: config}, nil
}

func (aw *avroWriter) WriteColumnSet(set *columnar.ColumnSet) error {
	if err := set.Validate(); err != nil {
		return err
	}

	if aw.ocfWriter == nil {
		schema, fields, err := avroSchema(set)
		if err != nil {
			return err
		}
		codec, err := goavro.NewCodec(schema)
		if err != nil {
			return fmt.Errorf("failed to create Avro codec: %w", err)
		}
		compressionName, _ := getAvroCompression(aw.config.Compression)
		ocf, err := goavro.NewOCFWriter(goavro.OCFConfig{
			W:               aw.out,
			Codec:           codec,
			CompressionName: compressionName,
		})
		if err != nil {
			return fmt.Errorf("failed to create Avro writer: %w", err)
		}
		aw.ocfWriter = ocf
		aw.fields = fields
	}

	batch := make([]interface{}, 0, aw.config.BatchSize)
	for row := 0; row < set.NumRows; row++ {
		datum := make(map[string]interface{}, len(aw.fields))
		for i, f := range aw.fields {
			col := set.Columns[i]
			if col.Name != f.column {
				return fmt.Errorf("column %q does not match Avro schema field %q", col.Name, f.column)
			}
			datum[f.name] = avroNative(col, row, f.branch)
		}
		batch = append(batch, datum)

		if len(batch) == aw.config.BatchSize {
			if err := aw.ocfWriter.Append(batch); err != nil {
				return fmt.Errorf("failed to write Avro block: %w", err)
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := aw.ocfWriter.Append(batch); err != nil {
			return fmt.Errorf("failed to write Avro block: %w", err)
		}
	}

	aw.recordsWritten += int64(set.NumRows)
	return nil
}

// Close is a no-op: OCFWriter writes each block as it is appended
func (aw *avroWriter) Close() error {
	return nil
}

func (aw *avroWriter) Format() Format {
	return Avro
}

func (aw *avroWriter) BytesWritten() int64 {
	return aw.out.n
}

func (aw *avroWriter) RecordsWritten() int64 {
	return aw.recordsWritten
}

// avroSchema builds the record schema for set. Column names are sanitized
// to valid Avro names; the original name is kept in the field doc.
func avroSchema(set *columnar.ColumnSet) (string, []avroField, error) {
	type schemaField struct {
		Name    string        `json:"name"`
		Doc     string        `json:"doc,omitempty"`
		Type    []interface{} `json:"type"`
		Default interface{}   `json:"default"`
	}

	fields := make([]avroField, len(set.Columns))
	schemaFields := make([]schemaField, len(set.Columns))
	seen := make(map[string]bool, len(set.Columns))
	for i, col := range set.Columns {
		base := avroName(col.Name)
		name := base
		for n := 1; seen[name]; n++ {
			name = fmt.Sprintf("%s_%d", base, n)
		}
		seen[name] = true

		typ, branch := avroType(col.Type)
		fields[i] = avroField{column: col.Name, name: name, branch: branch}
		schemaFields[i] = schemaField{Name: name, Type: []interface{}{"null", typ}}
		if name != col.Name {
			schemaFields[i].Doc = col.Name
		}
	}

	schema, err := json.Marshal(map[string]interface{}{
		"type":   "record",
		"name":   avroRecordName,
		"fields": schemaFields,
	})
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode Avro schema: %w", err)
	}
	return string(schema), fields, nil
}

// avroType returns the schema type of a column and the union branch name
// goavro expects for its values
func avroType(t columnar.ColumnType) (interface{}, string) {
	switch t.Kind {
	case columnar.Int64:
		return "long", "long"
	case columnar.Float64:
		return "double", "double"
	case columnar.Bool:
		return "boolean", "boolean"
	case columnar.Binary:
		return "bytes", "bytes"
	case columnar.Date32:
		return map[string]string{"type": "int", "logicalType": "date"}, "int.date"
	case columnar.Timestamp64:
		return map[string]string{"type": "long", "logicalType": "timestamp-micros"}, "long.timestamp-micros"
	default:
		return "string", "string"
	}
}

func avroNative(col *columnar.Column, row int, branch string) interface{} {
	if !col.Valid[row] {
		return nil
	}
	var v interface{}
	switch col.Type.Kind {
	case columnar.Int64:
		v = col.Int64s()[row]
	case columnar.Float64:
		v = col.Float64s()[row]
	case columnar.Bool:
		v = col.Bools()[row]
	case columnar.Binary:
		v = col.Binaries()[row]
	case columnar.Date32:
		v = time.Unix(int64(col.Int32s()[row])*86400, 0).UTC()
	case columnar.Timestamp64:
		v = time.UnixMicro(col.Int64s()[row]).UTC()
	default:
		v = col.Strings()[row]
	}
	return goavro.Union(branch, v)
}

// avroName maps a column name onto [A-Za-z_][A-Za-z0-9_]*
func avroName(name string) string {
	var b strings.Builder
	for i, r := range name {
		switch {
		case r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z'):
			b.WriteRune(r)
		case '0' <= r && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}

func getAvroCompression(name string) (string, error) {
	switch strings.ToLower(name) {
	case "", "snappy":
		return goavro.CompressionSnappyLabel, nil
	case "deflate":
		return goavro.CompressionDeflateLabel, nil
	case "none", "null", "uncompressed":
		return goavro.CompressionNullLabel, nil
	default:
		return "", fmt.Errorf("unsupported Avro compression: %s", name)
	}
}
