package formats

import (
	"context"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/goccy/go-json"
	"github.com/linkedin/goavro/v2"
)

// ReadAtSeeker is what the container readers need; *os.File satisfies it
type ReadAtSeeker interface {
	io.Reader
	io.ReaderAt
	io.Seeker
}

// FieldSummary describes one column of a written file
type FieldSummary struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

// Summary describes a written file
type Summary struct {
	Format  Format         `json:"format" yaml:"format"`
	NumRows int64          `json:"num_rows" yaml:"num_rows"`
	Batches int            `json:"batches" yaml:"batches"`
	Fields  []FieldSummary `json:"fields" yaml:"fields"`
}

// Describe reads the schema and row count of an Arrow, Parquet or Avro file
func Describe(ctx context.Context, r ReadAtSeeker, format Format) (*Summary, error) {
	switch format {
	case Arrow:
		return describeArrow(r)
	case Parquet:
		return describeParquet(ctx, r)
	case Avro:
		return describeAvro(r)
	default:
		return nil, fmt.Errorf("cannot describe %s files", format)
	}
}

func describeArrow(r ReadAtSeeker) (*Summary, error) {
	reader, err := ipc.NewFileReader(r, ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return nil, fmt.Errorf("failed to open Arrow file: %w", err)
	}
	defer reader.Close()

	s := &Summary{Format: Arrow, Batches: reader.NumRecords(), Fields: arrowFields(reader.Schema())}
	for i := 0; i < reader.NumRecords(); i++ {
		rec, err := reader.Record(i)
		if err != nil {
			return nil, fmt.Errorf("failed to read record batch %d: %w", i, err)
		}
		s.NumRows += rec.NumRows()
	}
	return s, nil
}

func describeParquet(ctx context.Context, r ReadAtSeeker) (*Summary, error) {
	pf, err := file.NewParquetReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Parquet file: %w", err)
	}
	defer pf.Close()

	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, memory.NewGoAllocator())
	if err != nil {
		return nil, fmt.Errorf("failed to read Parquet metadata: %w", err)
	}
	schema, err := fr.Schema()
	if err != nil {
		return nil, fmt.Errorf("failed to read Parquet schema: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &Summary{
		Format:  Parquet,
		NumRows: pf.NumRows(),
		Batches: pf.NumRowGroups(),
		Fields:  arrowFields(schema),
	}, nil
}

func describeAvro(r io.Reader) (*Summary, error) {
	ocf, err := goavro.NewOCFReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Avro file: %w", err)
	}

	s := &Summary{Format: Avro, Batches: 1}
	for ocf.Scan() {
		if _, err := ocf.Read(); err != nil {
			return nil, fmt.Errorf("failed to read Avro datum: %w", err)
		}
		s.NumRows++
	}
	if err := ocf.Err(); err != nil {
		return nil, err
	}
	fields, err := avroFields(ocf.Codec().Schema())
	if err != nil {
		return nil, err
	}
	s.Fields = fields
	return s, nil
}

func avroFields(schema string) ([]FieldSummary, error) {
	var record struct {
		Fields []struct {
			Name string          `json:"name"`
			Type json.RawMessage `json:"type"`
		} `json:"fields"`
	}
	if err := json.Unmarshal([]byte(schema), &record); err != nil {
		return nil, fmt.Errorf("failed to parse Avro schema: %w", err)
	}
	fields := make([]FieldSummary, len(record.Fields))
	for i, f := range record.Fields {
		fields[i] = FieldSummary{Name: f.Name, Type: string(f.Type)}
	}
	return fields, nil
}

func arrowFields(schema *arrow.Schema) []FieldSummary {
	fields := make([]FieldSummary, len(schema.Fields()))
	for i, f := range schema.Fields() {
		fields[i] = FieldSummary{Name: f.Name, Type: f.Type.String()}
	}
	return fields
}
