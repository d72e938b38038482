// Package columnar implements oraexport's type-inference and columnar-encoding
// engine: it turns a buffer of loosely typed records into a set of typed,
// dense columns with explicit validity bitmaps.
//
// # Overview
//
// The package consists of several small pieces, leaves first:
//
//   - Classifier: pure predicates recognising ISO dates, ISO timestamps with
//     and without a timezone, hex-encoded RAW payloads and large objects
//   - Temporal codec: date to days-since-epoch, timestamp to
//     microseconds-since-epoch, timezone offsets normalised to UTC
//   - Type inference: one ColumnType per field, chosen by an InferencePolicy
//   - Column builder: dense values plus validity for one field
//   - Writer: the record buffer, LOB filter and flush to a Sink
//
// # Classification precedence
//
// String values are tested in a fixed order and the first match wins:
//
//  1. ISO date (YYYY-MM-DD)            → Date32
//  2. ISO timestamp with a timezone     → Timestamp64(tz)
//  3. ISO timestamp without a timezone  → Timestamp64
//  4. even-length hex string, ≥ 8 chars → Binary
//  5. anything else                     → Utf8
//
// The order is load-bearing. A long, even-length, all-digit string is
// classified as Binary; that is an accepted trade-off of the heuristic.
//
// # Single-sample inference
//
// A column's type comes from the first record that holds a non-null value
// for it. Later values of another shape are written as a zero placeholder
// with validity=false. The Strict policy keeps the same type choice but
// reports such values as a TypeConflictError.
//
// # Basic Usage
//
//	w := columnar.NewWriter(columnar.WithSkipLOBs(true))
//	for _, rec := range records {
//	    if err := w.AddRecord(rec); err != nil {
//	        return err
//	    }
//	}
//	set, err := w.Flush(ctx, sink)
//
// A Writer has a single owner and no internal locking; records must be added
// in arrival order from one goroutine.
package columnar
