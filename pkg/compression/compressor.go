// Package compression wraps output streams with a compression codec.
//
// Columnar containers (Arrow IPC, Parquet, Avro) compress internally; this
// package is for formats that do not, such as JSON Lines, where the whole
// stream is compressed and the output path gets the matching extension.
//
// # Basic Usage
//
//	w, err := compression.NewWriter(file, compression.Zstd, compression.Default)
//	if err != nil {
//	    return err
//	}
//	defer w.Close()
//	_, err = w.Write(line)
package compression

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Algorithm represents a compression algorithm
type Algorithm string

const (
	// None represents no compression
	None Algorithm = "none"
	// Gzip represents gzip compression
	Gzip Algorithm = "gzip"
	// Snappy represents framed snappy compression
	Snappy Algorithm = "snappy"
	// LZ4 represents lz4 frame compression
	LZ4 Algorithm = "lz4"
	// Zstd represents zstandard compression
	Zstd Algorithm = "zstd"
	// S2 represents s2 compression (Snappy compatible)
	S2 Algorithm = "s2"
	// Deflate represents raw deflate compression
	Deflate Algorithm = "deflate"
)

// Level trades speed for ratio
type Level int

const (
	// Fastest prioritizes speed over compression ratio
	Fastest Level = 1
	// Default balances speed and compression
	Default Level = 5
	// Better improves compression at cost of speed
	Better Level = 7
	// Best maximizes compression ratio
	Best Level = 9
)

// ParseAlgorithm resolves a user supplied name. "" and "uncompressed" mean None.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch a := Algorithm(strings.ToLower(strings.TrimSpace(name))); a {
	case "", "uncompressed":
		return None, nil
	case None, Gzip, Snappy, LZ4, Zstd, S2, Deflate:
		return a, nil
	case "gz":
		return Gzip, nil
	case "zst":
		return Zstd, nil
	default:
		return "", fmt.Errorf("unsupported compression algorithm: %s", name)
	}
}

// Extension returns the file suffix conventionally used for the algorithm
func (a Algorithm) Extension() string {
	switch a {
	case Gzip:
		return ".gz"
	case Snappy:
		return ".sz"
	case LZ4:
		return ".lz4"
	case Zstd:
		return ".zst"
	case S2:
		return ".s2"
	case Deflate:
		return ".deflate"
	default:
		return ""
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// NewWriter wraps dst. Closing the returned writer flushes the codec but
// does not close dst.
func NewWriter(dst io.Writer, alg Algorithm, level Level) (io.WriteCloser, error) {
	switch alg {
	case None, "":
		return nopWriteCloser{dst}, nil
	case Gzip:
		return gzip.NewWriterLevel(dst, mapGzipLevel(level))
	case Snappy:
		return snappy.NewBufferedWriter(dst), nil
	case LZ4:
		w := lz4.NewWriter(dst)
		if err := w.Apply(lz4.CompressionLevelOption(mapLZ4Level(level))); err != nil {
			return nil, err
		}
		return w, nil
	case Zstd:
		return zstd.NewWriter(dst, zstd.WithEncoderLevel(mapZstdLevel(level)))
	case S2:
		opts := []s2.WriterOption{}
		if level >= Better {
			opts = append(opts, s2.WriterBetterCompression())
		}
		return s2.NewWriter(dst, opts...), nil
	case Deflate:
		return flate.NewWriter(dst, mapGzipLevel(level))
	default:
		return nil, fmt.Errorf("unsupported compression algorithm: %s", alg)
	}
}

// NewReader returns a decompressing reader over src
func NewReader(src io.Reader, alg Algorithm) (io.ReadCloser, error) {
	switch alg {
	case None, "":
		return io.NopCloser(src), nil
	case Gzip:
		return gzip.NewReader(src)
	case Snappy:
		return io.NopCloser(snappy.NewReader(src)), nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(src)), nil
	case Zstd:
		dec, err := zstd.NewReader(src)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	case S2:
		return io.NopCloser(s2.NewReader(src)), nil
	case Deflate:
		return flate.NewReader(src), nil
	default:
		return nil, fmt.Errorf("unsupported compression algorithm: %s", alg)
	}
}

// Compress compresses data in one shot
func Compress(data []byte, alg Algorithm, level Level) ([]byte, error) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, alg, level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decompress reverses Compress
func Decompress(data []byte, alg Algorithm) ([]byte, error) {
	r, err := NewReader(bytes.NewReader(data), alg)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func mapGzipLevel(level Level) int {
	switch level {
	case Fastest:
		return gzip.BestSpeed
	case Best:
		return gzip.BestCompression
	default:
		return gzip.DefaultCompression
	}
}

func mapLZ4Level(level Level) lz4.CompressionLevel {
	switch level {
	case Fastest:
		return lz4.Fast
	case Best:
		return lz4.Level9
	default:
		return lz4.Level5
	}
}

func mapZstdLevel(level Level) zstd.EncoderLevel {
	switch level {
	case Fastest:
		return zstd.SpeedFastest
	case Better:
		return zstd.SpeedBetterCompression
	case Best:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}
