// Package sink writes expanded partition records to a byte stream.
package sink

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"syscall"

	"github.com/pierrec/lz4/v4"

	"github.com/Sumatoshi-tech/partexpand/pkg/partition"
)

// Format selects the record encoding.
type Format string

const (
	// FormatLines writes one partition ID per line.
	FormatLines Format = "lines"
	// FormatJSON writes a single JSON array of partition IDs.
	FormatJSON Format = "json"
)

// Compression selects an optional stream compressor.
type Compression string

const (
	// CompressionNone writes plain bytes.
	CompressionNone Compression = "none"
	// CompressionLZ4 writes an LZ4 frame.
	CompressionLZ4 Compression = "lz4"
)

// DefaultBufferSize is the write buffer size used when Options.BufferSize is zero.
const DefaultBufferSize = 64 << 10

// Sentinel errors for sink construction.
var (
	// ErrUnknownFormat indicates an unsupported output format.
	ErrUnknownFormat = errors.New("unknown output format")
	// ErrUnknownCompression indicates an unsupported compression.
	ErrUnknownCompression = errors.New("unknown output compression")
	// ErrClosed indicates a write after Close.
	ErrClosed = errors.New("sink is closed")
)

// Options configures a Writer.
type Options struct {
	Format      Format
	Compression Compression
	BufferSize  int
}

// Writer encodes partition records onto an io.Writer. It implements
// partition.Emitter. Close must be called to flush buffered output.
type Writer struct {
	buf        *bufio.Writer
	compressor *lz4.Writer
	format     Format
	line       []byte
	records    int64
	closed     bool
}

// New creates a Writer that encodes onto dst.
func New(dst io.Writer, opts Options) (*Writer, error) {
	format := opts.Format
	if format == "" {
		format = FormatLines
	}

	if format != FormatLines && format != FormatJSON {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, opts.Format)
	}

	size := opts.BufferSize
	if size <= 0 {
		size = DefaultBufferSize
	}

	w := &Writer{format: format}

	switch opts.Compression {
	case "", CompressionNone:
	case CompressionLZ4:
		w.compressor = lz4.NewWriter(dst)
		dst = w.compressor
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCompression, opts.Compression)
	}

	w.buf = bufio.NewWriterSize(dst, size)

	return w, nil
}

// Emit writes count records for partition id.
func (w *Writer) Emit(id partition.ID, count int64) error {
	if w.closed {
		return ErrClosed
	}

	if count <= 0 {
		return nil
	}

	if w.format == FormatJSON {
		return w.emitJSON(id, count)
	}

	w.line = strconv.AppendInt(w.line[:0], int64(id), 10)
	w.line = append(w.line, '\n')

	for range count {
		_, err := w.buf.Write(w.line)
		if err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	w.records += count

	return nil
}

func (w *Writer) emitJSON(id partition.ID, count int64) error {
	w.line = append(w.line[:0], ',')
	w.line = strconv.AppendInt(w.line, int64(id), 10)

	for i := range count {
		element := w.line
		if w.records == 0 && i == 0 {
			// The first element opens the array instead of continuing it.
			element[0] = '['
		}

		_, err := w.buf.Write(element)
		if err != nil {
			return fmt.Errorf("write record: %w", err)
		}

		element[0] = ','
	}

	w.records += count

	return nil
}

// Records returns the number of records written so far.
func (w *Writer) Records() int64 {
	return w.records
}

// Close terminates the encoding, flushes buffers and finishes the compressed
// frame. It does not close the underlying writer.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}

	w.closed = true

	if w.format == FormatJSON {
		closing := "]\n"
		if w.records == 0 {
			closing = "[]\n"
		}

		_, err := w.buf.WriteString(closing)
		if err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	err := w.buf.Flush()
	if err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	if w.compressor != nil {
		err = w.compressor.Close()
		if err != nil {
			return fmt.Errorf("close lz4 frame: %w", err)
		}
	}

	return nil
}

// IsBrokenPipe reports whether err comes from a reader that went away, as
// when output is piped into head.
func IsBrokenPipe(err error) bool {
	return err != nil && (errors.Is(err, syscall.EPIPE) || errors.Is(err, io.ErrClosedPipe))
}
