package codec

import (
	"io"
	"unsafe"
)

var zeros [64]byte

// AlignedWriter writes raw values to an underlying writer, padding each one so that it starts
// at a multiple of its type's alignment, counted from the first byte ever written.
type AlignedWriter struct {
	inner    io.Writer
	position int
}

func NewAlignedWriter(inner io.Writer) *AlignedWriter {
	return &AlignedWriter{inner: inner}
}

// With returns a writer over inner that continues counting from the current position.
// Writing to a With(io.Discard) copy measures layout without producing output.
func (w *AlignedWriter) With(inner io.Writer) *AlignedWriter {
	return &AlignedWriter{inner: inner, position: w.position}
}

// Position returns the number of bytes written so far, padding included.
func (w *AlignedWriter) Position() int {
	return w.position
}

func (w *AlignedWriter) pad(align int) error {
	padding := Padding(w.position, align)
	for padding > 0 {
		n := padding
		if n > len(zeros) {
			n = len(zeros)
		}
		if _, err := w.inner.Write(zeros[:n]); err != nil {
			return err
		}
		w.position += n
		padding -= n
	}
	return nil
}

func (w *AlignedWriter) write(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if _, err := w.inner.Write(b); err != nil {
		return err
	}
	w.position += len(b)
	return nil
}

// Write pads to the alignment of T and emits the in-memory bytes of value.
func Write[T any](w *AlignedWriter, value T) error {
	if err := w.pad(int(unsafe.Alignof(value))); err != nil {
		return err
	}
	size := int(unsafe.Sizeof(value))
	if size == 0 {
		return nil
	}
	return w.write(unsafe.Slice((*byte)(unsafe.Pointer(&value)), size))
}

// WriteSlice pads to the alignment of T and emits the contiguous bytes of values.
// No length is written; see WriteLen and WriteRows.
func WriteSlice[T any](w *AlignedWriter, values []T) error {
	var zero T
	if err := w.pad(int(unsafe.Alignof(zero))); err != nil {
		return err
	}
	size := int(unsafe.Sizeof(zero)) * len(values)
	if size == 0 {
		return nil
	}
	return w.write(unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(values))), size))
}

// WriteLen writes a count as a platform word.
func WriteLen(w *AlignedWriter, n int) error {
	return Write(w, uint(n))
}

// WriteFlag writes the one byte discriminant of an optional value.
func WriteFlag(w *AlignedWriter, present bool) error {
	var flag uint8
	if present {
		flag = 1
	}
	return Write(w, flag)
}

// WriteRow writes a count-prefixed run of values.
func WriteRow[T any](w *AlignedWriter, row []T) error {
	if err := WriteLen(w, len(row)); err != nil {
		return err
	}
	return WriteSlice(w, row)
}

// WriteRows writes the row count followed by every row as a count-prefixed run.
func WriteRows[T any](w *AlignedWriter, rows [][]T) error {
	if err := WriteLen(w, len(rows)); err != nil {
		return err
	}
	for _, row := range rows {
		if err := WriteRow(w, row); err != nil {
			return err
		}
	}
	return nil
}
