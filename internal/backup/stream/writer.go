// Package stream provides JSONL streaming to and from zip archives. The
// catalogue backup format stores each collection as one JSONL file inside
// the archive; this package is the codec for those files.
package stream

import (
	"archive/zip"
	"io"

	"encoding/json/v2"
)

// Writer streams catalogue documents as JSONL into a zip archive entry.
type Writer struct {
	zw    *zip.Writer
	w     io.Writer
	count int
}

// NewWriter creates a JSONL writer for a path within the zip.
func NewWriter(zw *zip.Writer, path string) (*Writer, error) {
	w, err := zw.Create(path)
	if err != nil {
		return nil, err
	}

	return &Writer{
		zw: zw,
		w:  w,
	}, nil
}

// Write encodes a single document as a JSON line.
func (w *Writer) Write(entity any) error {
	if err := json.MarshalWrite(w.w, entity); err != nil {
		return err
	}
	// Add newline for JSONL format
	if _, err := w.w.Write([]byte{'\n'}); err != nil {
		return err
	}
	w.count++
	return nil
}

// Count returns documents written so far; the archive manifest records it.
func (w *Writer) Count() int {
	return w.count
}
