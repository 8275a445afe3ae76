package io

import (
	"io"
)

type (
	// File is a rendered artifact addressed by a path relative to the output directory.
	File interface {
		Path() string
		WriteTo(io.Writer) (int64, error)
		Clone() File
	}

	// RawFile is a File whose content is held in memory.
	RawFile struct {
		FPath   string
		Content []byte
	}
)

func (r *RawFile) Clone() File {
	nf := &RawFile{
		FPath:   r.FPath,
		Content: make([]byte, len(r.Content)),
	}
	copy(nf.Content, r.Content)
	return nf
}

func (r *RawFile) Path() string {
	return r.FPath
}

func (r *RawFile) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r.Content)
	return int64(n), err
}

// CountingWriter counts the bytes written through it.
type CountingWriter struct {
	Delegate     io.Writer
	BytesWritten int64
}

func (w *CountingWriter) Write(p []byte) (int, error) {
	n, err := w.Delegate.Write(p)
	w.BytesWritten += int64(n)
	return n, err
}
