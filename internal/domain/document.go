package domain

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// FileRef is an opaque handle to a document the applicant selected. Only its
// identity (name, size, content type) is looked at; Open is used when the
// submission is streamed to the portal service.
type FileRef struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type,omitempty"`

	Open func() (io.ReadCloser, error) `json:"-"`
}

// Ext returns the lower-case extension without the dot.
func (f *FileRef) Ext() string {
	if f == nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(f.Name)), ".")
}

// NewFileRefFromBytes wraps an in-memory upload.
func NewFileRefFromBytes(name, contentType string, data []byte) *FileRef {
	return &FileRef{
		Name:        filepath.Base(name),
		Size:        int64(len(data)),
		ContentType: contentType,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// NewFileRefFromPath describes a file on disk. Only the first 512 bytes are read,
// to detect the content type.
func NewFileRefFromPath(path string) (*FileRef, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}

	return &FileRef{
		Name:        filepath.Base(path),
		Size:        info.Size(),
		ContentType: http.DetectContentType(head[:n]),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}
