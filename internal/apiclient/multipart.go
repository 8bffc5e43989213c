package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"

	"consular/internal/domain"
)

// Multipart is a prebuilt multipart/form-data payload. It can be sent once.
type Multipart struct {
	body        io.Reader
	contentType string
	parts       []string
}

// ContentType includes the boundary.
func (m *Multipart) ContentType() string {
	return m.contentType
}

// Body is the encoded payload.
func (m *Multipart) Body() io.Reader {
	return m.body
}

// Parts lists the part names in the order they were written.
func (m *Multipart) Parts() []string {
	return append([]string(nil), m.parts...)
}

// MultipartBuilder accumulates parts and remembers the first error.
type MultipartBuilder struct {
	buf   bytes.Buffer
	w     *multipart.Writer
	parts []string
	err   error
}

func NewMultipartBuilder() *MultipartBuilder {
	b := &MultipartBuilder{}
	b.w = multipart.NewWriter(&b.buf)
	return b
}

func (b *MultipartBuilder) Field(name, value string) *MultipartBuilder {
	if b.err != nil {
		return b
	}
	b.err = b.w.WriteField(name, value)
	b.parts = append(b.parts, name)
	return b
}

// JSON writes v as an application/json part.
func (b *MultipartBuilder) JSON(name string, v any) *MultipartBuilder {
	if b.err != nil {
		return b
	}
	data, err := json.Marshal(v)
	if err != nil {
		b.err = fmt.Errorf("encode %s part: %w", name, err)
		return b
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"`, escapeQuotes(name)))
	h.Set("Content-Type", "application/json")
	part, err := b.w.CreatePart(h)
	if err != nil {
		b.err = err
		return b
	}
	_, b.err = part.Write(data)
	b.parts = append(b.parts, name)
	return b
}

// File streams the referenced document into a file part. Nil refs are skipped.
func (b *MultipartBuilder) File(field string, ref *domain.FileRef) *MultipartBuilder {
	if b.err != nil || ref == nil {
		return b
	}
	if ref.Open == nil {
		b.err = fmt.Errorf("document %s has no content", ref.Name)
		return b
	}

	contentType := ref.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		escapeQuotes(field), escapeQuotes(ref.Name)))
	h.Set("Content-Type", contentType)

	part, err := b.w.CreatePart(h)
	if err != nil {
		b.err = err
		return b
	}
	rc, err := ref.Open()
	if err != nil {
		b.err = fmt.Errorf("open %s: %w", ref.Name, err)
		return b
	}
	defer rc.Close()
	if _, err := io.Copy(part, rc); err != nil {
		b.err = fmt.Errorf("copy %s: %w", ref.Name, err)
		return b
	}
	b.parts = append(b.parts, field)
	return b
}

func (b *MultipartBuilder) Build() (*Multipart, error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := b.w.Close(); err != nil {
		return nil, err
	}
	return &Multipart{
		body:        bytes.NewReader(b.buf.Bytes()),
		contentType: b.w.FormDataContentType(),
		parts:       b.parts,
	}, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
