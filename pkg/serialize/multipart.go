package serialize

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/oorabona/unireq/pkg/unireqerr"
)

// File is one file part of a multipart form (spec §4.8).
type File struct {
	Name        string
	Filename    string
	Data        []byte
	ContentType string
}

// Field is one plain text part of a multipart form.
type Field struct {
	Name  string
	Value string
}

// Form is the materialized multipart/form-data payload handed to the
// serialization policy via a BodyDescriptor; its presence as a
// descriptor's Data is what isFormLike detects.
type Form struct {
	Files  []File
	Fields []Field
}

// MultipartOptions configures validation enforced while building a Form
// into wire bytes (spec §4.8).
type MultipartOptions struct {
	// MaxFileSize rejects any file whose byte length is strictly greater
	// than this value. Zero means unbounded.
	MaxFileSize int64
	// MIMEAllowlist: each file's ContentType must match one of these
	// patterns (exact match, or a "type/*" prefix match). An empty slice
	// means no restriction, matching spec §4.8's last bullet.
	MIMEAllowlist []string
	// SanitizeFilenames defaults to true (spec §4.8: sanitization is "on
	// by default").
	SanitizeFilenames *bool
}

func (o MultipartOptions) sanitize() bool {
	if o.SanitizeFilenames == nil {
		return true
	}
	return *o.SanitizeFilenames
}

// Build assembles a Form into a multipart/form-data body, returning the
// encoded bytes and the Content-Type header value (including the
// boundary), or a Validation error per spec §4.8's enforcement rules.
func Build(form Form, opts MultipartOptions) (data []byte, contentType string, err error) {
	if err := validateMIME(form.Files, opts.MIMEAllowlist); err != nil {
		return nil, "", err
	}
	if err := validateSize(form.Files, opts.MaxFileSize); err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range form.Fields {
		if err := w.WriteField(f.Name, f.Value); err != nil {
			return nil, "", unireqerr.Wrap(unireqerr.Validation, "multipart field write failed", err)
		}
	}

	for _, f := range form.Files {
		filename := f.Filename
		if opts.sanitize() {
			filename = SanitizeFilename(filename)
		}
		part, err := w.CreatePart(filePartHeader(f.Name, filename, f.ContentType))
		if err != nil {
			return nil, "", unireqerr.Wrap(unireqerr.Validation, "multipart file part creation failed", err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", unireqerr.Wrap(unireqerr.Validation, "multipart file write failed", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", unireqerr.Wrap(unireqerr.Validation, "multipart close failed", err)
	}

	return buf.Bytes(), w.FormDataContentType(), nil
}

func filePartHeader(fieldName, filename, contentType string) map[string][]string {
	h := map[string][]string{
		"Content-Disposition": {fmt.Sprintf(`form-data; name=%q; filename=%q`, fieldName, filename)},
	}
	if contentType != "" {
		h["Content-Type"] = []string{contentType}
	}
	return h
}

// SanitizeFilename collapses path separators, strips null bytes,
// neutralizes ".." traversal sequences, and normalizes to NFC so two
// byte-distinct Unicode encodings of the same visible filename don't
// slip past an allowlist or collide unexpectedly on the receiving
// filesystem, per spec §4.8's default-on rule. The NFC step follows the
// teacher's core/pkg/kernel/csnf.go canonicalization (Mindburn-Labs-helm),
// which normalizes untrusted strings the same way before comparing them.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\x00", "")
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "__")
	return norm.NFC.String(name)
}

func validateSize(files []File, maxFileSize int64) error {
	if maxFileSize <= 0 {
		return nil
	}
	for _, f := range files {
		if int64(len(f.Data)) > maxFileSize {
			return unireqerr.New(unireqerr.Validation,
				fmt.Sprintf("file %q exceeds max size of %d bytes", f.Filename, maxFileSize))
		}
	}
	return nil
}

func validateMIME(files []File, allowlist []string) error {
	if len(allowlist) == 0 {
		return nil
	}
	for _, f := range files {
		if !mimeAllowed(f.ContentType, allowlist) {
			return unireqerr.New(unireqerr.Validation,
				fmt.Sprintf("file %q content type %q not in allowlist", f.Filename, f.ContentType))
		}
	}
	return nil
}

func mimeAllowed(contentType string, allowlist []string) bool {
	for _, pattern := range allowlist {
		if strings.HasSuffix(pattern, "/*") {
			prefix := strings.TrimSuffix(pattern, "*")
			if strings.HasPrefix(contentType, prefix) {
				return true
			}
			continue
		}
		if pattern == contentType {
			return true
		}
	}
	return false
}
