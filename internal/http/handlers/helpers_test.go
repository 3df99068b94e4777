package handlers

import (
	"bytes"
	"mime/multipart"
	"testing"
)

// newMultipartBody writes a multipart form with the given fields and one
// file part into buf, returning the content type to send.
func newMultipartBody(t *testing.T, buf *bytes.Buffer, fields map[string]string, fileField, filename string, data []byte) string {
	t.Helper()

	w := multipart.NewWriter(buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("failed to write field %s: %v", k, err)
		}
	}
	part, err := w.CreateFormFile(fileField, filename)
	if err != nil {
		t.Fatalf("failed to create file part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("failed to write file part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}
	return w.FormDataContentType()
}
