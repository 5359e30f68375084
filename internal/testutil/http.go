package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// JSONResponse decodes a recorded JSON response body into a map
func JSONResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), "body: %s", w.Body.String())
	return body
}

// JSONResponseAs decodes a recorded JSON response body into T
func JSONResponseAs[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var body T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), "body: %s", w.Body.String())
	return body
}

// MultipartFile builds a multipart/form-data body carrying one file part.
// It returns the body and its Content-Type header.
func MultipartFile(t *testing.T, field, fileName string, data []byte) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, fileName)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes(), w.FormDataContentType()
}

// RawMultipart assembles a multipart body by hand with the given
// line ending, for tests that need exact control over the framing
func RawMultipart(boundary, newline, fileName string, data []byte) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "--%s%s", boundary, newline)
	fmt.Fprintf(&buf, "Content-Disposition: form-data; name=\"note\"%s%s", newline, newline)
	fmt.Fprintf(&buf, "hello%s", newline)
	fmt.Fprintf(&buf, "--%s%s", boundary, newline)
	fmt.Fprintf(&buf, "Content-Disposition: form-data; name=\"file\"; filename=\"%s\"%s", fileName, newline)
	fmt.Fprintf(&buf, "Content-Type: application/pdf%s%s", newline, newline)
	buf.Write(data)
	fmt.Fprintf(&buf, "%s--%s--%s", newline, boundary, newline)
	return buf.Bytes()
}

// AssertEventually asserts that condition becomes true within timeout
func AssertEventually(t *testing.T, condition func() bool, timeout, interval time.Duration, msgAndArgs ...any) {
	t.Helper()
	assert.Eventually(t, condition, timeout, interval, msgAndArgs...)
}
