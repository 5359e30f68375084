package handler

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ythchandraap/expert-printer-guide/internal/testutil"
)

func TestMultipartBoundary(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		want        string
		wantErr     bool
	}{
		{"plain", "multipart/form-data; boundary=abc123", "abc123", false},
		{"quoted", `multipart/form-data; boundary="abc 123"`, "abc 123", false},
		{"trailing param", "multipart/form-data; boundary=xyz; charset=utf-8", "xyz", false},
		{"json", "application/json", "", true},
		{"missing boundary", "multipart/form-data", "", true},
		{"empty boundary", "multipart/form-data; boundary=", "", true},
		{"empty header", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MultipartBoundary(tt.contentType)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNotMultipart)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func binaryPayload() []byte {
	data := make([]byte, 0, 600)
	data = append(data, []byte("%PDF-1.7\r\n")...)
	for i := 0; i < 256; i++ {
		data = append(data, byte(i))
	}
	// a CRLF pair and a near-miss delimiter inside the payload
	data = append(data, []byte("\r\n\r\n--notTheBoundary\r\n")...)
	data = append(data, 0x00, 0xff, '\r', '\n')
	return data
}

func TestExtractFile_BinaryExact(t *testing.T) {
	payload := binaryPayload()

	t.Run("crlf framing", func(t *testing.T) {
		body := testutil.RawMultipart("XyZ", "\r\n", "label.pdf", payload)
		file, err := ExtractFile(body, "XyZ")
		require.NoError(t, err)
		assert.Equal(t, "label.pdf", file.Name)
		assert.True(t, bytes.Equal(payload, file.Data), "payload must be byte-identical")
	})

	t.Run("lf framing", func(t *testing.T) {
		body := testutil.RawMultipart("XyZ", "\n", "label.pdf", []byte("%PDF-1.4 body"))
		file, err := ExtractFile(body, "XyZ")
		require.NoError(t, err)
		assert.Equal(t, []byte("%PDF-1.4 body"), file.Data)
	})

	t.Run("boundary text inside payload", func(t *testing.T) {
		payloads := [][]byte{
			[]byte("%PDF a--Xb tail"),
			[]byte("%PDF a--X\r\nmid-line boundary"),
			[]byte("%PDF\r\n--Xtra line starting with the boundary"),
			[]byte("%PDF\n--X-\n"),
		}
		for _, want := range payloads {
			body := testutil.RawMultipart("X", "\r\n", "a.pdf", want)
			file, err := ExtractFile(body, "X")
			require.NoError(t, err, "%q", want)
			assert.Equal(t, want, file.Data)
		}
	})

	t.Run("mime/multipart writer", func(t *testing.T) {
		body, contentType := testutil.MultipartFile(t, "file", "invoice 01.pdf", payload)
		boundary, err := MultipartBoundary(contentType)
		require.NoError(t, err)

		file, err := ExtractFile(body, boundary)
		require.NoError(t, err)
		assert.Equal(t, "invoice 01.pdf", file.Name)
		assert.True(t, bytes.Equal(payload, file.Data))
	})
}

func TestExtractFile_Errors(t *testing.T) {
	t.Run("no file part", func(t *testing.T) {
		body := []byte("--B\r\nContent-Disposition: form-data; name=\"note\"\r\n\r\nhi\r\n--B--\r\n")
		_, err := ExtractFile(body, "B")
		assert.ErrorIs(t, err, ErrNoFilePart)
	})

	t.Run("empty body", func(t *testing.T) {
		_, err := ExtractFile(nil, "B")
		assert.ErrorIs(t, err, ErrNoFilePart)
	})

	t.Run("truncated part", func(t *testing.T) {
		body := []byte("--B\r\nContent-Disposition: form-data; name=\"file\"; filename=\"a.pdf\"\r\n\r\n%PDF")
		_, err := ExtractFile(body, "B")
		assert.ErrorIs(t, err, ErrNoFilePart)
	})

	t.Run("wrong boundary", func(t *testing.T) {
		body := testutil.RawMultipart("real", "\r\n", "a.pdf", []byte("%PDF"))
		_, err := ExtractFile(body, "other")
		assert.ErrorIs(t, err, ErrNoFilePart)
	})
}

func TestExtractFile_EmptyPayload(t *testing.T) {
	body := []byte("--B\r\nContent-Disposition: form-data; name=\"file\"; filename=\"a.pdf\"\r\n\r\n\r\n--B--\r\n")
	file, err := ExtractFile(body, "B")
	require.NoError(t, err)
	assert.Empty(t, file.Data)
}

func TestExtractFile_DefaultName(t *testing.T) {
	body := []byte("--B\r\nContent-Disposition: form-data; name=\"file\"; filename=\"\"\r\n\r\n%PDF\r\n--B--\r\n")
	file, err := ExtractFile(body, "B")
	require.NoError(t, err)
	assert.Equal(t, DefaultUploadName, file.Name)
	assert.Equal(t, []byte("%PDF"), file.Data)
}

func TestParseCopies(t *testing.T) {
	tests := []struct {
		header string
		want   int
	}{
		{"", 1},
		{"3", 3},
		{" 2 ", 2},
		{"0", 1},
		{"-4", 1},
		{"two", 1},
		{"1.5", 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseCopies(tt.header), "header %q", tt.header)
	}
}
