package handler

import (
	"bytes"
	"errors"
	"regexp"
	"strings"
)

// Multipart parse errors
var (
	ErrNotMultipart = errors.New("expected multipart/form-data")
	ErrNoFilePart   = errors.New("no file uploaded")
)

// DefaultUploadName is used when the file part carries no filename
const DefaultUploadName = "file.pdf"

var fileNamePattern = regexp.MustCompile(`filename="(.+?)"`)

// UploadedFile is the file part of a multipart body
type UploadedFile struct {
	Name string
	Data []byte
}

// MultipartBoundary returns the boundary parameter of a multipart/form-data
// Content-Type header
func MultipartBoundary(contentType string) (string, error) {
	if !strings.Contains(strings.ToLower(contentType), "multipart/form-data") {
		return "", ErrNotMultipart
	}
	idx := strings.Index(contentType, "boundary=")
	if idx < 0 {
		return "", ErrNotMultipart
	}
	boundary := contentType[idx+len("boundary="):]
	if i := strings.IndexByte(boundary, ';'); i >= 0 {
		boundary = boundary[:i]
	}
	boundary = strings.Trim(strings.TrimSpace(boundary), `"`)
	if boundary == "" {
		return "", ErrNotMultipart
	}
	return boundary, nil
}

// ExtractFile returns the first part whose headers carry filename=. The
// payload is sliced out of body by byte offset, so binary content is
// returned unchanged. Parts framed with bare LF are accepted.
//
// A delimiter is "--boundary" at the start of a line, followed by a line
// break or "--". Boundary text anywhere else belongs to the payload.
func ExtractFile(body []byte, boundary string) (*UploadedFile, error) {
	delim := []byte("--" + boundary)

	_, end := findDelimiter(body, delim, 0)
	for end >= 0 {
		if bytes.HasPrefix(body[end:], []byte("--")) {
			return nil, ErrNoFilePart
		}
		partStart := end + lineBreakLen(body[end:])

		nextLine, nextEnd := findDelimiter(body, delim, partStart)
		if nextLine < 0 {
			// no closing delimiter, the part is truncated
			return nil, ErrNoFilePart
		}
		if nextLine < partStart {
			nextLine = partStart
		}
		part := body[partStart:nextLine]

		headerEnd, sepLen := headerTerminator(part)
		if headerEnd >= 0 {
			headers := part[:headerEnd]
			if bytes.Contains(headers, []byte("filename=")) {
				return &UploadedFile{
					Name: uploadName(headers),
					Data: part[headerEnd+sepLen:],
				}, nil
			}
		}
		end = nextEnd
	}
	return nil, ErrNoFilePart
}

// findDelimiter locates the next delimiter line at or after from. It
// returns the offset of the line break preceding the delimiter (the end of
// the previous part) and the offset just past the delimiter, or -1, -1.
func findDelimiter(body, delim []byte, from int) (int, int) {
	for i := from; i < len(body); {
		idx := bytes.Index(body[i:], delim)
		if idx < 0 {
			return -1, -1
		}
		at := i + idx
		after := at + len(delim)
		if (at == 0 || body[at-1] == '\n') && delimiterTail(body[after:]) {
			lineStart := at
			if lineStart > 0 {
				lineStart--
				if lineStart > 0 && body[lineStart-1] == '\r' {
					lineStart--
				}
			}
			return lineStart, after
		}
		i = at + 1
	}
	return -1, -1
}

func delimiterTail(rest []byte) bool {
	return bytes.HasPrefix(rest, []byte("\r\n")) ||
		bytes.HasPrefix(rest, []byte("\n")) ||
		bytes.HasPrefix(rest, []byte("--"))
}

func lineBreakLen(rest []byte) int {
	switch {
	case bytes.HasPrefix(rest, []byte("\r\n")):
		return 2
	case bytes.HasPrefix(rest, []byte("\n")):
		return 1
	default:
		return 0
	}
}

// headerTerminator finds the blank line ending a part's headers
func headerTerminator(part []byte) (int, int) {
	crlf := bytes.Index(part, []byte("\r\n\r\n"))
	lf := bytes.Index(part, []byte("\n\n"))
	switch {
	case crlf >= 0 && (lf < 0 || crlf < lf):
		return crlf, 4
	case lf >= 0:
		return lf, 2
	default:
		return -1, 0
	}
}

func uploadName(headers []byte) string {
	m := fileNamePattern.FindSubmatch(headers)
	if m == nil {
		return DefaultUploadName
	}
	return string(m[1])
}
