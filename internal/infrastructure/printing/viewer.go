package printing

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
)

//go:embed assets/viewer.html
var viewerFS embed.FS

// Viewer routes served to the rendering surface
const (
	ViewerPath         = "/viewer/"
	ViewerDocumentPath = "/viewer/document/"
)

type viewerData struct {
	PDFJSURL  string
	SourceDPI int
}

// ViewerPage renders the embedded viewer page. The page rasterizes every
// page of the document named in its "file" query parameter onto a canvas
// at the given DPI and then sets window.__printReady.
func ViewerPage(pdfjsURL string, sourceDPI int) ([]byte, error) {
	tmpl, err := template.ParseFS(viewerFS, "assets/viewer.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse viewer page: %w", err)
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, viewerData{
		PDFJSURL:  strings.TrimSuffix(pdfjsURL, "/"),
		SourceDPI: sourceDPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render viewer page: %w", err)
	}
	return buf.Bytes(), nil
}

// ViewerURL returns the address the rendering surface opens to rasterize
// the staged file at stagedPath
func ViewerURL(baseURL, stagedPath string, sourceDPI int) string {
	base := strings.TrimSuffix(baseURL, "/")
	doc := ViewerDocumentPath + url.PathEscape(filepath.Base(stagedPath))

	q := url.Values{}
	q.Set("file", doc)
	q.Set("dpi", strconv.Itoa(sourceDPI))
	return base + ViewerPath + "?" + q.Encode()
}
