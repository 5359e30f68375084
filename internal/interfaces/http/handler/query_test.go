package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	app "github.com/ythchandraap/expert-printer-guide/internal/application/printing"
	"github.com/ythchandraap/expert-printer-guide/internal/domain/printing"
	"github.com/ythchandraap/expert-printer-guide/internal/infrastructure/cache"
	"github.com/ythchandraap/expert-printer-guide/internal/infrastructure/event"
	"github.com/ythchandraap/expert-printer-guide/internal/testutil"
	"go.uber.org/zap"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestJobHandler_GetJob(t *testing.T) {
	tracker := cache.NewInMemoryJobTracker(time.Hour)
	t.Cleanup(func() { _ = tracker.Close() })

	bus := event.NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(cache.NewJobTrackerHandler(tracker))
	require.NoError(t, bus.Start(context.Background()))

	bridge := testutil.NewBridge(t, testutil.WithTracker(tracker), testutil.WithPublisher(bus))
	engine := newTestServer(t, bridge)

	body, contentType := testutil.MultipartFile(t, "file", "label.pdf", []byte("%PDF-1.4"))
	w := postPrint(engine, body, contentType, map[string]string{"print-device": "Zebra ZD420"})
	require.Equal(t, http.StatusOK, w.Code)
	jobID := testutil.JSONResponse(t, w)["jobId"].(string)

	t.Run("tracked job", func(t *testing.T) {
		w := get(t, engine, "/connect/jobs/"+jobID)
		require.Equal(t, http.StatusOK, w.Code)

		snap := testutil.JSONResponseAs[printing.JobSnapshot](t, w)
		assert.Equal(t, jobID, snap.ID.String())
		assert.Equal(t, printing.JobStatusCompleted, snap.Status)
		assert.Equal(t, "Zebra ZD420", snap.PrinterName)
		assert.Equal(t, printing.PrinterClassLabel, snap.Class)
		assert.Equal(t, 1, snap.PageCount)
	})

	t.Run("unknown job", func(t *testing.T) {
		w := get(t, engine, "/connect/jobs/"+uuid.NewString())
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		w := get(t, engine, "/connect/jobs/not-a-uuid")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPrinterHandler_ListPrinters(t *testing.T) {
	engine := newTestServer(t, testutil.NewBridge(t))

	w := get(t, engine, "/connect/printers")
	require.Equal(t, http.StatusOK, w.Code)

	resp := testutil.JSONResponseAs[struct {
		StatusCode int               `json:"statusCode"`
		Message    string            `json:"message"`
		List       []app.PrinterInfo `json:"list"`
	}](t, w)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, MessageHereIsData, resp.Message)
	require.Len(t, resp.List, 2)
	assert.Equal(t, "Office Laser", resp.List[0].Name)
	assert.True(t, resp.List[0].IsDefault)
	assert.Equal(t, printing.PrinterClassPaper, resp.List[0].Class)
	assert.Equal(t, "Idle", resp.List[0].StatusString)
	assert.Equal(t, printing.PrinterClassLabel, resp.List[1].Class)
}

func TestSystemHandler(t *testing.T) {
	engine := newTestServer(t, testutil.NewBridge(t))

	t.Run("system info", func(t *testing.T) {
		w := get(t, engine, "/connect/system")
		require.Equal(t, http.StatusOK, w.Code)

		resp := testutil.JSONResponseAs[SystemInfoResponse](t, w)
		assert.Equal(t, "Linux", resp.Platform)
		assert.Equal(t, "10.0.0.5", resp.LocalIP)
		assert.Equal(t, "test", resp.Version)
		assert.NotEmpty(t, resp.OS)
		assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	})

	t.Run("health", func(t *testing.T) {
		w := get(t, engine, "/health")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ok", testutil.JSONResponse(t, w)["status"])
	})
}

func TestViewerHandler(t *testing.T) {
	bridge := testutil.NewBridge(t)
	engine := newTestServer(t, bridge)

	t.Run("viewer page", func(t *testing.T) {
		w := get(t, engine, "/viewer/")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, w.Body.String(), "https://cdn.example/pdfjs/pdf.min.js")
		assert.Empty(t, w.Header().Get("X-Frame-Options"))
	})

	t.Run("staged document", func(t *testing.T) {
		path, err := bridge.Stager.Stage(context.Background(), uuid.New(), "doc.pdf", []byte("%PDF-1.4 staged"))
		require.NoError(t, err)

		w := get(t, engine, "/viewer/document/"+filepath.Base(path))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
		assert.Equal(t, "%PDF-1.4 staged", w.Body.String())
	})

	t.Run("missing document", func(t *testing.T) {
		w := get(t, engine, "/viewer/document/nope.pdf")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("traversal is blocked", func(t *testing.T) {
		outside := filepath.Join(t.TempDir(), "secret.pdf")
		require.NoError(t, os.WriteFile(outside, []byte("secret"), 0o600))

		w := get(t, engine, "/viewer/document/..%2F"+filepath.Base(outside))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.NotContains(t, w.Body.String(), "secret")
	})
}
