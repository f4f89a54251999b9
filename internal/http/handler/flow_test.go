package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"informeclaro/internal/anonymizer"
	"informeclaro/internal/http/middleware"
	"informeclaro/internal/logging"
	"informeclaro/internal/model"
	"informeclaro/internal/pdfdoc"
	"informeclaro/internal/service"
	serviceMocks "informeclaro/internal/service/mocks"
	"informeclaro/internal/session"
	"informeclaro/internal/storage"
)

type flow struct {
	app      *fiber.App
	layout   storage.Layout
	analyzer *serviceMocks.MockAnalyzer
}

func newFlow(t *testing.T) *flow {
	t.Helper()
	layout, err := storage.EnsureLayout(t.TempDir())
	require.NoError(t, err)
	kw, err := anonymizer.NewKeywordRedactor(anonymizer.KeywordList{Keywords: []string{"Clínica Norte"}})
	require.NoError(t, err)

	analyzer := &serviceMocks.MockAnalyzer{}
	svc := service.NewReportService(service.Deps{
		Layout:     layout,
		Sessions:   session.NewManager(layout.UploadDir, logging.Discard()),
		Extractor:  pdfdoc.NewExtractor(),
		Anonymizer: anonymizer.New(kw),
		Analyzer:   analyzer,
		Renderer:   pdfdoc.NewRenderer(),
		Merger:     pdfdoc.NewMerger(),
		Log:        logging.Discard(),
	})

	reg := prometheus.NewRegistry()
	prom, err := middleware.NewPrometheusMiddleware(reg)
	require.NoError(t, err)
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Use(middleware.RequestID())
	app.Use(prom.Handler())
	RegisterRoutes(app, nil, svc, reg)

	return &flow{app: app, layout: layout, analyzer: analyzer}
}

func renderedPDF(t *testing.T, text string) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.pdf")
	require.NoError(t, pdfdoc.NewRenderer().Render(path, "Informe", text))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return b
}

func (f *flow) upload(t *testing.T, name string, content []byte) *http.Response {
	t.Helper()
	body, ctype := multipartBody(t, "pdf_file", name, content)
	req := httptest.NewRequest(http.MethodPost, "/upload_pdf", body)
	req.Header.Set("Content-Type", ctype)
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (f *flow) confirm(t *testing.T, req model.ConfirmRequest) *http.Response {
	t.Helper()
	b, err := json.Marshal(req)
	require.NoError(t, err)
	r := httptest.NewRequest(http.MethodPost, "/confirm_and_process", bytes.NewReader(b))
	r.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	resp, err := f.app.Test(r, -1)
	require.NoError(t, err)
	return resp
}

func (f *flow) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := f.app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
	require.NoError(t, err)
	return resp
}

func (f *flow) uploadDirs(t *testing.T) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(f.layout.UploadDir)
	require.NoError(t, err)
	return entries
}

func TestFlow_UploadConfirmDownload(t *testing.T) {
	f := newFlow(t)
	f.analyzer.On("Analyze", mock.Anything, mock.MatchedBy(func(text string) bool {
		return !strings.Contains(text, "Clínica Norte") && !strings.Contains(text, "ana@example.com")
	})).Return("Los valores son normales.", nil).Once()

	resp := f.upload(t, "analitica.pdf", renderedPDF(t, "Atendida en Clínica Norte\nContacto ana@example.com\nGlucosa 90 mg/dL"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var preview model.PreviewResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&preview))
	assert.Equal(t, "analitica.pdf", preview.OriginalPDFName)
	assert.Len(t, f.uploadDirs(t), 1)

	resp = f.get(t, preview.PreviewURL)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))

	resp = f.confirm(t, model.ConfirmRequest{
		SessionID:       preview.SessionID,
		OriginalPDFName: preview.OriginalPDFName,
		OutputFilename:  "resumen",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var done model.CompletionResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&done))
	assert.Equal(t, service.MsgCompleted, done.Message)
	assert.Equal(t, "/download/resumen.pdf", done.FinalPDFURL)
	assert.Empty(t, f.uploadDirs(t))

	pages, err := pdfdoc.PageCount(filepath.Join(f.layout.OutputDir, "resumen.pdf"))
	require.NoError(t, err)
	assert.Equal(t, 2, pages)

	first, _ := io.ReadAll(f.get(t, done.FinalPDFURL).Body)
	second, _ := io.ReadAll(f.get(t, done.FinalPDFURL).Body)
	assert.NotEmpty(t, first)
	assert.Equal(t, first, second)

	resp = f.get(t, middleware.MetricsPath)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	metrics, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(metrics), "http_requests_total")

	f.analyzer.AssertExpectations(t)
}

func TestFlow_UploadRejections(t *testing.T) {
	f := newFlow(t)

	resp := f.upload(t, "notas.txt", []byte("hola"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "UNSUPPORTED_FORMAT", decodeError(t, resp).Error.Code)

	resp = f.upload(t, "roto.pdf", []byte("esto no es un pdf"))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body := decodeError(t, resp)
	assert.Equal(t, "PROCESSING_ERROR", body.Error.Code)
	assert.True(t, strings.HasPrefix(body.Error.Message, uploadFailurePrefix))

	assert.Empty(t, f.uploadDirs(t))
}

func TestFlow_ConfirmUnknownSession(t *testing.T) {
	f := newFlow(t)

	resp := f.confirm(t, model.ConfirmRequest{
		SessionID:       uuid.NewString(),
		OriginalPDFName: "analitica.pdf",
		OutputFilename:  "resumen",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
	f.analyzer.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
}

func TestFlow_AnalysisFailureCleansUp(t *testing.T) {
	f := newFlow(t)
	f.analyzer.On("Analyze", mock.Anything, mock.Anything).Return("", errors.New("quota exceeded")).Once()

	resp := f.upload(t, "analitica.pdf", renderedPDF(t, "Colesterol 180 mg/dL"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var preview model.PreviewResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&preview))

	resp = f.confirm(t, model.ConfirmRequest{
		SessionID:       preview.SessionID,
		OriginalPDFName: preview.OriginalPDFName,
		OutputFilename:  "resumen.pdf",
	})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body := decodeError(t, resp)
	assert.Equal(t, "PROCESSING_ERROR", body.Error.Code)
	assert.Contains(t, body.Error.Message, "quota exceeded")
	assert.Empty(t, f.uploadDirs(t))
	assert.NoFileExists(t, filepath.Join(f.layout.OutputDir, "resumen.pdf"))
}

func TestFlow_DownloadTraversal(t *testing.T) {
	f := newFlow(t)

	resp := f.get(t, "/download/..%2Fetc%2Fpasswd")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_NAME", decodeError(t, resp).Error.Code)

	resp = f.get(t, "/download/inexistente.pdf")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
