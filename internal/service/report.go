package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"informeclaro/internal/model"
	"informeclaro/internal/pdfdoc"
	"informeclaro/internal/repository"
	"informeclaro/internal/session"
	"informeclaro/internal/storage"
)

const (
	PreviewTitle  = "Texto Anonimizado (Vista Previa)"
	AnalysisTitle = "Análisis Generado por IA"

	MsgPreviewReady = "PDF cargado y anonimizado. Revise la vista previa."
	MsgCompleted    = "Proceso completado con éxito."

	// ArchivePrefix is the object key prefix of archived final reports.
	ArchivePrefix = "reports/"

	archiveURLExpiry = 15 * time.Minute
	defaultPageSize  = 10
	maxPageSize      = 100
)

// PreviewName is the output-area file name of a session's anonymized preview.
func PreviewName(sessionID string) string { return "ANONIMIZADO_vista_previa_" + sessionID + ".pdf" }

// AnalysisName is the session-local file name of the rendered model answer.
func AnalysisName(sessionID string) string { return "analisis_ia_temp_" + sessionID + ".pdf" }

// FinalName appends ".pdf" unless output already ends with it (any case).
func FinalName(output string) string {
	if strings.HasSuffix(strings.ToLower(output), ".pdf") {
		return output
	}
	return output + ".pdf"
}

// DownloadURL is the public path serving an output-area file.
func DownloadURL(name string) string { return "/download/" + url.PathEscape(name) }

type TextExtractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

type TextAnonymizer interface {
	Anonymize(text string) string
}

// Analyzer turns anonymized text into the model's plain-language analysis.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (string, error)
}

type PDFRenderer interface {
	Render(outPath, title, text string) error
}

type PDFMerger interface {
	Merge(outPath string, inPaths ...string) error
}

// ReportService defines the two-step upload/confirm workflow and the ledger queries.
type ReportService interface {
	// Preview stores the upload in a new session, anonymizes it and renders a preview PDF.
	// The session directory is removed on every failure.
	Preview(ctx context.Context, filename string, r io.Reader) (*model.PreviewResult, error)

	// Confirm analyzes the session's original, merges it with the analysis into the
	// output area and removes the session directory whatever the outcome.
	Confirm(ctx context.Context, req model.ConfirmRequest) (*model.CompletionResult, error)

	// ArtifactPath resolves a downloadable file name inside the output area.
	ArtifactPath(name string) (string, error)

	// DiscardPreview removes the preview PDF of an abandoned session.
	DiscardPreview(sessionID string)

	List(ctx context.Context, limit, offset int) (*model.ReportPage, error)
	Get(ctx context.Context, id string) (*model.Report, error)

	// ArchiveURL returns a presigned download URL for an archived final report.
	ArchiveURL(ctx context.Context, id string) (string, error)
}

// Deps is everything the report pipeline is built from. Reports and Archive are optional.
type Deps struct {
	Layout         storage.Layout
	Sessions       *session.Manager
	Extractor      TextExtractor
	Anonymizer     TextAnonymizer
	Analyzer       Analyzer
	Renderer       PDFRenderer
	Merger         PDFMerger
	Reports        repository.ReportRepository
	Archive        storage.Archive
	Log            *logrus.Logger
	AnalyzeTimeout time.Duration
}

type reportService struct {
	Deps
	tracer trace.Tracer
	now    func() time.Time
}

// NewReportService constructs a new ReportService.
func NewReportService(d Deps) ReportService {
	return &reportService{
		Deps:   d,
		tracer: otel.Tracer("informeclaro/service"),
		now:    time.Now,
	}
}

func (s *reportService) Preview(ctx context.Context, filename string, r io.Reader) (*model.PreviewResult, error) {
	name, err := uploadName(filename)
	if err != nil {
		return nil, err
	}

	sess, err := s.Sessions.Create()
	if err != nil {
		return nil, &StageError{Stage: StageSave, Err: err}
	}
	log := s.Log.WithFields(logrus.Fields{"session_id": sess.ID, "original_pdf_name": name})
	log.Info("upload received")

	done := false
	defer func() {
		if !done {
			_ = s.Sessions.Remove(sess.ID)
		}
	}()

	origPath, err := sess.Path(name)
	if err != nil {
		return nil, ErrInvalidName
	}
	if err := s.runStage(ctx, log, StageSave, func(context.Context) error {
		return saveUpload(origPath, r)
	}); err != nil {
		return nil, err
	}

	text, err := s.anonymizedText(ctx, log, origPath)
	if err != nil {
		return nil, err
	}

	previewName := PreviewName(sess.ID)
	previewPath, err := s.Layout.OutputPath(previewName)
	if err != nil {
		return nil, &StageError{Stage: StageRender, Err: err}
	}
	if err := s.runStage(ctx, log, StageRender, func(context.Context) error {
		return s.Renderer.Render(previewPath, PreviewTitle, text)
	}); err != nil {
		return nil, err
	}

	done = true
	log.Info("preview ready")
	return &model.PreviewResult{
		Message:         MsgPreviewReady,
		PreviewURL:      DownloadURL(previewName),
		SessionID:       sess.ID,
		OriginalPDFName: name,
	}, nil
}

func (s *reportService) Confirm(ctx context.Context, req model.ConfirmRequest) (*model.CompletionResult, error) {
	req.SessionID = strings.TrimSpace(req.SessionID)
	req.OutputFilename = strings.TrimSpace(req.OutputFilename)
	if req.SessionID == "" || strings.TrimSpace(req.OriginalPDFName) == "" || req.OutputFilename == "" {
		return nil, ErrMissingFields
	}
	outputName := FinalName(req.OutputFilename)
	if storage.ValidateName(req.OriginalPDFName) != nil || storage.ValidateName(outputName) != nil {
		return nil, ErrInvalidName
	}

	sess, err := s.Sessions.Open(req.SessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	log := s.Log.WithFields(logrus.Fields{"session_id": sess.ID, "output_name": outputName})

	release, ok := s.Sessions.Acquire(sess.ID)
	if !ok {
		log.Warn("confirm rejected, session busy")
		return nil, ErrSessionBusy
	}
	defer release()

	origPath, err := sess.Path(req.OriginalPDFName)
	if err != nil {
		return nil, ErrInvalidName
	}
	if _, err := os.Stat(origPath); err != nil {
		log.WithError(err).Warn("original pdf not found")
		_ = s.Sessions.Remove(sess.ID)
		return nil, ErrSessionNotFound
	}
	defer func() { _ = s.Sessions.Remove(sess.ID) }()

	log.Info("confirm received")
	rep := &model.Report{
		ID:           uuid.NewString(),
		SessionID:    sess.ID,
		OriginalName: req.OriginalPDFName,
		OutputName:   outputName,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.process(ctx, log, sess, origPath, outputName); err != nil {
		s.recordFailure(ctx, log, rep, err)
		return nil, err
	}

	rep.Status = model.ReportCompleted
	s.archiveAndRecord(ctx, log, rep)
	log.Info("report completed")
	return &model.CompletionResult{
		Message:     MsgCompleted,
		FinalPDFURL: DownloadURL(outputName),
	}, nil
}

// process runs the confirm stages that can fail the request.
func (s *reportService) process(ctx context.Context, log *logrus.Entry, sess *session.Session, origPath, outputName string) error {
	finalPath, err := s.Layout.OutputPath(outputName)
	if err != nil {
		return ErrInvalidName
	}

	text, err := s.anonymizedText(ctx, log, origPath)
	if err != nil {
		if errors.Is(err, ErrEmptyText) {
			return &StageError{Stage: StageExtract, Err: err}
		}
		return err
	}

	var analysis string
	if err := s.runStage(ctx, log, StageAnalyze, func(ctx context.Context) error {
		if s.AnalyzeTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.AnalyzeTimeout)
			defer cancel()
		}
		var err error
		analysis, err = s.Analyzer.Analyze(ctx, text)
		return err
	}); err != nil {
		return err
	}

	analysisPath, err := sess.Path(AnalysisName(sess.ID))
	if err != nil {
		return &StageError{Stage: StageRender, Err: err}
	}
	if err := s.runStage(ctx, log, StageRender, func(context.Context) error {
		return s.Renderer.Render(analysisPath, AnalysisTitle, analysis)
	}); err != nil {
		return err
	}

	return s.runStage(ctx, log, StageMerge, func(context.Context) error {
		return s.Merger.Merge(finalPath, origPath, analysisPath)
	})
}

// anonymizedText extracts and anonymizes the original. It is recomputed on every
// request; nothing is cached between upload and confirm.
func (s *reportService) anonymizedText(ctx context.Context, log *logrus.Entry, path string) (string, error) {
	var raw string
	if err := s.runStage(ctx, log, StageExtract, func(ctx context.Context) error {
		text, err := s.Extractor.ExtractText(ctx, path)
		if errors.Is(err, pdfdoc.ErrNoText) || (err == nil && strings.TrimSpace(text) == "") {
			return ErrEmptyText
		}
		raw = text
		return err
	}); err != nil {
		return "", err
	}

	var out string
	_ = s.runStage(ctx, log, StageAnonymize, func(context.Context) error {
		out = s.Anonymizer.Anonymize(raw)
		return nil
	})
	return out, nil
}

// runStage wraps fn in a span and start/finish logs. Failures other than
// client errors come back as *StageError.
func (s *reportService) runStage(ctx context.Context, log *logrus.Entry, stage Stage, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, "report."+string(stage), trace.WithAttributes(attribute.String("stage", string(stage))))
	defer span.End()

	start := time.Now()
	entry := log.WithField("stage", stage)
	entry.Debug("stage started")

	err := fn(ctx)
	entry = entry.WithField("duration_ms", time.Since(start).Milliseconds())
	if err == nil {
		entry.Info("stage finished")
		return nil
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if errors.Is(err, ErrEmptyText) {
		entry.WithError(err).Warn("stage rejected input")
		return err
	}
	entry.WithError(err).Error("stage failed")
	return &StageError{Stage: stage, Err: err}
}

// archiveAndRecord mirrors the final PDF and writes a completed ledger row.
// Neither step fails the request. A row that cannot be written rolls back its archived object.
func (s *reportService) archiveAndRecord(ctx context.Context, log *logrus.Entry, rep *model.Report) {
	ctx = context.WithoutCancel(ctx)
	finalPath, err := s.Layout.OutputPath(rep.OutputName)
	if err != nil {
		return
	}
	if info, err := os.Stat(finalPath); err == nil {
		rep.Size = info.Size()
	}

	if s.Archive != nil {
		key := ArchivePrefix + rep.OutputName
		if err := s.upload(ctx, key, finalPath, rep); err != nil {
			log.WithError(err).WithField("archive_key", key).Warn("archive upload failed")
		} else {
			rep.ArchiveKey = key
		}
	}

	if s.Reports == nil {
		return
	}
	if _, err := s.Reports.Create(ctx, rep); err != nil {
		log.WithError(err).Warn("report ledger write failed")
		if rep.ArchiveKey == "" {
			return
		}
		if delErr := s.Archive.Delete(ctx, rep.ArchiveKey); delErr != nil {
			log.WithError(delErr).WithField("archive_key", rep.ArchiveKey).Error("archive rollback failed")
		}
	}
}

func (s *reportService) upload(ctx context.Context, key, path string, rep *model.Report) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = s.Archive.Put(ctx, key, f, storage.PutObjectOptions{
		Size:        rep.Size,
		ContentType: "application/pdf",
		Metadata: map[string]string{
			"report-id":         rep.ID,
			"session-id":        rep.SessionID,
			"original-filename": rep.OriginalName,
		},
	})
	return err
}

func (s *reportService) recordFailure(ctx context.Context, log *logrus.Entry, rep *model.Report, cause error) {
	if s.Reports == nil {
		return
	}
	rep.Status = model.ReportFailed
	rep.ErrorMessage = cause.Error()
	if _, err := s.Reports.Create(context.WithoutCancel(ctx), rep); err != nil {
		log.WithError(err).Warn("report ledger write failed")
	}
}

func (s *reportService) ArtifactPath(name string) (string, error) {
	p, err := s.Layout.OutputPath(name)
	if err != nil {
		return "", ErrInvalidName
	}
	return p, nil
}

func (s *reportService) DiscardPreview(sessionID string) {
	p, err := s.Layout.OutputPath(PreviewName(sessionID))
	if err != nil {
		return
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.Log.WithError(err).WithField("session_id", sessionID).Warn("preview cleanup failed")
	}
}

// List returns paginated reports without exposing repository types.
func (s *reportService) List(ctx context.Context, limit, offset int) (*model.ReportPage, error) {
	if s.Reports == nil {
		return nil, ErrLedgerUnavailable
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.Reports.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &model.ReportPage{Items: res.Items, Total: res.Total}, nil
}

func (s *reportService) Get(ctx context.Context, id string) (*model.Report, error) {
	if s.Reports == nil {
		return nil, ErrLedgerUnavailable
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrReportNotFound
	}
	rep, err := s.Reports.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	return rep, nil
}

func (s *reportService) ArchiveURL(ctx context.Context, id string) (string, error) {
	if s.Archive == nil {
		return "", ErrArchiveUnavailable
	}
	rep, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if rep.ArchiveKey == "" {
		return "", ErrNotArchived
	}
	u, err := s.Archive.PresignGet(ctx, rep.ArchiveKey, archiveURLExpiry)
	if err != nil {
		return "", fmt.Errorf("presign archive url: %w", err)
	}
	return u, nil
}

// uploadName reduces a client-supplied file name to its base and checks it is a PDF.
func uploadName(filename string) (string, error) {
	name := filename
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrNoFileSelected
	}
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		return "", ErrUnsupportedFormat
	}
	if storage.ValidateName(name) != nil {
		return "", ErrInvalidName
	}
	return name, nil
}

func saveUpload(path string, r io.Reader) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
