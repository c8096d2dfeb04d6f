// Package orchestrator owns the client-held session state machine for the
// compliance workflow: file staging, upload, analysis, and the follow-up
// Q&A loop. All state mutation goes through the guarded operations here;
// nothing else touches the session.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"regubot-client/internal/constant"
	"regubot-client/internal/dto"
	"regubot-client/internal/pkg/logger"
	"regubot-client/internal/pkg/serverutils"
	"regubot-client/internal/repository/memory"
	"regubot-client/pkg/compliance/answer"
	"regubot-client/pkg/compliance/catalog"
	"regubot-client/pkg/compliance/conversation"
	"regubot-client/pkg/compliance/normalize"
	"regubot-client/pkg/compliance/progress"
	"regubot-client/pkg/regubot"
	"regubot-client/pkg/store"
)

// ValidationError is a local rejection: surfaced to the user synchronously,
// no network call issued, no state mutated.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Sink receives user-visible updates from the orchestrator. The renderer
// implements it; tests substitute a recorder.
type Sink interface {
	Notify(kind, message string)
	StageProgress(event progress.Event)
	SessionCleared()
}

// Notification kinds
const (
	NotifyInfo    = "info"
	NotifySuccess = "success"
	NotifyWarning = "warning"
	NotifyError   = "error"
)

// Options tune orchestrator behavior.
type Options struct {
	// CancelProgressOnSettle cuts the cosmetic stage simulation short when
	// the real analysis call settles. Off by default; normally the
	// simulation plays out on its own timers.
	CancelProgressOnSettle bool
}

// Orchestrator is the session state machine
type Orchestrator struct {
	api        regubot.API
	catalog    *catalog.Catalog
	normalizer *normalize.Normalizer
	resolver   *answer.Resolver
	transcript *conversation.Manager
	scheduler  *progress.Scheduler
	sessions   *memory.SessionRepository
	log        logger.ILogger
	sink       Sink
	opts       Options

	session    *store.Session
	lastResult *normalize.Result
}

func New(
	api regubot.API,
	cat *catalog.Catalog,
	normalizer *normalize.Normalizer,
	resolver *answer.Resolver,
	transcript *conversation.Manager,
	scheduler *progress.Scheduler,
	sessions *memory.SessionRepository,
	log logger.ILogger,
	sink Sink,
	opts Options,
) *Orchestrator {
	return &Orchestrator{
		api:        api,
		catalog:    cat,
		normalizer: normalizer,
		resolver:   resolver,
		transcript: transcript,
		scheduler:  scheduler,
		sessions:   sessions,
		log:        log,
		sink:       sink,
		opts:       opts,
		session:    store.NewSession(),
	}
}

// Session returns a copy of the current session state.
func (o *Orchestrator) Session() store.Session {
	return *o.session
}

// LastResult returns the normalized result of the most recent analysis, or
// nil when none is stored.
func (o *Orchestrator) LastResult() *normalize.Result {
	return o.lastResult
}

// Transcript exposes the conversation manager for rendering.
func (o *Orchestrator) Transcript() *conversation.Manager {
	return o.transcript
}

// Catalog exposes the standards catalog for rendering and selection.
func (o *Orchestrator) Catalog() *catalog.Catalog {
	return o.catalog
}

// SelectFile validates the staged document and, on acceptance, immediately
// triggers the upload. Rejection leaves the session untouched.
func (o *Orchestrator) SelectFile(ctx context.Context, meta store.FileMeta, content io.Reader) error {
	if _, ok := constant.AllowedFileKinds[meta.Kind]; !ok {
		return &ValidationError{Message: fmt.Sprintf("Tipe file tidak didukung: %s. Hanya PDF, DOCX, dan teks.", meta.Kind)}
	}
	if meta.Size > constant.MaxUploadBytes {
		return &ValidationError{Message: fmt.Sprintf("File terlalu besar (%d bytes). Maksimal 15MB.", meta.Size)}
	}

	o.session.UploadedFile = &meta
	o.session.Phase = store.PhaseFileStaged
	o.log.Info("orchestrator", "file staged", map[string]interface{}{
		"name": meta.Name, "size": meta.Size, "kind": meta.Kind,
	})

	return o.upload(ctx, meta, content)
}

func (o *Orchestrator) upload(ctx context.Context, meta store.FileMeta, content io.Reader) error {
	o.session.Phase = store.PhaseUploading

	resp, err := o.api.Upload(ctx, meta.Name, content)
	if err != nil {
		// No session id was obtained; the file stays staged and the user
		// retries by re-selecting or re-triggering.
		o.session.Phase = store.PhaseFileStaged
		o.notifyFailure("Upload gagal", err)
		return err
	}

	o.session.ID = resp.SessionId
	o.session.Phase = store.PhaseUploaded
	o.sessions.Save(o.session)
	o.log.Info("orchestrator", "upload complete", map[string]interface{}{
		"session_id": resp.SessionId, "filename": resp.Filename,
	})
	o.sink.Notify(NotifySuccess, fmt.Sprintf("Dokumen %s berhasil diupload.", meta.Name))
	return nil
}

// ToggleStandard adds or removes a standard from the selection. Unavailable
// catalog entries never enter the selected set. The selection persists
// across analyses until the file is removed.
func (o *Orchestrator) ToggleStandard(key string) (selected bool, err error) {
	if _, already := o.session.SelectedStandards[key]; already {
		delete(o.session.SelectedStandards, key)
		return false, nil
	}
	if !o.catalog.IsSelectable(key) {
		return false, &ValidationError{Message: fmt.Sprintf("Standar %s tidak tersedia.", key)}
	}
	o.session.SelectedStandards[key] = struct{}{}
	return true, nil
}

// StartAnalysis launches the cosmetic progress simulation and the real
// analysis request concurrently. The two are causally independent; the
// simulation neither gates nor is gated by the request unless the
// cancel-on-settle option is set.
func (o *Orchestrator) StartAnalysis(ctx context.Context) error {
	if o.session.Phase == store.PhaseAnalyzing {
		return &ValidationError{Message: "Analisis sedang berjalan."}
	}
	req := &dto.AnalyzeRequest{
		SessionId: o.session.ID,
		Standards: o.session.StandardsList(),
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		if o.session.ID == "" {
			return &ValidationError{Message: "Belum ada dokumen yang diupload."}
		}
		return &ValidationError{Message: "Pilih minimal satu standar untuk analisis."}
	}

	generation := o.session.Generation
	o.session.Phase = store.PhaseAnalyzing
	o.log.Info("orchestrator", "analysis started", map[string]interface{}{
		"session_id": req.SessionId, "standards": req.Standards,
	})

	// Fire-and-forget simulation with its own lifecycle.
	run := o.scheduler.Start(o.sink.StageProgress)

	resp, err := o.api.Analyze(ctx, req)

	if o.opts.CancelProgressOnSettle {
		run.Cancel()
	}

	// A reset may have superseded this session while the call was in
	// flight; a stale response must not clobber current state.
	if o.session.Generation != generation || o.session.ID != req.SessionId {
		o.log.Warn("orchestrator", "stale analysis response dropped", map[string]interface{}{
			"session_id": req.SessionId,
		})
		return nil
	}

	if err != nil {
		o.session.Phase = store.PhaseUploaded
		o.notifyFailure("Analisis gagal", err)
		return err
	}

	o.lastResult = o.normalizer.Normalize(resp.Raw)
	o.session.Phase = store.PhaseAnalysisComplete
	o.session.AnalysisComplete = true
	o.sessions.Save(o.session)
	o.log.Info("orchestrator", "analysis complete", map[string]interface{}{
		"session_id": req.SessionId,
		"score":      o.lastResult.Score,
		"issues":     len(o.lastResult.Issues),
	})
	o.sink.Notify(NotifySuccess, "Analisis selesai. Chat Q&A sudah bisa digunakan.")
	return nil
}

// SendChatMessage appends the user turn plus a typing placeholder, issues
// the chat request, and settles into exactly one bot turn. Guard violations
// are local rejections with no network call and no transcript change.
func (o *Orchestrator) SendChatMessage(ctx context.Context, question string) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return &ValidationError{Message: "Pertanyaan tidak boleh kosong."}
	}
	if o.session.ID == "" {
		return &ValidationError{Message: "Belum ada sesi aktif. Upload dokumen terlebih dahulu."}
	}
	if !o.session.AnalysisComplete {
		return &ValidationError{Message: "Chat terkunci sampai analisis selesai."}
	}

	req := &dto.ChatRequest{SessionId: o.session.ID, Question: question}
	if err := serverutils.ValidateRequest(req); err != nil {
		return &ValidationError{Message: err.Error()}
	}

	generation := o.session.Generation
	o.transcript.AppendUser(question)
	token := o.transcript.AppendTyping()

	resp, err := o.api.Chat(ctx, req)

	// Stale settlement after a reset: the placeholder is gone with the
	// cleared transcript and nothing may be appended.
	if o.session.Generation != generation {
		o.transcript.RemoveTyping(token)
		return nil
	}

	if err != nil {
		var apiErr *regubot.APIError
		if errors.As(err, &apiErr) {
			// Backend-reported failure: surface its message verbatim.
			o.transcript.ResolveTyping(token, apiErr.Message, true)
		} else {
			o.transcript.ResolveTyping(token, constant.ChatTechnicalFailure, true)
		}
		o.log.Error("orchestrator", "chat failed", map[string]interface{}{
			"session_id": req.SessionId, "error": err.Error(),
		})
		return err
	}

	o.transcript.ResolveTyping(token, o.resolver.Resolve(resp.Raw), false)
	return nil
}

// RemoveFile resets the session from any state: session id, analysis flag,
// result, and transcript all go; the standards catalog stays.
func (o *Orchestrator) RemoveFile() {
	if o.session.ID != "" {
		o.sessions.Delete(o.session.ID)
	}
	generation := o.session.Generation + 1

	o.session = store.NewSession()
	o.session.Generation = generation
	o.lastResult = nil
	o.transcript.Clear()

	o.log.Info("orchestrator", "session cleared", nil)
	o.sink.SessionCleared()
}

// DownloadReport fetches the generated report for the current session.
func (o *Orchestrator) DownloadReport(ctx context.Context, format, destDir string) (string, error) {
	if format != "pdf" && format != "docx" {
		return "", &ValidationError{Message: "Format tidak valid. Gunakan pdf atau docx."}
	}
	if o.session.ID == "" || !o.session.AnalysisComplete {
		return "", &ValidationError{Message: "Laporan belum tersedia. Selesaikan analisis terlebih dahulu."}
	}

	path, err := o.api.DownloadReport(ctx, o.session.ID, format, destDir)
	if err != nil {
		o.notifyFailure("Download gagal", err)
		return "", err
	}
	o.sink.Notify(NotifySuccess, fmt.Sprintf("Laporan tersimpan: %s", path))
	return path, nil
}

// SessionStatus asks the backend for the server-side view of this session.
func (o *Orchestrator) SessionStatus(ctx context.Context) (*dto.SessionStatusResponse, error) {
	if o.session.ID == "" {
		return nil, &ValidationError{Message: "Belum ada sesi aktif."}
	}
	return o.api.GetSessionStatus(ctx, o.session.ID)
}

// notifyFailure frames a failure for the user: backend-reported errors are
// surfaced verbatim, transport errors get the generic technical wording.
func (o *Orchestrator) notifyFailure(prefix string, err error) {
	var apiErr *regubot.APIError
	if errors.As(err, &apiErr) {
		o.sink.Notify(NotifyError, fmt.Sprintf("%s: %s", prefix, apiErr.Message))
		return
	}
	o.sink.Notify(NotifyError, fmt.Sprintf("%s: %s", prefix, constant.ChatTechnicalFailure))
}
