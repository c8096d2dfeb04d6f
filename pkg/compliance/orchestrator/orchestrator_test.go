package orchestrator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"regubot-client/internal/constant"
	"regubot-client/internal/dto"
	"regubot-client/internal/repository/memory"
	"regubot-client/pkg/compliance/answer"
	"regubot-client/pkg/compliance/catalog"
	"regubot-client/pkg/compliance/conversation"
	"regubot-client/pkg/compliance/normalize"
	"regubot-client/pkg/compliance/progress"
	"regubot-client/pkg/regubot"
	"regubot-client/pkg/store"
)

// recorderSink captures user-visible updates
type recorderSink struct {
	mu       sync.Mutex
	notices  []string
	cleared  int
	progress int
}

func (s *recorderSink) Notify(kind, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, kind+": "+message)
}

func (s *recorderSink) StageProgress(progress.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress++
}

func (s *recorderSink) SessionCleared() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleared++
}

// fakeBackend is a minimal in-process stand-in for the analysis service
type fakeBackend struct {
	mu       sync.Mutex
	requests map[string]int

	analyzeBody string
	analyzeHold func()
	chatBody    string
	chatStatus  int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		requests:    map[string]int{},
		analyzeBody: `{"success": true, "summary": {"compliance_score": 85, "issues": [{"aspect": "Retention", "severity": "HIGH"}]}, "compliant_items": [{"title": "Encryption"}]}`,
		chatBody:    `{"success": true, "response": "the document retains data too long"}`,
		chatStatus:  http.StatusOK,
	}
}

func (b *fakeBackend) count(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests[path]
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	record := func(path string, fn http.HandlerFunc) {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			b.mu.Lock()
			b.requests[path]++
			b.mu.Unlock()
			fn(w, r)
		})
	}

	record("/api/upload", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]interface{}{"error": "Tidak ada file yang diupload"})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "session_id": "sess-1"})
	})
	record("/api/analyze", func(w http.ResponseWriter, r *http.Request) {
		if b.analyzeHold != nil {
			b.analyzeHold()
		}
		w.Write([]byte(b.analyzeBody))
	})
	record("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(b.chatStatus)
		w.Write([]byte(b.chatBody))
	})
	return mux
}

func newTestOrchestrator(t *testing.T, backend *fakeBackend, opts Options) (*Orchestrator, *recorderSink, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(backend.handler())
	t.Cleanup(server.Close)

	client := regubot.NewClient(server.URL, 5*time.Second, 5*time.Second)
	sink := &recorderSink{}

	fastStages := []constant.PipelineStage{
		{Name: "Document Collector", Duration: time.Millisecond},
		{Name: "Standard Retriever", Duration: time.Millisecond},
		{Name: "Compliance Checker", Duration: time.Millisecond},
		{Name: "Report Generator", Duration: time.Millisecond},
		{Name: "QA Agent", Duration: time.Millisecond},
	}

	orch := New(
		client,
		catalog.Default(),
		normalize.NewNormalizer(nil),
		answer.NewResolver(nil),
		conversation.NewManager(),
		progress.NewScheduler(fastStages, nil),
		memory.NewSessionRepository(),
		noopLogger{},
		sink,
		opts,
	)
	return orch, sink, server
}

type noopLogger struct{}

func (noopLogger) Debug(string, string, map[string]interface{}) {}
func (noopLogger) Info(string, string, map[string]interface{})  {}
func (noopLogger) Warn(string, string, map[string]interface{})  {}
func (noopLogger) Error(string, string, map[string]interface{}) {}
func (noopLogger) Sync() error                                  { return nil }

func stageFile(t *testing.T, orch *Orchestrator) {
	t.Helper()
	meta := store.FileMeta{Name: "policy.pdf", Size: 1 << 20, Kind: "application/pdf"}
	err := orch.SelectFile(context.Background(), meta, strings.NewReader("%PDF-1.4 test"))
	assert.NoError(t, err)
}

func TestSelectFileValidation(t *testing.T) {
	backend := newFakeBackend()
	orch, _, _ := newTestOrchestrator(t, backend, Options{})
	ctx := context.Background()

	// 20 MB file is rejected before any network call.
	err := orch.SelectFile(ctx, store.FileMeta{Name: "big.pdf", Size: 20 << 20, Kind: "application/pdf"}, strings.NewReader("x"))
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)

	// Wrong MIME kind likewise.
	err = orch.SelectFile(ctx, store.FileMeta{Name: "pic.png", Size: 1 << 20, Kind: "image/png"}, strings.NewReader("x"))
	assert.ErrorAs(t, err, &vErr)

	assert.Equal(t, 0, backend.count("/api/upload"))
	assert.Equal(t, store.PhaseEmpty, orch.Session().Phase)

	// 1 MB PDF is accepted and immediately uploaded.
	stageFile(t, orch)
	assert.Equal(t, 1, backend.count("/api/upload"))
	assert.Equal(t, store.PhaseUploaded, orch.Session().Phase)
	assert.Equal(t, "sess-1", orch.Session().ID)
}

func TestStartAnalysisGuards(t *testing.T) {
	backend := newFakeBackend()
	orch, _, _ := newTestOrchestrator(t, backend, Options{})
	ctx := context.Background()

	// No session id yet.
	err := orch.StartAnalysis(ctx)
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)

	stageFile(t, orch)

	// Valid session id but empty standards selection: no network call, state unchanged.
	err = orch.StartAnalysis(ctx)
	assert.ErrorAs(t, err, &vErr)
	assert.Equal(t, 0, backend.count("/api/analyze"))
	assert.Equal(t, store.PhaseUploaded, orch.Session().Phase)
	assert.False(t, orch.Session().AnalysisComplete)
}

func TestAnalysisFlow(t *testing.T) {
	backend := newFakeBackend()
	orch, sink, _ := newTestOrchestrator(t, backend, Options{})
	ctx := context.Background()

	stageFile(t, orch)
	selected, err := orch.ToggleStandard("GDPR")
	assert.NoError(t, err)
	assert.True(t, selected)

	err = orch.StartAnalysis(ctx)
	assert.NoError(t, err)
	assert.Equal(t, store.PhaseAnalysisComplete, orch.Session().Phase)
	assert.True(t, orch.Session().AnalysisComplete)

	result := orch.LastResult()
	assert.NotNil(t, result)
	assert.Equal(t, float64(85), result.Score)
	assert.Len(t, result.Issues, 1)
	assert.Len(t, result.CompliantItems, 1)

	// The simulation runs on its own timers; give the millisecond stages
	// time to settle before checking.
	time.Sleep(100 * time.Millisecond)
	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.NotZero(t, sink.progress, "progress simulation should have reported stages")
}

func TestAnalysisBackendFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.analyzeBody = `{"success": false, "error": "Pilih minimal satu standar untuk analisis"}`
	orch, sink, _ := newTestOrchestrator(t, backend, Options{CancelProgressOnSettle: true})
	ctx := context.Background()

	stageFile(t, orch)
	orch.ToggleStandard("GDPR")

	err := orch.StartAnalysis(ctx)
	assert.Error(t, err)

	// State reverts to the last stable phase; chat stays locked.
	assert.Equal(t, store.PhaseUploaded, orch.Session().Phase)
	assert.False(t, orch.Session().AnalysisComplete)
	assert.Nil(t, orch.LastResult())

	// Backend-reported message is surfaced verbatim.
	sink.mu.Lock()
	defer sink.mu.Unlock()
	found := false
	for _, notice := range sink.notices {
		if strings.Contains(notice, "Pilih minimal satu standar") {
			found = true
		}
	}
	assert.True(t, found, "backend error message not surfaced: %v", sink.notices)
}

func TestToggleStandard(t *testing.T) {
	backend := newFakeBackend()
	orch, _, _ := newTestOrchestrator(t, backend, Options{})

	selected, err := orch.ToggleStandard("GDPR")
	assert.NoError(t, err)
	assert.True(t, selected)

	// Toggling again removes it.
	selected, err = orch.ToggleStandard("GDPR")
	assert.NoError(t, err)
	assert.False(t, selected)

	// Unknown keys are rejected.
	_, err = orch.ToggleStandard("SOC2")
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestChatGuards(t *testing.T) {
	backend := newFakeBackend()
	orch, _, _ := newTestOrchestrator(t, backend, Options{})
	ctx := context.Background()

	var vErr *ValidationError

	// Empty question.
	assert.ErrorAs(t, orch.SendChatMessage(ctx, "   "), &vErr)

	// No session.
	assert.ErrorAs(t, orch.SendChatMessage(ctx, "is this compliant?"), &vErr)

	// Session but analysis not complete.
	stageFile(t, orch)
	assert.ErrorAs(t, orch.SendChatMessage(ctx, "is this compliant?"), &vErr)

	assert.Equal(t, 0, backend.count("/api/chat"))
	assert.Empty(t, orch.Transcript().Turns())
}

func completeAnalysis(t *testing.T, orch *Orchestrator) {
	t.Helper()
	stageFile(t, orch)
	orch.ToggleStandard("GDPR")
	assert.NoError(t, orch.StartAnalysis(context.Background()))
}

func TestChatFlowTranscriptOrder(t *testing.T) {
	backend := newFakeBackend()
	orch, _, _ := newTestOrchestrator(t, backend, Options{CancelProgressOnSettle: true})
	ctx := context.Background()

	completeAnalysis(t, orch)

	assert.NoError(t, orch.SendChatMessage(ctx, "question one"))
	assert.NoError(t, orch.SendChatMessage(ctx, "question two"))

	turns := orch.Transcript().Turns()
	assert.Len(t, turns, 4)
	assert.Equal(t, constant.ChatRoleUser, turns[0].Sender)
	assert.Equal(t, constant.ChatRoleBot, turns[1].Sender)
	assert.Equal(t, constant.ChatRoleUser, turns[2].Sender)
	assert.Equal(t, constant.ChatRoleBot, turns[3].Sender)
	for _, turn := range turns {
		assert.False(t, turn.Typing, "orphaned typing placeholder")
	}
	assert.Equal(t, "the document retains data too long", turns[1].Text)
}

func TestChatBackendError(t *testing.T) {
	backend := newFakeBackend()
	backend.chatBody = `{"success": false, "error": "Session tidak ditemukan"}`
	backend.chatStatus = http.StatusNotFound
	orch, _, _ := newTestOrchestrator(t, backend, Options{CancelProgressOnSettle: true})
	ctx := context.Background()

	completeAnalysis(t, orch)

	err := orch.SendChatMessage(ctx, "anyone home?")
	assert.Error(t, err)

	turns := orch.Transcript().Turns()
	assert.Len(t, turns, 2)
	bot := turns[1]
	assert.True(t, bot.IsError)
	assert.Equal(t, "Session tidak ditemukan", bot.Text)
}

func TestChatTransportError(t *testing.T) {
	backend := newFakeBackend()
	orch, _, server := newTestOrchestrator(t, backend, Options{CancelProgressOnSettle: true})
	ctx := context.Background()

	completeAnalysis(t, orch)

	// Kill the backend to force a transport failure.
	server.Close()

	err := orch.SendChatMessage(ctx, "still there?")
	assert.Error(t, err)

	turns := orch.Transcript().Turns()
	assert.Len(t, turns, 2)
	bot := turns[1]
	assert.True(t, bot.IsError)
	assert.Equal(t, constant.ChatTechnicalFailure, bot.Text)
}

func TestChatFallbackAnswerIsNotError(t *testing.T) {
	backend := newFakeBackend()
	backend.chatBody = `{"success": true}`
	orch, _, _ := newTestOrchestrator(t, backend, Options{CancelProgressOnSettle: true})
	ctx := context.Background()

	completeAnalysis(t, orch)

	assert.NoError(t, orch.SendChatMessage(ctx, "empty reply?"))
	turns := orch.Transcript().Turns()
	bot := turns[1]
	assert.False(t, bot.IsError, "fallback answer must stay distinguishable from failures")
	assert.Equal(t, constant.ChatFallbackAnswer, bot.Text)
}

func TestRemoveFileResetsEverything(t *testing.T) {
	backend := newFakeBackend()
	orch, sink, _ := newTestOrchestrator(t, backend, Options{CancelProgressOnSettle: true})
	ctx := context.Background()

	completeAnalysis(t, orch)
	assert.NoError(t, orch.SendChatMessage(ctx, "a question"))

	orch.RemoveFile()

	session := orch.Session()
	assert.Equal(t, store.PhaseEmpty, session.Phase)
	assert.Empty(t, session.ID)
	assert.False(t, session.AnalysisComplete)
	assert.Nil(t, orch.LastResult())
	assert.Empty(t, orch.Transcript().Turns())
	assert.Equal(t, 1, sink.cleared)

	// Standards catalog is untouched by the reset.
	assert.Equal(t, 5, orch.Catalog().Len())

	// Subsequent chat send is rejected locally.
	chatCalls := backend.count("/api/chat")
	var vErr *ValidationError
	assert.ErrorAs(t, orch.SendChatMessage(ctx, "still here?"), &vErr)
	assert.Equal(t, chatCalls, backend.count("/api/chat"))
}

func TestStaleAnalysisResponseDropped(t *testing.T) {
	backend := newFakeBackend()
	arrived := make(chan struct{})
	release := make(chan struct{})
	backend.analyzeHold = func() {
		close(arrived)
		<-release
	}
	orch, _, _ := newTestOrchestrator(t, backend, Options{CancelProgressOnSettle: true})

	stageFile(t, orch)
	orch.ToggleStandard("GDPR")

	done := make(chan error, 1)
	go func() {
		done <- orch.StartAnalysis(context.Background())
	}()

	// Reset the session while the analyze call is held open at the backend,
	// then let the response through.
	<-arrived
	orch.RemoveFile()
	close(release)

	assert.NoError(t, <-done)

	// The settled response belongs to a superseded generation and must not
	// resurrect any state.
	session := orch.Session()
	assert.Equal(t, store.PhaseEmpty, session.Phase)
	assert.False(t, session.AnalysisComplete)
	assert.Nil(t, orch.LastResult())
}

func TestDownloadGuards(t *testing.T) {
	backend := newFakeBackend()
	orch, _, _ := newTestOrchestrator(t, backend, Options{})
	ctx := context.Background()

	var vErr *ValidationError
	_, err := orch.DownloadReport(ctx, "xlsx", t.TempDir())
	assert.ErrorAs(t, err, &vErr)

	_, err = orch.DownloadReport(ctx, "pdf", t.TempDir())
	assert.ErrorAs(t, err, &vErr)
}

func TestAnalyzeRequestPayload(t *testing.T) {
	// The wire field names are the backend contract.
	req := dto.AnalyzeRequest{SessionId: "sess-9", Standards: []string{"GDPR"}}
	payload, err := json.Marshal(req)
	assert.NoError(t, err)
	assert.JSONEq(t, `{"session_id": "sess-9", "standards": ["GDPR"]}`, string(payload))
}
