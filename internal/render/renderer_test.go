package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"

	"regubot-client/pkg/compliance/catalog"
	"regubot-client/pkg/compliance/conversation"
	"regubot-client/pkg/compliance/normalize"
	"regubot-client/pkg/compliance/orchestrator"
	"regubot-client/pkg/compliance/progress"
)

func newTestRenderer() (*Renderer, *bytes.Buffer) {
	color.NoColor = true
	var buf bytes.Buffer
	return NewRenderer(&buf), &buf
}

func TestNotifyMarkers(t *testing.T) {
	tests := []struct {
		kind   string
		marker string
	}{
		{orchestrator.NotifySuccess, "✔"},
		{orchestrator.NotifyWarning, "⚠"},
		{orchestrator.NotifyError, "✘"},
		{orchestrator.NotifyInfo, "•"},
	}
	for _, tt := range tests {
		r, buf := newTestRenderer()
		r.Notify(tt.kind, "pesan uji")
		out := buf.String()
		if !strings.Contains(out, tt.marker) || !strings.Contains(out, "pesan uji") {
			t.Errorf("Notify(%s) = %q, want marker %q and message", tt.kind, out, tt.marker)
		}
	}
}

func TestStageProgressLine(t *testing.T) {
	r, buf := newTestRenderer()

	r.StageProgress(progress.Event{StageIndex: 0, StageName: "Document Collector", Progress: 30})
	r.StageProgress(progress.Event{StageIndex: 4, StageName: "QA Agent", Progress: 100, Done: true})

	out := buf.String()
	if !strings.Contains(out, "[1/5] Document Collector ... 30%") {
		t.Errorf("start line missing: %q", out)
	}
	if !strings.Contains(out, "[5/5] QA Agent ... 100%") {
		t.Errorf("completion line missing: %q", out)
	}
}

func TestResultEmptyIssuesIsPositive(t *testing.T) {
	r, buf := newTestRenderer()

	r.Result(&normalize.Result{Score: 92, Issues: []normalize.Finding{}, CompliantItems: []normalize.Finding{}})

	out := buf.String()
	if !strings.Contains(out, "92/100") || !strings.Contains(out, normalize.StatusExcellent) {
		t.Errorf("score band missing: %q", out)
	}
	if !strings.Contains(out, "Tidak ada temuan") {
		t.Errorf("empty issue list should render as a positive state: %q", out)
	}
}

func TestResultFindingsCapRecommendations(t *testing.T) {
	r, buf := newTestRenderer()

	r.Result(&normalize.Result{
		Score: 35,
		Issues: []normalize.Finding{{
			Title:           "Retensi data",
			Explanation:     "Tidak ada batas retensi",
			Severity:        "HIGH",
			Tier:            normalize.TierHigh,
			Recommendations: []string{"satu", "dua", "tiga"},
			Reference:       "Pasal 16",
		}},
		CompliantItems: []normalize.Finding{{Title: "Enkripsi"}},
	})

	out := buf.String()
	if !strings.Contains(out, "[HIGH] Retensi data") {
		t.Errorf("finding header missing: %q", out)
	}
	if !strings.Contains(out, "satu") || !strings.Contains(out, "dua") || strings.Contains(out, "tiga") {
		t.Errorf("recommendations not capped at two: %q", out)
	}
	if !strings.Contains(out, "Pasal 16") || !strings.Contains(out, "Enkripsi") {
		t.Errorf("reference or compliant item missing: %q", out)
	}
}

func TestCatalogMarkers(t *testing.T) {
	r, buf := newTestRenderer()

	r.Catalog(catalog.Default(), map[string]struct{}{"GDPR": {}})

	out := buf.String()
	if !strings.Contains(out, "[x] GDPR") {
		t.Errorf("selected marker missing: %q", out)
	}
	if !strings.Contains(out, "[ ] NIST") {
		t.Errorf("unselected marker missing: %q", out)
	}
	// Global group renders before National.
	if strings.Index(out, "Global:") > strings.Index(out, "National:") {
		t.Errorf("group order wrong: %q", out)
	}
}

func TestTranscriptRendering(t *testing.T) {
	r, buf := newTestRenderer()

	m := conversation.NewManager()
	m.AppendUser("apakah dokumen ini patuh?")
	m.AppendBot("sebagian besar", false)
	m.AppendBot("Session tidak ditemukan", true)
	m.AppendTyping()

	r.Transcript(m.Turns())

	out := buf.String()
	if !strings.Contains(out, "Anda: apakah dokumen ini patuh?") {
		t.Errorf("user turn missing: %q", out)
	}
	if !strings.Contains(out, "Bot: sebagian besar") {
		t.Errorf("bot turn missing: %q", out)
	}
	if !strings.Contains(out, "Bot: Session tidak ditemukan") {
		t.Errorf("error turn missing: %q", out)
	}
	if !strings.Contains(out, "mengetik") {
		t.Errorf("typing placeholder missing: %q", out)
	}
}
