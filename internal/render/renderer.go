// Package render is presentation plumbing: it draws notices, the score
// gauge, findings, and the chat transcript on the terminal.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"regubot-client/pkg/compliance/catalog"
	"regubot-client/pkg/compliance/conversation"
	"regubot-client/pkg/compliance/normalize"
	"regubot-client/pkg/compliance/orchestrator"
	"regubot-client/pkg/compliance/progress"
)

type Renderer struct {
	out io.Writer
}

// Ensure Renderer implements the orchestrator sink
var _ orchestrator.Sink = &Renderer{}

func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{out: out}
}

func (r *Renderer) Notify(kind, message string) {
	switch kind {
	case orchestrator.NotifySuccess:
		color.New(color.FgGreen).Fprintf(r.out, "✔ %s\n", message)
	case orchestrator.NotifyWarning:
		color.New(color.FgYellow).Fprintf(r.out, "⚠ %s\n", message)
	case orchestrator.NotifyError:
		color.New(color.FgRed).Fprintf(r.out, "✘ %s\n", message)
	default:
		fmt.Fprintf(r.out, "• %s\n", message)
	}
}

func (r *Renderer) StageProgress(event progress.Event) {
	if event.Done {
		color.New(color.FgGreen).Fprintf(r.out, "  [%d/5] %s ... 100%%\n", event.StageIndex+1, event.StageName)
		return
	}
	color.New(color.FgCyan).Fprintf(r.out, "  [%d/5] %s ... %d%%\n", event.StageIndex+1, event.StageName, event.Progress)
}

func (r *Renderer) SessionCleared() {
	fmt.Fprintln(r.out, "Sesi dibersihkan. Hasil analisis dan chat disembunyikan.")
}

// Result draws the score gauge, status band, and both finding lists. An
// empty issue list renders as a positive state, never as an error.
func (r *Renderer) Result(result *normalize.Result) {
	gauge := gaugeColor(result.Score)
	gauge.Fprintf(r.out, "\nSkor Kepatuhan: %.0f/100 (%s)\n", result.Score, normalize.ScoreStatus(result.Score))

	if len(result.Issues) == 0 {
		color.New(color.FgGreen).Fprintln(r.out, "Tidak ada temuan. Dokumen sesuai dengan standar yang dipilih.")
	} else {
		fmt.Fprintf(r.out, "\nTemuan (%d):\n", len(result.Issues))
		for _, issue := range result.Issues {
			r.finding(issue)
		}
	}

	if len(result.CompliantItems) > 0 {
		color.New(color.FgGreen).Fprintf(r.out, "\nSudah sesuai (%d):\n", len(result.CompliantItems))
		for _, item := range result.CompliantItems {
			fmt.Fprintf(r.out, "  + %s\n", item.Title)
		}
	}
}

func (r *Renderer) finding(f normalize.Finding) {
	tierColor(f.Tier).Fprintf(r.out, "  [%s] %s\n", strings.ToUpper(f.Severity), f.Title)
	if f.Explanation != "" {
		fmt.Fprintf(r.out, "      %s\n", f.Explanation)
	}
	// At most two recommendations are shown per finding.
	recommendations := f.Recommendations
	if len(recommendations) > 2 {
		recommendations = recommendations[:2]
	}
	for _, rec := range recommendations {
		fmt.Fprintf(r.out, "      > %s\n", rec)
	}
	if f.Reference != "" {
		fmt.Fprintf(r.out, "      ref: %s\n", f.Reference)
	}
}

// Catalog lists the standards with selection and availability markers.
func (r *Renderer) Catalog(cat *catalog.Catalog, selected map[string]struct{}) {
	group := ""
	for _, entry := range cat.Entries() {
		if entry.Group != group {
			group = entry.Group
			fmt.Fprintf(r.out, "\n%s:\n", group)
		}
		marker := "[ ]"
		if _, ok := selected[entry.Key]; ok {
			marker = "[x]"
		}
		if !entry.Available {
			color.New(color.Faint).Fprintf(r.out, "  %s %s - %s (tidak tersedia)\n", marker, entry.Key, entry.Name)
			continue
		}
		fmt.Fprintf(r.out, "  %s %s - %s\n", marker, entry.Key, entry.Name)
	}
}

// Transcript prints the conversation so far.
func (r *Renderer) Transcript(turns []conversation.Turn) {
	for _, turn := range turns {
		if turn.Typing {
			color.New(color.Faint).Fprintln(r.out, "bot sedang mengetik...")
			continue
		}
		if turn.Sender == "user" {
			color.New(color.FgBlue).Fprintf(r.out, "Anda: %s\n", turn.Text)
			continue
		}
		if turn.IsError {
			color.New(color.FgRed).Fprintf(r.out, "Bot: %s\n", turn.Text)
			continue
		}
		fmt.Fprintf(r.out, "Bot: %s\n", turn.Text)
	}
}

func gaugeColor(score float64) *color.Color {
	switch normalize.ScoreGauge(score) {
	case normalize.GaugeGreen:
		return color.New(color.FgGreen)
	case normalize.GaugeAmber:
		return color.New(color.FgYellow)
	case normalize.GaugeRed:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgRed, color.Bold)
	}
}

func tierColor(tier string) *color.Color {
	switch tier {
	case normalize.TierHigh:
		return color.New(color.FgRed)
	case normalize.TierMedium:
		return color.New(color.FgYellow)
	case normalize.TierLow:
		return color.New(color.FgCyan)
	default:
		return color.New(color.FgWhite)
	}
}
