package constant

import "time"

const (
	ChatRoleUser = "user"
	ChatRoleBot  = "bot"

	// Client-side upload gate. The backend enforces the same ceiling.
	MaxUploadBytes = 15 * 1024 * 1024

	// Hard cap on a displayed chat answer. Applied after candidate selection.
	ChatAnswerMaxChars  = 2000
	ChatTruncatedSuffix = " (terpotong - lihat laporan lengkap)"

	// Shown when the backend reply carries no usable answer text at all.
	// Mirrors the backend's own empty-answer fallback wording.
	ChatFallbackAnswer = "Maaf, tidak ada jawaban yang tersedia. Silakan cek hasil analisis atau tanyakan hal lain."

	// Generic wording for transport-level failures (network, non-2xx without
	// a parseable error body). Kept distinct from backend-reported errors.
	ChatTechnicalFailure = "Terjadi kesalahan teknis saat menghubungi server. Silakan coba lagi."
)

// Accepted MIME kinds for document upload
var AllowedFileKinds = map[string]struct{}{
	"application/pdf": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"text/plain": {},
}

// PipelineStage is one step of the cosmetic analysis progress simulation.
type PipelineStage struct {
	Name     string
	Duration time.Duration
}

// AnalysisStages is the fixed 5-stage pipeline mirrored from the backend's
// agent names. Durations are nominal; the simulation is decoupled from the
// real analysis call.
var AnalysisStages = []PipelineStage{
	{Name: "Document Collector", Duration: 8 * time.Second},
	{Name: "Standard Retriever", Duration: 12 * time.Second},
	{Name: "Compliance Checker", Duration: 20 * time.Second},
	{Name: "Report Generator", Duration: 10 * time.Second},
	{Name: "QA Agent", Duration: 6 * time.Second},
}
