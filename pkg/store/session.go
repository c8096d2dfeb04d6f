package store

// FileMeta describes the last accepted document. Advisory only; the backend
// re-validates nothing through this layer.
type FileMeta struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Kind string `json:"kind"` // MIME kind, e.g. application/pdf
}

// Session represents the active compliance session state in memory
type Session struct {
	ID    string `json:"id"` // opaque token issued by the backend on upload
	Phase string `json:"phase"`

	UploadedFile *FileMeta `json:"uploaded_file"`

	// Selected standard keys. Uniqueness required, insertion order irrelevant.
	SelectedStandards map[string]struct{} `json:"selected_standards"`

	AnalysisComplete bool `json:"analysis_complete"`

	// Generation increments on every reset so stale async completions can be
	// detected and dropped before they mutate state.
	Generation uint64 `json:"generation"`
}

// Phases of the upload/analysis/chat workflow
const (
	PhaseEmpty            = "EMPTY"
	PhaseFileStaged       = "FILE_STAGED"
	PhaseUploading        = "UPLOADING"
	PhaseUploaded         = "UPLOADED"
	PhaseAnalyzing        = "ANALYZING"
	PhaseAnalysisComplete = "ANALYSIS_COMPLETE"
)

// NewSession returns a session in the initial phase with an empty selection.
func NewSession() *Session {
	return &Session{
		Phase:             PhaseEmpty,
		SelectedStandards: make(map[string]struct{}),
	}
}

// StandardsList returns the selected standard keys as a slice for wire payloads.
func (s *Session) StandardsList() []string {
	keys := make([]string, 0, len(s.SelectedStandards))
	for k := range s.SelectedStandards {
		keys = append(keys, k)
	}
	return keys
}
