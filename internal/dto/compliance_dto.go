// FILE: internal/dto/compliance_dto.go
package dto

import "encoding/json"

// Wire field names below are the backend contract and must be preserved
// bit-exact. Success envelopes are tolerant shapes; anything beyond the
// declared fields is kept raw for the normalizers.

// --- Upload ---

type UploadResponse struct {
	Success          bool   `json:"success"`
	SessionId        string `json:"session_id"`
	Filename         string `json:"filename"`
	OriginalFilename string `json:"original_filename"`
	FileSize         int64  `json:"file_size"`
	FileType         string `json:"file_type"`
	Message          string `json:"message"`
	Error            string `json:"error"`
}

// --- Analyze ---

type AnalyzeRequest struct {
	SessionId string   `json:"session_id" validate:"required"`
	Standards []string `json:"standards" validate:"required,min=1"`
}

// AnalyzeResponse keeps the whole payload raw: the backend exposes the score
// and findings at several legacy locations, and only the normalizer decides
// which one wins.
type AnalyzeResponse struct {
	Success bool                   `json:"success"`
	Error   string                 `json:"error"`
	Raw     map[string]interface{} `json:"-"`
}

func (r *AnalyzeResponse) UnmarshalJSON(data []byte) error {
	type envelope struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Success = env.Success
	r.Error = env.Error
	r.Raw = raw
	return nil
}

// --- Chat ---

type ChatRequest struct {
	SessionId string `json:"session_id" validate:"required"`
	Question  string `json:"question" validate:"required,min=1"`
}

// ChatResponse mirrors AnalyzeResponse: the answer may live in "response",
// "answer", or any other top-level string field, so the raw map is retained.
type ChatResponse struct {
	Success bool                   `json:"success"`
	Error   string                 `json:"error"`
	Raw     map[string]interface{} `json:"-"`
}

func (r *ChatResponse) UnmarshalJSON(data []byte) error {
	type envelope struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Success = env.Success
	r.Error = env.Error
	r.Raw = raw
	return nil
}

// --- Standards catalog ---

// StandardsResponse carries the catalog in whichever of the two known wire
// shapes the backend happens to emit; pkg/compliance/catalog interprets it.
type StandardsResponse struct {
	Success   bool                       `json:"success"`
	Error     string                     `json:"error"`
	Standards map[string]json.RawMessage `json:"standards"`
	Raw       map[string]json.RawMessage `json:"-"`
}

func (r *StandardsResponse) UnmarshalJSON(data []byte) error {
	type alias StandardsResponse
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = StandardsResponse(a)
	r.Raw = raw
	return nil
}

// --- Health ---

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// --- Session status / conversation history ---

type SessionStatusResponse struct {
	SessionId        string                 `json:"session_id"`
	HasUploadedFile  bool                   `json:"has_uploaded_file"`
	UploadedFiles    []string               `json:"uploaded_files"`
	HasReports       bool                   `json:"has_reports"`
	AvailableReports []string               `json:"available_reports"`
	EnhancedStatus   map[string]interface{} `json:"enhanced_status"`
}

type ConversationHistoryResponse struct {
	Success             bool                     `json:"success"`
	SessionId           string                   `json:"session_id"`
	ConversationHistory []map[string]interface{} `json:"conversation_history"`
	TotalMessages       int                      `json:"total_messages"`
	Error               string                   `json:"error"`
}
