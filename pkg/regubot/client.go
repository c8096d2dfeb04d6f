package regubot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"regubot-client/internal/dto"
)

type Client struct {
	BaseURL string
	Client  *http.Client
	// Analysis runs multi-agent pipelines server-side and can take minutes.
	AnalyzeClient *http.Client
}

// Ensure Client implements API
var _ API = &Client{}

func NewClient(baseURL string, requestTimeout, analyzeTimeout time.Duration) *Client {
	return &Client{
		BaseURL: baseURL,
		Client: &http.Client{
			Timeout: requestTimeout,
		},
		AnalyzeClient: &http.Client{
			Timeout: analyzeTimeout,
		},
	}
}

func (c *Client) Health(ctx context.Context) (*dto.HealthResponse, error) {
	var out dto.HealthResponse
	if err := c.getJSON(ctx, "/api/health", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetStandards(ctx context.Context) (*dto.StandardsResponse, error) {
	var out dto.StandardsResponse
	if err := c.getJSON(ctx, "/api/standards", &out); err != nil {
		return nil, err
	}
	if !out.Success && out.Error != "" {
		return nil, &APIError{Message: out.Error}
	}
	return &out, nil
}

func (c *Client) Upload(ctx context.Context, filename string, file io.Reader) (*dto.UploadResponse, error) {
	// 1. Build the multipart body. The backend expects the document under
	// the form field "file".
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("copy file content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	// 2. Send Request
	url := c.BaseURL + "/api/upload"
	req, err := http.NewRequestWithContext(ctx, "POST", url, &body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	// 3. Parse Response
	var out dto.UploadResponse
	if err := json.Unmarshal(bodyBytes, &out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("upload failed: status %d, body: %s", resp.StatusCode, string(bodyBytes))
		}
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if out.Error != "" && !out.Success {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: out.Error}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upload failed: status %d", resp.StatusCode)
	}
	return &out, nil
}

func (c *Client) Analyze(ctx context.Context, req *dto.AnalyzeRequest) (*dto.AnalyzeResponse, error) {
	var out dto.AnalyzeResponse
	if err := c.postJSON(ctx, c.AnalyzeClient, "/api/analyze", req, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		msg := out.Error
		if msg == "" {
			msg = "unknown analysis error"
		}
		return nil, &APIError{Message: msg}
	}
	return &out, nil
}

func (c *Client) Chat(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	var out dto.ChatResponse
	if err := c.postJSON(ctx, c.Client, "/api/chat", req, &out); err != nil {
		return nil, err
	}
	// success:false (or absent) with an error field is a backend-reported
	// failure; the resolver never sees it.
	if !out.Success && out.Error != "" {
		return nil, &APIError{Message: out.Error}
	}
	return &out, nil
}

// DownloadReport fetches the generated report and writes it into destDir.
// The stored filename comes from the Content-Disposition header when the
// backend provides one, otherwise a generated default. Returns the path of
// the written file.
func (c *Client) DownloadReport(ctx context.Context, sessionId, format, destDir string) (string, error) {
	url := fmt.Sprintf("%s/api/download/%s/%s", c.BaseURL, sessionId, format)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		if apiErr := parseErrorBody(resp.StatusCode, bodyBytes); apiErr != nil {
			return "", apiErr
		}
		return "", fmt.Errorf("download failed: status %d", resp.StatusCode)
	}

	filename := fmt.Sprintf("compliance_report_%s.%s", sessionId, format)
	if disposition := resp.Header.Get("Content-Disposition"); disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			if name := params["filename"]; name != "" {
				filename = filepath.Base(name)
			}
		}
	}

	destPath := filepath.Join(destDir, filename)
	out, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("create report file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return "", fmt.Errorf("write report file: %w", err)
	}
	return destPath, nil
}

func (c *Client) GetSessionStatus(ctx context.Context, sessionId string) (*dto.SessionStatusResponse, error) {
	var out dto.SessionStatusResponse
	if err := c.getJSON(ctx, "/api/sessions/"+sessionId+"/status", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetConversationHistory(ctx context.Context, sessionId string) (*dto.ConversationHistoryResponse, error) {
	var out dto.ConversationHistoryResponse
	if err := c.getJSON(ctx, "/api/sessions/"+sessionId+"/conversation", &out); err != nil {
		return nil, err
	}
	if !out.Success && out.Error != "" {
		return nil, &APIError{Message: out.Error}
	}
	return &out, nil
}

// --- Request helpers ---

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if apiErr := parseErrorBody(resp.StatusCode, bodyBytes); apiErr != nil {
			return apiErr
		}
		return fmt.Errorf("request failed: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, client *http.Client, path string, payload, out interface{}) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+path, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	// Error bodies are still JSON envelopes the caller can interpret, so
	// unmarshal first and only fall back to a status error when the body
	// is unusable.
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		if resp.StatusCode != http.StatusOK {
			if apiErr := parseErrorBody(resp.StatusCode, bodyBytes); apiErr != nil {
				return apiErr
			}
			return fmt.Errorf("request failed: status %d, body: %s", resp.StatusCode, string(bodyBytes))
		}
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func parseErrorBody(statusCode int, body []byte) *APIError {
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error == "" {
		return nil
	}
	return &APIError{StatusCode: statusCode, Message: envelope.Error}
}
