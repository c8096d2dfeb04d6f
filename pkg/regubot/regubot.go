// Package regubot is the HTTP client for the remote ReguBot compliance
// analysis backend. Only the response shapes matter to this layer; how the
// backend computes compliance is opaque.
package regubot

import (
	"context"
	"io"

	"regubot-client/internal/dto"
)

// API is the remote service surface consumed by the orchestrator.
type API interface {
	Health(ctx context.Context) (*dto.HealthResponse, error)
	GetStandards(ctx context.Context) (*dto.StandardsResponse, error)
	Upload(ctx context.Context, filename string, file io.Reader) (*dto.UploadResponse, error)
	Analyze(ctx context.Context, req *dto.AnalyzeRequest) (*dto.AnalyzeResponse, error)
	Chat(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error)
	DownloadReport(ctx context.Context, sessionId, format, destDir string) (string, error)
	GetSessionStatus(ctx context.Context, sessionId string) (*dto.SessionStatusResponse, error)
	GetConversationHistory(ctx context.Context, sessionId string) (*dto.ConversationHistoryResponse, error)
}
