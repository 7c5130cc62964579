package journal

import (
	"context"
	"time"
)

// Journal records every completed tweak request and keeps the revert
// baselines of applied tweaks.
type Journal interface {
	Record(ctx context.Context, entry *Entry) error
	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]Entry, error)
	LoadBaseline(ctx context.Context, tweakID string) ([]byte, bool, error)
	SaveBaseline(ctx context.Context, tweakID string, data []byte) error
	ClearBaseline(ctx context.Context, tweakID string) error
	Close() error
}

// Repository defines the interface for journal storage
type Repository interface {
	Record(entry *Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
	LoadBaseline(ctx context.Context, tweakID string) ([]byte, bool, error)
	SaveBaseline(ctx context.Context, tweakID string, data []byte) error
	ClearBaseline(ctx context.Context, tweakID string) error
	Close() error
}

// Entry is one completed apply, revert, or refresh.
type Entry struct {
	RequestID string        `json:"request_id" yaml:"request_id"`
	Timestamp time.Time     `json:"timestamp" yaml:"timestamp"`
	TweakID   string        `json:"tweak_id" yaml:"tweak_id"`
	Action    string        `json:"action" yaml:"action"`
	Option    string        `json:"option,omitempty" yaml:"option,omitempty"`
	Requested bool          `json:"requested" yaml:"requested"`
	Enabled   bool          `json:"enabled" yaml:"enabled"`
	Success   bool          `json:"success" yaml:"success"`
	ErrorCode string        `json:"error_code,omitempty" yaml:"error_code,omitempty"`
	Error     string        `json:"error,omitempty" yaml:"error,omitempty"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
}
