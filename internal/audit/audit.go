// Package audit records gate and policy decisions for observability. Entries
// are append-only and never influence request handling; a failed write is
// logged and dropped.
package audit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	errx "github.com/terrain-assistant/server/internal/core/error"
	logx "github.com/terrain-assistant/server/pkg/logger"
)

// Decision kinds recorded to the trail.
const (
	KindOffTopic     = "off_topic"
	KindPolicyDenied = "policy_denied"
	KindToolError    = "tool_error"
	KindModelError   = "model_error"
)

// Entry is a single audit record.
type Entry struct {
	Kind    string
	Message string
	Reason  string
}

// Recorder accepts audit entries.
type Recorder interface {
	Record(ctx context.Context, e Entry)
}

// Nop discards all entries. Used when Redis is not configured.
type Nop struct{}

func (Nop) Record(context.Context, Entry) {}

const (
	streamKey    = "terrain:audit"
	streamMaxLen = 10_000
)

// StreamRecorder appends entries to a capped Redis stream.
type StreamRecorder struct {
	rdb *redis.Client
}

func NewStreamRecorder(rdb *redis.Client) *StreamRecorder {
	return &StreamRecorder{rdb: rdb}
}

func (r *StreamRecorder) Record(ctx context.Context, e Entry) {
	err := r.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: streamKey,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]any{
			"kind":    e.Kind,
			"message": e.Message,
			"reason":  e.Reason,
			"at":      time.Now().UTC().Format(time.RFC3339),
		},
	}).Err()
	if err != nil {
		logx.Warn().Err(errx.WrapRedis(err)).Str("kind", e.Kind).Msg("Audit write failed")
	}
}
