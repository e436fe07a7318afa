// Package audit records every login attempt as write-only telemetry. Records
// land in the audit KV namespace with a 30-day TTL and, when a broker is
// configured, are also published to RabbitMQ. The application never reads
// them back.
package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shinelstudios/website-sub000/internal/logger"
	"github.com/shinelstudios/website-sub000/internal/store"
)

const recordTTL = 30 * 24 * time.Hour

// Record is a single audit entry. Keys are time+kind+ipHash so records are
// write-once.
type Record struct {
	When    time.Time `json:"when"`
	Kind    string    `json:"kind"`
	Email   string    `json:"email,omitempty"`
	Success bool      `json:"success"`
	IPHash  string    `json:"ipHash"`
	Reason  string    `json:"reason,omitempty"`
}

// Publisher fans an audit record out to a message broker. Optional.
type Publisher interface {
	PublishAudit(ctx context.Context, rec Record) error
}

// Log writes audit records. Failures are logged and swallowed: telemetry
// must never fail a login request.
type Log struct {
	kv        store.KV
	publisher Publisher
	now       func() time.Time
}

// NewLog builds an audit log over the given KV namespace. publisher may be
// nil when no broker is configured.
func NewLog(kv store.KV, publisher Publisher) *Log {
	return &Log{kv: kv, publisher: publisher, now: time.Now}
}

// SetClock overrides the time source. Test helper.
func (l *Log) SetClock(now func() time.Time) { l.now = now }

// HashIP returns the sha256 hex digest of a caller IP. Raw addresses are
// never persisted.
func HashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:])
}

// LoginAttempt records the outcome of one login attempt. reason is only for
// the audit trail; it must never reach the client response.
func (l *Log) LoginAttempt(ctx context.Context, email, ip string, success bool, reason string) {
	rec := Record{
		When:    l.now().UTC(),
		Kind:    "login",
		Email:   email,
		Success: success,
		IPHash:  HashIP(ip),
		Reason:  reason,
	}
	l.write(ctx, rec)
}

func (l *Log) write(ctx context.Context, rec Record) {
	raw, err := json.Marshal(rec)
	if err != nil {
		logger.WithField("err", err).Warn("audit: marshal failed")
		return
	}
	key := fmt.Sprintf("%s:%s:%s", rec.When.Format(time.RFC3339Nano), rec.Kind, rec.IPHash)
	if err := l.kv.Set(ctx, key, raw, recordTTL); err != nil {
		logger.WithField("err", err).Warn("audit: write failed")
	}
	if l.publisher != nil {
		if err := l.publisher.PublishAudit(ctx, rec); err != nil {
			logger.WithField("err", err).Warn("audit: publish failed")
		}
	}
}
