package logging

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EnvMutationRecord is one applied environment mutation, as it appears in the
// audit log. Old values are recorded by length and hash only; PATH contents
// can be long and occasionally sensitive, and the hash is enough to tell
// whether the value changed between runs.
type EnvMutationRecord struct {
	RunID      string
	Component  string
	Variable   string
	Scope      string
	Policy     string
	OldValue   string
	NewValue   string
	Downgraded bool
}

// AuditLogger appends human-readable environment-mutation records to a file.
// It is write-only from the orchestrator's perspective: rigup never reads the
// audit log back.
type AuditLogger struct {
	mu   sync.Mutex
	file *os.File
	now  func() time.Time
}

// AuditLoggerConfig configures audit logging.
type AuditLoggerConfig struct {
	Enabled bool
	File    string
}

// NewAuditLogger opens the audit file for appending. A disabled config or an
// unopenable file yields a no-op logger; auditing must never block an
// installation run.
func NewAuditLogger(cfg AuditLoggerConfig) *AuditLogger {
	a := &AuditLogger{now: time.Now}
	if !cfg.Enabled || cfg.File == "" {
		return a
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o750); err != nil {
		return a
	}
	f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, logFileMode)
	if err != nil {
		return a
	}
	a.file = f
	return a
}

// Enabled reports whether records will actually be written.
func (a *AuditLogger) Enabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.file != nil
}

// Record appends one mutation record. Errors are swallowed: the audit log is
// best-effort by design and a full disk must not fail the run.
func (a *AuditLogger) Record(rec EnvMutationRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file == nil {
		return
	}
	line := fmt.Sprintf(
		"%s run=%s component=%s var=%s scope=%s policy=%s old_len=%d old_sha=%s new=%q downgraded=%t\n",
		a.now().UTC().Format(time.RFC3339),
		rec.RunID, rec.Component, rec.Variable, rec.Scope, rec.Policy,
		len(rec.OldValue), shortHash(rec.OldValue), rec.NewValue, rec.Downgraded,
	)
	_, _ = a.file.WriteString(line)
}

// Close releases the audit file handle.
func (a *AuditLogger) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file == nil {
		return nil
	}
	err := a.file.Close()
	a.file = nil
	return err
}

// shortHash returns the first 8 hex characters of the SHA-256 of s, or "-"
// for the empty string.
func shortHash(s string) string {
	if s == "" {
		return "-"
	}
	sum := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", sum[:4])
}

type auditKey struct{}

// ContextWithAuditLogger attaches an audit logger to ctx.
func ContextWithAuditLogger(ctx context.Context, a *AuditLogger) context.Context {
	return context.WithValue(ctx, auditKey{}, a)
}

// AuditLoggerFromContext returns the audit logger on ctx, or a no-op logger
// when none is attached.
func AuditLoggerFromContext(ctx context.Context) *AuditLogger {
	if a, ok := ctx.Value(auditKey{}).(*AuditLogger); ok && a != nil {
		return a
	}
	return &AuditLogger{now: time.Now}
}
