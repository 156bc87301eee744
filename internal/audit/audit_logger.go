package audit

import "context"

// Logger is the write side of the audit trail. Log never fails from the
// caller's point of view: a write error is logged and dropped so auditing
// cannot block the operation being audited.
//
//go:generate mockgen -source=audit_logger.go -destination=mock/audit_logger_mock.go -package=mock
type Logger interface {
	Log(ctx context.Context, entry Entry)
}

type nopLogger struct{}

func (nopLogger) Log(context.Context, Entry) {}

// NopLogger is used by background processes that do not record audit rows.
func NopLogger() Logger {
	return nopLogger{}
}
