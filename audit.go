package goAdmin

import (
	"context"
	"time"

	"github.com/MrEthical07/goAdmin/internal/audit"
	"github.com/google/uuid"
)

type (
	AuditEvent     = audit.Event
	AuditSink      = audit.Sink
	NoOpSink       = audit.NoOpSink
	ChannelSink    = audit.ChannelSink
	JSONWriterSink = audit.JSONWriterSink
	SlogSink       = audit.SlogSink
	MultiSink      = audit.MultiSink
)

var (
	NewChannelSink    = audit.NewChannelSink
	NewJSONWriterSink = audit.NewJSONWriterSink
	NewSlogSink       = audit.NewSlogSink
)

const (
	auditEventLoginOTPRequired = "login_otp_required"
	auditEventLoginFailure     = "login_failure"
	auditEventLoginLocked      = "login_locked"
	auditEventLoginRefused     = "login_refused_locked"
	auditEventOTPSuccess       = "otp_success"
	auditEventOTPFailure       = "otp_failure"
	auditEventLogout           = "logout"
	auditEventForcedLogout     = "forced_logout"
)

// auditRecord is the per-call part of an event; the emitter fills in id,
// time and namespace.
type auditRecord struct {
	eventType string
	loginType LoginType
	email     string
	userID    int64
	success   bool
	err       error
	metadata  func() map[string]string
}

type auditEmitter struct {
	dispatcher *audit.Dispatcher
	namespace  string
	now        func() time.Time
}

func (a auditEmitter) emit(ctx context.Context, r auditRecord) {
	if a.dispatcher == nil {
		return
	}
	e := audit.Event{
		ID:        uuid.NewString(),
		Timestamp: a.now().UTC(),
		EventType: r.eventType,
		LoginType: string(r.loginType),
		Email:     r.email,
		UserID:    r.userID,
		Namespace: a.namespace,
		Success:   r.success,
	}
	if r.err != nil {
		e.Error = r.err.Error()
	}
	if r.metadata != nil {
		e.Metadata = r.metadata()
	}
	a.dispatcher.Emit(ctx, e)
}
