package kotatsu

import (
	"context"
	"errors"
	"time"

	"github.com/LanaDelRey07/Kotatsu/token"
)

const (
	auditEventFlowStarted     = "flow_started"
	auditEventFlowUnsupported = "flow_unsupported"
	auditEventPageLoaded      = "page_loaded"
	auditEventBackNavigation  = "back_navigation"
	auditEventFlowAuthorized  = "flow_authorized"
	auditEventFlowCancelled   = "flow_cancelled"
)

// AuditErrorCode defines a public type used by kotatsu APIs.
//
// AuditErrorCode instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditErrorCode string

const (
	auditErrSourceNotFound     AuditErrorCode = "source_not_found"
	auditErrAuthNotSupported   AuditErrorCode = "auth_not_supported"
	auditErrAuthURLMissing     AuditErrorCode = "auth_url_missing"
	auditErrBrowserUnavailable AuditErrorCode = "browser_unavailable"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	flowID string,
	sourceID string,
	url string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		FlowID:    flowID,
		SourceID:  sourceID,
		URL:       url,
		Locale:    localeFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrSourceNotFound):
		return auditErrSourceNotFound
	case errors.Is(err, ErrAuthNotSupported):
		return auditErrAuthNotSupported
	case errors.Is(err, ErrAuthURLMissing):
		return auditErrAuthURLMissing
	case errors.Is(err, ErrBrowserUnavailable):
		return auditErrBrowserUnavailable
	case errors.Is(err, ErrCookieBackend),
		errors.Is(err, ErrTokenBackend),
		errors.Is(err, token.ErrBackend):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
