package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// =============================================================================
// AUDIT EVENT TYPES
// =============================================================================

// AuditEventType names one kind of audit record.
type AuditEventType string

const (
	// Action lifecycle -> action_event/6
	AuditActionRoute    AuditEventType = "action_route"
	AuditActionApprove  AuditEventType = "action_approve"
	AuditActionVeto     AuditEventType = "action_veto"
	AuditActionComplete AuditEventType = "action_complete"
	AuditActionError    AuditEventType = "action_error"

	// Script runs -> script_event/5
	AuditScriptLine AuditEventType = "script_line"
	AuditScriptSkip AuditEventType = "script_skip"

	// Detection -> detect_event/4
	AuditDetectResult AuditEventType = "detect_result"
)

// AuditEvent is one JSON line in the audit trail.
type AuditEvent struct {
	Timestamp  int64                  `json:"ts"`               // Unix milliseconds
	EventType  AuditEventType         `json:"event"`            // Kind of record
	RequestID  string                 `json:"req,omitempty"`    // Request correlation
	Action     string                 `json:"action,omitempty"` // Action name
	Target     string                 `json:"target,omitempty"` // Prompt, script line or answer
	Success    bool                   `json:"success"`
	DurationMs int64                  `json:"dur_ms,omitempty"`
	Error      string                 `json:"error,omitempty"`
	Fields     map[string]interface{} `json:"fields,omitempty"`
	Fact       string                 `json:"fact"` // Predicate form of the event
}

// =============================================================================
// AUDIT LOGGER
// =============================================================================

var (
	auditOut   io.Writer
	auditClose func() error
	auditMu    sync.Mutex
	auditNow   = time.Now
)

// AuditLogger writes audit events scoped to one request.
type AuditLogger struct {
	requestID string
}

// InitAudit opens path for appending and sends audit events there. An empty
// path leaves auditing off.
func InitAudit(path string) error {
	if path == "" {
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create audit directory: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}

	auditMu.Lock()
	defer auditMu.Unlock()
	if auditClose != nil {
		_ = auditClose()
	}
	auditOut, auditClose = file, file.Close
	return nil
}

// SetAuditWriter sends audit events to w. A nil w turns auditing off.
func SetAuditWriter(w io.Writer) {
	auditMu.Lock()
	defer auditMu.Unlock()
	auditOut, auditClose = w, nil
}

// CloseAudit flushes and closes the audit log.
func CloseAudit() {
	auditMu.Lock()
	defer auditMu.Unlock()
	if auditClose != nil {
		_ = auditClose()
	}
	auditOut, auditClose = nil, nil
}

// Audit returns an unscoped audit logger.
func Audit() *AuditLogger {
	return &AuditLogger{}
}

// AuditWithRequest returns an audit logger that stamps requestID on events.
func AuditWithRequest(requestID string) *AuditLogger {
	return &AuditLogger{requestID: requestID}
}

// Log writes one event. It is a no-op while auditing is off.
func (a *AuditLogger) Log(event AuditEvent) {
	auditMu.Lock()
	defer auditMu.Unlock()
	if auditOut == nil {
		return
	}

	if event.Timestamp == 0 {
		event.Timestamp = auditNow().UnixMilli()
	}
	if event.RequestID == "" {
		event.RequestID = a.requestID
	}
	event.Fact = fact(event)

	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	_, _ = auditOut.Write(append(data, '\n'))
}

// fact renders the event as a single predicate, e.g.
// action_event(1700000000000, /action_complete, "search", "find x", true, 12).
func fact(e AuditEvent) string {
	switch e.EventType {
	case AuditActionRoute, AuditActionApprove, AuditActionVeto, AuditActionComplete, AuditActionError:
		return fmt.Sprintf("action_event(%d, /%s, %q, %q, %v, %d).",
			e.Timestamp, e.EventType, e.Action, e.Target, e.Success, e.DurationMs)
	case AuditScriptLine, AuditScriptSkip:
		return fmt.Sprintf("script_event(%d, /%s, %q, %v, %d).",
			e.Timestamp, e.EventType, e.Target, e.Success, e.DurationMs)
	case AuditDetectResult:
		score, _ := e.Fields["score"].(float64)
		return fmt.Sprintf("detect_event(%d, %q, %.2f, %v).",
			e.Timestamp, e.Target, score, e.Success)
	default:
		return fmt.Sprintf("audit_event(%d, /%s, %q, %v).",
			e.Timestamp, e.EventType, e.Target, e.Success)
	}
}

// =============================================================================
// CONVENIENCE METHODS
// =============================================================================

// ActionRoute records that prompt was routed to action.
func (a *AuditLogger) ActionRoute(action, prompt string) {
	a.Log(AuditEvent{EventType: AuditActionRoute, Action: action, Target: prompt, Success: true})
}

// ActionApproval records the approval gate's decision.
func (a *AuditLogger) ActionApproval(action, prompt, risk string, approved bool) {
	event := AuditActionApprove
	if !approved {
		event = AuditActionVeto
	}
	a.Log(AuditEvent{
		EventType: event,
		Action:    action,
		Target:    prompt,
		Success:   approved,
		Fields:    map[string]interface{}{"risk": risk},
	})
}

// ActionComplete records the end of an invocation.
func (a *AuditLogger) ActionComplete(action, prompt string, durationMs int64, err error) {
	e := AuditEvent{
		EventType:  AuditActionComplete,
		Action:     action,
		Target:     prompt,
		Success:    err == nil,
		DurationMs: durationMs,
	}
	if err != nil {
		e.EventType = AuditActionError
		e.Error = err.Error()
	}
	a.Log(e)
}

// ScriptLine records one script line and whether it ran.
func (a *AuditLogger) ScriptLine(line string, ran bool, durationMs int64) {
	event := AuditScriptLine
	if !ran {
		event = AuditScriptSkip
	}
	a.Log(AuditEvent{EventType: event, Target: line, Success: ran, DurationMs: durationMs})
}

// DetectResult records a hallucination assessment.
func (a *AuditLogger) DetectResult(answer string, score float64, flagged bool) {
	a.Log(AuditEvent{
		EventType: AuditDetectResult,
		Target:    answer,
		Success:   !flagged,
		Fields:    map[string]interface{}{"score": score},
	})
}
