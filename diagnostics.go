package dsstore

import "github.com/sirupsen/logrus"

// DiagnosticKind classifies a non-fatal anomaly surfaced during a read or
// write.
type DiagnosticKind int

const (
	DiagReservedNonZero DiagnosticKind = iota
	DiagUnknownTOCName
	DiagOrderViolation
	DiagInternalOrderViolation
)

func (k DiagnosticKind) String() string {
	switch k {
	case DiagReservedNonZero:
		return "reserved-non-zero"
	case DiagUnknownTOCName:
		return "unknown-toc-name"
	case DiagOrderViolation:
		return "order-violation"
	case DiagInternalOrderViolation:
		return "internal-order-violation"
	default:
		return "unknown"
	}
}

// Diagnostic is one non-fatal anomaly reported through the handler:
// unknown table-of-contents names, reserved non-zero bytes, out-of-order
// leaf records.
type Diagnostic struct {
	Kind    DiagnosticKind
	Message string
}

// DiagnosticHandler receives diagnostics emitted during a single Read or
// Write call. It is threaded through the call graph as an explicit
// parameter rather than a package-global, and must never panic.
type DiagnosticHandler func(Diagnostic)

// diagnosticSink adapts an optional DiagnosticHandler into something the
// internal parse/build code can call unconditionally; a nil handler
// silently drops diagnostics.
type diagnosticSink struct {
	handler DiagnosticHandler
}

func newDiagnosticSink(h DiagnosticHandler) diagnosticSink {
	return diagnosticSink{handler: h}
}

func (s diagnosticSink) emit(d Diagnostic) {
	if s.handler != nil {
		s.handler(d)
	}
}

// DefaultDiagnosticLogger returns a DiagnosticHandler that logs each
// diagnostic as a structured line via the given logrus entry, for callers
// that want visibility into anomalies without writing their own handler.
func DefaultDiagnosticLogger(log *logrus.Entry) DiagnosticHandler {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return func(d Diagnostic) {
		log.WithField("kind", d.Kind.String()).Warn(d.Message)
	}
}
