package dsstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiagnosticSinkDropsWithNilHandler(t *testing.T) {
	sink := newDiagnosticSink(nil)
	assert.NotPanics(t, func() { sink.emit(Diagnostic{Kind: DiagOrderViolation}) })
}

func TestDiagnosticSinkCallsHandler(t *testing.T) {
	var got []Diagnostic
	sink := newDiagnosticSink(func(d Diagnostic) { got = append(got, d) })
	sink.emit(Diagnostic{Kind: DiagUnknownTOCName, Message: "hi"})
	assert.Len(t, got, 1)
	assert.Equal(t, DiagUnknownTOCName, got[0].Kind)
}

func TestDiagnosticKindString(t *testing.T) {
	assert.Equal(t, "reserved-non-zero", DiagReservedNonZero.String())
	assert.Equal(t, "unknown", DiagnosticKind(99).String())
}
