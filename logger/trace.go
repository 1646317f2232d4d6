package logger

import (
	"strings"
	"sync/atomic"
)

// tracingEnabled gates the helpers below so that formatting and the
// goroutine-ID lookup cost nothing unless gate/HTTP tracing has
// actually been requested (via EnableTracing, wired to the TRACE log
// level in main.go).
var tracingEnabled atomic.Bool

// EnableTracing turns the gate/HTTP trace helpers on or off.
func EnableTracing(enabled bool) {
	tracingEnabled.Store(enabled)
	if enabled {
		Info("gate and HTTP tracing enabled")
	} else {
		Info("gate and HTTP tracing disabled")
	}
}

// IsTracingEnabled reports whether the gate/HTTP trace helpers are active.
func IsTracingEnabled() bool {
	return tracingEnabled.Load()
}

// GateState names one of the states the shard gate's three-state
// serializer (§4.3.1) moves between: the outer RWMutex's two sides, and
// the inner readOps/writeOps counters that arbitrate within the shared
// side.
type GateState string

const (
	// GateBulkExclusive is the outer gate held exclusively, for the
	// duration of Generate/Load/Clear.
	GateBulkExclusive GateState = "bulk_exclusive"

	// GateShared is the outer gate held for reading, by point
	// operations, Save, and AcquireScan.
	GateShared GateState = "shared"

	// GateReaders is the readOps counter, incremented by beginRead and
	// decremented by endRead.
	GateReaders GateState = "readers"

	// GateWriters is the writeOps counter, incremented by beginWrite
	// and decremented by endWrite.
	GateWriters GateState = "writers"
)

// LogGateOp traces a transition of one of the gate's states. For the
// counted states (GateReaders/GateWriters) counterValue is the
// readOps/writeOps value immediately after the transition, so a
// goroutine stuck waiting on the other counter to reach zero shows up
// here as a value that never returns to 0.
func LogGateOp(state GateState, phase string, counterValue int64) {
	if !IsTracingEnabled() {
		return
	}
	Trace("[GATE_%s] state=%s goroutine=%d value=%d",
		strings.ToUpper(phase), state, getGoroutineID(), counterValue)
}

// LogHTTPAccept logs when a connection is accepted.
func LogHTTPAccept(localAddr, remoteAddr string) {
	if !IsTracingEnabled() {
		return
	}
	Trace("[HTTP_ACCEPT] local=%s remote=%s goroutine=%d", localAddr, remoteAddr, getGoroutineID())
}

// LogHTTPHandler logs when a route handler starts or ends.
func LogHTTPHandler(traceID, method, path, phase string) {
	if !IsTracingEnabled() {
		return
	}
	Trace("[HTTP_HANDLER_%s] method=%s path=%s goroutine=%d traceID=%s",
		strings.ToUpper(phase), method, path, getGoroutineID(), traceID)
}
