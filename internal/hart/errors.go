package hart

import "fmt"

// ExceptionError represents an architectural trap (§7). It is distinct from
// plumbing errors (config, remap, save/restore), which use plain
// fmt.Errorf/%w instead, so callers can errors.As this one type and hand it
// to the Trap Engine rather than aborting. Grounded on
// _teacher_rv64/cpu.go's ExceptionError, extended with a Guest flag for the
// tval2/GVA bookkeeping the teacher never needed.
type ExceptionError struct {
	Cause uint64
	Tval  uint64

	// Guest is set when the fault carries a guest-physical address in
	// Tval2 rather than a guest-virtual one in Tval (§4.4 item 6).
	Guest bool
	Tval2 uint64
	Tinst uint64
}

func (e ExceptionError) Error() string {
	return fmt.Sprintf("exception: cause=%d tval=0x%x", e.Cause, e.Tval)
}

// Exception creates a plain architectural exception.
func Exception(cause, tval uint64) error {
	return ExceptionError{Cause: cause, Tval: tval}
}

// GuestException creates an architectural exception carrying a guest
// second-stage fault address (§4.4 item 5, §12 "Guest-physical-address
// double-fault handling").
func GuestException(cause, tval, tval2, tinst uint64) error {
	return ExceptionError{Cause: cause, Tval: tval, Guest: true, Tval2: tval2, Tinst: tinst}
}

// IsInterrupt reports whether cause has the interrupt bit set.
func IsInterrupt(cause uint64) bool { return cause&intBit != 0 }

// ExceptionCode strips the interrupt bit from cause.
func ExceptionCode(cause uint64) uint64 { return cause &^ intBit }

// errFatalConfig wraps an unrecoverable configuration error (§7
// "FatalConfig" — aborts emulation, e.g. an invalid CSR remap string).
type errFatalConfig struct {
	msg string
	err error
}

func (e *errFatalConfig) Error() string {
	if e.err != nil {
		return fmt.Sprintf("fatal config: %s: %v", e.msg, e.err)
	}
	return fmt.Sprintf("fatal config: %s", e.msg)
}

func (e *errFatalConfig) Unwrap() error { return e.err }

func fatalConfig(msg string, err error) error {
	return &errFatalConfig{msg: msg, err: err}
}

// errNotHalted is returned by the debug-module sideband CSR access path
// when called while the hart isn't actually halted in Debug mode.
var errNotHalted = fmt.Errorf("hart is not halted in debug mode")
