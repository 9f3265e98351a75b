// Package nv200 provides the command client for NV200/D_NET piezo controllers.
//
// A Device wraps exactly one transport for its lifetime and is the single point
// through which all commands flow. The firmware services one command at a time,
// so the client serializes requests internally; callers sharing one Device across
// goroutines get strict request ordering for free.
//
// Two request styles are offered, mirroring the two ways the firmware is used:
//
//   - Write is best-effort fire-and-forget: it sends a command and waits a short
//     default timeout for the acknowledgment. Timing out is not an error; the
//     acknowledgment is simply dropped.
//   - Read and its typed variants depend on the response value, so timing out
//     there fails with ErrTimeout.
//
// On top of the raw request primitives the package offers typed accessors for
// the controller's parameter catalog: PID loop mode, setpoint, modulation
// source, motion and voltage ranges, units, the status register, actuator
// identity, slew rate and the setpoint low-pass filter, plus INI-based
// actuator configuration export/import.
package nv200
