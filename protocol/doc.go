// Package protocol implements the line-oriented ASCII command protocol spoken by
// NV200/D_NET piezo controllers.
//
// A command is the command name optionally followed by comma-separated arguments,
// terminated by a carriage return:
//
//	set,40.0<CR>
//
// The device echoes the command name back, followed by the comma-separated
// parameter values and a line feed:
//
//	set,40.000<LF>
//
// Device-reported faults share the same framing with the literal "error" token in
// place of the command name, followed by a numeric error code:
//
//	error,2<LF>
//
// When software flow control is active on the serial link, XON/XOFF bytes may
// appear anywhere in a response. Decode strips them, together with NUL bytes and
// line terminators, so they never leak into parameter values.
package protocol
