package protocol

import (
	"strconv"
	"strings"
)

// Framing bytes of the NV200 wire protocol.
const (
	// CR terminates a command sent to the device.
	CR = '\r'
	// LF terminates a response line sent by the device.
	LF = '\n'
	// XON is emitted by the device after each response when software flow
	// control is active on the serial link.
	XON = 0x11
	// XOFF may be emitted by the device while it is busy processing a command.
	XOFF = 0x13
)

// ErrorToken is the command token the device echoes on a fault response.
const ErrorToken = "error"

// ctlCutset contains every byte that must never leak into a command token or
// parameter value: soft flow-control bytes, NUL padding and line terminators.
const ctlCutset = "\x11\x13\x00\r\n"

// Response is a decoded device response: the echoed command name and the
// ordered list of parameter values.
type Response struct {
	Command    string
	Parameters []string
}

// Encode builds the wire representation of a command: the command name and its
// arguments joined by commas, terminated by CR.
func Encode(cmd string, args ...string) []byte {
	var sb strings.Builder
	sb.Grow(len(cmd) + 16)
	sb.WriteString(cmd)
	for _, arg := range args {
		sb.WriteByte(',')
		sb.WriteString(arg)
	}
	sb.WriteByte(CR)

	return []byte(sb.String())
}

// Decode parses a raw response line into a Response.
//
// If the line is a device fault ("error,<code>"), Decode returns a *DeviceError
// carrying the parsed error code. A missing or non-numeric code falls back to
// ErrorUnspecified, matching the firmware's own convention.
func Decode(raw []byte) (*Response, error) {
	line := string(raw)

	cmd, rest, hasParams := strings.Cut(line, ",")
	cmd = strings.TrimSpace(strings.Trim(cmd, ctlCutset))

	if cmd == ErrorToken {
		code := ErrorUnspecified
		if hasParams {
			if n, err := strconv.Atoi(strings.Trim(rest, ctlCutset)); err == nil {
				code = ErrorCode(n)
			}
		}
		return nil, &DeviceError{Code: code}
	}

	resp := &Response{Command: cmd}
	if hasParams {
		fields := strings.Split(rest, ",")
		resp.Parameters = make([]string, len(fields))
		for i, f := range fields {
			resp.Parameters[i] = strings.Trim(f, ctlCutset)
		}
	}

	return resp, nil
}
