package protocol

import "fmt"

// ErrorCode is a numeric fault code reported by the device on an "error,<code>"
// response line.
type ErrorCode int

// Error codes reported by NV200/D_NET firmware.
const (
	// ErrorUnspecified is the fallback code used when the device reports a
	// fault without a parsable numeric code.
	ErrorUnspecified ErrorCode = 1
	// ErrorUnknownCommand indicates the command name was not recognized.
	ErrorUnknownCommand ErrorCode = 2
	// ErrorParameterMissing indicates a required parameter was absent.
	ErrorParameterMissing ErrorCode = 3
	// ErrorParameterOutOfRange indicates the admissible parameter range was exceeded.
	ErrorParameterOutOfRange ErrorCode = 4
	// ErrorParameterCountExceeded indicates too many parameters were supplied.
	ErrorParameterCountExceeded ErrorCode = 5
	// ErrorParameterReadOnly indicates an attempt to write a read-only parameter.
	ErrorParameterReadOnly ErrorCode = 6
	// ErrorUnderload indicates an actuator underload condition.
	ErrorUnderload ErrorCode = 7
	// ErrorOverload indicates an actuator overload condition.
	ErrorOverload ErrorCode = 8
	// ErrorParameterTooLow indicates the parameter value was below the limit.
	ErrorParameterTooLow ErrorCode = 9
	// ErrorParameterTooHigh indicates the parameter value was above the limit.
	ErrorParameterTooHigh ErrorCode = 10
)

var errorDescriptions = map[ErrorCode]string{
	ErrorUnspecified:            "error not specified",
	ErrorUnknownCommand:         "unknown command",
	ErrorParameterMissing:       "parameter missing",
	ErrorParameterOutOfRange:    "admissible parameter range exceeded",
	ErrorParameterCountExceeded: "parameter count exceeded",
	ErrorParameterReadOnly:      "parameter is read-only",
	ErrorUnderload:              "underload",
	ErrorOverload:               "overload",
	ErrorParameterTooLow:        "parameter too low",
	ErrorParameterTooHigh:       "parameter too high",
}

// Description returns the human-readable description of the error code.
func (c ErrorCode) Description() string {
	if desc, ok := errorDescriptions[c]; ok {
		return desc
	}
	return "unknown error code"
}

// String implements fmt.Stringer.
func (c ErrorCode) String() string {
	return fmt.Sprintf("%d (%s)", int(c), c.Description())
}

// DeviceError is a structured fault reported by the device on an error
// response line. It is always surfaced to the caller and never retried
// automatically.
type DeviceError struct {
	Code ErrorCode
}

// Error implements the error interface.
func (e *DeviceError) Error() string {
	return fmt.Sprintf("device error %s", e.Code)
}
