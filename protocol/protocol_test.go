package protocol

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name     string
		cmd      string
		args     []string
		expected string
	}{
		{name: "no args", cmd: "cl", expected: "cl\r"},
		{name: "single arg", cmd: "set", args: []string{"40.5"}, expected: "set,40.5\r"},
		{name: "multiple args", cmd: "recsrc", args: []string{"0", "2"}, expected: "recsrc,0,2\r"},
		{name: "empty command", cmd: "", expected: "\r"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, []byte(tt.expected), Encode(tt.cmd, tt.args...))
		})
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		cmd        string
		parameters []string
	}{
		{name: "single value", raw: "set,40.500\r\n", cmd: "set", parameters: []string{"40.500"}},
		{name: "multiple values", raw: "recsrc,0,2\r\n", cmd: "recsrc", parameters: []string{"0", "2"}},
		{name: "no parameters", raw: "NV200/D_NET\r\n", cmd: "NV200/D_NET", parameters: nil},
		{name: "xon terminated", raw: "cl,1\r\x11", cmd: "cl", parameters: []string{"1"}},
		{name: "nul padding", raw: "\x00meas,12.34\r\n", cmd: "meas", parameters: []string{"12.34"}},
		{name: "unit with unicode", raw: "unitcl,µm\r\n", cmd: "unitcl", parameters: []string{"µm"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := Decode([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.cmd, resp.Command)
			assert.Equal(t, tt.parameters, resp.Parameters)
		})
	}
}

func TestDecodeDeviceError(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		code ErrorCode
	}{
		{name: "unknown command", raw: "error,2\r\n", code: ErrorUnknownCommand},
		{name: "out of range", raw: "error,4\r\x11", code: ErrorParameterOutOfRange},
		{name: "missing code", raw: "error\r\n", code: ErrorUnspecified},
		{name: "garbage code", raw: "error,xyz\r\n", code: ErrorUnspecified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := Decode([]byte(tt.raw))
			require.Error(t, err)
			assert.Nil(t, resp)

			var devErr *DeviceError
			require.True(t, errors.As(err, &devErr))
			assert.Equal(t, tt.code, devErr.Code)
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	frame := Encode("gparb", "512", "37.25")
	resp, err := Decode(append(frame, LF))
	require.NoError(t, err)
	assert.Equal(t, "gparb", resp.Command)
	assert.Equal(t, []string{"512", "37.25"}, resp.Parameters)
}

func TestErrorCodeDescription(t *testing.T) {
	assert.Equal(t, "unknown command", ErrorUnknownCommand.Description())
	assert.Equal(t, "overload", ErrorOverload.Description())
	assert.Equal(t, "unknown error code", ErrorCode(42).Description())
}

func TestDeviceErrorMessage(t *testing.T) {
	err := &DeviceError{Code: ErrorParameterTooHigh}
	assert.Equal(t, "device error 10 (parameter too high)", err.Error())
}
