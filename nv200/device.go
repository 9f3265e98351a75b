package nv200

import (
	"context"
	"strconv"
)

// DeviceIDPrefix is the identity prefix an NV200/D_NET controller reports in
// response to an empty command line.
const DeviceIDPrefix = "NV200"

// PidLoopMode selects between open-loop (voltage-driven) and closed-loop
// (position-feedback-driven) operation.
type PidLoopMode int

const (
	// OpenLoop drives the actuator by piezo voltage.
	OpenLoop PidLoopMode = 0
	// ClosedLoop drives the actuator by position feedback.
	ClosedLoop PidLoopMode = 1
)

// String implements fmt.Stringer.
func (m PidLoopMode) String() string {
	if m == ClosedLoop {
		return "closed loop"
	}
	return "open loop"
}

// ModulationSource selects where the controller takes its setpoint from.
type ModulationSource int

const (
	// ModSrcSetCommand modulates the setpoint from set commands (USB/Ethernet).
	ModSrcSetCommand ModulationSource = 0
	// ModSrcAnalogIn modulates the setpoint from the analog input.
	ModSrcAnalogIn ModulationSource = 1
	// ModSrcSPI modulates the setpoint from the SPI interface.
	ModSrcSPI ModulationSource = 2
	// ModSrcWaveformGenerator modulates the setpoint from the arbitrary
	// waveform generator.
	ModSrcWaveformGenerator ModulationSource = 3
)

// SPIMonitorSource selects the value the controller returns on SPI MISO.
type SPIMonitorSource int

const (
	SPIMonitorZero             SPIMonitorSource = 0
	SPIMonitorPosition         SPIMonitorSource = 1
	SPIMonitorSetpoint         SPIMonitorSource = 2
	SPIMonitorPiezoVoltage     SPIMonitorSource = 3
	SPIMonitorPositionError    SPIMonitorSource = 4
	SPIMonitorAbsPositionError SPIMonitorSource = 5
	SPIMonitorPositionOpenLoop SPIMonitorSource = 6
	SPIMonitorPiezoCurrent1    SPIMonitorSource = 7
	SPIMonitorPiezoCurrent2    SPIMonitorSource = 8
	SPIMonitorTestValue        SPIMonitorSource = 9
)

// DeviceID queries the controller's identity string, e.g. "NV200/D_NET".
func (d *Device) DeviceID(ctx context.Context) (string, error) {
	resp, err := d.ReadResponse(ctx, "", 0)
	if err != nil {
		return "", err
	}

	return resp.Command, nil
}

// SetPIDMode sets the PID loop mode to open loop or closed loop.
func (d *Device) SetPIDMode(ctx context.Context, mode PidLoopMode) error {
	_, err := d.Write(ctx, "cl", strconv.Itoa(int(mode)))
	return err
}

// PIDMode retrieves the current PID loop mode.
func (d *Device) PIDMode(ctx context.Context) (PidLoopMode, error) {
	v, err := d.ReadIntValue(ctx, "cl", 0)
	return PidLoopMode(v), err
}

// SetModulationSource sets the setpoint modulation source.
func (d *Device) SetModulationSource(ctx context.Context, src ModulationSource) error {
	_, err := d.Write(ctx, "modsrc", strconv.Itoa(int(src)))
	return err
}

// ModulationSource retrieves the current setpoint modulation source.
func (d *Device) ModulationSource(ctx context.Context) (ModulationSource, error) {
	v, err := d.ReadIntValue(ctx, "modsrc", 0)
	return ModulationSource(v), err
}

// SetSPIMonitorSource sets the source of the value returned via SPI MISO.
func (d *Device) SetSPIMonitorSource(ctx context.Context, src SPIMonitorSource) error {
	_, err := d.Write(ctx, "spisrc", strconv.Itoa(int(src)))
	return err
}

// SPIMonitorSource retrieves the source of the value returned via SPI MISO.
func (d *Device) SPIMonitorSource(ctx context.Context) (SPIMonitorSource, error) {
	v, err := d.ReadIntValue(ctx, "spisrc", 0)
	return SPIMonitorSource(v), err
}

// SetSetpoint sets the target: a voltage in open loop, a position in closed loop.
func (d *Device) SetSetpoint(ctx context.Context, setpoint float64) error {
	_, err := d.Write(ctx, "set", formatFloat(setpoint))
	return err
}

// Setpoint retrieves the current setpoint.
func (d *Device) Setpoint(ctx context.Context) (float64, error) {
	return d.ReadFloatValue(ctx, "set", 0)
}

// Move moves the actuator to the given target: a position in closed loop, a
// voltage in open loop.
func (d *Device) Move(ctx context.Context, target float64) error {
	if err := d.SetModulationSource(ctx, ModSrcSetCommand); err != nil {
		return err
	}

	return d.SetSetpoint(ctx, target)
}

// MoveToPosition switches to closed loop and moves to the given position.
func (d *Device) MoveToPosition(ctx context.Context, position float64) error {
	if err := d.SetPIDMode(ctx, ClosedLoop); err != nil {
		return err
	}

	return d.Move(ctx, position)
}

// MoveToVoltage switches to open loop and moves to the given piezo voltage.
func (d *Device) MoveToVoltage(ctx context.Context, voltage float64) error {
	if err := d.SetPIDMode(ctx, OpenLoop); err != nil {
		return err
	}

	return d.Move(ctx, voltage)
}

// CurrentPosition retrieves the measured value: the position in actuator units
// (µm or mrad) for actuators with a sensor, the piezo voltage otherwise.
func (d *Device) CurrentPosition(ctx context.Context) (float64, error) {
	return d.ReadFloatValue(ctx, "meas", 0)
}

// MinPosition retrieves the lower motion range limit.
func (d *Device) MinPosition(ctx context.Context) (float64, error) {
	return d.ReadFloatValue(ctx, "posmin", 0)
}

// MaxPosition retrieves the upper motion range limit.
func (d *Device) MaxPosition(ctx context.Context) (float64, error) {
	return d.ReadFloatValue(ctx, "posmax", 0)
}

// PositionRange retrieves the closed-loop motion range as (min, max).
func (d *Device) PositionRange(ctx context.Context) (float64, float64, error) {
	minPos, err := d.MinPosition(ctx)
	if err != nil {
		return 0, 0, err
	}
	maxPos, err := d.MaxPosition(ctx)
	if err != nil {
		return 0, 0, err
	}

	return minPos, maxPos, nil
}

// MinVoltage retrieves the lower piezo voltage limit.
func (d *Device) MinVoltage(ctx context.Context) (float64, error) {
	return d.ReadFloatValue(ctx, "avmin", 0)
}

// MaxVoltage retrieves the upper piezo voltage limit.
func (d *Device) MaxVoltage(ctx context.Context) (float64, error) {
	return d.ReadFloatValue(ctx, "avmax", 0)
}

// VoltageRange retrieves the open-loop voltage range as (min, max).
func (d *Device) VoltageRange(ctx context.Context) (float64, float64, error) {
	minV, err := d.MinVoltage(ctx)
	if err != nil {
		return 0, 0, err
	}
	maxV, err := d.MaxVoltage(ctx)
	if err != nil {
		return 0, 0, err
	}

	return minV, maxV, nil
}

// SetpointRange retrieves the admissible setpoint range: the position range in
// closed loop, the voltage range in open loop.
func (d *Device) SetpointRange(ctx context.Context) (float64, float64, error) {
	mode, err := d.PIDMode(ctx)
	if err != nil {
		return 0, 0, err
	}
	if mode == ClosedLoop {
		return d.PositionRange(ctx)
	}

	return d.VoltageRange(ctx)
}

// PositionUnit retrieves the closed-loop unit, typically "µm" for linear
// actuators or "mrad" for tilting actuators.
func (d *Device) PositionUnit(ctx context.Context) (string, error) {
	return d.ReadStringValue(ctx, "unitcl")
}

// VoltageUnit retrieves the open-loop unit, typically "V".
func (d *Device) VoltageUnit(ctx context.Context) (string, error) {
	return d.ReadStringValue(ctx, "unitol")
}

// SetpointUnit retrieves the unit of the current setpoint: the position unit
// in closed loop, the voltage unit in open loop.
func (d *Device) SetpointUnit(ctx context.Context) (string, error) {
	mode, err := d.PIDMode(ctx)
	if err != nil {
		return "", err
	}
	if mode == ClosedLoop {
		return d.PositionUnit(ctx)
	}

	return d.VoltageUnit(ctx)
}

// HeatSinkTemperature retrieves the heat sink temperature in degrees Celsius.
func (d *Device) HeatSinkTemperature(ctx context.Context) (float64, error) {
	return d.ReadFloatValue(ctx, "temp", 0)
}

// StatusRegister retrieves a snapshot of the controller's status register.
func (d *Device) StatusRegister(ctx context.Context) (StatusRegister, error) {
	v, err := d.ReadIntValue(ctx, "stat", 0)
	return StatusRegister(v), err
}

// IsStatusFlagSet reads the status register and tests a single flag.
func (d *Device) IsStatusFlagSet(ctx context.Context, flag StatusFlag) (bool, error) {
	reg, err := d.StatusRegister(ctx)
	if err != nil {
		return false, err
	}

	return reg.HasFlag(flag), nil
}

// ActuatorName retrieves the name of the connected actuator.
func (d *Device) ActuatorName(ctx context.Context) (string, error) {
	return d.ReadStringValue(ctx, "desc")
}

// ActuatorSerialNumber retrieves the serial number of the connected actuator.
func (d *Device) ActuatorSerialNumber(ctx context.Context) (string, error) {
	return d.ReadStringValue(ctx, "acserno")
}

// ActuatorDescription retrieves the actuator type and serial number combined,
// e.g. "TRITOR100SG #85533".
func (d *Device) ActuatorDescription(ctx context.Context) (string, error) {
	name, err := d.ActuatorName(ctx)
	if err != nil {
		return "", err
	}
	serial, err := d.ActuatorSerialNumber(ctx)
	if err != nil {
		return "", err
	}

	return name + " #" + serial, nil
}

// SlewRate retrieves the slew rate limit in %/ms.
func (d *Device) SlewRate(ctx context.Context) (float64, error) {
	return d.ReadFloatValue(ctx, "sr", 0)
}

// SetSlewRate sets the slew rate limit, 0.0000008 to 2000.0 %/ms
// (2000 = disabled).
func (d *Device) SetSlewRate(ctx context.Context, rate float64) error {
	_, err := d.Write(ctx, "sr", formatFloat(rate))
	return err
}

// EnableSetpointLowpassFilter enables or disables the setpoint low-pass filter.
func (d *Device) EnableSetpointLowpassFilter(ctx context.Context, enable bool) error {
	_, err := d.Write(ctx, "setlpon", boolArg(enable))
	return err
}

// SetpointLowpassFilterEnabled reports whether the setpoint low-pass filter is
// enabled.
func (d *Device) SetpointLowpassFilterEnabled(ctx context.Context) (bool, error) {
	v, err := d.ReadIntValue(ctx, "setlpon", 0)
	return v == 1, err
}

// SetSetpointLowpassCutoffFreq sets the setpoint low-pass cutoff frequency,
// 1 to 10000 Hz.
func (d *Device) SetSetpointLowpassCutoffFreq(ctx context.Context, freq int) error {
	_, err := d.Write(ctx, "setlpf", strconv.Itoa(freq))
	return err
}

// SetpointLowpassCutoffFreq retrieves the setpoint low-pass cutoff frequency.
func (d *Device) SetpointLowpassCutoffFreq(ctx context.Context) (int, error) {
	return d.ReadIntValue(ctx, "setlpf", 0)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func boolArg(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
