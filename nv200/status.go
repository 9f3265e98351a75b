package nv200

import (
	"fmt"
	"strings"
)

// StatusFlag is one bit of the controller's status register.
type StatusFlag uint16

const (
	// StatusActuatorConnected is set when an actuator is plugged in.
	StatusActuatorConnected StatusFlag = 1 << 0
	// StatusClosedLoop is set when the PID loop runs in closed-loop mode.
	StatusClosedLoop StatusFlag = 1 << 3
	// StatusUnderRange is set when the sensor signal is below its range.
	StatusUnderRange StatusFlag = 1 << 4
	// StatusOverRange is set when the sensor signal is above its range.
	StatusOverRange StatusFlag = 1 << 5
	// StatusHardwareFault is set on a piezo amplifier fault.
	StatusHardwareFault StatusFlag = 1 << 6
	// StatusI2CFault is set when communication with the actuator's ID chip fails.
	StatusI2CFault StatusFlag = 1 << 7
	// StatusControlLimit is set when the setpoint is clipped at a control limit.
	StatusControlLimit StatusFlag = 1 << 8
)

// sensorTypeShift and sensorTypeMask locate the 2-bit sensor type field.
const (
	sensorTypeShift = 1
	sensorTypeMask  = 0x3
)

// SensorType is the 2-bit position sensor type field of the status register.
type SensorType int

const (
	// SensorNone indicates an actuator without a position sensor.
	SensorNone SensorType = 0
	// SensorStrainGauge indicates a strain gauge position sensor.
	SensorStrainGauge SensorType = 1
	// SensorCapacitive indicates a capacitive position sensor.
	SensorCapacitive SensorType = 2
	// SensorInductive indicates an inductive (LVDT) position sensor.
	SensorInductive SensorType = 3
)

// String implements fmt.Stringer.
func (s SensorType) String() string {
	switch s {
	case SensorNone:
		return "none"
	case SensorStrainGauge:
		return "strain gauge"
	case SensorCapacitive:
		return "capacitive"
	case SensorInductive:
		return "inductive"
	default:
		return "unknown"
	}
}

// StatusRegister is a snapshot of the controller's 16-bit status register,
// constructed from one "stat" read. It is a read-only value object.
type StatusRegister uint16

// HasFlag reports whether the given flag bit is set.
func (r StatusRegister) HasFlag(flag StatusFlag) bool {
	return uint16(r)&uint16(flag) != 0
}

// ActuatorConnected reports whether an actuator is plugged in.
func (r StatusRegister) ActuatorConnected() bool { return r.HasFlag(StatusActuatorConnected) }

// ClosedLoopActive reports whether the PID loop runs closed-loop.
func (r StatusRegister) ClosedLoopActive() bool { return r.HasFlag(StatusClosedLoop) }

// UnderRange reports whether the sensor signal is below its range.
func (r StatusRegister) UnderRange() bool { return r.HasFlag(StatusUnderRange) }

// OverRange reports whether the sensor signal is above its range.
func (r StatusRegister) OverRange() bool { return r.HasFlag(StatusOverRange) }

// HardwareFault reports a piezo amplifier fault.
func (r StatusRegister) HardwareFault() bool { return r.HasFlag(StatusHardwareFault) }

// I2CFault reports an actuator ID chip communication fault.
func (r StatusRegister) I2CFault() bool { return r.HasFlag(StatusI2CFault) }

// ControlLimitReached reports whether the setpoint is clipped at a control limit.
func (r StatusRegister) ControlLimitReached() bool { return r.HasFlag(StatusControlLimit) }

// SensorType returns the 2-bit position sensor type field.
func (r StatusRegister) SensorType() SensorType {
	return SensorType((uint16(r) >> sensorTypeShift) & sensorTypeMask)
}

// String implements fmt.Stringer.
func (r StatusRegister) String() string {
	var flags []string
	if r.ActuatorConnected() {
		flags = append(flags, "actuator connected")
	}
	if r.ClosedLoopActive() {
		flags = append(flags, "closed loop")
	}
	if r.UnderRange() {
		flags = append(flags, "under range")
	}
	if r.OverRange() {
		flags = append(flags, "over range")
	}
	if r.HardwareFault() {
		flags = append(flags, "hardware fault")
	}
	if r.I2CFault() {
		flags = append(flags, "i2c fault")
	}
	if r.ControlLimitReached() {
		flags = append(flags, "control limit")
	}

	return fmt.Sprintf("StatusRegister(0x%04X sensor=%s [%s])",
		uint16(r), r.SensorType(), strings.Join(flags, ", "))
}
