package recorder

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/piezosystemjena/nv200-go/internal/util"
	"github.com/piezosystemjena/nv200-go/nv200"
)

// Hardware constants of the NV200 data recorder.
const (
	// SampleRateHz is the fixed base sample rate of the recorder.
	SampleRateHz = 20000

	// BufferSize is the capacity of a single recorder channel buffer.
	BufferSize = 6144

	// InfiniteRecording selects an endless loop over the full buffer; the
	// recorder then runs until stopped manually.
	InfiniteRecording = 0

	// MaxStride is the largest stride the firmware accepts.
	MaxStride = 65535

	// BufferReadTimeout bounds a full channel buffer readback, which can take
	// several seconds on the serial link.
	BufferReadTimeout = 6 * time.Second

	// ChannelCount is the number of parallel recorder channels.
	ChannelCount = 2
)

// Source selects the signal stored in a recorder channel.
type Source int

const (
	// SourcePiezoPosition records the piezo position (µm or mrad).
	SourcePiezoPosition Source = 0
	// SourceSetpoint records the setpoint (µm or mrad).
	SourceSetpoint Source = 1
	// SourcePiezoVoltage records the piezo voltage (V).
	SourcePiezoVoltage Source = 2
	// SourcePositionError records the position error.
	SourcePositionError Source = 3
	// SourceAbsPositionError records the absolute position error.
	SourceAbsPositionError Source = 4
	// SourcePiezoCurrent1 records piezo current channel 1 (A).
	SourcePiezoCurrent1 Source = 6
	// SourcePiezoCurrent2 records piezo current channel 2 (A).
	SourcePiezoCurrent2 Source = 7
)

// String implements fmt.Stringer.
func (s Source) String() string {
	switch s {
	case SourcePiezoPosition:
		return "piezo position"
	case SourceSetpoint:
		return "setpoint"
	case SourcePiezoVoltage:
		return "piezo voltage"
	case SourcePositionError:
		return "position error"
	case SourceAbsPositionError:
		return "abs position error"
	case SourcePiezoCurrent1:
		return "piezo current 1"
	case SourcePiezoCurrent2:
		return "piezo current 2"
	default:
		return "unknown"
	}
}

// AutoStartMode selects what starts the recorder.
type AutoStartMode int

const (
	// AutoStartOff disables automatic recorder start.
	AutoStartOff AutoStartMode = 0
	// AutoStartOnSetCommand starts recording on a set command.
	AutoStartOnSetCommand AutoStartMode = 1
	// AutoStartOnWaveformRun starts recording when the waveform generator starts.
	AutoStartOnWaveformRun AutoStartMode = 2
)

// TimingPlan maps a requested recording duration onto the discrete recorder
// parameters. It is returned to the caller for time-axis reconstruction; the
// device itself only receives the stride and buffer length.
type TimingPlan struct {
	// BufferLength is the configured channel buffer length, at most BufferSize.
	BufferLength int
	// Stride stores every nth base-rate sample, always >= 1.
	Stride int
	// SampleRate is the effective sample rate in Hz after striding.
	SampleRate float64
}

// ComputeTimingPlan derives the recorder parameters for a recording of the
// given duration in milliseconds.
//
// The stride is biased upward so the buffer window at the effective rate
// always covers the requested duration. The buffer length is clamped to
// BufferSize; that clamp is the hardware's hard limit, not a truncation of
// the requested duration.
func ComputeTimingPlan(durationMS float64) TimingPlan {
	durationS := durationMS / 1000.0
	bufferWindowS := float64(BufferSize) / float64(SampleRateHz)

	stride := int(durationS/bufferWindowS) + 1
	sampleRate := float64(SampleRateHz) / float64(stride)

	bufferLength := int(math.Ceil(sampleRate * durationS))
	if bufferLength > BufferSize {
		bufferLength = BufferSize
	}

	return TimingPlan{
		BufferLength: bufferLength,
		Stride:       stride,
		SampleRate:   sampleRate,
	}
}

// SampleTimesMS returns the time axis for a recording of n samples under this
// plan, in milliseconds.
func (p TimingPlan) SampleTimesMS(n int) []float64 {
	times := make([]float64, n)
	for i := range times {
		times[i] = float64(i) / p.SampleRate * 1000.0
	}

	return times
}

// ChannelData is the readback of one recorder channel: the recorded source
// and the sample values.
type ChannelData struct {
	Source Source
	Values []float64
}

// DataRecorder drives the data recorder of one device. It carries no state of
// its own beyond the device handle.
type DataRecorder struct {
	dev *nv200.Device
}

// NewDataRecorder creates a recorder interface for the given device.
func NewDataRecorder(dev *nv200.Device) *DataRecorder {
	return &DataRecorder{dev: dev}
}

// SetDataSource selects the signal stored in the given channel (0 or 1).
func (r *DataRecorder) SetDataSource(ctx context.Context, channel int, src Source) error {
	_, err := r.dev.Write(ctx, "recsrc", strconv.Itoa(channel), strconv.Itoa(int(src)))
	return err
}

// SetAutoStartMode sets what starts the recorder.
func (r *DataRecorder) SetAutoStartMode(ctx context.Context, mode AutoStartMode) error {
	_, err := r.dev.Write(ctx, "recast", strconv.Itoa(int(mode)))
	return err
}

// SetStride sets the recorder stride: every nth base-rate sample is stored.
func (r *DataRecorder) SetStride(ctx context.Context, stride int) error {
	if stride < 1 || stride > MaxStride {
		return fmt.Errorf("recorder: stride %d out of range [1, %d]", stride, MaxStride)
	}
	_, err := r.dev.Write(ctx, "recstr", strconv.Itoa(stride))

	return err
}

// SetBufferSize sets the sample buffer length of both channels,
// 0 to BufferSize. InfiniteRecording (0) loops over the full buffer until the
// recorder is stopped manually.
func (r *DataRecorder) SetBufferSize(ctx context.Context, length int) error {
	if length < 0 || length > BufferSize {
		return fmt.Errorf("recorder: buffer length %d out of range [0, %d]", length, BufferSize)
	}
	_, err := r.dev.Write(ctx, "reclen", strconv.Itoa(length))

	return err
}

// SetRecordingDuration computes the timing plan for a recording of the given
// duration in milliseconds and configures the recorder accordingly.
func (r *DataRecorder) SetRecordingDuration(ctx context.Context, durationMS float64) (TimingPlan, error) {
	plan := ComputeTimingPlan(durationMS)

	if err := r.SetStride(ctx, plan.Stride); err != nil {
		return plan, err
	}
	if err := r.SetBufferSize(ctx, plan.BufferLength); err != nil {
		return plan, err
	}

	return plan, nil
}

// StartRecording starts the recorder.
func (r *DataRecorder) StartRecording(ctx context.Context) error {
	_, err := r.dev.Write(ctx, "recrun", "1")
	return err
}

// StopRecording stops the recorder.
func (r *DataRecorder) StopRecording(ctx context.Context) error {
	_, err := r.dev.Write(ctx, "recrun", "0")
	return err
}

// WriteIndex reads the recorder's current write index.
func (r *DataRecorder) WriteIndex(ctx context.Context) (int, error) {
	return r.dev.ReadIntValue(ctx, "recidx", 0)
}

// ReadChannelData reads back the full buffer of one channel together with its
// configured source. The readback uses BufferReadTimeout since transferring a
// full buffer can take several seconds.
func (r *DataRecorder) ReadChannelData(ctx context.Context, channel int) (ChannelData, error) {
	if channel < 0 || channel >= ChannelCount {
		return ChannelData{}, fmt.Errorf("recorder: channel %d out of range [0, %d]", channel, ChannelCount-1)
	}

	srcValues, err := r.dev.ReadValues(ctx, "recsrc,"+strconv.Itoa(channel), 0)
	if err != nil {
		return ChannelData{}, err
	}
	if len(srcValues) == 0 {
		return ChannelData{}, fmt.Errorf("recorder: empty recsrc response for channel %d", channel)
	}
	// The device echoes the queried channel before the source value.
	src, err := strconv.Atoi(srcValues[len(srcValues)-1])
	if err != nil {
		return ChannelData{}, fmt.Errorf("recorder: invalid recsrc value %q: %w", srcValues[len(srcValues)-1], err)
	}

	raw, err := r.dev.ReadValues(ctx, "recoutf,"+strconv.Itoa(channel), BufferReadTimeout)
	if err != nil {
		return ChannelData{}, err
	}

	values, err := util.ParseFloats(raw)
	if err != nil {
		return ChannelData{}, fmt.Errorf("recorder: channel %d data: %w", channel, err)
	}

	return ChannelData{Source: Source(src), Values: values}, nil
}

// ReadRecordedData reads back both channels in order.
func (r *DataRecorder) ReadRecordedData(ctx context.Context) ([]ChannelData, error) {
	data := make([]ChannelData, 0, ChannelCount)
	for channel := 0; channel < ChannelCount; channel++ {
		channelData, err := r.ReadChannelData(ctx, channel)
		if err != nil {
			return nil, err
		}
		data = append(data, channelData)
	}

	return data, nil
}
