package waveform

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/piezosystemjena/nv200-go/nv200"
)

// Hardware constants of the NV200 arbitrary waveform generator.
const (
	// BufferSize is the maximum number of samples in the waveform buffer.
	BufferSize = 1024

	// BaseSampleTimeUS is the smallest output sampling time in microseconds.
	// All achievable sampling times are integer multiples of it.
	BaseSampleTimeUS = 50

	// MaxSampleFactor is the largest multiplier of the base sample time the
	// firmware accepts.
	MaxSampleFactor = 65535

	// InfiniteCycles repeats the waveform until the generator is stopped.
	InfiniteCycles = 0
)

// WaveformData is a generated waveform: the sample values and the quantized
// per-sample duration they are meant to be played at.
type WaveformData struct {
	// Values are the setpoint samples, at most BufferSize of them.
	Values []float64
	// SampleTimeMS is the quantized per-sample duration in milliseconds.
	SampleTimeMS float64
}

// SampleFactor returns the sampling time as a multiple of the base sample
// time, the form the firmware expects.
func (w WaveformData) SampleFactor() int {
	return int(math.Round(w.SampleTimeMS * 1000.0 / BaseSampleTimeUS))
}

// CycleTimeMS returns the duration of one full playback of the buffer.
func (w WaveformData) CycleTimeMS() float64 {
	return w.SampleTimeMS * float64(len(w.Values))
}

// SampleTimesMS returns the time axis of the waveform in milliseconds.
func (w WaveformData) SampleTimesMS() []float64 {
	times := make([]float64, len(w.Values))
	for i := range times {
		times[i] = float64(i) * w.SampleTimeMS
	}

	return times
}

// GenerateSineWave computes one period of a sine wave for the given frequency,
// swinging between low and high, with the given phase shift in radians.
//
// The ideal per-sample duration for a full period across BufferSize samples is
// rounded up to the next multiple of the base sample time, so the achievable
// frequency is never higher than requested. Frequencies whose period does not
// fit the buffer even at the largest sampling time are rejected.
func GenerateSineWave(freqHz, low, high, phaseRad float64) (WaveformData, error) {
	if freqHz <= 0 {
		return WaveformData{}, fmt.Errorf("waveform: frequency %g Hz must be positive", freqHz)
	}
	if low > high {
		return WaveformData{}, fmt.Errorf("waveform: low level %g exceeds high level %g", low, high)
	}

	periodUS := 1e6 / freqHz
	idealSampleUS := periodUS / BufferSize

	factor := int(math.Ceil(idealSampleUS / BaseSampleTimeUS))
	if factor < 1 {
		factor = 1
	}
	if factor > MaxSampleFactor {
		factor = MaxSampleFactor
	}
	sampleUS := float64(factor * BaseSampleTimeUS)

	samples := int(periodUS / sampleUS)
	if samples < 1 {
		return WaveformData{}, fmt.Errorf(
			"waveform: frequency %g Hz too high, one period is shorter than the %d µs base sample time",
			freqHz, BaseSampleTimeUS)
	}
	if samples > BufferSize {
		return WaveformData{}, fmt.Errorf(
			"waveform: frequency %g Hz too low, one period needs %d samples at the largest sampling time, buffer holds %d",
			freqHz, samples, BufferSize)
	}

	amplitude := (high - low) / 2.0
	offset := (high + low) / 2.0

	values := make([]float64, samples)
	for i := range values {
		t := float64(i) * sampleUS / 1e6
		values[i] = amplitude*math.Sin(2.0*math.Pi*freqHz*t+phaseRad) + offset
	}

	return WaveformData{
		Values:       values,
		SampleTimeMS: sampleUS / 1000.0,
	}, nil
}

// Generator drives the arbitrary waveform generator of one device.
type Generator struct {
	dev *nv200.Device
}

// NewGenerator creates a waveform generator interface for the given device.
func NewGenerator(dev *nv200.Device) *Generator {
	return &Generator{dev: dev}
}

// Start switches the device's modulation source to the waveform generator and
// starts playback.
func (g *Generator) Start(ctx context.Context) error {
	if err := g.dev.SetModulationSource(ctx, nv200.ModSrcWaveformGenerator); err != nil {
		return err
	}
	_, err := g.dev.Write(ctx, "grun", "1")

	return err
}

// Stop stops playback.
func (g *Generator) Stop(ctx context.Context) error {
	_, err := g.dev.Write(ctx, "grun", "0")
	return err
}

// IsRunning reports whether the generator is currently playing.
func (g *Generator) IsRunning(ctx context.Context) (bool, error) {
	v, err := g.dev.ReadIntValue(ctx, "grun", 0)
	if err != nil {
		return false, err
	}

	return v == 1, nil
}

// SetCycles sets how many times the waveform is played. InfiniteCycles repeats
// until stopped.
func (g *Generator) SetCycles(ctx context.Context, cycles int) error {
	if cycles < 0 || cycles > MaxSampleFactor {
		return fmt.Errorf("waveform: cycle count %d out of range [0, %d]", cycles, MaxSampleFactor)
	}
	_, err := g.dev.Write(ctx, "gcarb", strconv.Itoa(cycles))

	return err
}

// SetStartIndex sets the buffer index playback starts at.
func (g *Generator) SetStartIndex(ctx context.Context, index int) error {
	if err := validateIndex(index); err != nil {
		return err
	}
	_, err := g.dev.Write(ctx, "goarb", strconv.Itoa(index))

	return err
}

// SetLoopStartIndex sets the buffer index the second and all further cycles
// start at.
func (g *Generator) SetLoopStartIndex(ctx context.Context, index int) error {
	if err := validateIndex(index); err != nil {
		return err
	}
	_, err := g.dev.Write(ctx, "gsarb", strconv.Itoa(index))

	return err
}

// SetLoopEndIndex sets the last buffer index of each cycle.
func (g *Generator) SetLoopEndIndex(ctx context.Context, index int) error {
	if err := validateIndex(index); err != nil {
		return err
	}
	_, err := g.dev.Write(ctx, "gearb", strconv.Itoa(index))

	return err
}

// ConfigureLoop sets the start, loop start and loop end indices in one call.
func (g *Generator) ConfigureLoop(ctx context.Context, start, loopStart, loopEnd int) error {
	if err := g.SetStartIndex(ctx, start); err != nil {
		return err
	}
	if err := g.SetLoopStartIndex(ctx, loopStart); err != nil {
		return err
	}

	return g.SetLoopEndIndex(ctx, loopEnd)
}

// SetOutputSamplingTime sets the per-sample duration in milliseconds. The
// value is rounded to the nearest multiple of the base sample time and clamped
// to the firmware's range; the applied duration is returned.
func (g *Generator) SetOutputSamplingTime(ctx context.Context, sampleTimeMS float64) (float64, error) {
	factor := int(math.Round(sampleTimeMS * 1000.0 / BaseSampleTimeUS))
	if factor < 1 {
		factor = 1
	}
	if factor > MaxSampleFactor {
		factor = MaxSampleFactor
	}

	if _, err := g.dev.Write(ctx, "gtarb", strconv.Itoa(factor)); err != nil {
		return 0, err
	}

	return float64(factor*BaseSampleTimeUS) / 1000.0, nil
}

// SetWaveformValue writes a single sample into the waveform buffer.
func (g *Generator) SetWaveformValue(ctx context.Context, index int, value float64) error {
	if err := validateIndex(index); err != nil {
		return err
	}
	_, err := g.dev.Write(ctx, "gparb", strconv.Itoa(index),
		strconv.FormatFloat(value, 'f', -1, 64))

	return err
}

// SetWaveformBuffer writes all given samples into the waveform buffer,
// starting at index 0.
func (g *Generator) SetWaveformBuffer(ctx context.Context, values []float64) error {
	if len(values) > BufferSize {
		return fmt.Errorf("waveform: %d samples exceed buffer size %d", len(values), BufferSize)
	}

	for i, v := range values {
		if err := g.SetWaveformValue(ctx, i, v); err != nil {
			return fmt.Errorf("waveform: writing sample %d: %w", i, err)
		}
	}

	return nil
}

// SetWaveform transfers a complete waveform: the sample buffer, its sampling
// time, and a loop over the full buffer.
func (g *Generator) SetWaveform(ctx context.Context, data WaveformData) error {
	if len(data.Values) == 0 {
		return fmt.Errorf("waveform: empty waveform")
	}

	if err := g.SetWaveformBuffer(ctx, data.Values); err != nil {
		return err
	}
	if _, err := g.SetOutputSamplingTime(ctx, data.SampleTimeMS); err != nil {
		return err
	}

	return g.ConfigureLoop(ctx, 0, 0, len(data.Values)-1)
}

func validateIndex(index int) error {
	if index < 0 || index >= BufferSize {
		return fmt.Errorf("waveform: index %d out of range [0, %d]", index, BufferSize-1)
	}

	return nil
}
