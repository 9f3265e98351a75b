package recorder

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piezosystemjena/nv200-go/nv200"
	"github.com/piezosystemjena/nv200-go/transport"
)

func TestComputeTimingPlan(t *testing.T) {
	tests := []struct {
		name       string
		durationMS float64
		expected   TimingPlan
	}{
		{
			name:       "short recording at full rate",
			durationMS: 100,
			expected:   TimingPlan{BufferLength: 2000, Stride: 1, SampleRate: 20000},
		},
		{
			name:       "quarter second at full rate",
			durationMS: 250,
			expected:   TimingPlan{BufferLength: 5000, Stride: 1, SampleRate: 20000},
		},
		{
			name:       "long recording needs striding",
			durationMS: 1000,
			expected:   TimingPlan{BufferLength: 5000, Stride: 4, SampleRate: 5000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := ComputeTimingPlan(tt.durationMS)
			assert.Equal(t, tt.expected.BufferLength, plan.BufferLength)
			assert.Equal(t, tt.expected.Stride, plan.Stride)
			assert.InDelta(t, tt.expected.SampleRate, plan.SampleRate, 1e-9)
		})
	}
}

func TestComputeTimingPlanProperties(t *testing.T) {
	for _, durationMS := range []float64{0.05, 1, 10, 100, 307, 500, 1000, 5000, 60000} {
		plan := ComputeTimingPlan(durationMS)

		assert.GreaterOrEqual(t, plan.Stride, 1, "duration %g", durationMS)
		assert.LessOrEqual(t, plan.BufferLength, BufferSize, "duration %g", durationMS)
		assert.InDelta(t, float64(SampleRateHz)/float64(plan.Stride), plan.SampleRate, 1e-9)

		// The buffer window at the effective rate covers the requested duration.
		windowMS := float64(BufferSize) / plan.SampleRate * 1000.0
		assert.GreaterOrEqual(t, windowMS, durationMS, "duration %g", durationMS)
	}
}

func TestTimingPlanSampleTimes(t *testing.T) {
	plan := ComputeTimingPlan(1000)
	times := plan.SampleTimesMS(3)

	require.Len(t, times, 3)
	assert.Equal(t, 0.0, times[0])
	assert.InDelta(t, 1000.0/plan.SampleRate, times[1], 1e-9)
	assert.InDelta(t, 2000.0/plan.SampleRate, times[2], 1e-9)
}

func TestSourceString(t *testing.T) {
	assert.Equal(t, "piezo position", SourcePiezoPosition.String())
	assert.Equal(t, "piezo current 2", SourcePiezoCurrent2.String())
	assert.Equal(t, "unknown", Source(5).String())
}

// recorderHandler simulates the recorder command surface of the firmware.
func recorderHandler(frame []byte) []byte {
	cmd := strings.TrimSuffix(string(frame), "\r")
	name, rest, _ := strings.Cut(cmd, ",")

	switch name {
	case "recsrc":
		// Query form "recsrc,<ch>" echoes channel and configured source.
		return []byte("recsrc," + rest + ",2\r\n")
	case "recoutf":
		return []byte("recoutf,1.5,2.25,3.125\r\n")
	case "recidx":
		return []byte("recidx,1234\r\n")
	default:
		return []byte(cmd + "\r\n")
	}
}

func newTestRecorder(t *testing.T) (*DataRecorder, *transport.MockTransport) {
	t.Helper()

	mock := transport.NewMockTransport(recorderHandler)
	dev := nv200.NewDevice(mock, nv200.WithDefaultTimeout(50*time.Millisecond))
	require.NoError(t, dev.Connect(context.Background()))
	t.Cleanup(func() { dev.Close() })

	return NewDataRecorder(dev), mock
}

func TestRecorderConfiguration(t *testing.T) {
	rec, mock := newTestRecorder(t)
	ctx := context.Background()

	require.NoError(t, rec.SetDataSource(ctx, 0, SourcePiezoVoltage))
	require.NoError(t, rec.SetAutoStartMode(ctx, AutoStartOnSetCommand))
	require.NoError(t, rec.SetStride(ctx, 4))
	require.NoError(t, rec.SetBufferSize(ctx, 5000))
	require.NoError(t, rec.StartRecording(ctx))
	require.NoError(t, rec.StopRecording(ctx))

	assert.Equal(t, []string{
		"recsrc,0,2",
		"recast,1",
		"recstr,4",
		"reclen,5000",
		"recrun,1",
		"recrun,0",
	}, mock.Commands())
}

func TestRecorderValidation(t *testing.T) {
	rec, _ := newTestRecorder(t)
	ctx := context.Background()

	assert.Error(t, rec.SetStride(ctx, 0))
	assert.Error(t, rec.SetStride(ctx, MaxStride+1))
	assert.NoError(t, rec.SetStride(ctx, MaxStride))
	assert.Error(t, rec.SetBufferSize(ctx, -1))
	assert.Error(t, rec.SetBufferSize(ctx, BufferSize+1))

	_, err := rec.ReadChannelData(ctx, 2)
	assert.Error(t, err)
}

func TestSetRecordingDuration(t *testing.T) {
	rec, mock := newTestRecorder(t)

	plan, err := rec.SetRecordingDuration(context.Background(), 1000)
	require.NoError(t, err)
	assert.Equal(t, 4, plan.Stride)
	assert.Equal(t, 5000, plan.BufferLength)
	assert.Equal(t, []string{"recstr,4", "reclen,5000"}, mock.Commands())
}

func TestReadChannelData(t *testing.T) {
	rec, _ := newTestRecorder(t)

	data, err := rec.ReadChannelData(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, SourcePiezoVoltage, data.Source)
	assert.Equal(t, []float64{1.5, 2.25, 3.125}, data.Values)
}

func TestReadRecordedData(t *testing.T) {
	rec, _ := newTestRecorder(t)

	data, err := rec.ReadRecordedData(context.Background())
	require.NoError(t, err)
	require.Len(t, data, ChannelCount)
	for _, ch := range data {
		assert.Equal(t, SourcePiezoVoltage, ch.Source)
		assert.Len(t, ch.Values, 3)
	}
}

func TestWriteIndex(t *testing.T) {
	rec, _ := newTestRecorder(t)

	idx, err := rec.WriteIndex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1234, idx)
}

func TestEffectiveRateNeverExceedsBase(t *testing.T) {
	for durationMS := 10.0; durationMS <= 1e6; durationMS *= 3 {
		plan := ComputeTimingPlan(durationMS)
		assert.LessOrEqual(t, plan.SampleRate, float64(SampleRateHz))
		assert.False(t, math.IsNaN(plan.SampleRate))
	}
}
