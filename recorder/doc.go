// Package recorder drives the NV200's onboard data recorder.
//
// The recorder consists of two memory banks written in parallel, so two
// internal signals can be logged synchronously at up to 20 kHz. Because the
// buffer capacity is fixed at 6144 samples per channel, longer recordings are
// realized by striding: storing every nth sample at a correspondingly lower
// effective rate. ComputeTimingPlan maps a requested physical duration onto
// the stride, buffer length and effective sample rate the firmware understands.
package recorder
