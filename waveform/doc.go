// Package waveform drives the NV200's arbitrary waveform generator.
//
// The generator plays back a buffer of up to 1024 setpoint values at a
// configurable output sampling time, which is a multiple of the 50 µs base
// sample time. Because both the buffer length and the sampling time are
// discrete, a requested signal frequency is met by quantization: the ideal
// per-sample duration is rounded up to the next base-time multiple, and the
// number of buffer samples follows from the signal period. GenerateSineWave
// performs this quantization and reports the achievable timing alongside the
// sample values.
package waveform
