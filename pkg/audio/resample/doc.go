// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts decoded audio to the board's fixed output rate
// Package resample provides streaming sample rate conversion.
//
// Uses linear interpolation between neighbouring frames. The resampler keeps
// the last frame of each chunk so consecutive chunks join without clicks.
//
// Example:
//
//	r := resample.New(48000, 44100, 2)
//	out := make([]int32, r.OutputCapacity(len(in)))
//	n := r.Resample(in, out)
package resample
