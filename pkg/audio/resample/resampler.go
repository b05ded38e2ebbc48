// ABOUTME: Streaming linear resampler for converting audio sample rates
// ABOUTME: Carries the last input frame across chunks so output stays continuous
package resample

import "math"

// Resampler performs linear interpolation to convert between sample rates.
// It is stateful: consecutive calls to Resample treat their inputs as one
// continuous stream.
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	step       float64 // input frames advanced per output frame

	// pos is the read position in frames relative to the start of the next
	// input chunk. -1 addresses prev.
	pos  float64
	prev []int32
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		step:       float64(inputRate) / float64(outputRate),
		prev:       make([]int32, channels),
	}
}

// InputRate returns the source sample rate
func (r *Resampler) InputRate() int { return r.inputRate }

// OutputRate returns the target sample rate
func (r *Resampler) OutputRate() int { return r.outputRate }

// Resample converts interleaved input samples at the input rate into output
// at the output rate and returns the number of samples written. Size output
// with OutputCapacity; input that does not fit is dropped.
func (r *Resampler) Resample(input []int32, output []int32) int {
	frames := len(input) / r.channels
	if frames == 0 {
		return 0
	}

	frameAt := func(i, ch int) int32 {
		if i < 0 {
			return r.prev[ch]
		}
		return input[i*r.channels+ch]
	}

	outFrames := len(output) / r.channels
	out := 0
	for out < outFrames {
		i := int(math.Floor(r.pos))
		if i+1 >= frames {
			break
		}
		frac := r.pos - float64(i)

		for ch := 0; ch < r.channels; ch++ {
			a := float64(frameAt(i, ch))
			b := float64(input[(i+1)*r.channels+ch])
			output[out*r.channels+ch] = int32(a + (b-a)*frac)
		}

		out++
		r.pos += r.step
	}

	copy(r.prev, input[(frames-1)*r.channels:frames*r.channels])
	r.pos -= float64(frames)
	if r.pos < -1 {
		r.pos = -1
	}

	return out * r.channels
}

// OutputCapacity returns an output length large enough for one call to
// Resample with inputSamples samples
func (r *Resampler) OutputCapacity(inputSamples int) int {
	frames := inputSamples/r.channels + 1
	return (int(math.Ceil(float64(frames)/r.step)) + 1) * r.channels
}

// Reset drops carried state
func (r *Resampler) Reset() {
	r.pos = 0
	for i := range r.prev {
		r.prev[i] = 0
	}
}
