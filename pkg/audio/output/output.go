// ABOUTME: Audio output interface definition
// ABOUTME: Common interface for sample-level playback backends
package output

// Output represents an audio output device fed with 24-bit samples
type Output interface {
	// Open initializes the output for the source format
	Open(sampleRate, channels int) error

	// Write outputs audio samples (blocks until written)
	Write(samples []int32) error

	// Close releases output resources
	Close() error
}

// ByteWriter is an Output that reports how many bytes the device accepted
// for one write of samples
type ByteWriter interface {
	WriteBytes(samples []int32) (int, error)
}
