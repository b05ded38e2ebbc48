// ABOUTME: Tests for audio resampler
// ABOUTME: Tests linear interpolation and continuity across chunks
package resample

import (
	"testing"
)

func TestNew(t *testing.T) {
	r := New(48000, 44100, 2)

	if r == nil {
		t.Fatal("expected resampler to be created")
	}
	if r.InputRate() != 48000 {
		t.Errorf("expected inputRate 48000, got %d", r.InputRate())
	}
	if r.OutputRate() != 44100 {
		t.Errorf("expected outputRate 44100, got %d", r.OutputRate())
	}
	if r.channels != 2 {
		t.Errorf("expected channels 2, got %d", r.channels)
	}
}

func TestResampleDownsampling(t *testing.T) {
	// 48000 -> 44100, the common case for feeding the board codec
	r := New(48000, 44100, 2)

	input := make([]int32, 200)
	for i := range input {
		input[i] = int32(i * 100)
	}

	output := make([]int32, r.OutputCapacity(len(input)))
	n := r.Resample(input, output)

	expectedSize := int(float64(len(input)) * float64(44100) / float64(48000))
	if n < expectedSize-10 || n > expectedSize+10 {
		t.Errorf("expected ~%d samples, got %d", expectedSize, n)
	}
}

func TestResampleUpsampling(t *testing.T) {
	r := New(22050, 44100, 1)

	input := []int32{0, 100, 200, 300, 400}
	output := make([]int32, r.OutputCapacity(len(input)))

	n := r.Resample(input, output)

	// Positions 0, 0.5, 1, ... 3.5 stay inside the chunk
	if n != 8 {
		t.Fatalf("expected 8 samples, got %d", n)
	}
	for i := 0; i < n; i++ {
		if output[i] != int32(i*50) {
			t.Errorf("sample %d: expected %d, got %d", i, i*50, output[i])
		}
	}
}

func TestResampleSameRate(t *testing.T) {
	r := New(44100, 44100, 2)

	input := make([]int32, 200)
	for i := range input {
		input[i] = int32(i * 100)
	}

	output := make([]int32, r.OutputCapacity(len(input)))
	n := r.Resample(input, output)

	// The last frame is held back until the next chunk arrives
	if n != len(input)-2 {
		t.Errorf("expected %d samples, got %d", len(input)-2, n)
	}
	for i := 0; i < n; i++ {
		if output[i] != input[i] {
			t.Errorf("sample %d: expected %d, got %d", i, input[i], output[i])
		}
	}
}

func TestResampleContinuousAcrossChunks(t *testing.T) {
	r := New(44100, 44100, 1)

	first := []int32{10, 20, 30}
	second := []int32{40, 50, 60}

	out := make([]int32, r.OutputCapacity(3))
	n := r.Resample(first, out)
	got := append([]int32{}, out[:n]...)

	n = r.Resample(second, out)
	got = append(got, out[:n]...)

	expected := []int32{10, 20, 30, 40, 50}
	if len(got) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("sample %d: expected %d, got %d", i, expected[i], got[i])
		}
	}
}

func TestResampleStereo(t *testing.T) {
	r := New(48000, 44100, 2)

	input := make([]int32, 20)
	for i := 0; i < 10; i++ {
		input[i*2] = 1000    // Left channel
		input[i*2+1] = -1000 // Right channel
	}

	output := make([]int32, r.OutputCapacity(len(input)))
	n := r.Resample(input, output)

	if n == 0 {
		t.Fatal("resampler produced no output")
	}
	for i := 0; i < n/2; i++ {
		if output[i*2] != 1000 {
			t.Errorf("frame %d: left expected 1000, got %d", i, output[i*2])
		}
		if output[i*2+1] != -1000 {
			t.Errorf("frame %d: right expected -1000, got %d", i, output[i*2+1])
		}
	}
}

func TestResampleEmptyInput(t *testing.T) {
	r := New(48000, 44100, 2)

	n := r.Resample([]int32{}, make([]int32, 100))

	if n != 0 {
		t.Errorf("expected 0 samples from empty input, got %d", n)
	}
}

func TestResampleOutputTooSmall(t *testing.T) {
	r := New(44100, 44100, 1)

	input := []int32{1, 2, 3, 4, 5, 6}
	output := make([]int32, 2)

	n := r.Resample(input, output)
	if n != 2 {
		t.Errorf("expected output to be filled with 2 samples, got %d", n)
	}

	// Dropped input must not leave the read position before the carried frame
	n = r.Resample([]int32{7, 8}, make([]int32, 10))
	if n == 0 {
		t.Error("expected output after a truncated chunk")
	}
}

func TestReset(t *testing.T) {
	r := New(44100, 44100, 1)
	r.Resample([]int32{5, 6, 7}, make([]int32, 10))

	r.Reset()

	out := make([]int32, 10)
	n := r.Resample([]int32{1, 2}, out)
	if n != 1 || out[0] != 1 {
		t.Errorf("expected fresh start with sample 1, got n=%d out=%v", n, out[:n])
	}
}
