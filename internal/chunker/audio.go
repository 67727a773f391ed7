package chunker

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/go-audio/wav"
)

// SamplesPerChunk is the audio window size: one second at 44.1 kHz.
const SamplesPerChunk = 44100

// ErrUnsupportedAudio is returned for WAV data that is not 16-bit PCM.
var ErrUnsupportedAudio = errors.New("only 16-bit PCM WAV audio is supported")

// AudioInput holds exactly one of raw samples, a WAV file, or a base64 encoded WAV file.
type AudioInput struct {
	Samples []int16
	WAV     []byte
	Base64  string
}

// AudioChunker splits audio into windows of SamplesPerChunk samples. The last
// window may be shorter. Multi-channel audio stays interleaved.
type AudioChunker struct{}

var _ Chunker[AudioInput, []int16] = AudioChunker{}

// Chunk implements Chunker.
func (AudioChunker) Chunk(in AudioInput) ([][]int16, error) {
	samples := in.Samples
	if samples == nil {
		data := in.WAV
		if data == nil {
			if in.Base64 == "" {
				return nil, errors.New("audio input is empty")
			}
			var err error
			if data, err = decodeBase64(in.Base64); err != nil {
				return nil, err
			}
		}
		var err error
		if samples, err = decodeWAV(data); err != nil {
			return nil, err
		}
	}

	chunks := make([][]int16, 0, (len(samples)+SamplesPerChunk-1)/SamplesPerChunk)
	for start := 0; start < len(samples); start += SamplesPerChunk {
		end := min(start+SamplesPerChunk, len(samples))
		chunk := make([]int16, end-start)
		copy(chunk, samples[start:end])
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

func decodeWAV(data []byte) ([]int16, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, errors.New("invalid WAV data")
	}
	if dec.BitDepth != 16 {
		return nil, fmt.Errorf("%w: got %d-bit", ErrUnsupportedAudio, dec.BitDepth)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read WAV samples: %w", err)
	}
	samples := make([]int16, len(buf.Data))
	for i, s := range buf.Data {
		samples[i] = int16(s)
	}
	return samples, nil
}
