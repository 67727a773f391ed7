package chunker

import (
	"errors"
	"fmt"
	"image"
	"os"
)

// ErrVideoUnsupported is returned when the binary was built without the gocv tag.
var ErrVideoUnsupported = errors.New("video chunking requires building with -tags gocv")

// VideoInput holds either a path to a video file or base64 encoded video data.
type VideoInput struct {
	Path   string
	Base64 string
}

// VideoChunker samples one frame per second of video (every fps-th frame) and
// returns the frames as RGB images.
type VideoChunker struct{}

var _ Chunker[VideoInput, image.Image] = VideoChunker{}

// Chunk implements Chunker.
func (VideoChunker) Chunk(in VideoInput) ([]image.Image, error) {
	if in.Path != "" {
		return decodeFrames(in.Path)
	}
	if in.Base64 == "" {
		return nil, errors.New("video input is empty")
	}
	data, err := decodeBase64(in.Base64)
	if err != nil {
		return nil, err
	}
	f, err := os.CreateTemp("", "viie-video-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(data); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	return decodeFrames(f.Name())
}

// frameStep returns how many frames to advance per sampled frame.
func frameStep(fps float64) int {
	if fps < 1 {
		return 1
	}
	return int(fps)
}
