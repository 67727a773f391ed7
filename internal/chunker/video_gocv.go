//go:build gocv

package chunker

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

func decodeFrames(path string) ([]image.Image, error) {
	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open video: %w", err)
	}
	defer vc.Close()

	step := frameStep(vc.Get(gocv.VideoCaptureFPS))
	frame := gocv.NewMat()
	defer frame.Close()

	var frames []image.Image
	for idx := 0; vc.Read(&frame); idx++ {
		if frame.Empty() || idx%step != 0 {
			continue
		}
		// ToImage converts OpenCV's BGR channel order to RGBA.
		img, err := frame.ToImage()
		if err != nil {
			return nil, fmt.Errorf("failed to convert frame %d: %w", idx, err)
		}
		frames = append(frames, img)
	}
	return frames, nil
}
