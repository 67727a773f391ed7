//go:build !gocv

package chunker

import "image"

func decodeFrames(string) ([]image.Image, error) {
	return nil, ErrVideoUnsupported
}
