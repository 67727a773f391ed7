package chunker

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
)

// PatchSize is the side length of an image patch.
const PatchSize = 224

// ImageInput holds either a decoded image or a base64 encoded PNG.
type ImageInput struct {
	Image  image.Image
	Base64 string
}

// ImageChunker cuts an image into PatchSize x PatchSize patches in row-major
// order: rows top to bottom, each row left to right. Patches on the right and
// bottom edges are clipped to the image bounds.
type ImageChunker struct{}

var _ Chunker[ImageInput, image.Image] = ImageChunker{}

// Chunk implements Chunker.
func (ImageChunker) Chunk(in ImageInput) ([]image.Image, error) {
	img := in.Image
	if img == nil {
		if in.Base64 == "" {
			return nil, errors.New("image input is empty")
		}
		data, err := decodeBase64(in.Base64)
		if err != nil {
			return nil, err
		}
		if img, err = png.Decode(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("failed to decode PNG: %w", err)
		}
	}

	b := img.Bounds()
	var patches []image.Image
	for y := b.Min.Y; y < b.Max.Y; y += PatchSize {
		for x := b.Min.X; x < b.Max.X; x += PatchSize {
			r := image.Rect(x, y, x+PatchSize, y+PatchSize).Intersect(b)
			patch := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
			draw.Draw(patch, patch.Bounds(), img, r.Min, draw.Src)
			patches = append(patches, patch)
		}
	}
	return patches, nil
}
