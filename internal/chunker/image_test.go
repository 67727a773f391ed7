package chunker

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x / PatchSize), G: uint8(y / PatchSize), A: 255})
		}
	}
	return img
}

func TestImageChunker_RowMajorPatches(t *testing.T) {
	patches, err := ImageChunker{}.Chunk(ImageInput{Image: testImage(500, 300)})
	if err != nil {
		t.Fatal(err)
	}
	// 3 columns (224, 224, 52) x 2 rows (224, 76).
	if len(patches) != 6 {
		t.Fatalf("got %d patches, want 6", len(patches))
	}
	wantSizes := []image.Point{{224, 224}, {224, 224}, {52, 224}, {224, 76}, {224, 76}, {52, 76}}
	for i, p := range patches {
		if got := p.Bounds().Size(); got != wantSizes[i] {
			t.Errorf("patch %d size = %v, want %v", i, got, wantSizes[i])
		}
		r, g, _, _ := p.At(0, 0).RGBA()
		col, row := uint8(r>>8), uint8(g>>8)
		if int(row)*3+int(col) != i {
			t.Errorf("patch %d came from row %d col %d", i, row, col)
		}
	}
}

func TestImageChunker_Base64PNG(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage(224, 100)); err != nil {
		t.Fatal(err)
	}
	patches, err := ImageChunker{}.Chunk(ImageInput{Base64: base64.StdEncoding.EncodeToString(buf.Bytes())})
	if err != nil {
		t.Fatal(err)
	}
	if len(patches) != 1 || patches[0].Bounds().Size() != (image.Point{224, 100}) {
		t.Errorf("patches = %d", len(patches))
	}
}

func TestImageChunker_Errors(t *testing.T) {
	if _, err := (ImageChunker{}).Chunk(ImageInput{}); err == nil {
		t.Error("expected error for empty input")
	}
	notPNG := base64.StdEncoding.EncodeToString([]byte("plain text"))
	if _, err := (ImageChunker{}).Chunk(ImageInput{Base64: notPNG}); err == nil {
		t.Error("expected error for non-PNG data")
	}
}
