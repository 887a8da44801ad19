package images

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder

	"github.com/bbrks/go-blurhash"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// blurHashSize bounds the thumbnail used for BlurHash; a small image gives nearly the same hash.
const blurHashSize = 64

// Info describes an inline image.
type Info struct {
	MIMEType string `json:"mimeType"`
	Format   string `json:"format"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Bytes    int    `json:"bytes"`
	BlurHash string `json:"blurHash,omitempty"`
}

// Inspect decodes an inline payload and reports its format, size and BlurHash.
func Inspect(uri string) (*Info, error) {
	p, err := ParseDataURI(uri)
	if err != nil {
		return nil, err
	}

	img, format, err := image.Decode(bytes.NewReader(p.Data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	info := &Info{
		MIMEType: p.MIMEType,
		Format:   format,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Bytes:    len(p.Data),
	}

	info.BlurHash, err = ComputeBlurHash(img)
	if err != nil {
		return nil, err
	}
	return info, nil
}

// ComputeBlurHash returns a 4x3 component BlurHash of img.
func ComputeBlurHash(img image.Image) (string, error) {
	hash, err := blurhash.Encode(4, 3, thumbnail(img))
	if err != nil {
		return "", fmt.Errorf("encode blurhash: %w", err)
	}
	return hash, nil
}

func thumbnail(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() <= blurHashSize && b.Dy() <= blurHashSize {
		return img
	}
	return imaging.Fit(img, blurHashSize, blurHashSize, imaging.Box)
}
