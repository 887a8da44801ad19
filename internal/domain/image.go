package domain

import (
	"encoding/json/v2"
	"strings"
	"time"

	"github.com/noobbricks/noob-bricks/internal/id"
)

// InlinePrefix marks a self-contained image payload.
const InlinePrefix = "data:image/"

// ImageKind discriminates the ImageRef union.
type ImageKind uint8

// Image reference kinds.
const (
	ImageAbsent ImageKind = iota
	ImageInline
	ImageReference
)

func (k ImageKind) String() string {
	switch k {
	case ImageInline:
		return "inline"
	case ImageReference:
		return "reference"
	default:
		return "absent"
	}
}

// ImageRef is the image attached to a brick: nothing, an inline data payload,
// or a reference id into the blob store. It is serialized as a plain string.
type ImageRef struct {
	kind  ImageKind
	value string
}

// NoImage returns the absent image.
func NoImage() ImageRef { return ImageRef{} }

// InlineImage wraps a data payload.
func InlineImage(payload string) ImageRef {
	return ImageRef{kind: ImageInline, value: payload}
}

// ReferenceImage wraps a blob store id.
func ReferenceImage(refID string) ImageRef {
	return ImageRef{kind: ImageReference, value: refID}
}

// ParseImageRef classifies a raw stored value. The empty string is absent;
// ok is false when a non-empty value is neither an inline payload nor a reference.
func ParseImageRef(raw string) (ref ImageRef, ok bool) {
	switch {
	case raw == "":
		return NoImage(), true
	case strings.HasPrefix(raw, InlinePrefix):
		return InlineImage(raw), true
	case id.IsImageID(raw):
		return ReferenceImage(raw), true
	default:
		return NoImage(), false
	}
}

// Kind returns the variant.
func (r ImageRef) Kind() ImageKind { return r.kind }

// Value returns the payload or reference id, empty when absent.
func (r ImageRef) Value() string { return r.value }

// IsZero reports whether no image is attached.
func (r ImageRef) IsZero() bool { return r.kind == ImageAbsent }

// IsInline reports whether the image is an inline payload.
func (r ImageRef) IsInline() bool { return r.kind == ImageInline }

// IsReference reports whether the image lives in the blob store.
func (r ImageRef) IsReference() bool { return r.kind == ImageReference }

func (r ImageRef) String() string {
	if r.kind == ImageInline && len(r.value) > 32 {
		return r.value[:32] + "..."
	}
	return r.value
}

// MarshalJSON encodes the ref as its raw string.
func (r ImageRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.value)
}

// UnmarshalJSON accepts a string or null. Unrecognized strings decode as absent.
func (r *ImageRef) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*r = NoImage()
		return nil
	}
	*r, _ = ParseImageRef(*raw)
	return nil
}

// ImageBlob is a payload stored in the blob store under a reference id.
type ImageBlob struct {
	ID        string    `json:"id"`
	Data      string    `json:"data"`
	CreatedAt time.Time `json:"createdAt"`
}
