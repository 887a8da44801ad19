// Package domain holds the brick collection model and its pure operations.
package domain

import (
	"encoding/json/v2"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/noobbricks/noob-bricks/internal/id"
)

// TimeLayout is the ISO-8601 form used in exports, with millisecond precision.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Brick is one catalogued piece in the collection.
type Brick struct {
	ID        string    `json:"id"`
	Number    string    `json:"number"`
	Title     string    `json:"title,omitempty"`
	Tags      []string  `json:"tags"`
	Image     ImageRef  `json:"imageRef,omitzero"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UnmarshalJSON also accepts the legacy imageUrl key.
func (b *Brick) UnmarshalJSON(data []byte) error {
	type plain Brick
	if err := json.Unmarshal(data, (*plain)(b)); err != nil {
		return err
	}

	var legacy struct {
		ImageURL *string `json:"imageUrl"`
	}
	if err := json.Unmarshal(data, &legacy); err != nil {
		return err
	}
	if b.Image.IsZero() && legacy.ImageURL != nil {
		b.Image, _ = ParseImageRef(*legacy.ImageURL)
	}
	if b.Tags == nil {
		b.Tags = []string{}
	}
	return nil
}

// BrickForm is user-entered data for creating or editing a brick.
type BrickForm struct {
	Number string   `json:"number" validate:"required,max=64"`
	Title  string   `json:"title,omitempty" validate:"max=256"`
	Tags   []string `json:"tags" validate:"unique,dive,required,max=64"`
}

// Normalize trims whitespace from every field and drops empty tags.
func (f BrickForm) Normalize() BrickForm {
	out := BrickForm{
		Number: strings.TrimSpace(f.Number),
		Title:  strings.TrimSpace(f.Title),
		Tags:   make([]string, 0, len(f.Tags)),
	}
	for _, t := range f.Tags {
		if t = strings.TrimSpace(t); t != "" {
			out.Tags = append(out.Tags, t)
		}
	}
	return out
}

// Now returns the current UTC time truncated to millisecond precision.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// FormatTime renders t for CSV and XML exports.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime parses an ISO-8601 timestamp as written by FormatTime or any RFC 3339 producer.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

// CreateBrick builds a new brick from form data with a fresh id.
func CreateBrick(form BrickForm, now time.Time) (Brick, error) {
	brickID, err := id.NewBrickID()
	if err != nil {
		return Brick{}, err
	}
	return Brick{
		ID:        brickID,
		Number:    form.Number,
		Title:     form.Title,
		Tags:      cloneTags(form.Tags),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// UpdateBrick applies form data to b, keeping its id, image and creation time.
func UpdateBrick(b Brick, form BrickForm, now time.Time) Brick {
	b.Number = form.Number
	b.Title = form.Title
	b.Tags = cloneTags(form.Tags)
	b.UpdatedAt = now
	return b
}

func cloneTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return slices.Clone(tags)
}

// HasAnyTag reports whether b carries at least one of tags.
func (b Brick) HasAnyTag(tags []string) bool {
	for _, t := range b.Tags {
		if slices.Contains(tags, t) {
			return true
		}
	}
	return false
}
