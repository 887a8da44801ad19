// Package images decodes inline image payloads and describes their contents.
package images

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/noobbricks/noob-bricks/internal/domain"
	domainerrors "github.com/noobbricks/noob-bricks/internal/errors"
)

// Payload is a decoded data URI.
type Payload struct {
	MIMEType string
	Data     []byte
}

// ParseDataURI decodes a "data:image/...;base64,..." payload.
// Percent-encoded (non-base64) payloads are accepted as well.
func ParseDataURI(uri string) (*Payload, error) {
	if !strings.HasPrefix(uri, domain.InlinePrefix) {
		return nil, domainerrors.Validation("image payload must start with " + domain.InlinePrefix)
	}

	header, body, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, domainerrors.Validation("image payload has no data section")
	}

	params := strings.Split(header, ";")
	p := &Payload{MIMEType: strings.ToLower(params[0])}

	isBase64 := false
	for _, param := range params[1:] {
		if strings.EqualFold(param, "base64") {
			isBase64 = true
		}
	}

	var err error
	if isBase64 {
		p.Data, err = base64.StdEncoding.DecodeString(body)
		if err != nil {
			// Some encoders drop the padding.
			p.Data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(body, "="))
		}
	} else {
		var s string
		s, err = url.PathUnescape(body)
		p.Data = []byte(s)
	}
	if err != nil {
		return nil, domainerrors.Validationf("image payload is not decodable: %v", err)
	}
	return p, nil
}

// EncodeDataURI renders data as a base64 data URI.
func EncodeDataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DataURI renders the payload back into its inline form.
func (p *Payload) DataURI() string {
	return EncodeDataURI(p.MIMEType, p.Data)
}

// FromFile reads an image file and returns it as an inline payload.
func FromFile(path string) (string, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-selected image file
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	return FromBytes(data)
}

// FromBytes sniffs the content type of data and returns it as an inline payload.
func FromBytes(data []byte) (string, error) {
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return "", domainerrors.Validationf("file is not an image (detected %s)", mimeType)
	}
	return EncodeDataURI(mimeType, data), nil
}
