package imagecodec

import (
	"encoding/base64"
	"net/http"
	"strings"
)

// DataURI decodes a payload into a renderable data: URI.
// An absent payload yields an empty string and no error.
func (c *Codec) DataURI(payload []byte) (string, error) {
	raw, err := c.Decode(payload)
	if err != nil {
		return "", err
	}
	if len(raw) == 0 {
		return "", nil
	}

	mime := http.DetectContentType(raw)
	if !strings.HasPrefix(mime, "image/") {
		mime = "image/jpeg"
	}

	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(raw), nil
}
