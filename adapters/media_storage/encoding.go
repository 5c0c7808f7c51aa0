package media_storage

import (
	"encoding/base64"
	"errors"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var ErrEmptyFile = errors.New("uploaded file is empty")

// contentType sniffs data and drops MIME parameters such as charset.
func contentType(data []byte) string {
	mt := mimetype.Detect(data).String()
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return mt
}

func encodeDataURI(data []byte) string {
	return "data:" + contentType(data) + ";base64," + base64.StdEncoding.EncodeToString(data)
}
