package stream

import (
	"path/filepath"
	"strings"
)

// fallbackContentType is used for unrecognized extensions.
const fallbackContentType = "video/mp4"

var contentTypes = map[string]string{
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".ogg":  "video/ogg",
	".mov":  "video/quicktime",
}

// ContentType maps a file name's extension to its MIME type. File contents
// are never sniffed.
func ContentType(name string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return fallbackContentType
}
