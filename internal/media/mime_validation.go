package media

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"path"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const (
	imagePrefix = "image/"
	sniffBytes  = 3072
)

var unsafeNameRe = regexp.MustCompile(`[^\p{L}\p{N}._-]+`)

// normalizeMimeType lowercases the media type and drops parameters.
func normalizeMimeType(value string) (string, error) {
	clean := strings.TrimSpace(value)
	if clean == "" {
		return "", fmt.Errorf("mime type required")
	}
	mediaType, _, err := mime.ParseMediaType(clean)
	if err != nil {
		return "", fmt.Errorf("mime type invalid: %w", err)
	}
	return strings.ToLower(mediaType), nil
}

func isImageType(value string) bool {
	mediaType, err := normalizeMimeType(value)
	return err == nil && strings.HasPrefix(mediaType, imagePrefix)
}

// sniffImage detects the type of the leading bytes of r and returns a reader
// that still yields the whole stream.
func sniffImage(r io.Reader) (string, io.Reader, error) {
	head := make([]byte, sniffBytes)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", nil, err
	}
	head = head[:n]
	detected := mimetype.Detect(head)
	return detected.String(), io.MultiReader(bytes.NewReader(head), r), nil
}

// sanitizeFileName keeps the base name and replaces anything other than
// letters, digits, dot, underscore and hyphen with an underscore.
func sanitizeFileName(name string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	if base == "." || base == "/" {
		base = ""
	}
	base = strings.Trim(unsafeNameRe.ReplaceAllString(base, "_"), "_")
	if base == "" || strings.Trim(base, ".") == "" {
		return "file"
	}
	return base
}
