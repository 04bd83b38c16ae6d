package fetcher

import (
	"mime"
	"strings"

	"github.com/aleister1102/pagewatch/internal/models"
	"github.com/gabriel-vasile/mimetype"
)

// DetectKind resolves how fetched content should be normalized. An explicit
// resource hint wins, then the Content-Type header, then content sniffing.
func DetectKind(hint models.ContentKind, contentType string, body []byte) models.ContentKind {
	if hint == models.KindHTML || hint == models.KindText {
		return hint
	}
	if kind, ok := kindFromMediaType(contentType); ok {
		return kind
	}
	if kind, ok := kindFromMediaType(mimetype.Detect(body).String()); ok {
		return kind
	}
	return models.KindText
}

func kindFromMediaType(contentType string) (models.ContentKind, bool) {
	if contentType == "" {
		return "", false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	}
	switch {
	case mediaType == "text/html", mediaType == "application/xhtml+xml":
		return models.KindHTML, true
	case strings.HasPrefix(mediaType, "text/"),
		mediaType == "application/json",
		mediaType == "application/javascript",
		mediaType == "application/xml":
		return models.KindText, true
	}
	return "", false
}
