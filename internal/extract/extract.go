// Package extract turns downloaded files into plain text, dispatching on
// MIME type. Extraction failures degrade to an empty string: a document the
// parser cannot read is skipped by the sync, not fatal to it.
package extract

import (
	"context"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/driveagent/driveagent/pkg/models"
)

// Extractor implements contracts.TextExtractor.
type Extractor struct{}

// New creates a MIME-dispatching text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path and returns its plain text. Drive-native
// formats are expected to have been exported already: documents arrive as
// DOCX, spreadsheets as XLSX, presentations as PDF. An empty result with nil
// error means nothing was extractable.
func (e *Extractor) Extract(_ context.Context, path, mimeType string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.Size() == 0 {
		return "", nil
	}

	switch {
	case mimeType == models.MimePDF || mimeType == models.MimeGoogleSlides:
		return e.pdfText(path, info.Size()), nil

	case mimeType == models.MimeDOCX || mimeType == models.MimeGoogleDoc:
		if text := e.docxText(path, info.Size()); text != "" {
			return text, nil
		}
		// Some DOCX payloads are mislabeled plain text; fall back to bytes.
		return e.plainText(path, info.Size()), nil

	case mimeType == models.MimeXLSX || mimeType == models.MimeGoogleSheet:
		return e.xlsxText(path, info.Size()), nil

	case strings.HasPrefix(mimeType, "text/"):
		return e.plainText(path, info.Size()), nil
	}

	log.Debug().Str("mime", mimeType).Str("path", path).Msg("no extractor for mime type")
	return "", nil
}

func (e *Extractor) plainText(path string, size int64) string {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Int64("size", size).Msg("text read failed")
		return ""
	}
	if !utf8.Valid(data) {
		log.Warn().Str("path", path).Int64("size", size).Msg("file is not valid UTF-8")
		return ""
	}
	return string(data)
}
