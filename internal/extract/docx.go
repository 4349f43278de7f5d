package extract

import (
	"fmt"
	"os"
	"strings"

	"github.com/fumiama/go-docx"
	"github.com/rs/zerolog/log"
)

// docxText extracts paragraph and table text from a DOCX file. Returns ""
// when the archive cannot be parsed; the caller decides on a fallback.
func (e *Extractor) docxText(path string, size int64) string {
	f, err := os.Open(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Int64("size", size).Msg("docx open failed")
		return ""
	}
	defer f.Close()

	doc, err := docx.Parse(f, size)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Int64("size", size).Msg("docx parse failed")
		return ""
	}

	var sb strings.Builder
	for _, item := range doc.Document.Body.Items {
		switch item.(type) {
		case *docx.Paragraph, *docx.Table:
			sb.WriteString(fmt.Sprint(item))
			sb.WriteByte('\n')
		}
	}
	return strings.TrimSpace(sb.String())
}
