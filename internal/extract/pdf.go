package extract

import (
	"strings"

	"github.com/dslipak/pdf"
	"github.com/rs/zerolog/log"
)

// pdfText concatenates the plain text of every page. Pages that fail to
// decode are skipped.
func (e *Extractor) pdfText(path string, size int64) string {
	r, err := pdf.Open(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Int64("size", size).Msg("pdf open failed")
		return ""
	}

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Int("page", i).Msg("pdf page text failed")
			continue
		}
		sb.WriteString(text)
		sb.WriteByte('\n')
	}
	return strings.TrimSpace(sb.String())
}
