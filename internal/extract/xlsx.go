package extract

import (
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

// xlsxText renders every sheet as tab-joined rows under a "[Sheet: name]"
// header, matching the structured Sheets API output so both paths produce
// the same corpus text.
func (e *Extractor) xlsxText(path string, size int64) string {
	f, err := excelize.OpenFile(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Int64("size", size).Msg("xlsx open failed")
		return ""
	}
	defer f.Close()

	var sb strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Str("sheet", sheet).Msg("xlsx rows failed")
			continue
		}

		var lines []string
		for _, row := range rows {
			cells := make([]string, 0, len(row))
			for _, cell := range row {
				if cell != "" {
					cells = append(cells, cell)
				}
			}
			if len(cells) > 0 {
				lines = append(lines, strings.Join(cells, "\t"))
			}
		}
		if len(lines) == 0 {
			continue
		}
		sb.WriteString("[Sheet: " + sheet + "]\n")
		sb.WriteString(strings.Join(lines, "\n"))
		sb.WriteByte('\n')
	}
	return strings.TrimSpace(sb.String())
}
