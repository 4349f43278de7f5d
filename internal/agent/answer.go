package agent

import (
	"fmt"
	"strings"

	"github.com/driveagent/driveagent/pkg/models"
)

// formatAnswer combines the model's final text with a structured appendix
// built from the recorded tool calls. Search hits win over summaries, which
// win over sent emails; with no structured results the text stands alone.
func formatAnswer(text string, executed []models.ExecutedToolCall) string {
	if rows := searchRows(executed); len(rows) > 0 {
		var sb strings.Builder
		sb.WriteString(text)
		sb.WriteString("\n\n")
		for i, row := range rows {
			sb.WriteString(fmt.Sprintf("%d. 📁 %s — %s (<a href=\"%s\">Open</a>)\n",
				i+1, str(row, "folderPath"), str(row, "fileName"), str(row, "googleLink")))
		}
		return strings.TrimRight(sb.String(), "\n")
	}

	if summaries := summaryResults(executed); len(summaries) > 0 {
		var sb strings.Builder
		sb.WriteString(text)
		for _, s := range summaries {
			sb.WriteString("\n\n")
			sb.WriteString(fmt.Sprintf("📄 %s\n📁 %s\n🔗 %s",
				str(s, "documentName"), str(s, "folderPath"), str(s, "googleLink")))
		}
		return sb.String()
	}

	if emails := sentEmails(executed); len(emails) > 0 {
		var sb strings.Builder
		sb.WriteString(text)
		for _, e := range emails {
			sb.WriteString("\n\n")
			sb.WriteString(fmt.Sprintf("📧 %s\nSubject: %s\n%s",
				str(e, "to"), str(e, "subject"), str(e, "body")))
		}
		return sb.String()
	}

	return text
}

// searchRows collects result rows from every successful searchDocuments call.
func searchRows(executed []models.ExecutedToolCall) []map[string]any {
	var rows []map[string]any
	for _, call := range executed {
		if call.Name != "searchDocuments" {
			continue
		}
		if ok, _ := call.Result["success"].(bool); !ok {
			continue
		}
		if results, ok := call.Result["results"].([]map[string]any); ok {
			rows = append(rows, results...)
		}
	}
	return rows
}

// summaryResults collects the payloads of successful summarizeDocument calls.
func summaryResults(executed []models.ExecutedToolCall) []map[string]any {
	var out []map[string]any
	for _, call := range executed {
		if call.Name != "summarizeDocument" {
			continue
		}
		if ok, _ := call.Result["success"].(bool); ok {
			out = append(out, call.Result)
		}
	}
	return out
}

// sentEmails collects the sentEmail payloads of successful sendEmail calls.
func sentEmails(executed []models.ExecutedToolCall) []map[string]any {
	var out []map[string]any
	for _, call := range executed {
		if call.Name != "sendEmail" {
			continue
		}
		if ok, _ := call.Result["success"].(bool); !ok {
			continue
		}
		if sent, ok := call.Result["sentEmail"].(map[string]any); ok {
			out = append(out, sent)
		}
	}
	return out
}

func str(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
