package agent

import (
	"strings"
	"testing"

	"github.com/driveagent/driveagent/pkg/models"
)

func TestFormatAnswerPlainText(t *testing.T) {
	got := formatAnswer("Just an answer.", nil)
	if got != "Just an answer." {
		t.Errorf("formatAnswer = %q, want unmodified text", got)
	}
}

func TestFormatAnswerSearchResults(t *testing.T) {
	executed := []models.ExecutedToolCall{{
		Name: "searchDocuments",
		Result: map[string]any{
			"success": true,
			"count":   2,
			"results": []map[string]any{
				{"fileName": "report.pdf", "folderPath": "finance", "googleLink": "https://drive.google.com/file/d/f1"},
				{"fileName": "notes.docx", "folderPath": "meetings", "googleLink": "https://docs.google.com/document/d/f2"},
			},
		},
	}}

	got := formatAnswer("Found these:", executed)
	if !strings.Contains(got, "1. 📁 finance — report.pdf") {
		t.Errorf("answer = %q, missing first numbered row", got)
	}
	if !strings.Contains(got, "2. 📁 meetings — notes.docx") {
		t.Errorf("answer = %q, missing second numbered row", got)
	}
	if !strings.Contains(got, `<a href="https://drive.google.com/file/d/f1">Open</a>`) {
		t.Errorf("answer = %q, missing open link", got)
	}
}

func TestFormatAnswerSearchWinsOverSummary(t *testing.T) {
	executed := []models.ExecutedToolCall{
		{
			Name: "summarizeDocument",
			Result: map[string]any{
				"success": true, "documentName": "report.pdf",
				"folderPath": "finance", "googleLink": "https://x", "summary": "...",
			},
		},
		{
			Name: "searchDocuments",
			Result: map[string]any{
				"success": true,
				"results": []map[string]any{
					{"fileName": "report.pdf", "folderPath": "finance", "googleLink": "https://x"},
				},
			},
		},
	}

	got := formatAnswer("Answer.", executed)
	if !strings.Contains(got, "1. 📁 finance") {
		t.Errorf("answer = %q, want search rows", got)
	}
	if strings.Contains(got, "📄") {
		t.Errorf("answer = %q, summary block must not render when search rows exist", got)
	}
}

func TestFormatAnswerSummaryBlock(t *testing.T) {
	executed := []models.ExecutedToolCall{{
		Name: "summarizeDocument",
		Result: map[string]any{
			"success":      true,
			"documentName": "report.pdf",
			"folderPath":   "finance",
			"googleLink":   "https://drive.google.com/file/d/f1",
			"summary":      "It went well.",
		},
	}}

	got := formatAnswer("Here is the summary.", executed)
	for _, want := range []string{"📄 report.pdf", "📁 finance", "🔗 https://drive.google.com/file/d/f1"} {
		if !strings.Contains(got, want) {
			t.Errorf("answer = %q, missing %q", got, want)
		}
	}
}

func TestFormatAnswerEmailBlock(t *testing.T) {
	executed := []models.ExecutedToolCall{{
		Name: "sendEmail",
		Result: map[string]any{
			"success": true,
			"sentEmail": map[string]any{
				"to": "dana@example.com", "subject": "Digest", "body": "Hello there",
			},
		},
	}}

	got := formatAnswer("Sent.", executed)
	for _, want := range []string{"📧 dana@example.com", "Subject: Digest", "Hello there"} {
		if !strings.Contains(got, want) {
			t.Errorf("answer = %q, missing %q", got, want)
		}
	}
}

func TestFormatAnswerIgnoresFailedCalls(t *testing.T) {
	executed := []models.ExecutedToolCall{{
		Name:   "searchDocuments",
		Result: map[string]any{"success": false, "error": "backend down"},
	}}

	got := formatAnswer("Sorry, the search failed.", executed)
	if got != "Sorry, the search failed." {
		t.Errorf("answer = %q, want unmodified text for failed calls", got)
	}
}
