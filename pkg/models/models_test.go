package models_test

import (
	"testing"

	"github.com/driveagent/driveagent/pkg/models"
)

func TestDriveLink(t *testing.T) {
	cases := []struct {
		mime string
		want string
	}{
		{models.MimeGoogleDoc, "https://docs.google.com/document/d/abc123"},
		{models.MimeGoogleSheet, "https://docs.google.com/spreadsheets/d/abc123"},
		{models.MimeGoogleSlides, "https://docs.google.com/presentation/d/abc123"},
		{models.MimePDF, "https://drive.google.com/file/d/abc123"},
		{"text/plain", "https://drive.google.com/file/d/abc123"},
	}
	for _, c := range cases {
		if got := models.DriveLink("abc123", c.mime); got != c.want {
			t.Errorf("DriveLink(%q) = %q, want %q", c.mime, got, c.want)
		}
	}
}

func TestExportMime(t *testing.T) {
	cases := []struct {
		mime   string
		want   string
		wantOK bool
	}{
		{models.MimeGoogleDoc, models.MimeDOCX, true},
		{models.MimeGoogleSheet, models.MimeXLSX, true},
		{models.MimeGoogleSlides, models.MimePDF, true},
		{models.MimePDF, "", false},
		{"text/plain", "", false},
	}
	for _, c := range cases {
		got, ok := models.ExportMime(c.mime)
		if got != c.want || ok != c.wantOK {
			t.Errorf("ExportMime(%q) = (%q, %v), want (%q, %v)", c.mime, got, ok, c.want, c.wantOK)
		}
	}
}

func TestExtensionFor(t *testing.T) {
	cases := []struct {
		mime string
		want string
	}{
		{models.MimeGoogleDoc, ".docx"},
		{models.MimeDOCX, ".docx"},
		{models.MimeGoogleSheet, ".xlsx"},
		{models.MimeGoogleSlides, ".pdf"},
		{models.MimePDF, ".pdf"},
		{"text/markdown", ".txt"},
		{"application/zip", ""},
	}
	for _, c := range cases {
		if got := models.ExtensionFor(c.mime); got != c.want {
			t.Errorf("ExtensionFor(%q) = %q, want %q", c.mime, got, c.want)
		}
	}
}

func TestDocumentPath(t *testing.T) {
	md := models.DocumentMetadata{
		Name:       "report",
		FolderPath: "finance/2026",
		Extension:  ".pdf",
	}
	if got, want := models.DocumentPath("Drive", md), "Drive/finance/2026/report.pdf"; got != want {
		t.Errorf("DocumentPath = %q, want %q", got, want)
	}

	// Extension already part of the name must not be doubled.
	md.Name = "report.pdf"
	if got, want := models.DocumentPath("Drive", md), "Drive/finance/2026/report.pdf"; got != want {
		t.Errorf("DocumentPath with suffixed name = %q, want %q", got, want)
	}

	// Root-level file has no folder path component.
	md.FolderPath = ""
	if got, want := models.DocumentPath("Drive", md), "Drive/report.pdf"; got != want {
		t.Errorf("DocumentPath root-level = %q, want %q", got, want)
	}
}

func TestSearchResultFileName(t *testing.T) {
	r := models.SearchResult{Metadata: models.DocumentMetadata{Name: "notes", Extension: ".docx"}}
	if got := r.FileName(); got != "notes.docx" {
		t.Errorf("FileName = %q, want %q", got, "notes.docx")
	}

	r.Metadata.Name = "notes.docx"
	if got := r.FileName(); got != "notes.docx" {
		t.Errorf("FileName with suffixed name = %q, want %q", got, "notes.docx")
	}
}

func TestMetadataLink(t *testing.T) {
	md := models.DocumentMetadata{MimeType: models.MimeGoogleDoc}
	if got, want := md.Link("id1"), "https://docs.google.com/document/d/id1"; got != want {
		t.Errorf("Link derived = %q, want %q", got, want)
	}

	md.GoogleLink = "https://example.com/stored"
	if got := md.Link("id1"); got != "https://example.com/stored" {
		t.Errorf("Link stored = %q, want stored link", got)
	}
}
