package extractor

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"
)

func TestExtractTXT(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"plain utf8", []byte("hello world"), "hello world"},
		{"utf8 bom", []byte{0xEF, 0xBB, 0xBF, 'h', 'i'}, "hi"},
		{"crlf normalized", []byte("line one\r\nline two\r\n"), "line one\nline two"},
		{"blank lines dropped", []byte("a\n\n\nb\n"), "a\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractTXT(tt.data)
			if err != nil {
				t.Fatalf("ExtractTXT returned error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractTXTUTF16(t *testing.T) {
	// "hi" in UTF-16LE with BOM
	data := []byte{0xFF, 0xFE, 'h', 0x00, 'i', 0x00}

	got, err := ExtractTXT(data)
	if err != nil {
		t.Fatalf("ExtractTXT returned error: %v", err)
	}
	if got != "hi" {
		t.Errorf("got %q, want %q", got, "hi")
	}
}

func TestExtractTXTEmpty(t *testing.T) {
	var extErr *ExtractionError

	_, err := ExtractTXT(nil)
	if !errors.As(err, &extErr) {
		t.Errorf("empty file error = %v, want ExtractionError", err)
	}

	_, err = ExtractTXT([]byte("   \n  \n"))
	if !errors.As(err, &extErr) {
		t.Errorf("whitespace-only file error = %v, want ExtractionError", err)
	}
}

func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("word/document.xml")
	if err != nil {
		t.Fatalf("failed to create zip entry: %v", err)
	}
	if _, err := f.Write([]byte(documentXML)); err != nil {
		t.Fatalf("failed to write zip entry: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	return buf.Bytes()
}

func TestExtractDOCX(t *testing.T) {
	data := buildDOCX(t, `<?xml version="1.0"?>
<document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <body>
    <p><r><t>Hello</t></r><r><t> world</t></r></p>
    <p><r><t>Second paragraph</t></r></p>
  </body>
</document>`)

	got, err := ExtractDOCX(data)
	if err != nil {
		t.Fatalf("ExtractDOCX returned error: %v", err)
	}
	want := "Hello world\nSecond paragraph"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExtractDOCXMalformed(t *testing.T) {
	var extErr *ExtractionError

	_, err := ExtractDOCX([]byte("not a zip archive"))
	if !errors.As(err, &extErr) {
		t.Errorf("malformed DOCX error = %v, want ExtractionError", err)
	}

	// Valid ZIP, but no word/document.xml
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, _ := w.Create("other.txt")
	f.Write([]byte("content"))
	w.Close()

	_, err = ExtractDOCX(buf.Bytes())
	if !errors.As(err, &extErr) {
		t.Errorf("ZIP without document.xml error = %v, want ExtractionError", err)
	}
}

func TestExtractPDFMalformed(t *testing.T) {
	var extErr *ExtractionError

	_, err := ExtractPDF([]byte("definitely not a PDF"))
	if !errors.As(err, &extErr) {
		t.Errorf("malformed PDF error = %v, want ExtractionError", err)
	}
}

func TestExtractUnsupportedType(t *testing.T) {
	var extErr *ExtractionError

	_, err := Extract([]byte("data"), "image/png")
	if !errors.As(err, &extErr) {
		t.Errorf("unsupported type error = %v, want ExtractionError", err)
	}
}
