package extractor

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

type wordDocument struct {
	XMLName xml.Name `xml:"document"`
	Body    docBody  `xml:"body"`
}

type docBody struct {
	Paragraphs []docParagraph `xml:"p"`
}

type docParagraph struct {
	Runs []docRun `xml:"r"`
}

type docRun struct {
	Text string `xml:"t"`
}

func ExtractDOCX(data []byte) (string, error) {
	reader := bytes.NewReader(data)

	zipReader, err := zip.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", &ExtractionError{Format: "DOCX", Err: fmt.Errorf("not a valid ZIP archive: %w", err)}
	}

	var documentFile *zip.File
	for _, file := range zipReader.File {
		if file.Name == "word/document.xml" {
			documentFile = file
			break
		}
	}

	if documentFile == nil {
		return "", &ExtractionError{Format: "DOCX", Err: fmt.Errorf("document.xml not found")}
	}

	xmlFile, err := documentFile.Open()
	if err != nil {
		return "", &ExtractionError{Format: "DOCX", Err: fmt.Errorf("failed to open document.xml: %w", err)}
	}
	defer xmlFile.Close()

	xmlData, err := io.ReadAll(xmlFile)
	if err != nil {
		return "", &ExtractionError{Format: "DOCX", Err: fmt.Errorf("failed to read document.xml: %w", err)}
	}

	var doc wordDocument
	if err := xml.Unmarshal(xmlData, &doc); err != nil {
		return "", &ExtractionError{Format: "DOCX", Err: fmt.Errorf("failed to parse document.xml: %w", err)}
	}

	var textBuilder strings.Builder
	for _, para := range doc.Body.Paragraphs {
		for _, run := range para.Runs {
			textBuilder.WriteString(run.Text)
		}
		textBuilder.WriteString("\n")
	}

	extractedText := strings.TrimSpace(textBuilder.String())

	if extractedText == "" {
		return "", &ExtractionError{Format: "DOCX", Err: fmt.Errorf("no text could be extracted")}
	}

	return extractedText, nil
}
