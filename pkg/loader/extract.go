package loader

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractors maps a file extension to its plain-text converter.
var extractors = map[string]func(path string) (string, error){
	".pdf":  extractPDF,
	".txt":  extractPlain,
	".md":   extractPlain,
	".csv":  extractCSV,
	".docx": extractDocx,
	".doc":  extractDocx,
}

func extractPlain(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func extractPDF(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", nil
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}

	out, err := io.ReadAll(plain)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func extractCSV(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, record := range records {
		b.WriteString(strings.Join(record, ", "))
		b.WriteString("\n")
	}
	return b.String(), nil
}

// extractDocx pulls paragraph text out of the word/document.xml entry.
// Legacy .doc files are not zip archives and fail here with a parse error.
func extractDocx(path string) (string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("not a valid word document: %v", err)
	}
	defer archive.Close()

	var doc *zip.File
	for _, f := range archive.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", fmt.Errorf("word/document.xml not found in archive")
	}

	rc, err := doc.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	var b strings.Builder
	decoder := xml.NewDecoder(rc)
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := token.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.EndElement:
			if t.Name.Local == "p" {
				b.WriteString("\n")
			}
		}
	}
	return b.String(), nil
}
