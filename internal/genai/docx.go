package genai

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"strings"
)

// ReadDocx extracts the paragraph text of a .docx file, joined with
// newlines. A .docx is a zip archive whose word/document.xml holds the
// runs of text.
func ReadDocx(path string) (string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("opening docx: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("opening document body: %w", err)
		}
		defer rc.Close()
		return extractParagraphs(xml.NewDecoder(rc))
	}
	return "", fmt.Errorf("no document body in %s", path)
}

func extractParagraphs(dec *xml.Decoder) (string, error) {
	var paragraphs []string
	var current strings.Builder
	inText := false

	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if s := strings.TrimSpace(current.String()); s != "" {
					paragraphs = append(paragraphs, s)
				}
				current.Reset()
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		paragraphs = append(paragraphs, s)
	}
	return strings.Join(paragraphs, "\n"), nil
}
