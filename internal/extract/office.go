package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var slideName = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// ParseDOCX returns the text of word/document.xml: paragraphs and table rows
// end with a newline, table cells are separated by tabs.
func ParseDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open docx: %w", err)
	}

	var doc *zip.File
	for _, f := range zr.File {
		if strings.EqualFold(f.Name, "word/document.xml") {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", errors.New("docx has no word/document.xml")
	}

	rc, err := doc.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open word/document.xml: %w", err)
	}
	defer func() {
		_ = rc.Close()
	}()

	return docxText(rc)
}

func docxText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var b strings.Builder
	atLineStart := true

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse docx xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t", "instrText":
				var s string
				if err := dec.DecodeElement(&s, &t); err != nil {
					return "", fmt.Errorf("failed to parse docx text run: %w", err)
				}
				b.WriteString(s)
				atLineStart = false
			case "tab":
				b.WriteByte('\t')
				atLineStart = false
			case "br", "cr":
				b.WriteByte('\n')
				atLineStart = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p", "tr":
				if !atLineStart {
					b.WriteByte('\n')
					atLineStart = true
				}
			case "tc":
				if !atLineStart {
					b.WriteByte('\t')
				}
			}
		}
	}
	return b.String(), nil
}

// ParsePPTX returns the text runs of every slide. Runs are one per line and
// slides, taken in numeric order, are separated by a blank line.
func ParsePPTX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pptx: %w", err)
	}

	type slide struct {
		num  int
		file *zip.File
	}
	var slides []slide
	for _, f := range zr.File {
		m := slideName.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		slides = append(slides, slide{num: n, file: f})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	parts := make([]string, 0, len(slides))
	for _, s := range slides {
		runs, err := slideRuns(s.file)
		if err != nil {
			return "", fmt.Errorf("slide %d: %w", s.num, err)
		}
		if len(runs) > 0 {
			parts = append(parts, strings.Join(runs, "\n"))
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

func slideRuns(f *zip.File) ([]string, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rc.Close()
	}()

	dec := xml.NewDecoder(rc)
	var runs []string
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return runs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse slide xml: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "t" {
			continue
		}
		var s string
		if err := dec.DecodeElement(&s, &start); err != nil {
			return nil, fmt.Errorf("failed to parse slide text run: %w", err)
		}
		if s = strings.TrimSpace(s); s != "" {
			runs = append(runs, s)
		}
	}
}
