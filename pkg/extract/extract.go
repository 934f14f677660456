// Package extract turns office documents and PDFs into plain text, one
// paragraph, row or PDF text line per output line, so they can be searched
// through a preprocessor.
package extract

import (
	"archive/zip"
	"bufio"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// MaxPartSize caps how much of a single document part is decompressed.
const MaxPartSize = 64 << 20

// part selects the XML members of an OOXML package that hold text.
type part struct {
	match  func(name string) bool
	breaks map[string]bool // end elements that finish a line
	gaps   map[string]bool // end elements that separate words
}

func exact(want string) func(string) bool {
	return func(name string) bool { return name == want }
}

func numbered(prefix string) func(string) bool {
	return func(name string) bool {
		return strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".xml")
	}
}

func set(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

var (
	docxParts = []part{
		{match: numbered("word/header"), breaks: set("p"), gaps: set("tab")},
		{match: exact("word/document.xml"), breaks: set("p", "br"), gaps: set("tab")},
		{match: numbered("word/footer"), breaks: set("p"), gaps: set("tab")},
	}
	xlsxParts = []part{
		{match: exact("xl/sharedStrings.xml"), breaks: set("si")},
		{match: numbered("xl/worksheets/sheet"), breaks: set("row"), gaps: set("c")},
	}
	pptxParts = []part{
		{match: numbered("ppt/slides/slide"), breaks: set("p")},
	}
)

// WriteText writes the text of the document at path to w. Files of any
// other type are copied through unchanged.
func WriteText(w io.Writer, path string) error {
	bw := bufio.NewWriter(w)
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		err = writePDF(bw, path)
	case ".docx":
		err = writeOOXML(bw, path, docxParts)
	case ".xlsx":
		err = writeOOXML(bw, path, xlsxParts)
	case ".pptx":
		err = writeOOXML(bw, path, pptxParts)
	default:
		err = copyFile(bw, path)
	}
	if err != nil {
		return err
	}
	return bw.Flush()
}

func copyFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}

// writeOOXML extracts text from the parts of a zip based office document,
// in part order then archive order.
func writeOOXML(w *bufio.Writer, path string, parts []part) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("failed to open %s as zip: %w", path, err)
	}
	defer zr.Close()

	for _, p := range parts {
		for _, f := range zr.File {
			if !p.match(f.Name) {
				continue
			}
			if err := writePart(w, f, p); err != nil {
				return fmt.Errorf("%s: %s: %w", path, f.Name, err)
			}
		}
	}
	return nil
}

func writePart(w *bufio.Writer, f *zip.File, p part) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, MaxPartSize))
	if err != nil {
		return err
	}
	return writeXMLText(w, data, p.breaks, p.gaps)
}

// writeXMLText writes the character data of an XML document, starting a new
// line after each element in breaks and a space after each in gaps.
func writeXMLText(w *bufio.Writer, data []byte, breaks, gaps map[string]bool) error {
	var line strings.Builder
	flush := func() {
		if s := cleanText(line.String()); s != "" {
			w.WriteString(s)
			w.WriteByte('\n')
		}
		line.Reset()
	}

	decoder := xml.NewDecoder(bytes.NewReader(data))
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		switch t := token.(type) {
		case xml.CharData:
			line.Write(t)
		case xml.EndElement:
			if breaks[t.Name.Local] {
				flush()
			} else if gaps[t.Name.Local] {
				line.WriteByte(' ')
			}
		}
	}
	flush()
	return nil
}

// writePDF extracts the plain text of every page using ledongthuc/pdf.
func writePDF(w *bufio.Writer, path string) error {
	f, r, err := pdf.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open PDF %s: %w", path, err)
	}
	defer f.Close()

	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// Keep what the other pages yield.
			continue
		}
		for _, l := range strings.Split(text, "\n") {
			if s := cleanText(l); s != "" {
				w.WriteString(s)
				w.WriteByte('\n')
			}
		}
	}
	return nil
}

// cleanText collapses whitespace runs and drops non-printable characters.
func cleanText(s string) string {
	var result strings.Builder
	lastSpace := false

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastSpace {
				result.WriteRune(' ')
				lastSpace = true
			}
		} else if unicode.IsPrint(r) {
			result.WriteRune(r)
			lastSpace = false
		}
	}

	return strings.TrimSpace(result.String())
}
