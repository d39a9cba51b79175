package jobs

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"path"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/appboardguru/boardguru/pkg/apperr"
)

const (
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimePPTX = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
)

// ExtractText returns the plain text of a document. Text formats are
// returned as is; Office Open XML documents are unzipped and their text
// runs joined.
func ExtractText(contentType, fileName string, data []byte) (string, error) {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	ext := strings.ToLower(path.Ext(fileName))

	switch {
	case strings.HasPrefix(ct, "text/"), ext == ".txt", ext == ".md", ext == ".csv":
		if !utf8.Valid(data) {
			return "", apperr.BusinessRule("document is not valid UTF-8 text")
		}
		return string(data), nil
	case ct == mimeDOCX || ext == ".docx":
		return officeText(data, func(name string) bool { return name == "word/document.xml" })
	case ct == mimePPTX || ext == ".pptx":
		return officeText(data, func(name string) bool {
			return strings.HasPrefix(name, "ppt/slides/slide") && strings.HasSuffix(name, ".xml")
		})
	case ct == mimeXLSX || ext == ".xlsx":
		return officeText(data, func(name string) bool { return name == "xl/sharedStrings.xml" })
	}
	return "", unsupported(contentType)
}

// officeText collects the character data of every <t> element (w:t, a:t
// and t) in the archive parts selected by want. Paragraph ends become new
// lines.
func officeText(data []byte, want func(name string) bool) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", apperr.BusinessRule("document is not a valid Office file").Wrap(err)
	}

	files := make([]*zip.File, 0)
	for _, f := range zr.File {
		if want(f.Name) {
			files = append(files, f)
		}
	}
	sort.Slice(files, func(i, j int) bool { return naturalLess(files[i].Name, files[j].Name) })

	var b strings.Builder
	for _, f := range files {
		rc, err := f.Open()
		if err != nil {
			return "", apperr.BusinessRule("document is not a valid Office file").Wrap(err)
		}
		err = xmlText(rc, &b)
		rc.Close()
		if err != nil {
			return "", apperr.BusinessRule("document is not a valid Office file").Wrap(err)
		}
	}
	return strings.TrimSpace(b.String()), nil
}

func xmlText(r io.Reader, b *strings.Builder) error {
	dec := xml.NewDecoder(r)
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			inText = t.Name.Local == "t"
		case xml.EndElement:
			inText = false
			// paragraphs (w:p, a:p) and shared string items (si)
			if t.Name.Local == "p" || t.Name.Local == "si" {
				b.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
}

// naturalLess orders slide2.xml before slide10.xml
func naturalLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
