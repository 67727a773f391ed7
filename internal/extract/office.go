package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
)

const (
	docxDefaultPath  = "word/document.xml"
	contentTypesPath = "[Content_Types].xml"
	openDocContent   = "content.xml"
	pptxSlidePrefix  = "ppt/slides/slide"
	docxMainType     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
)

var (
	docxText = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)
	pptxText = regexp.MustCompile(`<a:t[^>]*>([^<]*)</a:t>`)

	odfParagraph = regexp.MustCompile(`<text:p[^>]*>([^<]*)</text:p>`)
	odfSpan      = regexp.MustCompile(`<text:span[^>]*>([^<]*)</text:span>`)
	odfHeading   = regexp.MustCompile(`<text:h[^>]*>([^<]*)</text:h>`)

	// PartName and ContentType may appear in either order.
	docxPartName = []*regexp.Regexp{
		regexp.MustCompile(`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + regexp.QuoteMeta(docxMainType) + `"`),
		regexp.MustCompile(`<Override[^>]+ContentType="` + regexp.QuoteMeta(docxMainType) + `"[^>]+PartName="([^"]+)"`),
	}
)

func openZip(format string, content []byte) (*zip.Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("extract %s: not a zip: %w", format, err)
	}
	return zr, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// findEntry returns the contents of the named entry, or nil when absent.
func findEntry(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name == name {
			return readEntry(f)
		}
	}
	return nil, nil
}

// collectText joins the first submatch of every pattern match, pattern by pattern.
func collectText(b *strings.Builder, xml string, patterns ...*regexp.Regexp) {
	for _, re := range patterns {
		for _, m := range re.FindAllStringSubmatch(xml, -1) {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(strings.TrimSpace(m[1]))
		}
	}
}

// docxMainPath reads the main document part from [Content_Types].xml.
func docxMainPath(zr *zip.Reader) string {
	ct, err := findEntry(zr, contentTypesPath)
	if err != nil || ct == nil {
		return docxDefaultPath
	}
	for _, re := range docxPartName {
		if m := re.FindSubmatch(ct); len(m) > 1 {
			return strings.TrimPrefix(string(m[1]), "/")
		}
	}
	return docxDefaultPath
}

func extractDOCX(content []byte) (string, error) {
	zr, err := openZip("DOCX", content)
	if err != nil {
		return "", err
	}
	path := docxMainPath(zr)
	xml, err := findEntry(zr, path)
	if err != nil {
		return "", fmt.Errorf("extract DOCX: read %s: %w", path, err)
	}
	if xml == nil {
		return "", fmt.Errorf("extract DOCX: %s not found", path)
	}
	var b strings.Builder
	collectText(&b, string(xml), docxText)
	return strings.TrimSpace(b.String()), nil
}

func extractPPTX(content []byte) (string, error) {
	zr, err := openZip("PPTX", content)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, f := range zr.File {
		if !strings.HasPrefix(f.Name, pptxSlidePrefix) || !strings.HasSuffix(f.Name, ".xml") {
			continue
		}
		xml, err := readEntry(f)
		if err != nil {
			return "", fmt.Errorf("extract PPTX: read %s: %w", f.Name, err)
		}
		collectText(&b, string(xml), pptxText)
	}
	return strings.TrimSpace(b.String()), nil
}

func extractOpenDocument(format string, content []byte, patterns ...*regexp.Regexp) (string, error) {
	zr, err := openZip(format, content)
	if err != nil {
		return "", err
	}
	xml, err := findEntry(zr, openDocContent)
	if err != nil {
		return "", fmt.Errorf("extract %s: read %s: %w", format, openDocContent, err)
	}
	if xml == nil {
		return "", fmt.Errorf("extract %s: %s not found", format, openDocContent)
	}
	var b strings.Builder
	collectText(&b, string(xml), patterns...)
	return strings.TrimSpace(b.String()), nil
}

func extractODP(content []byte) (string, error) {
	return extractOpenDocument("ODP", content, odfParagraph, odfSpan, odfHeading)
}

func extractODS(content []byte) (string, error) {
	return extractOpenDocument("ODS", content, odfParagraph, odfSpan)
}
