package extractor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/research-assistant/internal/core/domain"
)

// extractPDF pulls text page by page, prefixing each non-blank page with a
// page-boundary marker so citations can reference page numbers.
func (e *Extractor) extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", domain.WrapError(domain.ErrDecodeFailure, "open pdf", err)
	}

	pages := make([]string, 0, reader.NumPage())
	for num := 1; num <= reader.NumPage(); num++ {
		page := reader.Page(num)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			// A broken page contributes no text but does not sink the document.
			e.logger.Warn("pdf_page_extraction_failed", "page", num, "error", err)
			pages = append(pages, "")
			continue
		}
		pages = append(pages, pageText)
	}

	text := joinPages(pages)
	if text == "" {
		return "", domain.NewError(domain.ErrDecodeFailure, "extract pdf",
			"no text content found, the file might be image-based or corrupted")
	}
	return text, nil
}

func joinPages(pages []string) string {
	var out strings.Builder
	for i, pageText := range pages {
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		fmt.Fprintf(&out, "\n--- Page %d ---\n%s\n", i+1, pageText)
	}
	return strings.TrimSpace(out.String())
}
