package extractor

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/kirillkom/research-assistant/internal/core/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// extractText decodes a plain-text upload, trying candidate encodings in a
// fixed order: utf-8, utf-16 (BOM required), latin-1, cp1252.
func extractText(data []byte) (string, error) {
	text, err := decodeText(data)
	if err != nil {
		return "", domain.WrapError(domain.ErrDecodeFailure, "extract text", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", domain.NewError(domain.ErrEmptyContent, "extract text", "text file is empty")
	}
	return text, nil
}

func decodeText(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(bytes.TrimPrefix(data, utf8BOM)), nil
	}

	decoders := []*encoding.Decoder{
		unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder(),
		unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder(),
		charmap.ISO8859_1.NewDecoder(),
		charmap.Windows1252.NewDecoder(),
	}

	var lastErr error
	for _, decoder := range decoders {
		decoded, err := decoder.Bytes(data)
		if err != nil {
			lastErr = err
			continue
		}
		return string(decoded), nil
	}
	return "", lastErr
}
