package extractor

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/research-assistant/internal/core/domain"
)

const readingWordsPerMinute = 200

// Extractor converts uploaded bytes into an extracted Document. The file
// extension alone selects the decoding strategy; there is no content
// sniffing.
type Extractor struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

func (e *Extractor) Extract(_ context.Context, filename string, data []byte) (*domain.Document, error) {
	var (
		text string
		err  error
	)

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		text, err = e.extractPDF(data)
	case ".txt":
		text, err = extractText(data)
	default:
		return nil, domain.NewError(domain.ErrUnsupportedFormat, "extract text", filename)
	}
	if err != nil {
		return nil, err
	}

	return &domain.Document{
		Name:  filename,
		Text:  text,
		Stats: computeStats(text),
	}, nil
}

func computeStats(text string) domain.DocumentStats {
	words := len(strings.Fields(text))
	minutes := words / readingWordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return domain.DocumentStats{
		Lines:              len(strings.Split(text, "\n")),
		Words:              words,
		Characters:         utf8.RuneCountInString(text),
		ReadingTimeMinutes: minutes,
	}
}
