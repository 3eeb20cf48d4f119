// Package csvfile reads question rows from comma-separated text files.
//
// Rows have the form prompt,optionA,optionB,optionC,optionD,answer with no
// header and no quoting; a row is kept only when it splits into exactly six
// fields.
package csvfile

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"quiz-round/internal/domain"
)

const (
	fieldsPerRow = 6
	maxLineBytes = 1 << 20
	utf8BOM      = "\uFEFF"
)

// Loader reads question files from disk.
type Loader struct {
	logger zerolog.Logger
}

func NewLoader(logger zerolog.Logger) *Loader {
	return &Loader{logger: logger.With().Str("component", "csv-loader").Logger()}
}

// LoadQuestions reads the file at path. Only I/O problems are errors.
func (l *Loader) LoadQuestions(ctx context.Context, path string) ([]domain.Question, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open question file: %w", err)
	}
	defer f.Close()

	questions, skipped, err := parse(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("read question file: %w", err)
	}
	l.logger.Debug().
		Str("path", path).
		Int("questions", len(questions)).
		Int("skipped", skipped).
		Msg("questions loaded")
	return questions, nil
}

// Parse reads rows from r in order, silently dropping malformed ones.
func Parse(r io.Reader) ([]domain.Question, error) {
	questions, _, err := parse(context.Background(), r)
	return questions, err
}

func parse(ctx context.Context, r io.Reader) ([]domain.Question, int, error) {
	reader := bufio.NewReaderSize(r, 64*1024)

	questions := []domain.Question{}
	skipped := 0
	first := true
	for {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		line, tooLong, err := readRow(reader)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, err
		}
		if first {
			line = strings.TrimPrefix(line, utf8BOM)
			first = false
		}
		if tooLong {
			skipped++
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) != fieldsPerRow {
			skipped++
			continue
		}
		questions = append(questions, domain.NewQuestion(parts[0], parts[1:5], parts[5]))
	}
	return questions, skipped, nil
}

// readRow returns the next line without its terminator. A line longer than
// maxLineBytes is consumed whole and reported as tooLong.
func readRow(r *bufio.Reader) (line string, tooLong bool, err error) {
	var buf []byte
	for {
		chunk, isPrefix, err := r.ReadLine()
		if err != nil {
			return "", false, err
		}
		if !tooLong {
			if len(buf)+len(chunk) > maxLineBytes {
				tooLong, buf = true, nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if !isPrefix {
			return string(buf), tooLong, nil
		}
	}
}
