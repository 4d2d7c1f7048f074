package documents

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
)

const (
	// maxDocumentSize bounds how much of an upload is read into memory for
	// parsing.
	maxDocumentSize = 20 * 1024 * 1024

	// chunkWords is the target size of an indexing chunk.
	chunkWords = 500
)

// ExtractText pulls the plain text out of an uploaded document. PDFs go
// through mupdf, text-like formats are read as-is.
func ExtractText(fileName string, data io.Reader) (string, error) {
	contents, err := readBounded(data)
	if err != nil {
		return "", err
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return extractPdfText(contents)
	case ".txt", ".md", ".csv", ".html", ".json", ".xml":
		return string(contents), nil
	default:
		return "", fmt.Errorf("unsupported file type %q", filepath.Ext(fileName))
	}
}

func readBounded(data io.Reader) ([]byte, error) {
	buf := make([]byte, maxDocumentSize)

	n, err := io.ReadFull(data, buf)
	if err == nil {
		// if the error is nil then the end of the stream was not reached, thus
		// the document exceeds the parsing limit.
		return nil, fmt.Errorf("document is too large for parsing")
	} else if err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, err
	}

	return buf[:n], nil
}

func extractPdfText(contents []byte) (string, error) {
	pdf, err := fitz.NewFromMemory(contents)
	if err != nil {
		return "", fmt.Errorf("error opening pdf: %w", err)
	}
	defer pdf.Close()

	pages := make([]string, 0, pdf.NumPage())
	for i := 0; i < pdf.NumPage(); i++ {
		pageText, err := pdf.Text(i)
		if err != nil {
			return "", fmt.Errorf("error reading pdf page %d: %w", i, err)
		}
		pages = append(pages, pageText)
	}

	return strings.Join(pages, "\n\n"), nil
}

// ChunkText splits text into word-bounded chunks for indexing.
func ChunkText(text string, wordsPerChunk int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	for start := 0; start < len(words); start += wordsPerChunk {
		end := start + wordsPerChunk
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks
}

func WordCount(text string) int {
	return len(strings.Fields(text))
}
