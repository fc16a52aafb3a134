package pdfinfo

import (
	"fmt"

	"github.com/gen2brain/go-fitz"
)

// PageCount opens a PDF from memory with MuPDF and returns its page
// count. Used for reporting on merged output; structural validation
// lives in the validator package.
func PageCount(data []byte) (int, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	return doc.NumPage(), nil
}
