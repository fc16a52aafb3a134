package validator

import (
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// relaxedConfiguration returns a fresh configuration per call: pdfcpu
// mutates the configuration it is handed (Cmd field), so sharing one
// across goroutines races.
func relaxedConfiguration() *model.Configuration {
	c := model.NewDefaultConfiguration()
	c.ValidationMode = model.ValidationRelaxed
	return c
}

// Validate parses the stream's PDF structure without rendering it.
// The stream is rewound before parsing and again afterwards, so the
// same stream can be validated repeatedly and then consumed. Safe for
// concurrent use.
func Validate(rs io.ReadSeeker) error {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind stream: %w", err)
	}
	err := api.Validate(rs, relaxedConfiguration())
	if _, serr := rs.Seek(0, io.SeekStart); serr != nil {
		return fmt.Errorf("rewind stream: %w", serr)
	}
	if err != nil {
		return fmt.Errorf("invalid pdf: %w", err)
	}
	return nil
}

// PageCount returns the number of pages in the PDF stream, rewinding
// the stream around the read.
func PageCount(rs io.ReadSeeker) (int, error) {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("rewind stream: %w", err)
	}
	n, err := api.PageCount(rs, relaxedConfiguration())
	if _, serr := rs.Seek(0, io.SeekStart); serr != nil {
		return 0, fmt.Errorf("rewind stream: %w", serr)
	}
	if err != nil {
		return 0, fmt.Errorf("pdf page count failed: %w", err)
	}
	return n, nil
}
