package merger

import (
	"bytes"
	"errors"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfmerger/internal/metrics"
	"github.com/local/pdfmerger/internal/validator"
)

// ErrNoValidDocuments is returned when every merge candidate failed
// re-validation and the output would be empty.
var ErrNoValidDocuments = errors.New("no valid documents")

// Candidate is one PDF byte stream tagged with its original ordinal
// position in the caller-supplied order.
type Candidate struct {
	Index int
	URL   string
	Data  []byte
}

// Merge concatenates candidates strictly in slice order into a single
// PDF. Each candidate is re-validated immediately before appending;
// invalid ones are skipped with a warning. The returned stream starts
// at position zero.
func Merge(candidates []Candidate) ([]byte, error) {
	readers := make([]io.ReadSeeker, 0, len(candidates))
	for _, c := range candidates {
		rs := bytes.NewReader(c.Data)
		if err := validator.Validate(rs); err != nil {
			log.Warn().
				Int("index", c.Index).
				Str("url", c.URL).
				Err(err).
				Msg("candidate failed re-validation; skipping")
			metrics.IncDropped("merge")
			continue
		}
		readers = append(readers, rs)
	}

	if len(readers) == 0 {
		return nil, ErrNoValidDocuments
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	var out bytes.Buffer
	if err := api.MergeRaw(readers, &out, false, conf); err != nil {
		return nil, err
	}

	log.Info().
		Int("candidates", len(candidates)).
		Int("merged", len(readers)).
		Int("size", out.Len()).
		Msg("merged documents")

	return out.Bytes(), nil
}
