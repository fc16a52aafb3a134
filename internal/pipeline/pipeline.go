package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/local/pdfmerger/internal/fetcher"
	"github.com/local/pdfmerger/internal/merger"
	"github.com/local/pdfmerger/internal/metrics"
	"github.com/local/pdfmerger/internal/normalizer"
	"github.com/local/pdfmerger/internal/pdfinfo"
	"github.com/local/pdfmerger/internal/uploader"
	"github.com/local/pdfmerger/internal/validator"
)

// Fatal error categories surfaced to the caller.
var (
	ErrNoUsableInputs = errors.New("no inputs usable")
	ErrNoValidOutput  = errors.New("merge produced nothing")
	ErrUploadFailed   = errors.New("upload failed after retries")
)

// Job is one merge request. It lives only for the request's lifetime.
type Job struct {
	LeadID string
	URLs   []string
}

// Dependencies wires one pipeline instance for one environment.
type Dependencies struct {
	Environment string
	Fetcher     *fetcher.Fetcher
	Normalizer  *normalizer.Normalizer
	Uploader    *uploader.Uploader
	Status      StatusStore
	Concurrency int

	// Logger carries the environment's log sink. Defaults to the
	// global logger.
	Logger *zerolog.Logger

	// Now is swappable for deterministic key tests.
	Now func() time.Time
}

// Pipeline runs the fetch → normalize/validate → merge → upload
// sequence for one environment's bucket.
type Pipeline struct {
	env         string
	fetcher     *fetcher.Fetcher
	normalizer  *normalizer.Normalizer
	uploader    *uploader.Uploader
	status      StatusStore
	concurrency int
	logger      zerolog.Logger
	now         func() time.Time
}

func New(deps Dependencies) *Pipeline {
	if deps.Concurrency <= 0 {
		deps.Concurrency = 8
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Status == nil {
		deps.Status = nopStatus{}
	}
	logger := log.Logger
	if deps.Logger != nil {
		logger = *deps.Logger
	}
	return &Pipeline{
		env:         deps.Environment,
		fetcher:     deps.Fetcher,
		normalizer:  deps.Normalizer,
		uploader:    deps.Uploader,
		status:      deps.Status,
		concurrency: deps.Concurrency,
		logger:      logger,
		now:         deps.Now,
	}
}

// Run processes one job and returns the destination object key.
func (p *Pipeline) Run(ctx context.Context, job Job) (string, error) {
	jobID := uuid.NewString()
	start := p.now()
	logCtx := p.logger.With().
		Str("job_id", jobID).
		Str("lead_id", job.LeadID).
		Str("environment", p.env).
		Int("urls", len(job.URLs)).
		Logger()
	logCtx.Info().Msg("merge job started")

	key, err := p.run(ctx, jobID, job, logCtx)
	dur := time.Since(start)
	if err != nil {
		p.setState(ctx, jobID, StateFailed, err.Error(), "")
		metrics.ObserveJob(p.env, "failed", dur)
		logCtx.Error().Err(err).Dur("duration", dur).Msg("merge job failed")
		return "", err
	}

	p.setState(ctx, jobID, StateSucceeded, "", key)
	metrics.ObserveJob(p.env, "success", dur)
	logCtx.Info().Str("key", key).Dur("duration", dur).Msg("merge job succeeded")
	return key, nil
}

func (p *Pipeline) run(ctx context.Context, jobID string, job Job, logCtx zerolog.Logger) (string, error) {
	p.setState(ctx, jobID, StateFetching, "", "")
	fetched := p.fetchAll(ctx, job)

	p.setState(ctx, jobID, StateNormalizing, "", "")
	candidates := p.prepare(ctx, fetched, logCtx)
	if len(candidates) == 0 {
		return "", ErrNoUsableInputs
	}

	p.setState(ctx, jobID, StateMerging, "", "")
	merged, err := merger.Merge(candidates)
	if err != nil {
		if errors.Is(err, merger.ErrNoValidDocuments) {
			return "", fmt.Errorf("%w: %s", ErrNoValidOutput, err)
		}
		return "", fmt.Errorf("merge failed: %w", err)
	}

	if pages, perr := pdfinfo.PageCount(merged); perr == nil {
		metrics.ObserveMergedPages(pages)
		logCtx.Info().Int("pages", pages).Msg("merged document assembled")
	} else {
		logCtx.Debug().Err(perr).Msg("page count of merged document unavailable")
	}

	p.setState(ctx, jobID, StateUploading, "", "")
	key := p.buildKey(job.LeadID)
	if _, err := p.uploader.Upload(ctx, key, bytes.NewReader(merged)); err != nil {
		return "", fmt.Errorf("%w: %s", ErrUploadFailed, err)
	}
	return key, nil
}

// fetchResult carries one reference's download outcome into the
// normalize/validate phase.
type fetchResult struct {
	index int
	url   string
	asset *fetcher.Asset
	err   error
}

// fetchAll downloads every reference under a bounded worker limit.
// Results land in an index-addressed slice so completion order never
// leaks into merge order.
func (p *Pipeline) fetchAll(ctx context.Context, job Job) []fetchResult {
	results := make([]fetchResult, len(job.URLs))

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(p.concurrency)
	for i, url := range job.URLs {
		i, url := i, url
		eg.Go(func() error {
			if gctx.Err() != nil {
				results[i] = fetchResult{index: i, url: url, err: gctx.Err()}
				return nil
			}
			asset, err := p.fetcher.Fetch(gctx, url, i)
			results[i] = fetchResult{index: i, url: url, asset: asset, err: err}
			return nil
		})
	}
	// Workers never return errors; per-item failures become drops.
	_ = eg.Wait()
	return results
}

// prepare normalizes and validates the fetched assets concurrently,
// then filters to usable candidates preserving input order. Failures
// here are never job-fatal.
func (p *Pipeline) prepare(ctx context.Context, fetched []fetchResult, logCtx zerolog.Logger) []merger.Candidate {
	results := make([]Candidate, len(fetched))

	eg, _ := errgroup.WithContext(ctx)
	eg.SetLimit(p.concurrency)
	for i, f := range fetched {
		i, f := i, f
		eg.Go(func() error {
			results[i] = p.prepareOne(f)
			return nil
		})
	}
	_ = eg.Wait()

	out := make([]merger.Candidate, 0, len(results))
	for _, r := range results {
		if !r.Usable() {
			logCtx.Warn().
				Int("index", r.Index).
				Str("url", r.URL).
				Str("stage", r.DropStage).
				Str("reason", r.DropReason).
				Msg("reference dropped")
			metrics.IncDropped(r.DropStage)
			continue
		}
		out = append(out, merger.Candidate{Index: r.Index, URL: r.URL, Data: r.Doc})
	}
	return out
}

func (p *Pipeline) prepareOne(f fetchResult) Candidate {
	if f.err != nil {
		return dropped(f.index, f.url, "fetch", f.err.Error())
	}
	metrics.IncReference(string(f.asset.Kind))

	var doc []byte
	var err error
	switch f.asset.Kind {
	case fetcher.KindPDF:
		doc = f.asset.Data
	case fetcher.KindImage:
		doc, err = p.normalizer.Normalize(f.asset.Data)
		if err != nil {
			return dropped(f.index, f.url, "normalize", err.Error())
		}
	default:
		return dropped(f.index, f.url, "classify", fmt.Sprintf("unsupported content type %q", f.asset.ContentType))
	}

	if err := validator.Validate(bytes.NewReader(doc)); err != nil {
		return dropped(f.index, f.url, "validate", err.Error())
	}
	return Candidate{Index: f.index, URL: f.url, Doc: doc}
}

func (p *Pipeline) buildKey(leadID string) string {
	ts := p.now().Format("20060102_150405")
	return fmt.Sprintf("%s/merged_pdf/merged_document_%s.pdf", leadID, ts)
}

func (p *Pipeline) setState(ctx context.Context, jobID, state, errMsg, key string) {
	if err := p.status.Set(ctx, jobID, JobStatus{
		State:       state,
		Environment: p.env,
		Error:       errMsg,
		Key:         key,
	}); err != nil {
		p.logger.Debug().Err(err).Str("job_id", jobID).Msg("failed to record job state")
	}
}
