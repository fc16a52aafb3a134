package fetcher

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

// Kind classifies a fetched asset by its declared content type.
type Kind string

const (
	KindPDF         Kind = "pdf"
	KindImage       Kind = "image"
	KindUnsupported Kind = "unsupported"
)

// Asset holds the raw bytes retrieved for one source reference.
type Asset struct {
	URL         string
	Index       int
	Kind        Kind
	ContentType string
	Data        []byte
}

// Config defines the outbound HTTP client behavior.
type Config struct {
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
	MaxConns       int
}

// Fetcher downloads source references over HTTP and classifies them.
// Its client keeps a bounded connection pool so a stalled remote
// endpoint cannot exhaust the process.
type Fetcher struct {
	client *http.Client
}

func New(cfg Config) *Fetcher {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = 50
	}

	transport := &http.Transport{
		DialContext:           (&net.Dialer{Timeout: cfg.ConnectTimeout}).DialContext,
		MaxConnsPerHost:       cfg.MaxConns,
		MaxIdleConns:          cfg.MaxConns,
		MaxIdleConnsPerHost:   cfg.MaxConns,
		ResponseHeaderTimeout: cfg.RequestTimeout,
	}
	return &Fetcher{client: &http.Client{Transport: transport, Timeout: cfg.RequestTimeout}}
}

// Fetch retrieves the bytes behind url and classifies them by the
// response's declared Content-Type header.
func (f *Fetcher) Fetch(ctx context.Context, url string, index int) (*Asset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("http %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	declared := resp.Header.Get("Content-Type")
	kind := Classify(declared)

	// Classification is contractually header-driven; a sniffed mismatch
	// is worth a log line when hunting misbehaving upstreams.
	if sniffed := mimetype.Detect(data); !strings.HasPrefix(sniffed.String(), mediaType(declared)) {
		log.Debug().
			Int("index", index).
			Str("declared", declared).
			Str("sniffed", sniffed.String()).
			Msg("declared content type differs from sniffed bytes")
	}

	log.Debug().
		Int("index", index).
		Str("kind", string(kind)).
		Int("size", len(data)).
		Msg("fetched source reference")

	return &Asset{
		URL:         url,
		Index:       index,
		Kind:        kind,
		ContentType: declared,
		Data:        data,
	}, nil
}

// Classify maps a declared Content-Type header onto an asset kind.
func Classify(contentType string) Kind {
	switch mediaType(contentType) {
	case "application/pdf":
		return KindPDF
	case "image/jpeg", "image/png", "image/gif":
		return KindImage
	default:
		return KindUnsupported
	}
}

func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}
