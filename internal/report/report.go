package report

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"mangadex-dl/internal/sharedhttp"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	DefaultURL = "https://api.mangadex.network/report"

	queueSize = 64
)

// Report describes one image request served by a MangaDex@Home node.
type Report struct {
	URL     string `json:"url"`
	Success bool   `json:"success"`
	Bytes   int    `json:"bytes"`
	Cached  bool   `json:"cached"`
	// Duration in milliseconds.
	Duration int64 `json:"duration"`
}

// Reporter sends image health reports to MangaDex from a single goroutine.
// Reports are dropped when the queue is full.
type Reporter struct {
	url    string
	client *http.Client
	log    zerolog.Logger

	mu      sync.Mutex
	started bool
	closed  bool
	queue   chan Report
	done    chan struct{}
}

func New(log zerolog.Logger, endpoint string) *Reporter {
	if endpoint == "" {
		endpoint = DefaultURL
	}

	return &Reporter{
		url: endpoint,
		client: &http.Client{
			Timeout:   sharedhttp.DefaultTimeout,
			Transport: sharedhttp.Transport,
		},
		log:   log.With().Str("module", "report").Logger(),
		queue: make(chan Report, queueSize),
		done:  make(chan struct{}),
	}
}

func (r *Reporter) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started || r.closed {
		return
	}
	r.started = true

	go r.run(ctx)
}

// Add queues a report. Images from the uploads server are not served by
// MangaDex@Home nodes and are ignored.
func (r *Reporter) Add(rep Report) {
	if isUploadsURL(rep.URL) {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}

	select {
	case r.queue <- rep:
	default:
		r.log.Debug().Str("url", rep.URL).Msg("report queue full, dropping report")
	}
}

// Stop flushes queued reports and waits for the sender to exit.
func (r *Reporter) Stop() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	started := r.started
	close(r.queue)
	r.mu.Unlock()

	if started {
		<-r.done
	}
}

func (r *Reporter) run(ctx context.Context) {
	defer close(r.done)

	for rep := range r.queue {
		if err := r.send(ctx, rep); err != nil {
			r.log.Warn().Err(err).Str("url", rep.URL).Msg("could not send report")
		}
	}
}

func (r *Reporter) send(ctx context.Context, rep Report) error {
	body, err := json.Marshal(rep)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", sharedhttp.UserAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return sharedhttp.CheckStatusCode(resp.StatusCode)
}

func isUploadsURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	return strings.EqualFold(u.Hostname(), "uploads.mangadex.org")
}

// Since returns the elapsed milliseconds since start, for Report.Duration.
func Since(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
