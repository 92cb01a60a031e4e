package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v3"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Default feed endpoints.
const (
	AllQuakesURL   = "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/all_week.geojson"
	MajorQuakesURL = "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/4.5_week.geojson"
	PlatesURL      = "https://raw.githubusercontent.com/fraxen/tectonicplates/master/GeoJSON/PB2002_boundaries.json"
)

// maxFeedBytes is the default limit on a feed body. Larger bodies are rejected.
const maxFeedBytes = 64 << 20

// DefaultFeeds returns the three feeds in overlay panel order.
func DefaultFeeds() []Feed {
	return []Feed{
		{Overlay: "plates", Name: "Tectonic Plates", URL: PlatesURL, Kind: KindPlates},
		{Overlay: "earthquakes", Name: "Earthquakes", URL: AllQuakesURL, Kind: KindQuakes},
		{Overlay: "major", Name: "Major Earthquakes", URL: MajorQuakesURL, Kind: KindQuakes},
	}
}

// Fetcher retrieves a feed's feature collection.
type Fetcher interface {
	Fetch(ctx context.Context, feed Feed) (*geojson.FeatureCollection, error)
}

// FetcherConfig controls timeouts and retries of a FeedFetcher.
type FetcherConfig struct {
	Timeout       time.Duration // per attempt
	Retries       int           // extra attempts after the first; 0 disables retrying
	RetryInterval time.Duration // initial backoff interval
	MaxBytes      int64         // largest accepted body; 0 means 64 MiB
	Client        *http.Client
}

// FeedFetcher fetches GeoJSON feeds over HTTP.
type FeedFetcher struct {
	client        *http.Client
	timeout       time.Duration
	retries       int
	retryInterval time.Duration
	maxBytes      int64
	logger        logrus.FieldLogger
}

// NewFeedFetcher creates a fetcher. Zero config values fall back to a 30s
// timeout and a 500ms initial retry interval.
func NewFeedFetcher(cfg FetcherConfig, logger logrus.FieldLogger) *FeedFetcher {
	f := &FeedFetcher{
		client:        cfg.Client,
		timeout:       cfg.Timeout,
		retries:       cfg.Retries,
		retryInterval: cfg.RetryInterval,
		maxBytes:      cfg.MaxBytes,
		logger:        logger.WithField("component", "fetcher"),
	}
	if f.client == nil {
		f.client = http.DefaultClient
	}
	if f.timeout <= 0 {
		f.timeout = 30 * time.Second
	}
	if f.retryInterval <= 0 {
		f.retryInterval = 500 * time.Millisecond
	}
	if f.maxBytes <= 0 {
		f.maxBytes = maxFeedBytes
	}
	if f.retries < 0 {
		f.retries = 0
	}
	return f
}

// Fetch downloads and parses feed. Network errors, timeouts and 5xx
// responses are retried; other statuses and malformed bodies are not.
func (f *FeedFetcher) Fetch(ctx context.Context, feed Feed) (*geojson.FeatureCollection, error) {
	var fc *geojson.FeatureCollection
	attempt := 0
	op := func() error {
		attempt++
		var err error
		fc, err = f.fetchOnce(ctx, feed)
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.retryInterval
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(f.retries)), ctx)

	notify := func(err error, wait time.Duration) {
		f.logger.WithFields(logrus.Fields{
			"overlay": feed.Overlay,
			"attempt": attempt,
			"wait":    wait,
		}).WithError(err).Warn("feed fetch failed, retrying")
	}

	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return nil, errors.Wrapf(err, "fetch %s feed from %s", feed.Overlay, feed.URL)
	}
	return fc, nil
}

func (f *FeedFetcher) fetchOnce(ctx context.Context, feed Feed) (*geojson.FeatureCollection, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return nil, backoff.Permanent(errors.Wrap(err, "create request"))
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("request timed out after %s", f.timeout)
		}
		return nil, errors.Wrap(err, "request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status %d", resp.StatusCode)
		if resp.StatusCode >= 500 {
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("reading body timed out after %s", f.timeout)
		}
		return nil, errors.Wrap(err, "read body")
	}
	if int64(len(body)) > f.maxBytes {
		return nil, backoff.Permanent(fmt.Errorf("feed exceeds %d bytes", f.maxBytes))
	}

	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return nil, backoff.Permanent(errors.Wrap(err, "malformed feature collection"))
	}
	return fc, nil
}
