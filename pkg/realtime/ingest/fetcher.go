package ingest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"github.com/travigo/transittracker/pkg/config"
	"google.golang.org/protobuf/proto"
)

// FeedSource produces the current vehicle positions feed
type FeedSource interface {
	Fetch(ctx context.Context) (*gtfs.FeedMessage, error)
}

// Fetcher downloads and decodes the GTFS-realtime vehicle positions feed
type Fetcher struct {
	client *http.Client

	url          string
	apiKey       string
	maxBodyBytes int64
	attempts     int
	retryBase    time.Duration
}

func NewFetcher(feed config.Feed) *Fetcher {
	return &Fetcher{
		client:       &http.Client{Timeout: feed.Timeout()},
		url:          feed.URL(),
		apiKey:       feed.APIKey,
		maxBodyBytes: feed.MaxBodyBytes,
		attempts:     feed.RetryAttempts,
		retryBase:    feed.RetryBase(),
	}
}

func (f *Fetcher) requestURL() (string, error) {
	requestURL, err := url.Parse(f.url)
	if err != nil {
		return "", err
	}

	query := requestURL.Query()
	query.Set("apikey", f.apiKey)
	requestURL.RawQuery = query.Encode()

	return requestURL.String(), nil
}

func (f *Fetcher) backOff(ctx context.Context) backoff.BackOff {
	exponential := backoff.NewExponentialBackOff()
	exponential.InitialInterval = f.retryBase
	exponential.Multiplier = 2
	exponential.RandomizationFactor = 0
	exponential.MaxElapsedTime = 0

	retries := f.attempts - 1
	if retries < 0 {
		retries = 0
	}

	return backoff.WithContext(backoff.WithMaxRetries(exponential, uint64(retries)), ctx)
}

// Fetch retries transport failures and 5xx responses. Client errors and
// undecodable bodies are returned straight away.
func (f *Fetcher) Fetch(ctx context.Context) (*gtfs.FeedMessage, error) {
	requestURL, err := f.requestURL()
	if err != nil {
		return nil, &FeedTransportError{Cause: err}
	}

	var feed *gtfs.FeedMessage

	operation := func() error {
		body, err := f.download(ctx, requestURL)
		if err != nil {
			var transportError *FeedTransportError
			if errors.As(err, &transportError) && !transportError.Retryable() {
				return backoff.Permanent(err)
			}
			if errors.Is(err, ErrBodyTooLarge) {
				return backoff.Permanent(err)
			}
			return err
		}

		feed, err = Decode(body)
		if err != nil {
			return backoff.Permanent(err)
		}

		return nil
	}

	notify := func(err error, wait time.Duration) {
		log.Warn().Err(err).Str("wait", wait.String()).Msg("Feed request failed, retrying")
	}

	if err := backoff.RetryNotify(operation, f.backOff(ctx), notify); err != nil {
		return nil, err
	}

	return feed, nil
}

func (f *Fetcher) download(ctx context.Context, requestURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, &FeedTransportError{Cause: err}
	}
	req.Header.Set("Accept", "application/x-protobuf")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FeedTransportError{Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &FeedTransportError{StatusCode: resp.StatusCode, Cause: errors.New(resp.Status)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes+1))
	if err != nil {
		return nil, &FeedTransportError{StatusCode: resp.StatusCode, Cause: err}
	}
	if int64(len(body)) > f.maxBodyBytes {
		return nil, &FeedTransportError{StatusCode: resp.StatusCode, Cause: ErrBodyTooLarge}
	}

	log.Debug().Int("bytes", len(body)).Msg("Received feed response")

	return body, nil
}

// Decode parses a GTFS-realtime FeedMessage and logs its header
func Decode(body []byte) (*gtfs.FeedMessage, error) {
	feed := &gtfs.FeedMessage{}
	if err := proto.Unmarshal(body, feed); err != nil {
		return nil, &FeedDecodeError{Cause: err}
	}

	header := feed.GetHeader()
	log.Debug().
		Str("version", header.GetGtfsRealtimeVersion()).
		Int("entities", len(feed.GetEntity())).
		Uint64("timestamp", header.GetTimestamp()).
		Msg("Decoded GTFS-RT feed")

	return feed, nil
}
