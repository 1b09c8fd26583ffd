// Package browser fetches pages and hands back their visible text.
// navigation is kept behind an interface so scrapers can be driven by
// a fixture in tests or swapped for a rendering engine later.
package browser

import (
	"context"
	"fmt"
	"time"

	"cintel-backend/lib/htmlutil"
	"cintel-backend/lib/restyutil"

	"github.com/go-resty/resty/v2"
	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("cintel.lib.browser")

type Browser interface {
	// PageText loads a url and returns the page's visible text with
	// line structure intact.
	PageText(ctx context.Context, url string) (string, error)
}

type Options struct {
	UserAgent string        `json:"user_agent"`
	Timeout   time.Duration `json:"timeout"`
	// Retries is the number of attempts per page, defaults to 3.
	Retries int `json:"retries"`
}

type restyBrowser struct {
	http    *resty.Client
	retries int
}

func New(opts Options) Browser {
	if opts.UserAgent == "" {
		opts.UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Second * 30
	}
	if opts.Retries <= 0 {
		opts.Retries = 3
	}

	client := resty.New().
		SetHeader("User-Agent", opts.UserAgent).
		SetTimeout(opts.Timeout)
	restyutil.InstrumentClient(client, "cintel.lib.browser")

	return &restyBrowser{
		http:    client,
		retries: opts.Retries,
	}
}

func (b *restyBrowser) PageText(ctx context.Context, url string) (string, error) {
	ctx, span := tracer.Start(ctx, "PageText")
	defer span.End()
	span.SetAttributes(attribute.String("url", url))

	var lastErr error
	for attempt := 0; attempt < b.retries; attempt++ {
		if attempt > 0 {
			RandomDelay(ctx, time.Second, time.Second*3)
		}

		res, err := b.http.R().SetContext(ctx).Get(url)
		if err != nil {
			lastErr = err
			continue
		}
		if res.StatusCode() != 200 {
			lastErr = fmt.Errorf("fetch %s: status %d", url, res.StatusCode())
			continue
		}

		text, err := htmlutil.VisibleText(res.String())
		if err != nil {
			lastErr = err
			continue
		}
		return text, nil
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, "all fetch attempts failed")
	return "", fmt.Errorf("fetch %s after %d attempts: %w", url, b.retries, lastErr)
}

// RandomDelay sleeps a random duration in [min, max) so request timing
// doesn't look mechanical. it returns early when the context is done.
func RandomDelay(ctx context.Context, min, max time.Duration) {
	span := int(max.Milliseconds() - min.Milliseconds())
	jitter := 0
	if span > 0 {
		jitter, _ = random.IntRange(0, span)
	}
	select {
	case <-time.After(min + time.Duration(jitter)*time.Millisecond):
	case <-ctx.Done():
	}
}
