package oracle

import (
	"context"
	"fmt"
	"time"

	"ladders/meta"
	"ladders/metrics"

	"github.com/rs/zerolog/log"
)

type Source string

const (
	SourceOracle   Source = "oracle"
	SourceFallback Source = "fallback"
)

// Decision is always well defined: either the oracle's validated answer or
// the fallback's.
type Decision struct {
	Choice  string
	Skip    bool
	Source  Source
	Latency time.Duration
}

// Fallback produces the in-process decision. ok=false means skip.
type Fallback func() (choice string, ok bool)

type Option func(c *Client)

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

func WithMetrics(collector metrics.Collector) Option {
	return func(c *Client) {
		if collector != nil {
			c.metrics = collector
		}
	}
}

// Client queries an external decision oracle with a bounded wait.
type Client struct {
	transport Transport
	timeout   time.Duration
	metrics   metrics.Collector
}

// NewClient returns a client over transport. A nil transport always falls back.
func NewClient(transport Transport, options ...Option) *Client {
	c := &Client{
		transport: transport,
		timeout:   meta.ORACLE_TIMEOUT,
		metrics:   metrics.NewDummyCollector(),
	}
	for _, option := range options {
		option(c)
	}
	return c
}

type exchange struct {
	body []byte
	err  error
}

// Decide never blocks longer than the client timeout and never fails: any
// transport error, panic, timeout or malformed answer yields fallback().
func (c *Client) Decide(ctx context.Context, req Request, fallback Fallback) Decision {
	start := time.Now()
	resp, err := c.ask(ctx, req)

	var d Decision
	if err != nil {
		if c.transport != nil {
			log.Warn().Err(err).Str("kind", string(req.Kind)).Str("player", req.Name).Msg("oracle failed, using fallback")
		}
		d = fromFallback(fallback)
	} else {
		d = Decision{Source: SourceOracle, Skip: resp.Choice == nil}
		if resp.Choice != nil {
			d.Choice = *resp.Choice
		}
	}
	d.Latency = time.Since(start)

	c.metrics.OracleDecision(string(req.Kind), string(d.Source), d.Latency)
	log.Debug().Str("kind", string(req.Kind)).Str("player", req.Name).Msgf("decision %q skip=%v from %s in %s", d.Choice, d.Skip, d.Source, d.Latency)
	return d
}

func (c *Client) ask(ctx context.Context, req Request) (Response, error) {
	if c == nil || c.transport == nil {
		return Response{}, fmt.Errorf("no oracle transport")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ch := make(chan exchange, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- exchange{err: fmt.Errorf("oracle transport panicked: %v", r)}
			}
		}()
		body, err := c.transport.Exchange(ctx, req)
		ch <- exchange{body: body, err: err}
	}()

	select {
	case ex := <-ch:
		if ex.err != nil {
			return Response{}, ex.err
		}
		return ParseResponse(req, ex.body)
	case <-ctx.Done():
		return Response{}, fmt.Errorf("oracle did not answer: %w", ctx.Err())
	}
}

func fromFallback(fallback Fallback) Decision {
	d := Decision{Source: SourceFallback, Skip: true}
	if fallback == nil {
		return d
	}
	if choice, ok := fallback(); ok {
		d.Choice, d.Skip = choice, false
	}
	return d
}
