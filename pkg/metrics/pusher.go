// Package metrics ships the process-local Prometheus registry somewhere a
// scraper can see it. CLI invocations exit long before any scrape, so their
// counters go to a Pushgateway instead.
package metrics

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

type Pusher struct {
	url      string
	job      string
	gatherer prometheus.Gatherer
}

// NewPusher returns nil when url is empty; a nil Pusher is a no-op.
func NewPusher(url, job string, gatherer prometheus.Gatherer) *Pusher {
	if url == "" {
		return nil
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Pusher{url: url, job: job, gatherer: gatherer}
}

// Push adds the gathered metrics to the job's group, keyed by host so that
// concurrent runs from different machines do not overwrite each other.
func (p *Pusher) Push(ctx context.Context) error {
	if p == nil {
		return nil
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	err = push.New(p.url, p.job).
		Gatherer(p.gatherer).
		Grouping("instance", host).
		AddContext(ctx)
	return errors.Wrapf(err, "push metrics to %s", p.url)
}
