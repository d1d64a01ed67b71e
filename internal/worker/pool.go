// Package worker provides background prefetching of similarity data, so the
// first recommendation run against a freshly saved tierlist hits a warm
// cache.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/soundtier/tierbeat/internal/core/domain"
	"github.com/soundtier/tierbeat/internal/core/ports"
)

// Job is one similarity lookup to prefetch.
type Job struct {
	Artist string
	Track  string
}

const jobTimeout = 15 * time.Second

// Pool manages background workers that run similarity lookups through the
// caching provider. The queue is bounded; a full queue drops jobs rather
// than blocking the caller, since prefetching is best-effort.
type Pool struct {
	similarity ports.SimilarityProvider
	logger     zerolog.Logger
	jobs       chan Job
	wg         sync.WaitGroup
}

// NewPool creates a pool with the given queue size.
func NewPool(similarity ports.SimilarityProvider, queueSize int, logger zerolog.Logger) *Pool {
	if queueSize < 1 {
		queueSize = 1
	}
	return &Pool{
		similarity: similarity,
		logger:     logger.With().Str("component", "prefetch").Logger(),
		jobs:       make(chan Job, queueSize),
	}
}

// Start launches the worker goroutines. Workers exit when Stop closes the
// queue or when ctx is canceled.
func (p *Pool) Start(ctx context.Context, workers int) {
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case job, ok := <-p.jobs:
					if !ok {
						return
					}
					p.processJob(ctx, job)
				}
			}
		}()
	}
}

// Stop closes the queue and waits for in-flight jobs to finish.
func (p *Pool) Stop() {
	close(p.jobs)
	p.wg.Wait()
}

// Submit queues a job without blocking.
func (p *Pool) Submit(job Job) {
	select {
	case p.jobs <- job:
	default:
		p.logger.Warn().Str("artist", job.Artist).Str("track", job.Track).Msg("queue full, dropping prefetch job")
	}
}

// WarmTierlist queues a prefetch job for every ranked song in the tierlist.
func (p *Pool) WarmTierlist(t domain.Tierlist) {
	for _, tier := range t.TierOrder {
		if tier == t.UnrankedTier {
			continue
		}
		for _, song := range t.Tiers[tier] {
			p.Submit(Job{Artist: song.Artist, Track: song.Name})
		}
	}
}

func (p *Pool) processJob(ctx context.Context, job Job) {
	jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	if _, err := p.similarity.SimilarTracks(jobCtx, job.Artist, job.Track); err != nil {
		p.logger.Warn().Err(err).Str("artist", job.Artist).Str("track", job.Track).Msg("prefetch failed")
		return
	}
	p.logger.Debug().Str("artist", job.Artist).Str("track", job.Track).Msg("prefetched similarity data")
}
