// Package mediasync runs the batch maintenance jobs over stored media:
// regenerating thumbnails and polling pending CDN flushes.
package mediasync

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	gomedia "github.com/shoraid/go-mediaprovider"
	"github.com/shoraid/go-mediaprovider/metrics"
)

const defaultBatchSize = 10

// MediaSource pages through the stored media of a provider and context.
// A batch shorter than limit ends the iteration.
type MediaSource interface {
	FindBatch(ctx context.Context, providerName, contextName string, offset, limit int) ([]*gomedia.Media, error)
}

// MediaSaver persists media updated by a job.
type MediaSaver interface {
	Save(ctx context.Context, m *gomedia.Media) error
}

// Result counts the media a run went through.
type Result struct {
	Processed int
	Failed    int
}

// Options bound a run.
type Options struct {
	BatchSize int // media per batch, 10 when zero
	// StartOffset skips the first media, to resume an interrupted run.
	StartOffset int
	// BatchesLimit stops the run after that many batches, 0 means no limit.
	BatchesLimit int
}

func (o Options) batchSize() int {
	if o.BatchSize <= 0 {
		return defaultBatchSize
	}
	return o.BatchSize
}

// eachBatch calls fn for every media of the provider and context. Errors
// from fn are counted and logged, the run continues with the next media.
func eachBatch(ctx context.Context, job string, source MediaSource, p gomedia.MediaProvider, contextName string, opts Options, fn func(m *gomedia.Media) error) (Result, error) {
	var res Result

	size := opts.batchSize()
	offset := opts.StartOffset

	for batch := 0; opts.BatchesLimit == 0 || batch < opts.BatchesLimit; batch++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		medias, err := source.FindBatch(ctx, p.Name(), contextName, offset, size)
		if err != nil {
			log.Error().Err(err).Str("job", job).Int("offset", offset).Msg("failed to load media batch")
			return res, err
		}

		log.Debug().Str("job", job).Int("offset", offset).Int("count", len(medias)).Msg("processing media batch")

		for _, m := range medias {
			res.Processed++

			if err := fn(m); err != nil {
				res.Failed++
				metrics.SyncRecordsTotal.WithLabelValues(job, metrics.StatusFailure).Inc()
				log.Error().Err(err).Str("job", job).Int64("media_id", m.ID).Msg("failed to process media")
				continue
			}

			metrics.SyncRecordsTotal.WithLabelValues(job, metrics.StatusSuccess).Inc()
		}

		if len(medias) < size {
			break
		}
		offset += size
	}

	return res, nil
}

// ThumbnailSyncer regenerates the thumbnails of every media of a context.
type ThumbnailSyncer struct {
	source MediaSource
}

func NewThumbnailSyncer(source MediaSource) *ThumbnailSyncer {
	return &ThumbnailSyncer{source: source}
}

// Run removes and regenerates the thumbnails of each media. Media whose
// reference file cannot be read are reported and skipped.
func (s *ThumbnailSyncer) Run(ctx context.Context, p gomedia.MediaProvider, contextName string, opts Options) (Result, error) {
	return eachBatch(ctx, "thumbnails", s.source, p, contextName, opts, func(m *gomedia.Media) error {
		if err := p.RemoveThumbnails(ctx, m); err != nil {
			return err
		}
		return p.GenerateThumbnails(ctx, m)
	})
}

// CDNStatusSyncer polls the pending CDN flushes of a context and saves the
// media whose status changed.
type CDNStatusSyncer struct {
	source MediaSource
	saver  MediaSaver
}

func NewCDNStatusSyncer(source MediaSource, saver MediaSaver) *CDNStatusSyncer {
	return &CDNStatusSyncer{source: source, saver: saver}
}

// Run polls every media with a flush in flight and saves those whose status
// or identifier changed. No new flush is ever requested.
func (s *CDNStatusSyncer) Run(ctx context.Context, p gomedia.MediaProvider, contextName string, opts Options) (Result, error) {
	if s.saver == nil {
		return Result{}, fmt.Errorf("%w: media saver is required", gomedia.ErrInvalidConfig)
	}

	return eachBatch(ctx, "cdn_status", s.source, p, contextName, opts, func(m *gomedia.Media) error {
		if m.CdnFlushIdentifier == "" {
			return nil
		}

		status, identifier := m.CdnStatus, m.CdnFlushIdentifier
		if err := p.UpdateFlushStatus(ctx, m); err != nil {
			return err
		}

		if m.CdnStatus == status && m.CdnFlushIdentifier == identifier {
			return nil
		}
		return s.saver.Save(ctx, m)
	})
}
