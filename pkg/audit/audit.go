// Package audit records data-quality and security events on a buffered
// channel so search latency never depends on the sink. Events beyond the
// buffer are dropped and counted.
package audit

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/moop-bio/moop-engine/pkg/logging"
	"github.com/moop-bio/moop-engine/pkg/models"
)

type eventKind string

const (
	kindDataQuality      eventKind = "data_quality"
	kindStoreUnreachable eventKind = "store_unreachable"
	kindQueryRejected    eventKind = "query_rejected"
)

type event struct {
	kind     eventKind
	warning  models.DataQualityWarning
	organism string
	detail   string
	sourceIP string
}

// Sink consumes audit events asynchronously and writes them to the log.
type Sink struct {
	ch      chan event
	logger  *zap.Logger
	dropped atomic.Int64
	wg      sync.WaitGroup
}

// NewSink starts the consumer goroutine.
func NewSink(bufferSize int, logger *zap.Logger) *Sink {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	s := &Sink{
		ch:     make(chan event, bufferSize),
		logger: logger,
	}
	s.wg.Add(1)
	go s.consume()
	return s
}

func (s *Sink) consume() {
	defer s.wg.Done()
	for e := range s.ch {
		switch e.kind {
		case kindDataQuality:
			s.logger.Warn("incomplete annotation record",
				zap.String("event", string(e.kind)),
				zap.String("warning_id", e.warning.ID.String()),
				zap.String("organism", e.warning.Organism),
				zap.String("feature", e.warning.FeatureUniquename),
				zap.String("missing_field", e.warning.MissingField))
		case kindStoreUnreachable:
			s.logger.Error("organism store unreachable",
				zap.String("event", string(e.kind)),
				zap.String("organism", e.organism),
				zap.String("detail", e.detail))
		case kindQueryRejected:
			s.logger.Warn("search query rejected",
				zap.String("event", string(e.kind)),
				zap.String("query", logging.SanitizeQuery(e.detail)),
				zap.String("source_ip", e.sourceIP))
		}
	}
}

func (s *Sink) offer(e event) {
	select {
	case s.ch <- e:
	default:
		s.dropped.Add(1)
	}
}

// RecordWarning flags an annotation row served with a missing field.
func (s *Sink) RecordWarning(w models.DataQualityWarning) {
	s.offer(event{kind: kindDataQuality, warning: w})
}

// RecordStoreUnreachable flags an organism whose store could not be opened
// or queried.
func (s *Sink) RecordStoreUnreachable(organism string, err error) {
	s.offer(event{kind: kindStoreUnreachable, organism: organism, detail: logging.SanitizeError(err)})
}

// RecordRejectedQuery flags query text that failed injection screening.
func (s *Sink) RecordRejectedQuery(query, sourceIP string) {
	s.offer(event{kind: kindQueryRejected, detail: query, sourceIP: sourceIP})
}

// Dropped returns how many events were discarded on a full buffer.
func (s *Sink) Dropped() int64 { return s.dropped.Load() }

// Close stops accepting events and waits for the consumer to drain.
func (s *Sink) Close() {
	close(s.ch)
	s.wg.Wait()
}
