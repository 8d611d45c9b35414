// Package audit writes an append-only trail of catalog mutations and
// submission validations. Entries are queued on a channel and flushed
// to the database in batches so the request path never blocks on the
// audit write.
package audit

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/xploralabs/xplora/server/model"
)

const (
	queueSize     = 1024
	batchSize     = 64
	flushInterval = 2 * time.Second
)

// Entry is one audit record before persistence.
type Entry struct {
	TraceID    string
	ActorID    *int64
	Action     string
	Location   string
	QuestIndex *int
	Request    any
	Err        error
	IP         string
	Duration   time.Duration
}

type Service struct {
	db     *gorm.DB
	logger *zap.Logger
	queue  chan *model.AuditLog
	done   chan struct{}
	wg     sync.WaitGroup
}

func NewService(gdb *gorm.DB, logger *zap.Logger) *Service {
	s := &Service{
		db:     gdb,
		logger: logger,
		queue:  make(chan *model.AuditLog, queueSize),
		done:   make(chan struct{}),
	}
	s.wg.Add(1)
	go s.run()
	return s
}

// Record queues an entry. If the queue is full the entry is dropped
// with a log line rather than blocking the caller.
func (s *Service) Record(e Entry) {
	row := &model.AuditLog{
		TraceID:    e.TraceID,
		ActorID:    e.ActorID,
		Action:     e.Action,
		Location:   e.Location,
		QuestIndex: e.QuestIndex,
		IP:         e.IP,
		DurationMs: int(e.Duration.Milliseconds()),
	}
	if e.Err != nil {
		row.Error = e.Err.Error()
	}
	if e.Request != nil {
		if raw, err := json.Marshal(e.Request); err == nil {
			row.Request = datatypes.JSON(raw)
		}
	}
	select {
	case s.queue <- row:
	default:
		s.logger.Warn("audit queue full, entry dropped", zap.String("action", e.Action))
	}
}

func (s *Service) run() {
	defer s.wg.Done()
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]*model.AuditLog, 0, batchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := s.db.Create(batch).Error; err != nil {
			s.logger.Error("flush audit batch", zap.Int("size", len(batch)), zap.Error(err))
		}
		batch = batch[:0]
	}

	for {
		select {
		case row := <-s.queue:
			batch = append(batch, row)
			if len(batch) >= batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-s.done:
			for {
				select {
				case row := <-s.queue:
					batch = append(batch, row)
				default:
					flush()
					return
				}
			}
		}
	}
}

// Close drains the queue and stops the writer.
func (s *Service) Close() {
	close(s.done)
	s.wg.Wait()
}
