package audit

/*
Journal — асинхронный журнал действий оператора.

- Log не блокирует обработчик HTTP: событие кладется в буферизованный канал,
  при переполнении сбрасывается в лог (Load Shedding).
- Воркер копит пачку и пишет ее в хранилище по таймеру или при достижении размера пачки.
- Stop закрывает вход и ждет, пока воркер вычитает канал и сделает финальный flush.
*/

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Storage определяет, куда физически будут сохраняться события
type Storage interface {
	// WriteBatch сохраняет пачку событий за один раз
	WriteBatch(ctx context.Context, events []OperatorAction) error
}

// Recorder — то, что сервисам нужно от журнала.
type Recorder interface {
	Log(event OperatorAction)
}

// Nop — журнал, когда база аудита не настроена.
type Nop struct{}

func (Nop) Log(OperatorAction) {}

// BufferGauge — метрика заполненности буфера.
type BufferGauge interface {
	Set(float64)
}

type Options struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
	Clock         clockwork.Clock
	Gauge         BufferGauge
}

type Journal struct {
	ch     chan OperatorAction
	repo   Storage
	logger *zap.Logger
	opts   Options
	wg     sync.WaitGroup

	// защищает от Log после Stop (запись в закрытый канал)
	closeMu  sync.RWMutex
	isClosed atomic.Bool
}

func NewJournal(repo Storage, logger *zap.Logger, opts Options) *Journal {
	if opts.BufferSize <= 0 {
		opts.BufferSize = 1000
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = time.Second
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Journal{
		ch:     make(chan OperatorAction, opts.BufferSize),
		repo:   repo,
		logger: logger.With(zap.String("mod", "audit")),
		opts:   opts,
	}
}

func (j *Journal) Start() {
	ticker := j.opts.Clock.NewTicker(j.opts.FlushInterval)
	j.wg.Add(1)
	go j.worker(ticker)
}

// Stop «запирает» вход в канал и ждет, пока воркер всё допишет.
func (j *Journal) Stop() {
	j.closeMu.Lock()
	if j.isClosed.Swap(true) {
		j.closeMu.Unlock()
		return
	}
	j.logger.Info("stopping journal: closing channel and flushing buffer...")
	close(j.ch)
	j.closeMu.Unlock()

	j.wg.Wait()
	j.logger.Info("journal stopped gracefully")
}

func (j *Journal) Log(event OperatorAction) {
	if event.Timestamp.IsZero() {
		event.Timestamp = j.opts.Clock.Now()
	}

	j.closeMu.RLock()
	defer j.closeMu.RUnlock()
	if j.isClosed.Load() {
		j.logger.Warn("audit event dropped: journal is stopping", zap.String("id", event.ID))
		return
	}

	select {
	case j.ch <- event:
		j.gauge()
	default:
		// Backpressure: событие не теряем молча, оставляем след в логе
		j.logger.Error("audit_buffer_overflow",
			zap.String("action", event.Action),
			zap.String("target", event.Target),
			zap.String("trace_id", event.TraceID),
		)
	}
}

func (j *Journal) gauge() {
	if j.opts.Gauge != nil {
		j.opts.Gauge.Set(float64(len(j.ch)))
	}
}

func (j *Journal) worker(ticker clockwork.Ticker) {
	defer j.wg.Done()
	defer ticker.Stop()

	batch := make([]OperatorAction, 0, j.opts.BatchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		// Background: контекст запроса к этому моменту уже закрыт
		if err := j.repo.WriteBatch(context.Background(), batch); err != nil {
			j.logger.Error("audit flush failed", zap.Int("events", len(batch)), zap.Error(err))
		}
		batch = make([]OperatorAction, 0, j.opts.BatchSize)
		j.gauge()
	}

	for {
		select {
		case event, ok := <-j.ch:
			if !ok {
				// канал закрыт в Stop: все, что было в очереди, уже вычитано
				flush()
				return
			}
			batch = append(batch, event)
			if len(batch) >= j.opts.BatchSize {
				flush()
			}
		case <-ticker.Chan():
			flush()
		}
	}
}
