// Package poller владеет снимками ресурсов бэкенда и расписанием их опроса.
//
// Каждый ресурс опрашивается своим Coordinator: немедленный запрос при Start,
// затем по таймеру. Тик пропускается, пока предыдущий запрос не завершился;
// ручной Refresh выполняется всегда и таймер не сбрасывает.
// Результаты применяются под блокировкой в порядке завершения (побеждает последний
// завершившийся), после Stop результаты незавершенных запросов отбрасываются.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// FetchFunc выполняет один запрос ресурса.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Recorder — то, что координатору нужно от метрик.
type Recorder interface {
	FetchObserved(resource string, d time.Duration, err error)
	TickSkipped(resource string)
	ResultDiscarded(resource string)
}

type nopRecorder struct{}

func (nopRecorder) FetchObserved(string, time.Duration, error) {}
func (nopRecorder) TickSkipped(string)                         {}
func (nopRecorder) ResultDiscarded(string)                     {}

// Snapshot — неизменяемый снимок ресурса. Seq — номер запроса, результат которого применен.
type Snapshot[T any] struct {
	Data      T         `json:"data"`
	Seq       uint64    `json:"seq"`
	FetchedAt time.Time `json:"fetched_at"`
	Ready     bool      `json:"ready"`
}

type State string

const (
	StateIdle     State = "idle"
	StateFetching State = "fetching"
	StateStopped  State = "stopped"
)

// Status — служебное состояние координатора для /resources и баннера ошибки.
type Status struct {
	Resource   string     `json:"resource"`
	State      State      `json:"state"`
	Interval   string     `json:"interval"`
	IssuedSeq  uint64     `json:"issued_seq"`
	AppliedSeq uint64     `json:"applied_seq"`
	InFlight   int        `json:"in_flight"`
	LastFetch  *time.Time `json:"last_fetch,omitempty"`
	Error      string     `json:"error,omitempty"`
	ErrorAt    *time.Time `json:"error_at,omitempty"`
}

type Options struct {
	Interval time.Duration
	Timeout  time.Duration
	Clock    clockwork.Clock
	Logger   *zap.Logger
	Recorder Recorder
}

type Coordinator[T any] struct {
	name     string
	interval time.Duration
	timeout  time.Duration
	fetch    FetchFunc[T]
	clock    clockwork.Clock
	logger   *zap.Logger
	recorder Recorder

	mu        sync.Mutex
	seq       uint64
	inFlight  int
	snapshot  Snapshot[T]
	lastErr   string
	lastErrAt time.Time
	started   bool
	stopped   bool
	stop      chan struct{}
	done      chan struct{}
	listeners []func(Snapshot[T])

	// notifyMu держит порядок уведомлений подписчиков таким же, как порядок применения
	notifyMu sync.Mutex
}

func New[T any](name string, fetch FetchFunc[T], opts Options) *Coordinator[T] {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Coordinator[T]{
		name:     name,
		interval: opts.Interval,
		timeout:  opts.Timeout,
		fetch:    fetch,
		clock:    opts.Clock,
		logger:   opts.Logger.Named("poller").With(zap.String("resource", name)),
		recorder: opts.Recorder,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (c *Coordinator[T]) Name() string { return c.name }

// OnUpdate регистрирует подписчика на успешно примененные снимки.
// Подписчик вызывается синхронно, вне блокировки состояния.
func (c *Coordinator[T]) OnUpdate(fn func(Snapshot[T])) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Start запускает немедленный запрос и таймер. Повторный вызов ничего не делает.
func (c *Coordinator[T]) Start() {
	c.mu.Lock()
	if c.started || c.stopped {
		c.mu.Unlock()
		return
	}
	c.started = true
	ticker := c.clock.NewTicker(c.interval)
	c.mu.Unlock()

	c.logger.Info("polling started", zap.Duration("interval", c.interval))
	go c.loop(ticker)
	c.trigger(true)
}

// Stop останавливает таймер и ждет выхода цикла. Незавершенные запросы не отменяются
// (их ограничивает только Timeout), но их результаты не применяются.
func (c *Coordinator[T]) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	started := c.started
	close(c.stop)
	c.mu.Unlock()

	if started {
		<-c.done
	}
	c.logger.Info("polling stopped")
}

// Refresh — ручное обновление: запрос уходит сразу, даже если предыдущий еще в полете.
func (c *Coordinator[T]) Refresh() {
	c.trigger(true)
}

// RefreshAfter планирует ручное обновление через d.
func (c *Coordinator[T]) RefreshAfter(d time.Duration) {
	c.clock.AfterFunc(d, c.Refresh)
}

// DismissError скрывает баннер ошибки. Снимок не меняется.
func (c *Coordinator[T]) DismissError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = ""
	c.lastErrAt = time.Time{}
}

// Latest возвращает текущий снимок. Data разделяется между читателями и не должна изменяться.
func (c *Coordinator[T]) Latest() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

func (c *Coordinator[T]) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{
		Resource:   c.name,
		State:      StateIdle,
		Interval:   c.interval.String(),
		IssuedSeq:  c.seq,
		AppliedSeq: c.snapshot.Seq,
		InFlight:   c.inFlight,
		Error:      c.lastErr,
	}
	switch {
	case c.stopped:
		st.State = StateStopped
	case c.inFlight > 0:
		st.State = StateFetching
	}
	if c.snapshot.Ready {
		t := c.snapshot.FetchedAt
		st.LastFetch = &t
	}
	if c.lastErr != "" {
		t := c.lastErrAt
		st.ErrorAt = &t
	}
	return st
}

func (c *Coordinator[T]) loop(ticker clockwork.Ticker) {
	defer close(c.done)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.Chan():
			c.trigger(false)
		}
	}
}

// trigger выдает номер запроса и запускает его. Тик таймера пропускается, если есть запрос в полете.
func (c *Coordinator[T]) trigger(manual bool) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	if !manual && c.inFlight > 0 {
		c.mu.Unlock()
		c.recorder.TickSkipped(c.name)
		c.logger.Debug("tick skipped, fetch in flight")
		return
	}
	c.seq++
	seq := c.seq
	c.inFlight++
	c.mu.Unlock()

	go c.run(seq)
}

func (c *Coordinator[T]) run(seq uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	started := c.clock.Now()
	data, err := c.fetch(ctx)
	c.recorder.FetchObserved(c.name, c.clock.Since(started), err)

	c.complete(seq, data, err)
}

func (c *Coordinator[T]) complete(seq uint64, data T, err error) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	c.inFlight--
	if c.stopped {
		c.mu.Unlock()
		c.recorder.ResultDiscarded(c.name)
		c.logger.Debug("result discarded after stop", zap.Uint64("seq", seq))
		return
	}
	if err != nil {
		// последний удачный снимок остается на месте
		c.lastErr = err.Error()
		c.lastErrAt = c.clock.Now()
		c.mu.Unlock()
		c.logger.Warn("fetch failed", zap.Uint64("seq", seq), zap.Error(err))
		return
	}
	snap := Snapshot[T]{Data: data, Seq: seq, FetchedAt: c.clock.Now(), Ready: true}
	c.snapshot = snap
	c.lastErr = ""
	c.lastErrAt = time.Time{}
	listeners := c.listeners
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}
