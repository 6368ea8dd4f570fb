package audit

import (
	"context"
	"sync"
	"sync/atomic"
)

// Config controls dispatcher buffering behavior.
type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// Dispatcher decouples audit emission from sink delivery: Emit enqueues and
// returns, a single worker forwards to the sink in order. A full buffer
// either drops (counted) or applies backpressure, per configuration.
type Dispatcher struct {
	sink         Sink
	queue        chan Event
	stop         chan struct{}
	dropWhenFull bool

	dropped   atomic.Uint64
	delivered atomic.Uint64
	closing   atomic.Bool
	workerWG  sync.WaitGroup
	stopOnce  sync.Once
}

// NewDispatcher starts the forwarding worker. A disabled config yields a nil
// dispatcher, on which every method is a safe no-op.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}
	buffer := cfg.BufferSize
	if buffer <= 0 {
		buffer = 1
	}

	d := &Dispatcher{
		sink:         sink,
		queue:        make(chan Event, buffer),
		stop:         make(chan struct{}),
		dropWhenFull: cfg.DropIfFull,
	}
	d.workerWG.Add(1)
	go d.forward()
	return d
}

func (d *Dispatcher) forward() {
	defer d.workerWG.Done()
	for {
		select {
		case e := <-d.queue:
			d.deliver(e)
		case <-d.stop:
			d.drain()
			return
		}
	}
}

func (d *Dispatcher) drain() {
	for {
		select {
		case e := <-d.queue:
			d.deliver(e)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(e Event) {
	d.sink.Emit(context.Background(), e)
	d.delivered.Add(1)
}

// Emit enqueues one event. Never blocks in drop-if-full mode; otherwise it
// waits for buffer space, ctx cancellation, or shutdown.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil || d.closing.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.dropWhenFull {
		select {
		case d.queue <- event:
		case <-d.stop:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.queue <- event:
	case <-ctx.Done():
	case <-d.stop:
	}
}

// Close stops accepting events, delivers what is already buffered, and waits
// for the worker to finish.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.stopOnce.Do(func() {
		d.closing.Store(true)
		close(d.stop)
		d.workerWG.Wait()
	})
}

// Dropped reports events discarded under drop-if-full pressure.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// Delivered reports events the sink has accepted.
func (d *Dispatcher) Delivered() uint64 {
	if d == nil {
		return 0
	}
	return d.delivered.Load()
}
