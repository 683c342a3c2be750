package telemetry

import (
	"sync"
	"time"

	customlog "github.com/open-teleop/dronecontrols/pkg/log"
)

// EncodeResult is the result of encoding one message
type EncodeResult struct {
	Topic     string
	Payload   []byte
	Timestamp int64
	Error     error
}

// ResultHandler is a function that handles encoded results
type ResultHandler func(result *EncodeResult)

// MessageEncoder turns a message into its wire payload
type MessageEncoder func(msg *Message) ([]byte, error)

// Pool encodes telemetry off the tick goroutine with a fixed set of workers.
// A full queue drops messages rather than stalling the tick loop.
type Pool struct {
	name          string
	workerCount   int
	logger        customlog.Logger
	queue         chan *Message
	running       bool
	wg            sync.WaitGroup
	mu            sync.Mutex
	encoder       MessageEncoder
	resultHandler ResultHandler
	queueSize     int
	metrics       *PoolMetrics
}

// PoolMetrics tracks metrics for a pool
type PoolMetrics struct {
	EncodedCount    int64
	ErrorCount      int64
	QueuedCount     int64
	DroppedCount    int64
	LastEncodedTime int64
	EncodeTimeAvg   int64 // in microseconds
	EncodeTimeMax   int64 // in microseconds
	mu              sync.Mutex
}

// NewPool creates a pool using Encode as its encoder
func NewPool(name string, workerCount, queueSize int, logger customlog.Logger) *Pool {
	if workerCount <= 0 {
		workerCount = 1
	}
	if logger == nil {
		logger = customlog.NewNopLogger()
	}
	return &Pool{
		name:        name,
		workerCount: workerCount,
		queueSize:   queueSize,
		logger:      logger,
		queue:       make(chan *Message, queueSize),
		encoder:     Encode,
		metrics:     &PoolMetrics{},
	}
}

// SetEncoder replaces the message encoder
func (p *Pool) SetEncoder(encoder MessageEncoder) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.encoder = encoder
}

// SetResultHandler sets the result handler function
func (p *Pool) SetResultHandler(handler ResultHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resultHandler = handler
}

// Submit queues msg for encoding. It reports false when the pool is stopped
// or the queue is full.
func (p *Pool) Submit(msg *Message) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		p.logger.Debugf("%s pool not running, discarding %s message", p.name, msg.Topic)
		return false
	}

	p.metrics.mu.Lock()
	p.metrics.QueuedCount++
	p.metrics.mu.Unlock()

	select {
	case p.queue <- msg:
		return true
	default:
		p.metrics.mu.Lock()
		p.metrics.DroppedCount++
		p.metrics.mu.Unlock()
		p.logger.Warnf("%s pool queue is full, discarding %s message", p.name, msg.Topic)
		return false
	}
}

// Start starts the pool workers
func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}

	p.running = true
	p.logger.Infof("Starting %s pool with %d workers", p.name, p.workerCount)

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop drains the queue and waits for the workers to exit
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	// Submit holds mu while sending, so no send can race this close.
	close(p.queue)
	p.mu.Unlock()

	p.logger.Infof("Stopping %s pool", p.name)
	p.wg.Wait()
	p.logger.Infof("%s pool stopped", p.name)

	p.logMetrics()
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	p.logger.Debugf("%s pool worker %d started", p.name, id)

	for msg := range p.queue {
		p.mu.Lock()
		encoder := p.encoder
		resultHandler := p.resultHandler
		p.mu.Unlock()

		startTime := time.Now()
		payload, err := encoder(msg)
		encodeTime := time.Since(startTime).Microseconds()

		p.metrics.mu.Lock()
		p.metrics.EncodedCount++
		p.metrics.LastEncodedTime = time.Now().UnixNano()
		if p.metrics.EncodeTimeAvg == 0 {
			p.metrics.EncodeTimeAvg = encodeTime
		} else {
			// Simple moving average
			p.metrics.EncodeTimeAvg = (p.metrics.EncodeTimeAvg + encodeTime) / 2
		}
		if encodeTime > p.metrics.EncodeTimeMax {
			p.metrics.EncodeTimeMax = encodeTime
		}
		if err != nil {
			p.metrics.ErrorCount++
		}
		p.metrics.mu.Unlock()

		if err != nil {
			p.logger.Errorf("Error encoding %s message in %s pool: %v", msg.Topic, p.name, err)
		}

		if resultHandler != nil {
			resultHandler(&EncodeResult{
				Topic:     msg.Topic,
				Payload:   payload,
				Timestamp: msg.At.UnixNano(),
				Error:     err,
			})
		}
	}

	p.logger.Debugf("%s pool worker %d stopped", p.name, id)
}

// GetMetrics returns a copy of the current metrics
func (p *Pool) GetMetrics() PoolMetrics {
	p.metrics.mu.Lock()
	defer p.metrics.mu.Unlock()

	return PoolMetrics{
		EncodedCount:    p.metrics.EncodedCount,
		ErrorCount:      p.metrics.ErrorCount,
		QueuedCount:     p.metrics.QueuedCount,
		DroppedCount:    p.metrics.DroppedCount,
		LastEncodedTime: p.metrics.LastEncodedTime,
		EncodeTimeAvg:   p.metrics.EncodeTimeAvg,
		EncodeTimeMax:   p.metrics.EncodeTimeMax,
	}
}

func (p *Pool) logMetrics() {
	metrics := p.GetMetrics()

	p.logger.Infof("%s pool metrics: encoded=%d, errors=%d, dropped=%d, avg_time=%dµs, max_time=%dµs",
		p.name, metrics.EncodedCount, metrics.ErrorCount, metrics.DroppedCount,
		metrics.EncodeTimeAvg, metrics.EncodeTimeMax)
}

// GetQueueLength returns the current length of the queue
func (p *Pool) GetQueueLength() int {
	return len(p.queue)
}
