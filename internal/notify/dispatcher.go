package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/travelfeed/internal/domain"
	"github.com/d60-Lab/travelfeed/pkg/logger"
	"github.com/d60-Lab/travelfeed/pkg/metrics"
)

// Notification is one message approved by the throttle.
type Notification struct {
	ID          string                  `json:"id"`
	RecipientID string                  `json:"recipient_id"`
	ActorID     string                  `json:"actor_id"`
	Kind        domain.NotificationKind `json:"kind"`
	CreatedAt   time.Time               `json:"created_at"`
}

// Sink delivers a notification somewhere durable.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, n Notification) error
}

type deliverJob struct {
	n     Notification
	enqAt time.Time
}

// Dispatcher 本地异步投递执行器：限流通过后入队，由 worker 写入 sink
type Dispatcher struct {
	sink    Sink
	ch      chan deliverJob
	timeout time.Duration
}

func NewDispatcher(sink Sink, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 10000
	}
	return &Dispatcher{sink: sink, ch: make(chan deliverJob, queueSize), timeout: 5 * time.Second}
}

// Start 启动若干 worker；返回的停止函数会排空队列后返回，或在 ctx 结束时放弃。
func (d *Dispatcher) Start(workers int) func(context.Context) error {
	if workers <= 0 {
		workers = 4
	}
	quit := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case job := <-d.ch:
					d.deliver(job)
				case <-quit:
					for {
						select {
						case job := <-d.ch:
							d.deliver(job)
						default:
							return
						}
					}
				}
			}
		}()
	}

	var once sync.Once
	return func(ctx context.Context) error {
		once.Do(func() { close(quit) })
		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (d *Dispatcher) deliver(job deliverJob) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	err := d.sink.Deliver(ctx, job.n)
	metrics.RecordNotifyDelivered(d.sink.Name(), err)
	metrics.SetNotifyQueueDepth(len(d.ch))
	if err != nil {
		logger.Warn("notification delivery failed",
			zap.String("sink", d.sink.Name()),
			zap.String("recipient", job.n.RecipientID),
			zap.String("actor", job.n.ActorID),
			zap.Error(err))
		return
	}
	logger.Debug("notification delivered",
		zap.String("recipient", job.n.RecipientID),
		zap.Duration("queued", time.Since(job.enqAt)))
}

// Enqueue 非阻塞入队；队列满时丢弃并返回 false
func (d *Dispatcher) Enqueue(n Notification) bool {
	select {
	case d.ch <- deliverJob{n: n, enqAt: time.Now()}:
		metrics.SetNotifyQueueDepth(len(d.ch))
		return true
	default:
		logger.Warn("notify queue full, drop",
			zap.String("recipient", n.RecipientID), zap.String("actor", n.ActorID))
		return false
	}
}

// QueueLen 返回当前队列长度（采样值）。
func (d *Dispatcher) QueueLen() int { return len(d.ch) }
