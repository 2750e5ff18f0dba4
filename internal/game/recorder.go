package game

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wfunc/deepsea-slots/internal/models"
	"github.com/wfunc/deepsea-slots/internal/repository"
	"go.uber.org/zap"
)

const (
	recorderBatchSize     = 32
	recorderFlushInterval = 200 * time.Millisecond
)

// SpinRecorder 异步写入旋转记录，缓冲满时丢弃
type SpinRecorder struct {
	repo    repository.SpinRecordRepository
	ch      chan *models.SpinRecord
	logger  *zap.Logger
	mu      sync.RWMutex
	closed  bool
	wg      sync.WaitGroup
	dropped atomic.Int64
	written atomic.Int64
}

// NewSpinRecorder 创建记录器
func NewSpinRecorder(repo repository.SpinRecordRepository, bufferSize int, logger *zap.Logger) *SpinRecorder {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SpinRecorder{
		repo:   repo,
		ch:     make(chan *models.SpinRecord, bufferSize),
		logger: logger,
	}
}

// Start 启动写入协程
func (r *SpinRecorder) Start() {
	r.wg.Add(1)
	go r.loop()
}

// Record 非阻塞投递，返回是否入队
func (r *SpinRecorder) Record(rec *models.SpinRecord) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return false
	}

	select {
	case r.ch <- rec:
		return true
	default:
		r.dropped.Add(1)
		r.logger.Warn("旋转记录缓冲已满，丢弃记录",
			zap.String("player_id", rec.PlayerID),
			zap.String("mode", rec.Mode),
			zap.Int64("dropped", r.dropped.Load()),
		)
		return false
	}
}

// Stop 关闭投递并等待剩余记录写完
func (r *SpinRecorder) Stop() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.ch)
	r.mu.Unlock()

	r.wg.Wait()
}

// Dropped 丢弃数量
func (r *SpinRecorder) Dropped() int64 {
	return r.dropped.Load()
}

// Written 成功写入数量
func (r *SpinRecorder) Written() int64 {
	return r.written.Load()
}

func (r *SpinRecorder) loop() {
	defer r.wg.Done()

	ticker := time.NewTicker(recorderFlushInterval)
	defer ticker.Stop()

	batch := make([]*models.SpinRecord, 0, recorderBatchSize)
	for {
		select {
		case rec, ok := <-r.ch:
			if !ok {
				r.flush(batch)
				return
			}
			batch = append(batch, rec)
			if len(batch) >= recorderBatchSize {
				r.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				r.flush(batch)
				batch = batch[:0]
			}
		}
	}
}

func (r *SpinRecorder) flush(batch []*models.SpinRecord) {
	if len(batch) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.repo.CreateBatch(ctx, batch); err != nil {
		r.logger.Error("写入旋转记录失败", zap.Int("count", len(batch)), zap.Error(err))
		return
	}
	r.written.Add(int64(len(batch)))
}
