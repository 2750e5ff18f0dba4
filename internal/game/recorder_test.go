package game

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/deepsea-slots/internal/models"
	"github.com/wfunc/deepsea-slots/internal/repository"
)

// blockingSpinRepo CreateBatch 阻塞直到放行，用来制造缓冲满
type blockingSpinRepo struct {
	repository.SpinRecordRepository
	mu      sync.Mutex
	release chan struct{}
	saved   int
}

func (r *blockingSpinRepo) CreateBatch(ctx context.Context, records []*models.SpinRecord) error {
	<-r.release
	r.mu.Lock()
	r.saved += len(records)
	r.mu.Unlock()
	return nil
}

type failingSpinRepo struct {
	repository.SpinRecordRepository
}

func (failingSpinRepo) CreateBatch(context.Context, []*models.SpinRecord) error {
	return errors.New("disk full")
}

func TestSpinRecorder_WritesBatches(t *testing.T) {
	db := repository.SetupTestDB()
	defer repository.CleanupTestDB(db)
	repo := repository.NewSpinRecordRepository(db)

	r := NewSpinRecorder(repo, 100, nil)
	r.Start()
	for i := 0; i < 40; i++ {
		require.True(t, r.Record(&models.SpinRecord{PlayerID: "p1", Mode: "main", Bet: 1, CreatedAt: time.Now()}))
	}
	r.Stop()

	assert.EqualValues(t, 40, r.Written())
	assert.EqualValues(t, 0, r.Dropped())

	stats, err := repo.Stats(context.Background(), "p1")
	require.NoError(t, err)
	assert.EqualValues(t, 40, stats.Spins)
}

func TestSpinRecorder_DropsWhenFull(t *testing.T) {
	repo := &blockingSpinRepo{release: make(chan struct{})}
	r := NewSpinRecorder(repo, 2, nil)
	// 不启动写入协程，缓冲只能放下两条
	assert.True(t, r.Record(&models.SpinRecord{PlayerID: "p1"}))
	assert.True(t, r.Record(&models.SpinRecord{PlayerID: "p1"}))
	assert.False(t, r.Record(&models.SpinRecord{PlayerID: "p1"}))
	assert.EqualValues(t, 1, r.Dropped())

	r.Start()
	close(repo.release)
	r.Stop()
	assert.Equal(t, 2, repo.saved)
	assert.EqualValues(t, 2, r.Written())
}

func TestSpinRecorder_RecordAfterStop(t *testing.T) {
	r := NewSpinRecorder(failingSpinRepo{}, 4, nil)
	r.Start()
	require.True(t, r.Record(&models.SpinRecord{PlayerID: "p1"}))
	r.Stop()
	r.Stop()

	assert.False(t, r.Record(&models.SpinRecord{PlayerID: "p1"}))
	assert.EqualValues(t, 0, r.Written(), "写入失败不计数")
}
