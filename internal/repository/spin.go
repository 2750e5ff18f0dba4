package repository

import (
	"context"

	apperrors "github.com/wfunc/deepsea-slots/internal/errors"
	"github.com/wfunc/deepsea-slots/internal/models"
	"gorm.io/gorm"
)

// SpinStats 玩家旋转汇总
type SpinStats struct {
	Spins    int64 `json:"spins"`
	Wagered  int64 `json:"wagered"`
	Paid     int64 `json:"paid"`
	Jackpots int64 `json:"jackpots"`
}

// SpinRecordRepository 旋转记录仓储接口
type SpinRecordRepository interface {
	BaseRepository
	Create(ctx context.Context, record *models.SpinRecord) error
	CreateBatch(ctx context.Context, records []*models.SpinRecord) error
	ListRecent(ctx context.Context, playerID string, pagination *Pagination) ([]*models.SpinRecord, error)
	Stats(ctx context.Context, playerID string) (*SpinStats, error)
}

// spinRecordRepo 旋转记录仓储实现
type spinRecordRepo struct {
	*BaseRepo
}

// NewSpinRecordRepository 创建旋转记录仓储
func NewSpinRecordRepository(db *gorm.DB) SpinRecordRepository {
	return &spinRecordRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 创建记录
func (r *spinRecordRepo) Create(ctx context.Context, record *models.SpinRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseInsert)
	}
	return nil
}

// CreateBatch 批量创建记录
func (r *spinRecordRepo) CreateBatch(ctx context.Context, records []*models.SpinRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(records, 100).Error; err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseInsert)
	}
	return nil
}

// ListRecent 最近的记录，新的在前；playerID 为空时不过滤
func (r *spinRecordRepo) ListRecent(ctx context.Context, playerID string, pagination *Pagination) ([]*models.SpinRecord, error) {
	if pagination == nil {
		pagination = NewPagination(1, 20)
	}
	query := r.db.WithContext(ctx).Model(&models.SpinRecord{})
	if playerID != "" {
		query = query.Where("player_id = ?", playerID)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	pagination.Total = total

	var records []*models.SpinRecord
	if err := query.Scopes(Paginate(pagination)).Order("id DESC").Find(&records).Error; err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	return records, nil
}

// Stats 玩家汇总，免费旋转的下注计为0
func (r *spinRecordRepo) Stats(ctx context.Context, playerID string) (*SpinStats, error) {
	var stats SpinStats
	err := r.db.WithContext(ctx).Model(&models.SpinRecord{}).
		Select("COUNT(*) AS spins, COALESCE(SUM(bet), 0) AS wagered, COALESCE(SUM(payout), 0) AS paid, "+
			"COALESCE(SUM(CASE WHEN jackpot THEN 1 ELSE 0 END), 0) AS jackpots").
		Where("player_id = ?", playerID).
		Scan(&stats).Error
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	return &stats, nil
}
