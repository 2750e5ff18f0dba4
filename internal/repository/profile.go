package repository

import (
	"context"
	"errors"

	apperrors "github.com/wfunc/deepsea-slots/internal/errors"
	"github.com/wfunc/deepsea-slots/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileRepository 玩家档案仓储接口
type ProfileRepository interface {
	BaseRepository
	WithTx(tx *gorm.DB) ProfileRepository
	FindByPlayerID(ctx context.Context, playerID string) (*models.PlayerProfile, error)
	Upsert(ctx context.Context, profile *models.PlayerProfile) error
	SaveCatalog(ctx context.Context, playerID string, catalog models.JSONMap) error
	AppendWrite(ctx context.Context, write *models.ProfileWrite) error
	SaveWrite(ctx context.Context, write *models.ProfileWrite, profile *models.PlayerProfile) error
	ListWrites(ctx context.Context, playerID string, limit int) ([]*models.ProfileWrite, error)
	CountWrites(ctx context.Context, playerID, result string) (int64, error)
}

// profileRepo 玩家档案仓储实现
type profileRepo struct {
	*BaseRepo
}

// NewProfileRepository 创建玩家档案仓储
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// WithTx 使用事务
func (r *profileRepo) WithTx(tx *gorm.DB) ProfileRepository {
	return &profileRepo{BaseRepo: &BaseRepo{db: tx}}
}

// FindByPlayerID 根据玩家ID查找档案
func (r *profileRepo) FindByPlayerID(ctx context.Context, playerID string) (*models.PlayerProfile, error) {
	var profile models.PlayerProfile
	err := r.db.WithContext(ctx).Where("player_id = ?", playerID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.ErrNotFound, "档案不存在")
		}
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	return &profile, nil
}

// Upsert 写入最新档案，按玩家ID覆盖余额字段
func (r *profileRepo) Upsert(ctx context.Context, profile *models.PlayerProfile) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "player_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"version", "coins", "bonus_entries", "synced_at", "updated_at"}),
	}).Create(profile).Error
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseUpdate)
	}
	return nil
}

// SaveCatalog 保存图鉴，档案不存在时创建
func (r *profileRepo) SaveCatalog(ctx context.Context, playerID string, catalog models.JSONMap) error {
	profile := &models.PlayerProfile{PlayerID: playerID, Version: 3, Catalog: catalog}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "player_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"catalog", "updated_at"}),
	}).Create(profile).Error
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseUpdate)
	}
	return nil
}

// AppendWrite 追加写入审计
func (r *profileRepo) AppendWrite(ctx context.Context, write *models.ProfileWrite) error {
	if err := r.db.WithContext(ctx).Create(write).Error; err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseInsert)
	}
	return nil
}

// SaveWrite 同一事务内追加审计并覆盖档案
func (r *profileRepo) SaveWrite(ctx context.Context, write *models.ProfileWrite, profile *models.PlayerProfile) error {
	return r.Transaction(ctx, func(tx *gorm.DB) error {
		repo := r.WithTx(tx)
		if err := repo.AppendWrite(ctx, write); err != nil {
			return err
		}
		return repo.Upsert(ctx, profile)
	})
}

// ListWrites 最近的写入审计，新的在前
func (r *profileRepo) ListWrites(ctx context.Context, playerID string, limit int) ([]*models.ProfileWrite, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var writes []*models.ProfileWrite
	err := r.db.WithContext(ctx).
		Where("player_id = ?", playerID).
		Order("id DESC").
		Limit(limit).
		Find(&writes).Error
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	return writes, nil
}

// CountWrites 统计写入次数，result 为空时统计全部
func (r *profileRepo) CountWrites(ctx context.Context, playerID, result string) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.ProfileWrite{}).Where("player_id = ?", playerID)
	if result != "" {
		query = query.Where("result = ?", result)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	return count, nil
}
