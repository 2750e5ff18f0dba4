package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	apperrors "github.com/wfunc/deepsea-slots/internal/errors"
	"github.com/wfunc/deepsea-slots/internal/models"
	"gorm.io/gorm"
)

// ProfileRepositoryTestSuite 玩家档案仓储测试套件
type ProfileRepositoryTestSuite struct {
	suite.Suite
	db   *gorm.DB
	repo ProfileRepository
}

func (suite *ProfileRepositoryTestSuite) SetupTest() {
	suite.db = SetupTestDB()
	suite.repo = NewProfileRepository(suite.db)
}

func (suite *ProfileRepositoryTestSuite) TearDownTest() {
	CleanupTestDB(suite.db)
}

// TestUpsert 首次插入，再次写入覆盖余额
func (suite *ProfileRepositoryTestSuite) TestUpsert() {
	ctx := context.Background()
	syncedAt := time.Now().Truncate(time.Second)

	err := suite.repo.Upsert(ctx, &models.PlayerProfile{
		PlayerID: "p-1", Version: 3, Coins: 100, SyncedAt: syncedAt,
	})
	suite.Require().NoError(err)

	err = suite.repo.Upsert(ctx, &models.PlayerProfile{
		PlayerID: "p-1", Version: 3, Coins: 250, BonusEntries: 1, SyncedAt: syncedAt.Add(time.Minute),
	})
	suite.Require().NoError(err)

	found, err := suite.repo.FindByPlayerID(ctx, "p-1")
	suite.Require().NoError(err)
	suite.Equal(250, found.Coins)
	suite.Equal(1, found.BonusEntries)

	var count int64
	suite.db.Model(&models.PlayerProfile{}).Count(&count)
	suite.Equal(int64(1), count)
}

// TestFindByPlayerID_NotFound 不存在的档案返回 ErrNotFound
func (suite *ProfileRepositoryTestSuite) TestFindByPlayerID_NotFound() {
	_, err := suite.repo.FindByPlayerID(context.Background(), "missing")
	suite.Error(err)
	suite.True(apperrors.Is(err, apperrors.ErrNotFound))
}

// TestSaveCatalog 图鉴保存不覆盖余额
func (suite *ProfileRepositoryTestSuite) TestSaveCatalog() {
	ctx := context.Background()
	suite.Require().NoError(suite.repo.Upsert(ctx, &models.PlayerProfile{PlayerID: "p-2", Version: 3, Coins: 777}))

	catalog := models.JSONMap{"entries": []interface{}{map[string]interface{}{"id": 0, "purchased": true}}}
	suite.Require().NoError(suite.repo.SaveCatalog(ctx, "p-2", catalog))

	found, err := suite.repo.FindByPlayerID(ctx, "p-2")
	suite.Require().NoError(err)
	suite.Equal(777, found.Coins)
	suite.Contains(found.Catalog, "entries")

	// 档案不存在时创建
	suite.Require().NoError(suite.repo.SaveCatalog(ctx, "p-3", catalog))
	found, err = suite.repo.FindByPlayerID(ctx, "p-3")
	suite.Require().NoError(err)
	suite.Equal(0, found.Coins)
}

// TestWrites 审计追加、查询与统计
func (suite *ProfileRepositoryTestSuite) TestWrites() {
	ctx := context.Background()
	writes := []*models.ProfileWrite{
		{PlayerID: "p-1", Result: models.WriteAccepted, PrevCoins: 100, NewCoins: 120},
		{PlayerID: "p-1", Result: models.WriteRejected, Reason: "suspicious_delta", PrevCoins: 120, NewCoins: 9000},
		{PlayerID: "p-1", Result: models.WriteAccepted, PrevCoins: 120, NewCoins: 90},
		{PlayerID: "p-9", Result: models.WriteAccepted},
	}
	for _, w := range writes {
		suite.Require().NoError(suite.repo.AppendWrite(ctx, w))
		suite.NotZero(w.ID)
	}

	list, err := suite.repo.ListWrites(ctx, "p-1", 2)
	suite.Require().NoError(err)
	suite.Len(list, 2)
	suite.Equal(90, list[0].NewCoins)
	suite.Equal("suspicious_delta", list[1].Reason)

	total, err := suite.repo.CountWrites(ctx, "p-1", "")
	suite.Require().NoError(err)
	suite.Equal(int64(3), total)

	rejected, err := suite.repo.CountWrites(ctx, "p-1", models.WriteRejected)
	suite.Require().NoError(err)
	suite.Equal(int64(1), rejected)
}

// TestWithTx 事务回滚后不留数据
func (suite *ProfileRepositoryTestSuite) TestWithTx() {
	ctx := context.Background()
	err := suite.db.Transaction(func(tx *gorm.DB) error {
		if err := suite.repo.WithTx(tx).AppendWrite(ctx, &models.ProfileWrite{PlayerID: "tx", Result: models.WriteAccepted}); err != nil {
			return err
		}
		return gorm.ErrInvalidTransaction
	})
	suite.Error(err)

	count, err := suite.repo.CountWrites(ctx, "tx", "")
	suite.Require().NoError(err)
	suite.Zero(count)
}

// TestSaveWrite 审计和档案一起落库
func (suite *ProfileRepositoryTestSuite) TestSaveWrite() {
	ctx := context.Background()
	err := suite.repo.SaveWrite(ctx,
		&models.ProfileWrite{PlayerID: "p-3", Result: models.WriteAccepted, PrevCoins: 100, NewCoins: 120},
		&models.PlayerProfile{PlayerID: "p-3", Version: 3, Coins: 120, BonusEntries: 1},
	)
	suite.Require().NoError(err)

	saved, err := suite.repo.FindByPlayerID(ctx, "p-3")
	suite.Require().NoError(err)
	suite.Equal(120, saved.Coins)

	count, err := suite.repo.CountWrites(ctx, "p-3", models.WriteAccepted)
	suite.Require().NoError(err)
	suite.Equal(int64(1), count)
}

// TestSaveWrite_Rollback 档案写入失败时审计一并回滚
func (suite *ProfileRepositoryTestSuite) TestSaveWrite_Rollback() {
	ctx := context.Background()
	suite.Require().NoError(suite.db.Migrator().DropTable(&models.PlayerProfile{}))

	err := suite.repo.SaveWrite(ctx,
		&models.ProfileWrite{PlayerID: "p-4", Result: models.WriteAccepted},
		&models.PlayerProfile{PlayerID: "p-4", Version: 3, Coins: 50},
	)
	suite.Error(err)

	count, err := suite.repo.CountWrites(ctx, "p-4", "")
	suite.Require().NoError(err)
	suite.Zero(count)
}

func TestProfileRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(ProfileRepositoryTestSuite))
}
