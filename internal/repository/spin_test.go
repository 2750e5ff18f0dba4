package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/wfunc/deepsea-slots/internal/models"
	"gorm.io/gorm"
)

// SpinRecordRepositoryTestSuite 旋转记录仓储测试套件
type SpinRecordRepositoryTestSuite struct {
	suite.Suite
	db   *gorm.DB
	repo SpinRecordRepository
}

func (suite *SpinRecordRepositoryTestSuite) SetupTest() {
	suite.db = SetupTestDB()
	suite.repo = NewSpinRecordRepository(suite.db)
}

func (suite *SpinRecordRepositoryTestSuite) TearDownTest() {
	CleanupTestDB(suite.db)
}

// TestCreate 创建并读回
func (suite *SpinRecordRepositoryTestSuite) TestCreate() {
	ctx := context.Background()
	record := &models.SpinRecord{
		PlayerID:   "p-1",
		SessionID:  "s-1",
		Mode:       "main",
		Bet:        3,
		LineTotal:  150,
		Payout:     150,
		Multiplier: "1",
		Jackpot:    true,
		Grid:       "0,0,0,1,1,1,2,2,2",
		Detail:     models.JSONMap{"wins": []interface{}{"line0"}},
	}
	suite.Require().NoError(suite.repo.Create(ctx, record))
	suite.NotZero(record.ID)

	list, err := suite.repo.ListRecent(ctx, "p-1", nil)
	suite.Require().NoError(err)
	suite.Require().Len(list, 1)
	suite.True(list[0].Jackpot)
	suite.Contains(list[0].Detail, "wins")
}

// TestCreateBatch 批量写入，空切片不报错
func (suite *SpinRecordRepositoryTestSuite) TestCreateBatch() {
	ctx := context.Background()
	suite.NoError(suite.repo.CreateBatch(ctx, nil))

	records := make([]*models.SpinRecord, 0, 5)
	for i := 0; i < 5; i++ {
		records = append(records, &models.SpinRecord{PlayerID: "p-2", SessionID: "s", Mode: "main", Bet: 1})
	}
	suite.Require().NoError(suite.repo.CreateBatch(ctx, records))

	p := NewPagination(1, 10)
	list, err := suite.repo.ListRecent(ctx, "p-2", p)
	suite.Require().NoError(err)
	suite.Len(list, 5)
	suite.Equal(int64(5), p.Total)
}

// TestListRecent_Pagination 分页与排序
func (suite *SpinRecordRepositoryTestSuite) TestListRecent_Pagination() {
	ctx := context.Background()
	for i := 1; i <= 7; i++ {
		CreateTestSpin(suite.db, "p-3", 1, i)
	}
	CreateTestSpin(suite.db, "other", 1, 100)

	p := NewPagination(2, 3)
	list, err := suite.repo.ListRecent(ctx, "p-3", p)
	suite.Require().NoError(err)
	suite.Equal(int64(7), p.Total)
	suite.Require().Len(list, 3)
	suite.Equal(4, list[0].Payout)
	suite.Equal(2, list[2].Payout)

	all, err := suite.repo.ListRecent(ctx, "", NewPagination(1, 100))
	suite.Require().NoError(err)
	suite.Len(all, 8)
}

// TestStats 汇总下注与赔付
func (suite *SpinRecordRepositoryTestSuite) TestStats() {
	ctx := context.Background()
	CreateTestSpin(suite.db, "p-4", 3, 0)
	CreateTestSpin(suite.db, "p-4", 2, 40)
	suite.Require().NoError(suite.repo.Create(ctx, &models.SpinRecord{
		PlayerID: "p-4", SessionID: "s", Mode: "bonus", Bet: 0, Payout: 300, Jackpot: true,
	}))

	stats, err := suite.repo.Stats(ctx, "p-4")
	suite.Require().NoError(err)
	suite.Equal(int64(3), stats.Spins)
	suite.Equal(int64(5), stats.Wagered)
	suite.Equal(int64(340), stats.Paid)
	suite.Equal(int64(1), stats.Jackpots)

	empty, err := suite.repo.Stats(ctx, "nobody")
	suite.Require().NoError(err)
	suite.Zero(empty.Spins)
}

func TestSpinRecordRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(SpinRecordRepositoryTestSuite))
}
