package business

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/wfunc/noodle-rush/internal/errors"
	"github.com/wfunc/noodle-rush/internal/game/buff"
	"github.com/wfunc/noodle-rush/internal/game/economy"
	"github.com/wfunc/noodle-rush/internal/game/state"
)

// BusinessTestSuite 经营操作测试套件
type BusinessTestSuite struct {
	suite.Suite
	ctx      context.Context
	store    *state.Store
	actions  *Actions
	notified int
}

func (s *BusinessTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = state.NewStore()
	s.actions = NewActions(s.store, 0, nil)
	s.notified = 0
	s.store.Subscribe(func(doc *state.Document) { s.notified++ })
}

func (s *BusinessTestSuite) setFunds(funds int64) {
	_, err := s.store.Update(s.ctx, func(doc *state.Document) error {
		doc.Finances.Funds = funds
		return nil
	})
	s.Require().NoError(err)
	s.notified = 0
}

// 薪资超过资金时拒绝雇佣，资金与员工名册不变
func (s *BusinessTestSuite) TestHire_InsufficientFunds() {
	s.setFunds(100)
	before := s.store.Get(s.ctx)

	_, err := s.actions.Hire(s.ctx, "cand-01")
	s.True(errors.Is(err, errors.ErrInsufficientFunds))
	s.True(errors.IsDeclined(err))
	s.Equal(0, s.notified)

	after := s.store.Get(s.ctx)
	s.Equal(before.Finances, after.Finances)
	s.Equal(before.Employees, after.Employees)
}

func (s *BusinessTestSuite) TestHire() {
	hired, err := s.actions.Hire(s.ctx, "cand-02")
	s.Require().NoError(err)
	s.Equal("cand-02", hired.ID)
	s.Nil(hired.Assigned)

	doc := s.store.Get(s.ctx)
	s.Equal(int64(4820), doc.Finances.Funds)
	s.Len(doc.Employees.Roster, 3)
	s.Len(doc.Employees.Candidates, 7)
	s.Equal(1, doc.Statistics.EmployeesHired)
	s.Equal(1, s.notified)

	_, err = s.actions.Hire(s.ctx, "cand-02")
	s.True(errors.Is(err, errors.ErrNoCandidate))
}

func (s *BusinessTestSuite) TestHire_PoolExhausted() {
	_, err := s.store.Update(s.ctx, func(doc *state.Document) error {
		doc.Employees.Candidates = nil
		return nil
	})
	s.Require().NoError(err)

	_, err = s.actions.Hire(s.ctx, "cand-01")
	s.True(errors.Is(err, errors.ErrNoCandidate))
}

func (s *BusinessTestSuite) TestFire() {
	err := s.actions.Fire(s.ctx, "emp-founder-cook")
	s.True(errors.Is(err, errors.ErrEmployeeProtected))

	s.Require().NoError(s.actions.Assign(s.ctx, s.hire("cand-03"), state.StartingBarID))
	s.Require().NoError(s.actions.Fire(s.ctx, "cand-03"))

	doc := s.store.Get(s.ctx)
	e, _ := doc.FindEmployee("cand-03")
	s.Nil(e)
	bar, _ := doc.FindRestaurant(state.StartingBarID)
	s.NotContains(bar.Staff, "cand-03")
	s.Equal(int64(500), bar.StaffCost)
	// 签约费 220 + 遣散费 220
	s.Equal(int64(4560), doc.Finances.Funds)
	s.Equal(1, doc.Statistics.EmployeesFired)

	s.True(errors.Is(s.actions.Fire(s.ctx, "nobody"), errors.ErrEmployeeNotFound))
}

func (s *BusinessTestSuite) hire(id string) string {
	e, err := s.actions.Hire(s.ctx, id)
	s.Require().NoError(err)
	return e.ID
}

func (s *BusinessTestSuite) TestAssignMovesBetweenRestaurants() {
	s.setFunds(100000)
	_, err := s.actions.PurchaseSlot(s.ctx, 1)
	s.Require().NoError(err)

	s.Require().NoError(s.actions.Assign(s.ctx, "emp-founder-runner", "bar-1"))

	doc := s.store.Get(s.ctx)
	e, _ := doc.FindEmployee("emp-founder-runner")
	s.Equal("bar-1", *e.Assigned)
	bar0, _ := doc.FindRestaurant("bar-0")
	bar1, _ := doc.FindRestaurant("bar-1")
	s.Equal([]string{"emp-founder-cook"}, bar0.Staff)
	s.Equal([]string{"emp-founder-runner"}, bar1.Staff)
	s.Equal(int64(300), bar0.StaffCost)
	s.Equal(int64(200), bar1.StaffCost)

	s.Require().NoError(s.actions.Unassign(s.ctx, "emp-founder-runner"))
	doc = s.store.Get(s.ctx)
	e, _ = doc.FindEmployee("emp-founder-runner")
	s.Nil(e.Assigned)
	bar1, _ = doc.FindRestaurant("bar-1")
	s.Empty(bar1.Staff)
}

func (s *BusinessTestSuite) TestAssign_Full() {
	s.setFunds(100000)
	for _, id := range []string{"cand-01", "cand-02", "cand-03"} {
		s.hire(id)
	}
	s.Require().NoError(s.actions.Assign(s.ctx, "cand-01", state.StartingBarID))
	s.Require().NoError(s.actions.Assign(s.ctx, "cand-02", state.StartingBarID))

	err := s.actions.Assign(s.ctx, "cand-03", state.StartingBarID)
	s.True(errors.Is(err, errors.ErrRestaurantFull))

	// 重复分配到同一店铺不报错
	s.NoError(s.actions.Assign(s.ctx, "cand-01", state.StartingBarID))
	s.True(errors.Is(s.actions.Assign(s.ctx, "cand-01", "bar-9"), errors.ErrRestaurantNotFound))
}

func (s *BusinessTestSuite) TestTrain() {
	trained, err := s.actions.Train(s.ctx, "emp-founder-runner")
	s.Require().NoError(err)
	s.Equal(2, trained.Level)
	s.Equal(int64(220), trained.Salary)

	doc := s.store.Get(s.ctx)
	s.Equal(int64(4600), doc.Finances.Funds)
	bar, _ := doc.FindRestaurant(state.StartingBarID)
	s.Equal(int64(520), bar.StaffCost)
}

func (s *BusinessTestSuite) TestTrain_BargainDiscountAndMaxLevel() {
	_, err := s.store.Update(s.ctx, func(doc *state.Document) error {
		_, err := buff.DefaultRegistry().Apply(doc, "merchant_wu", 5)
		doc.Employees.Roster[0].Level = economy.MaxEmployeeLevel - 1
		return err
	})
	s.Require().NoError(err)

	// 400 × 4 × 0.75
	_, err = s.actions.Train(s.ctx, "emp-founder-cook")
	s.Require().NoError(err)
	s.Equal(int64(3800), s.store.Get(s.ctx).Finances.Funds)

	_, err = s.actions.Train(s.ctx, "emp-founder-cook")
	s.True(errors.Is(err, errors.ErrMaxLevelReached))
}

func (s *BusinessTestSuite) TestGift() {
	gifted, err := s.actions.Gift(s.ctx, "emp-founder-cook")
	s.Require().NoError(err)
	s.Equal(95, gifted.Morale)

	gifted, err = s.actions.Gift(s.ctx, "emp-founder-cook")
	s.Require().NoError(err)
	s.Equal(100, gifted.Morale)

	s.setFunds(149)
	_, err = s.actions.Gift(s.ctx, "emp-founder-cook")
	s.True(errors.Is(err, errors.ErrInsufficientFunds))
	s.Equal(int64(149), s.store.Get(s.ctx).Finances.Funds)
}

func (s *BusinessTestSuite) TestPurchaseAndSell() {
	_, err := s.actions.PurchaseSlot(s.ctx, 1)
	s.True(errors.Is(err, errors.ErrInsufficientFunds))

	s.setFunds(10000)
	bar, err := s.actions.PurchaseSlot(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal("bar-1", bar.ID)

	_, err = s.actions.PurchaseSlot(s.ctx, 1)
	s.True(errors.Is(err, errors.ErrSlotUnavailable))
	_, err = s.actions.PurchaseSlot(s.ctx, 42)
	s.True(errors.Is(err, errors.ErrSlotUnavailable))

	s.Require().NoError(s.actions.Assign(s.ctx, "emp-founder-runner", "bar-1"))

	refund, err := s.actions.SellRestaurant(s.ctx, "bar-1")
	s.Require().NoError(err)
	s.Equal(int64(3000), refund)

	doc := s.store.Get(s.ctx)
	s.Equal(int64(7000), doc.Finances.Funds)
	s.Len(doc.Restaurants.Bars, 1)
	s.False(doc.FindSlot(1).Purchased)
	e, _ := doc.FindEmployee("emp-founder-runner")
	s.Nil(e.Assigned)
	s.Equal(1, doc.Statistics.RestaurantsPurchased)
	s.Equal(1, doc.Statistics.RestaurantsSold)

	_, err = s.actions.SellRestaurant(s.ctx, state.StartingBarID)
	s.True(errors.Is(err, errors.ErrGameStateError))
}

func (s *BusinessTestSuite) TestUpgrade() {
	level, err := s.actions.Upgrade(s.ctx, state.StartingBarID, economy.UpgradeKitchen)
	s.Require().NoError(err)
	s.Equal(1, level)
	s.Equal(int64(4200), s.store.Get(s.ctx).Finances.Funds)

	_, err = s.actions.Upgrade(s.ctx, state.StartingBarID, "roof")
	s.True(errors.Is(err, errors.ErrInvalidParam))

	_, err = s.store.Update(s.ctx, func(doc *state.Document) error {
		doc.Restaurants.Bars[0].Upgrades[economy.UpgradeDecor] = economy.MaxUpgradeLevel
		return nil
	})
	s.Require().NoError(err)
	_, err = s.actions.Upgrade(s.ctx, state.StartingBarID, economy.UpgradeDecor)
	s.True(errors.Is(err, errors.ErrMaxLevelReached))
}

func (s *BusinessTestSuite) TestLoanAndRepay() {
	debt, err := s.actions.TakeLoan(s.ctx, 15000)
	s.Require().NoError(err)
	s.Equal(int64(15000), debt)

	_, err = s.actions.TakeLoan(s.ctx, 6000)
	s.True(errors.Is(err, errors.ErrLoanLimitExceeded))

	_, err = s.actions.TakeLoan(s.ctx, math.MaxInt64)
	s.True(errors.Is(err, errors.ErrLoanLimitExceeded))
	doc := s.store.Get(s.ctx)
	s.Equal(int64(15000), doc.Finances.Debt)
	s.Equal(int64(20000), doc.Finances.Funds)

	_, err = s.actions.TakeLoan(s.ctx, -1)
	s.True(errors.Is(err, errors.ErrInvalidParam))

	debt, err = s.actions.Repay(s.ctx, 5000)
	s.Require().NoError(err)
	s.Equal(int64(10000), debt)

	debt, err = s.actions.Repay(s.ctx, 50000)
	s.Require().NoError(err)
	s.Equal(int64(0), debt)

	doc = s.store.Get(s.ctx)
	s.Equal(int64(5000), doc.Finances.Funds)
	s.Equal(1, doc.Statistics.LoansTaken)

	_, err = s.actions.Repay(s.ctx, 10)
	s.True(errors.Is(err, errors.ErrInvalidParam))
}

func (s *BusinessTestSuite) TestGameOverDeclinesActions() {
	_, err := s.store.Update(s.ctx, func(doc *state.Document) error {
		doc.PlayerStats.Burnout = state.MaxBurnout
		return nil
	})
	s.Require().NoError(err)

	_, err = s.actions.Gift(s.ctx, "emp-founder-cook")
	s.True(errors.Is(err, errors.ErrGameOver))
}

func TestBusinessSuite(t *testing.T) {
	suite.Run(t, new(BusinessTestSuite))
}
