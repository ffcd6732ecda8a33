package business

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/wfunc/noodle-rush/internal/errors"
	"github.com/wfunc/noodle-rush/internal/game/buff"
	"github.com/wfunc/noodle-rush/internal/game/economy"
	"github.com/wfunc/noodle-rush/internal/game/state"
)

// Actions 经营操作。每个操作都是一次 store.Update，被拒绝时文档保持不变。
type Actions struct {
	store     *state.Store
	loanLimit int64
	logger    *zap.Logger
}

// NewActions 创建经营操作
func NewActions(store *state.Store, loanLimit int64, logger *zap.Logger) *Actions {
	if loanLimit <= 0 {
		loanLimit = economy.DefaultLoanLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Actions{
		store:     store,
		loanLimit: loanLimit,
		logger:    logger,
	}
}

// LoanLimit 贷款额度
func (a *Actions) LoanLimit() int64 {
	return a.loanLimit
}

// update 执行一次变换，游戏结束后拒绝所有经营操作
func (a *Actions) update(ctx context.Context, action string, fn func(doc *state.Document) error) (*state.Document, error) {
	doc, err := a.store.Update(ctx, func(doc *state.Document) error {
		if doc.IsGameOver() {
			return errors.New(errors.ErrGameOver)
		}
		return fn(doc)
	})
	if err != nil {
		a.logger.Debug("经营操作被拒绝", zap.String("action", action), zap.Error(err))
		return nil, err
	}
	return doc, nil
}

func charge(doc *state.Document, cost int64, source string) error {
	if cost > doc.Finances.Funds {
		return errors.Newf(errors.ErrInsufficientFunds, "需要 %d，当前 %d", cost, doc.Finances.Funds)
	}
	doc.AddExpense(cost, source)
	return nil
}

func findEmployee(doc *state.Document, id string) (*state.Employee, error) {
	e, _ := doc.FindEmployee(id)
	if e == nil {
		return nil, errors.New(errors.ErrEmployeeNotFound, id)
	}
	return e, nil
}

func findRestaurant(doc *state.Document, id string) (*state.Restaurant, error) {
	bar, _ := doc.FindRestaurant(id)
	if bar == nil {
		return nil, errors.New(errors.ErrRestaurantNotFound, id)
	}
	return bar, nil
}

// detach 将员工从所在店铺移除（双向）
func detach(doc *state.Document, e *state.Employee) {
	if !e.IsAssigned() {
		return
	}
	if bar, _ := doc.FindRestaurant(*e.Assigned); bar != nil {
		staff := bar.Staff[:0:0]
		for _, id := range bar.Staff {
			if id != e.ID {
				staff = append(staff, id)
			}
		}
		bar.Staff = staff
	}
	e.Assigned = nil
}

// Hire 雇佣候选人，签约费等于薪资
func (a *Actions) Hire(ctx context.Context, candidateID string) (state.Employee, error) {
	var hired state.Employee
	_, err := a.update(ctx, "hire", func(doc *state.Document) error {
		if len(doc.Employees.Candidates) == 0 {
			return errors.New(errors.ErrNoCandidate, "候选人已招满")
		}
		c, idx := doc.FindCandidate(candidateID)
		if c == nil {
			return errors.New(errors.ErrNoCandidate, candidateID)
		}
		if err := charge(doc, c.Salary, state.SourceHire); err != nil {
			return err
		}

		hired = *c
		hired.Assigned = nil
		doc.Employees.Candidates = append(doc.Employees.Candidates[:idx], doc.Employees.Candidates[idx+1:]...)
		doc.Employees.Roster = append(doc.Employees.Roster, hired)
		doc.Statistics.EmployeesHired++
		return nil
	})
	if err != nil {
		return state.Employee{}, err
	}
	a.logger.Info("雇佣员工", zap.String("employee", hired.ID), zap.Int64("salary", hired.Salary))
	return hired, nil
}

// Fire 解雇员工，遣散费等于薪资；受保护员工不可解雇
func (a *Actions) Fire(ctx context.Context, employeeID string) error {
	_, err := a.update(ctx, "fire", func(doc *state.Document) error {
		e, err := findEmployee(doc, employeeID)
		if err != nil {
			return err
		}
		if e.Protected {
			return errors.New(errors.ErrEmployeeProtected, employeeID)
		}
		if err := charge(doc, e.Salary, state.SourceSeverance); err != nil {
			return err
		}

		detach(doc, e)
		_, idx := doc.FindEmployee(employeeID)
		doc.Employees.Roster = append(doc.Employees.Roster[:idx], doc.Employees.Roster[idx+1:]...)
		doc.Statistics.EmployeesFired++
		return nil
	})
	if err == nil {
		a.logger.Info("解雇员工", zap.String("employee", employeeID))
	}
	return err
}

// Assign 将员工分配到店铺，已在其他店铺时先移出
func (a *Actions) Assign(ctx context.Context, employeeID, barID string) error {
	_, err := a.update(ctx, "assign", func(doc *state.Document) error {
		e, err := findEmployee(doc, employeeID)
		if err != nil {
			return err
		}
		bar, err := findRestaurant(doc, barID)
		if err != nil {
			return err
		}
		if e.IsAssigned() && *e.Assigned == barID {
			return nil
		}
		if len(bar.Staff) >= economy.MaxStaff(bar) {
			return errors.Newf(errors.ErrRestaurantFull, "%s 最多 %d 人", barID, economy.MaxStaff(bar))
		}

		detach(doc, e)
		id := bar.ID
		e.Assigned = &id
		bar.Staff = append(bar.Staff, e.ID)
		return nil
	})
	return err
}

// Unassign 将员工移出店铺
func (a *Actions) Unassign(ctx context.Context, employeeID string) error {
	_, err := a.update(ctx, "unassign", func(doc *state.Document) error {
		e, err := findEmployee(doc, employeeID)
		if err != nil {
			return err
		}
		detach(doc, e)
		return nil
	})
	return err
}

// Train 培训员工：等级 +1，薪资 +10%
func (a *Actions) Train(ctx context.Context, employeeID string) (state.Employee, error) {
	var trained state.Employee
	_, err := a.update(ctx, "train", func(doc *state.Document) error {
		e, err := findEmployee(doc, employeeID)
		if err != nil {
			return err
		}
		if e.Level >= economy.MaxEmployeeLevel {
			return errors.New(errors.ErrMaxLevelReached, employeeID)
		}
		cost := buff.Discount(doc.Buffs.Active, economy.TrainingCost(e.Level))
		if err := charge(doc, cost, state.SourceTraining); err != nil {
			return err
		}

		e.Level++
		e.Salary = economy.RaisedSalary(e.Salary)
		doc.Statistics.TrainingsCompleted++
		trained = *e
		return nil
	})
	if err != nil {
		return state.Employee{}, err
	}
	return trained, nil
}

// Gift 送礼提升士气
func (a *Actions) Gift(ctx context.Context, employeeID string) (state.Employee, error) {
	var gifted state.Employee
	_, err := a.update(ctx, "gift", func(doc *state.Document) error {
		e, err := findEmployee(doc, employeeID)
		if err != nil {
			return err
		}
		if err := charge(doc, economy.GiftCost, state.SourceGift); err != nil {
			return err
		}

		e.Morale = state.ClampMorale(e.Morale + economy.GiftMorale)
		doc.Statistics.GiftsGiven++
		gifted = *e
		return nil
	})
	if err != nil {
		return state.Employee{}, err
	}
	return gifted, nil
}

// BarID 店铺位对应的店铺ID
func BarID(slotIndex int) string {
	return fmt.Sprintf("bar-%d", slotIndex)
}

// PurchaseSlot 购买店铺位并开店
func (a *Actions) PurchaseSlot(ctx context.Context, index int) (state.Restaurant, error) {
	var opened state.Restaurant
	_, err := a.update(ctx, "purchase", func(doc *state.Document) error {
		slot := doc.FindSlot(index)
		if slot == nil {
			return errors.Newf(errors.ErrSlotUnavailable, "店铺位 %d 不存在", index)
		}
		if slot.Purchased {
			return errors.Newf(errors.ErrSlotUnavailable, "店铺位 %d 已购买", index)
		}
		price := buff.Discount(doc.Buffs.Active, slot.Price)
		if err := charge(doc, price, state.SourcePurchase); err != nil {
			return err
		}

		opened = state.OpenRestaurant(slot, BarID(index))
		doc.Restaurants.Bars = append(doc.Restaurants.Bars, opened)
		doc.Statistics.RestaurantsPurchased++
		return nil
	})
	if err != nil {
		return state.Restaurant{}, err
	}
	a.logger.Info("购买店铺", zap.Int("slot", index), zap.String("bar", opened.ID))
	return opened, nil
}

// SellRestaurant 出售店铺：员工全部移出，返还店铺位价格的一半。至少保留一间店铺。
func (a *Actions) SellRestaurant(ctx context.Context, barID string) (int64, error) {
	var refund int64
	_, err := a.update(ctx, "sell", func(doc *state.Document) error {
		bar, idx := doc.FindRestaurant(barID)
		if bar == nil {
			return errors.New(errors.ErrRestaurantNotFound, barID)
		}
		if len(doc.Restaurants.Bars) == 1 {
			return errors.New(errors.ErrGameStateError, "至少保留一间店铺")
		}

		for _, id := range bar.Staff {
			if e, _ := doc.FindEmployee(id); e != nil {
				e.Assigned = nil
			}
		}
		if slot := doc.FindSlot(bar.SlotIndex); slot != nil {
			refund = economy.SaleRefund(slot.Price)
			slot.Purchased = false
			slot.BarID = ""
		}
		doc.Restaurants.Bars = append(doc.Restaurants.Bars[:idx], doc.Restaurants.Bars[idx+1:]...)
		if refund > 0 {
			doc.AddIncome(refund, state.SourceSale)
		}
		doc.Statistics.RestaurantsSold++
		return nil
	})
	if err != nil {
		return 0, err
	}
	a.logger.Info("出售店铺", zap.String("bar", barID), zap.Int64("refund", refund))
	return refund, nil
}

// Upgrade 升级店铺设施
func (a *Actions) Upgrade(ctx context.Context, barID, category string) (int, error) {
	var level int
	_, err := a.update(ctx, "upgrade", func(doc *state.Document) error {
		if !economy.IsUpgradeCategory(category) {
			return errors.Newf(errors.ErrInvalidParam, "未知升级类别 %q", category)
		}
		bar, err := findRestaurant(doc, barID)
		if err != nil {
			return err
		}
		current := bar.Upgrades[category]
		if current >= economy.MaxUpgradeLevel {
			return errors.New(errors.ErrMaxLevelReached, category)
		}
		cost := buff.Discount(doc.Buffs.Active, economy.UpgradeCost(category, current))
		if err := charge(doc, cost, state.SourceUpgrade); err != nil {
			return err
		}

		if bar.Upgrades == nil {
			bar.Upgrades = map[string]int{}
		}
		level = current + 1
		bar.Upgrades[category] = level
		doc.Statistics.UpgradesBought++
		return nil
	})
	if err != nil {
		return 0, err
	}
	return level, nil
}

// TakeLoan 借款
func (a *Actions) TakeLoan(ctx context.Context, amount int64) (int64, error) {
	var debt int64
	_, err := a.update(ctx, "loan", func(doc *state.Document) error {
		if amount <= 0 {
			return errors.Newf(errors.ErrInvalidParam, "借款金额必须大于0: %d", amount)
		}
		if amount > a.loanLimit-doc.Finances.Debt {
			return errors.Newf(errors.ErrLoanLimitExceeded, "额度 %d，已借 %d", a.loanLimit, doc.Finances.Debt)
		}

		doc.Finances.Debt += amount
		doc.AddIncome(amount, state.SourceLoan)
		doc.Statistics.LoansTaken++
		debt = doc.Finances.Debt
		return nil
	})
	return debt, err
}

// Repay 还款，超出欠款的部分按欠款计算
func (a *Actions) Repay(ctx context.Context, amount int64) (int64, error) {
	var debt int64
	_, err := a.update(ctx, "repay", func(doc *state.Document) error {
		if amount <= 0 {
			return errors.Newf(errors.ErrInvalidParam, "还款金额必须大于0: %d", amount)
		}
		if doc.Finances.Debt == 0 {
			return errors.New(errors.ErrInvalidParam, "没有欠款")
		}
		pay := amount
		if pay > doc.Finances.Debt {
			pay = doc.Finances.Debt
		}
		if err := charge(doc, pay, state.SourceLoanRepayment); err != nil {
			return err
		}

		doc.Finances.Debt -= pay
		debt = doc.Finances.Debt
		return nil
	})
	return debt, err
}
