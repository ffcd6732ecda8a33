package period

import (
	"context"

	"go.uber.org/zap"

	"github.com/wfunc/noodle-rush/internal/game/economy"
	"github.com/wfunc/noodle-rush/internal/game/state"
)

// DefaultClashInterval 投资人会面间隔
const DefaultClashInterval = 10

// Started 新周期开始的信号
type Started struct {
	Period          int   `json:"period"`
	InvestorClashIn int   `json:"investor_clash_in"`
	InvestorMeeting bool  `json:"investor_meeting"`
	BackupRequested bool  `json:"backup_requested"`
	InterestCharged int64 `json:"interest_charged"`
}

// Backupper 备份协作者
type Backupper interface {
	Backup(ctx context.Context) error
}

// Controller 周期控制器：推进周期、投资人倒计时、按间隔自动备份、收取贷款利息
type Controller struct {
	store         *state.Store
	backupper     Backupper
	settings      state.SettingsStore
	clashInterval int
	interestRate  float64
	logger        *zap.Logger
}

// Option 控制器选项
type Option func(*Controller)

// WithBackupper 设置备份协作者
func WithBackupper(b Backupper) Option {
	return func(c *Controller) {
		c.backupper = b
	}
}

// WithSettings 设置读取自动存档配置的协作者
func WithSettings(s state.SettingsStore) Option {
	return func(c *Controller) {
		c.settings = s
	}
}

// WithClashInterval 设置投资人会面间隔
func WithClashInterval(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.clashInterval = n
		}
	}
}

// WithInterestRate 设置贷款利率
func WithInterestRate(rate float64) Option {
	return func(c *Controller) {
		if rate >= 0 {
			c.interestRate = rate
		}
	}
}

// WithLogger 设置日志器
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewController 创建周期控制器
func NewController(store *state.Store, opts ...Option) *Controller {
	c := &Controller{
		store:         store,
		clashInterval: DefaultClashInterval,
		interestRate:  economy.DefaultLoanInterestRate,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClashInterval 投资人会面间隔
func (c *Controller) ClashInterval() int {
	return c.clashInterval
}

// Advance 推进到下一周期。
// 自动存档开启且当前周期是间隔的整数倍时，先备份再修改；备份失败只记录警告。
func (c *Controller) Advance(ctx context.Context) (Started, error) {
	current := c.store.Get(ctx).GameProgress.CurrentPeriod
	settings := c.loadSettings(ctx)

	var started Started
	if settings.AutosaveEnabled && settings.AutosaveInterval > 0 && current%settings.AutosaveInterval == 0 {
		started.BackupRequested = true
		c.backup(ctx, current)
	}

	_, err := c.store.Update(ctx, func(doc *state.Document) error {
		gp := &doc.GameProgress
		gp.CurrentPeriod++
		gp.InvestorClashIn--
		if gp.InvestorClashIn <= 0 {
			gp.InvestorClashIn = c.clashInterval
			started.InvestorMeeting = true
			doc.Statistics.InvestorMeetings++
		}

		doc.Social.SocialActionDoneInPeriod = false

		if interest := economy.LoanInterest(doc.Finances.Debt, c.interestRate); interest > 0 {
			doc.AddExpense(interest, state.SourceLoanInterest)
			started.InterestCharged = interest
		}

		started.Period = gp.CurrentPeriod
		started.InvestorClashIn = gp.InvestorClashIn
		return nil
	})
	if err != nil {
		return Started{}, err
	}

	c.logger.Info("新周期开始",
		zap.Int("period", started.Period),
		zap.Int("investor_clash_in", started.InvestorClashIn),
		zap.Bool("investor_meeting", started.InvestorMeeting),
		zap.Int64("interest", started.InterestCharged))
	return started, nil
}

func (c *Controller) loadSettings(ctx context.Context) state.Settings {
	if c.settings == nil {
		return state.DefaultSettings()
	}
	s, err := c.settings.LoadSettings(ctx)
	if err != nil {
		c.logger.Warn("读取设置失败，使用默认设置", zap.Error(err))
		return state.DefaultSettings()
	}
	return s
}

// backup 等待进行中的保存完成后备份当前存档
func (c *Controller) backup(ctx context.Context, period int) {
	if c.backupper == nil {
		return
	}
	c.store.Flush()
	if err := c.backupper.Backup(ctx); err != nil {
		c.logger.Warn("自动备份失败", zap.Int("period", period), zap.Error(err))
		return
	}
	c.logger.Debug("自动备份完成", zap.Int("period", period))
}
