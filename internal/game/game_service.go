package game

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/wfunc/noodle-rush/internal/errors"
	"github.com/wfunc/noodle-rush/internal/game/buff"
	"github.com/wfunc/noodle-rush/internal/game/business"
	"github.com/wfunc/noodle-rush/internal/game/delivery"
	"github.com/wfunc/noodle-rush/internal/game/economy"
	"github.com/wfunc/noodle-rush/internal/game/period"
	"github.com/wfunc/noodle-rush/internal/game/rank"
	"github.com/wfunc/noodle-rush/internal/game/rng"
	"github.com/wfunc/noodle-rush/internal/game/settlement"
	"github.com/wfunc/noodle-rush/internal/game/social"
	"github.com/wfunc/noodle-rush/internal/game/state"
	"github.com/wfunc/noodle-rush/internal/models"
	"github.com/wfunc/noodle-rush/internal/repository"
)

// GameService 游戏服务：串行处理展示层命令，协调周期、配送、结算与经营操作
type GameService struct {
	mu sync.Mutex

	store     *state.Store
	phase     *PhaseMachine
	periods   *period.Controller
	resolver  *social.Resolver
	simulator *delivery.Simulator
	committer *settlement.Committer
	actions   *business.Actions
	table     *rank.Table
	settings  state.SettingsStore
	recovery  *RecoveryManager
	runs      repository.DeliveryRunRepository
	presenter Presenter
	logger    *zap.Logger

	pending *DeliveryReport
	subID   state.SubscriptionID
}

// GameServiceConfig 游戏服务配置
type GameServiceConfig struct {
	Store         *state.Store
	Persistence   BackupLoader        // 可为 nil
	Settings      state.SettingsStore // 可为 nil，使用默认设置
	Random        rng.RandomGenerator // 可为 nil，按时间播种
	EventChance   float64
	ClashInterval int
	InterestRate  float64
	LoanLimit     int64

	Recorder  settlement.RunRecorder           // 可为 nil
	Runs      repository.DeliveryRunRepository // 可为 nil，历史查询不可用
	Presenter Presenter                        // 可为 nil
	Logger    *zap.Logger
}

// NewGameService 创建游戏服务
func NewGameService(config *GameServiceConfig) *GameService {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	presenter := config.Presenter
	if presenter == nil {
		presenter = NopPresenter{}
	}
	random := config.Random
	if random == nil {
		random = rng.NewSeededRandomGenerator(0)
	}
	eventChance := config.EventChance
	if eventChance <= 0 {
		eventChance = delivery.DefaultEventChance
	}

	table := rank.NewTable()
	registry := buff.DefaultRegistry()

	periodOpts := []period.Option{
		period.WithClashInterval(config.ClashInterval),
		period.WithLogger(logger.Named("period")),
	}
	if config.InterestRate > 0 {
		periodOpts = append(periodOpts, period.WithInterestRate(config.InterestRate))
	}
	if config.Persistence != nil {
		periodOpts = append(periodOpts, period.WithBackupper(config.Persistence))
	}
	if config.Settings != nil {
		periodOpts = append(periodOpts, period.WithSettings(config.Settings))
	}

	s := &GameService{
		store:   config.Store,
		phase:   NewPhaseMachine(logger.Named("phase")),
		periods: period.NewController(config.Store, periodOpts...),
		resolver: social.NewResolver(social.DefaultConfidants(), registry, random,
			logger.Named("social")),
		simulator: delivery.NewSimulator(random,
			delivery.WithEventChance(eventChance),
			delivery.WithLogger(logger.Named("delivery"))),
		committer: settlement.NewCommitter(config.Store, table, config.Recorder, logger.Named("settlement")),
		actions:   business.NewActions(config.Store, config.LoanLimit, logger.Named("business")),
		table:     table,
		settings:  config.Settings,
		runs:      config.Runs,
		presenter: presenter,
		logger:    logger,
	}
	if config.Persistence != nil {
		s.recovery = NewRecoveryManager(logger.Named("recovery"), config.Persistence, config.Store)
	}

	s.subID = config.Store.Subscribe(func(doc *state.Document) {
		s.presenter.StateChanged(doc)
	})
	return s
}

// Recover 启动时载入存档，没有存档协作者时延迟创建新游戏
func (s *GameService) Recover(ctx context.Context) RecoverySource {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.recovery == nil {
		s.store.Get(ctx)
		return RecoveredNewGame
	}
	return s.recovery.Recover(ctx)
}

// Close 等待存档写入完成并取消订阅
func (s *GameService) Close() {
	s.store.Unsubscribe(s.subID)
	s.store.Flush()
}

// State 当前文档（副本）
func (s *GameService) State(ctx context.Context) *state.Document {
	return s.store.Get(ctx)
}

// Phase 当前阶段
func (s *GameService) Phase() Phase {
	return s.phase.Phase()
}

// RankTable 排名表
func (s *GameService) RankTable() *rank.Table {
	return s.table
}

// Confidants 知己目录
func (s *GameService) Confidants() []social.Confidant {
	return s.resolver.Confidants()
}

// Forecasts 各店预测利润
func (s *GameService) Forecasts(ctx context.Context) []economy.Forecast {
	return economy.Forecasts(s.store.Get(ctx))
}

// Status 游戏概况
func (s *GameService) Status(ctx context.Context) StatusInfo {
	doc := s.store.Get(ctx)

	s.mu.Lock()
	pending := s.pending
	s.mu.Unlock()

	info := StatusInfo{
		Phase:           s.phase.Phase(),
		ValidEvents:     s.phase.ValidEvents(),
		Period:          doc.GameProgress.CurrentPeriod,
		Funds:           doc.Finances.Funds,
		TotalBalance:    doc.Finances.TotalBalance,
		Rank:            doc.GameProgress.BusinessRank,
		RankTitle:       s.table.Title(doc.GameProgress.BusinessRank),
		Burnout:         doc.PlayerStats.Burnout,
		InvestorClashIn: doc.GameProgress.InvestorClashIn,
		ForecastProfit:  economy.ForecastProfit(doc),
		SocialDone:      doc.Social.SocialActionDoneInPeriod,
		GameOver:        doc.IsGameOver(),
		Pending:         pending,
	}
	if next, ok := s.table.NextThreshold(doc.GameProgress.BusinessRank); ok {
		info.NextThreshold = next
	}
	return info
}

// deliveredThisPeriod 本周期是否已结算过配送（排名历史按周期追加）
func deliveredThisPeriod(doc *state.Document) bool {
	h := doc.GameProgress.RankHistory
	return len(h) > 0 && h[len(h)-1].Period == doc.GameProgress.CurrentPeriod
}

// requireHub 调用方持有 mu
func (s *GameService) requireHub(ctx context.Context) error {
	if err := s.phase.Require(PhaseHub); err != nil {
		return err
	}
	if s.store.Get(ctx).IsGameOver() {
		return errors.New(errors.ErrGameOver)
	}
	return nil
}

// StartPeriod 开始新周期
func (s *GameService) StartPeriod(ctx context.Context) (period.Started, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireHub(ctx); err != nil {
		return period.Started{}, err
	}

	started, err := s.periods.Advance(ctx)
	if err != nil {
		return period.Started{}, err
	}

	s.presenter.PeriodStarted(started)
	if started.InvestorMeeting {
		s.presenter.InvestorMeeting(started)
	}
	return started, nil
}

// RunDelivery 对当前文档生成快照并运行配送模拟，结果暂存等待返回大厅时提交
func (s *GameService) RunDelivery(ctx context.Context) (*DeliveryReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireHub(ctx); err != nil {
		return nil, err
	}
	doc := s.store.Get(ctx)
	if deliveredThisPeriod(doc) {
		return nil, errors.Newf(errors.ErrGameStateError, "第 %d 周期已完成配送", doc.GameProgress.CurrentPeriod)
	}
	if len(doc.Restaurants.Bars) == 0 {
		return nil, errors.New(errors.ErrRestaurantNotFound, "没有营业中的店铺")
	}

	if err := s.phase.Trigger(ctx, EventRunDelivery); err != nil {
		return nil, err
	}

	return s.runSnapshot(ctx, doc, delivery.SnapshotOf(doc))
}

// RunDeliveryWith 使用展示层提供的快照运行配送模拟
func (s *GameService) RunDeliveryWith(ctx context.Context, snapshot delivery.Snapshot) (*DeliveryReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireHub(ctx); err != nil {
		return nil, err
	}
	doc := s.store.Get(ctx)
	if snapshot.Period != doc.GameProgress.CurrentPeriod {
		return nil, errors.Newf(errors.ErrStaleResult, "快照周期 %d，当前周期 %d", snapshot.Period, doc.GameProgress.CurrentPeriod)
	}
	if deliveredThisPeriod(doc) {
		return nil, errors.Newf(errors.ErrGameStateError, "第 %d 周期已完成配送", doc.GameProgress.CurrentPeriod)
	}

	if err := s.phase.Trigger(ctx, EventRunDelivery); err != nil {
		return nil, err
	}
	return s.runSnapshot(ctx, doc, snapshot)
}

// runSnapshot 调用方持有 mu 且阶段为 delivering
func (s *GameService) runSnapshot(ctx context.Context, doc *state.Document, snapshot delivery.Snapshot) (*DeliveryReport, error) {
	result := s.simulator.Run(snapshot)
	report := &DeliveryReport{
		Result:  result,
		Preview: settlement.Compute(doc, result, s.table),
	}

	if err := s.phase.Trigger(ctx, EventResultsReady); err != nil {
		_ = s.phase.Trigger(ctx, EventAbort)
		return nil, err
	}
	s.pending = report

	s.logger.Info("配送结果就绪",
		zap.String("run_id", result.RunID),
		zap.Int("period", result.Period),
		zap.Int64("profit", result.TotalProfit),
		zap.Int("events", result.EventCount()))
	s.presenter.DeliveryResultsReady(report)
	return report, nil
}

// ReturnToHub 提交暂存的配送结果并回到大厅，每个结果只提交一次
func (s *GameService) ReturnToHub(ctx context.Context) (settlement.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.phase.Require(PhaseResults); err != nil {
		return settlement.Outcome{}, err
	}
	if s.pending == nil {
		return settlement.Outcome{}, errors.New(errors.ErrNoPendingResult)
	}

	outcome, err := s.committer.Commit(ctx, s.pending.Result)
	if err != nil {
		return settlement.Outcome{}, err
	}
	s.pending = nil

	if err := s.phase.Trigger(ctx, EventReturnToHub); err != nil {
		return outcome, err
	}
	if outcome.GameOver {
		s.logger.Warn("倦怠值达到上限，游戏结束", zap.Int("period", outcome.Period))
	}
	return outcome, nil
}

// SpendPersonalTime 度过个人时间
func (s *GameService) SpendPersonalTime(ctx context.Context, location social.Location) (social.PersonalTimeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireHub(ctx); err != nil {
		return social.PersonalTimeResult{}, err
	}
	return s.resolver.SpendPersonalTime(ctx, s.store, location)
}

// PlanPersonalTime 记录计划地点
func (s *GameService) PlanPersonalTime(ctx context.Context, location social.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return social.PlanPersonalTime(ctx, s.store, location)
}

// inHub 在大厅阶段执行经营操作
func (s *GameService) inHub(ctx context.Context, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.phase.Require(PhaseHub); err != nil {
		return err
	}
	return fn()
}

// Hire 雇佣
func (s *GameService) Hire(ctx context.Context, candidateID string) (state.Employee, error) {
	var e state.Employee
	err := s.inHub(ctx, func() (err error) {
		e, err = s.actions.Hire(ctx, candidateID)
		return err
	})
	return e, err
}

// Fire 解雇
func (s *GameService) Fire(ctx context.Context, employeeID string) error {
	return s.inHub(ctx, func() error {
		return s.actions.Fire(ctx, employeeID)
	})
}

// Assign 分配员工
func (s *GameService) Assign(ctx context.Context, employeeID, barID string) error {
	return s.inHub(ctx, func() error {
		return s.actions.Assign(ctx, employeeID, barID)
	})
}

// Unassign 移出员工
func (s *GameService) Unassign(ctx context.Context, employeeID string) error {
	return s.inHub(ctx, func() error {
		return s.actions.Unassign(ctx, employeeID)
	})
}

// Train 培训
func (s *GameService) Train(ctx context.Context, employeeID string) (state.Employee, error) {
	var e state.Employee
	err := s.inHub(ctx, func() (err error) {
		e, err = s.actions.Train(ctx, employeeID)
		return err
	})
	return e, err
}

// Gift 送礼
func (s *GameService) Gift(ctx context.Context, employeeID string) (state.Employee, error) {
	var e state.Employee
	err := s.inHub(ctx, func() (err error) {
		e, err = s.actions.Gift(ctx, employeeID)
		return err
	})
	return e, err
}

// PurchaseSlot 购买店铺位
func (s *GameService) PurchaseSlot(ctx context.Context, index int) (state.Restaurant, error) {
	var bar state.Restaurant
	err := s.inHub(ctx, func() (err error) {
		bar, err = s.actions.PurchaseSlot(ctx, index)
		return err
	})
	return bar, err
}

// SellRestaurant 出售店铺
func (s *GameService) SellRestaurant(ctx context.Context, barID string) (int64, error) {
	var refund int64
	err := s.inHub(ctx, func() (err error) {
		refund, err = s.actions.SellRestaurant(ctx, barID)
		return err
	})
	return refund, err
}

// Upgrade 升级店铺
func (s *GameService) Upgrade(ctx context.Context, barID, category string) (int, error) {
	var level int
	err := s.inHub(ctx, func() (err error) {
		level, err = s.actions.Upgrade(ctx, barID, category)
		return err
	})
	return level, err
}

// TakeLoan 借款
func (s *GameService) TakeLoan(ctx context.Context, amount int64) (int64, error) {
	var debt int64
	err := s.inHub(ctx, func() (err error) {
		debt, err = s.actions.TakeLoan(ctx, amount)
		return err
	})
	return debt, err
}

// Repay 还款
func (s *GameService) Repay(ctx context.Context, amount int64) (int64, error) {
	var debt int64
	err := s.inHub(ctx, func() (err error) {
		debt, err = s.actions.Repay(ctx, amount)
		return err
	})
	return debt, err
}

// NewGame 开始新游戏，丢弃未提交的配送结果
func (s *GameService) NewGame(ctx context.Context) *state.Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = nil
	s.phase.Reset()
	return s.store.Reset(ctx)
}

// Settings 读取设置
func (s *GameService) Settings(ctx context.Context) (state.Settings, error) {
	if s.settings == nil {
		return state.DefaultSettings(), nil
	}
	return s.settings.LoadSettings(ctx)
}

// UpdateSettings 保存设置
func (s *GameService) UpdateSettings(ctx context.Context, settings state.Settings) error {
	if err := ValidateSettings(settings); err != nil {
		return err
	}
	if s.settings == nil {
		return errors.New(errors.ErrNotImplemented, "未配置设置存储")
	}
	return s.settings.SaveSettings(ctx, settings)
}

// ValidateSettings 校验设置
func ValidateSettings(settings state.Settings) error {
	for name, v := range map[string]float64{
		"master_volume": settings.MasterVolume,
		"music_volume":  settings.MusicVolume,
		"sfx_volume":    settings.SfxVolume,
	} {
		if v < 0 || v > 1 {
			return errors.Newf(errors.ErrInvalidParam, "%s 必须在[0,1]之间: %v", name, v)
		}
	}
	if settings.AutosaveInterval < 1 {
		return errors.Newf(errors.ErrInvalidParam, "autosave_interval 必须大于0: %d", settings.AutosaveInterval)
	}
	return nil
}

// RunHistory 分页查询已结算的配送记录
func (s *GameService) RunHistory(ctx context.Context, page, pageSize int) ([]*models.DeliveryRun, error) {
	if s.runs == nil {
		return nil, errors.New(errors.ErrNotImplemented, "未配置配送记录存储")
	}
	runs, err := s.runs.List(ctx, repository.NewPagination(page, pageSize))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}
	return runs, nil
}

// RunSummary 配送记录汇总
func (s *GameService) RunSummary(ctx context.Context) (*repository.RunSummary, error) {
	if s.runs == nil {
		return nil, errors.New(errors.ErrNotImplemented, "未配置配送记录存储")
	}
	summary, err := s.runs.GetSummary(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}
	return summary, nil
}
