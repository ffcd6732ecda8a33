package game

import (
	"github.com/wfunc/noodle-rush/internal/game/delivery"
	"github.com/wfunc/noodle-rush/internal/game/period"
	"github.com/wfunc/noodle-rush/internal/game/settlement"
	"github.com/wfunc/noodle-rush/internal/game/social"
	"github.com/wfunc/noodle-rush/internal/game/state"
)

// DeliveryReport 配送结果与结算预览，展示层据此播放动画并在返回大厅时提交
type DeliveryReport struct {
	Result  *delivery.Result   `json:"result"`
	Preview settlement.Outcome `json:"preview"`
}

// Presenter 展示层协作者
type Presenter interface {
	PeriodStarted(started period.Started)
	InvestorMeeting(started period.Started)
	DeliveryResultsReady(report *DeliveryReport)
	StateChanged(doc *state.Document)
}

// NopPresenter 不做任何事的展示层
type NopPresenter struct{}

// PeriodStarted 实现 Presenter
func (NopPresenter) PeriodStarted(period.Started) {}

// InvestorMeeting 实现 Presenter
func (NopPresenter) InvestorMeeting(period.Started) {}

// DeliveryResultsReady 实现 Presenter
func (NopPresenter) DeliveryResultsReady(*DeliveryReport) {}

// StateChanged 实现 Presenter
func (NopPresenter) StateChanged(*state.Document) {}

// StatusInfo 游戏概况
type StatusInfo struct {
	Phase           Phase           `json:"phase"`
	ValidEvents     []string        `json:"valid_events"`
	Period          int             `json:"period"`
	Funds           int64           `json:"funds"`
	TotalBalance    int64           `json:"total_balance"`
	Rank            int             `json:"rank"`
	RankTitle       string          `json:"rank_title"`
	NextThreshold   int64           `json:"next_threshold,omitempty"`
	Burnout         int             `json:"burnout"`
	InvestorClashIn int             `json:"investor_clash_in"`
	ForecastProfit  int64           `json:"forecast_profit"`
	SocialDone      bool            `json:"social_action_done_in_period"`
	GameOver        bool            `json:"game_over"`
	Pending         *DeliveryReport `json:"pending,omitempty"`
}

// PersonalTimeRequest 个人时间请求
type PersonalTimeRequest struct {
	Location social.Location `json:"location" binding:"required"`
}

// EmployeeRequest 员工操作请求
type EmployeeRequest struct {
	EmployeeID string `json:"employee_id" binding:"required"`
}

// HireRequest 雇佣请求
type HireRequest struct {
	CandidateID string `json:"candidate_id" binding:"required"`
}

// AssignRequest 分配请求
type AssignRequest struct {
	EmployeeID   string `json:"employee_id" binding:"required"`
	RestaurantID string `json:"restaurant_id" binding:"required"`
}

// PurchaseRequest 购买店铺位请求
type PurchaseRequest struct {
	SlotIndex *int `json:"slot_index" binding:"required"`
}

// RestaurantRequest 店铺操作请求
type RestaurantRequest struct {
	RestaurantID string `json:"restaurant_id" binding:"required"`
}

// UpgradeRequest 升级请求
type UpgradeRequest struct {
	RestaurantID string `json:"restaurant_id" binding:"required"`
	Category     string `json:"category" binding:"required,oneof=kitchen decor equipment"`
}

// AmountRequest 金额请求（借款、还款）
type AmountRequest struct {
	Amount int64 `json:"amount" binding:"required,min=1"`
}
