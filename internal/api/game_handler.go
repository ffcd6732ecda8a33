package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wfunc/noodle-rush/internal/errors"
	"github.com/wfunc/noodle-rush/internal/game"
	"github.com/wfunc/noodle-rush/internal/game/state"
)

// GameHandler 游戏命令处理器，所有命令经由 GameService 串行执行
type GameHandler struct {
	service *game.GameService
	logger  *zap.Logger
}

// NewGameHandler 创建游戏命令处理器
func NewGameHandler(service *game.GameService, logger *zap.Logger) *GameHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GameHandler{service: service, logger: logger}
}

// GetState 当前游戏文档
func (h *GameHandler) GetState(c *gin.Context) {
	ok(c, h.service.State(c.Request.Context()))
}

// GetStatus 游戏概况
func (h *GameHandler) GetStatus(c *gin.Context) {
	ok(c, h.service.Status(c.Request.Context()))
}

// GetForecast 各店预测利润
func (h *GameHandler) GetForecast(c *gin.Context) {
	ok(c, h.service.Forecasts(c.Request.Context()))
}

// GetConfidants 知己目录
func (h *GameHandler) GetConfidants(c *gin.Context) {
	ok(c, h.service.Confidants())
}

// GetRanks 排名表
func (h *GameHandler) GetRanks(c *gin.Context) {
	ok(c, h.service.RankTable().Entries())
}

// StartPeriod 开始新周期
func (h *GameHandler) StartPeriod(c *gin.Context) {
	started, err := h.service.StartPeriod(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, started)
}

// RunDelivery 运行配送模拟
func (h *GameHandler) RunDelivery(c *gin.Context) {
	report, err := h.service.RunDelivery(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, report)
}

// ReturnToHub 提交配送结果并回到大厅
func (h *GameHandler) ReturnToHub(c *gin.Context) {
	outcome, err := h.service.ReturnToHub(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, outcome)
}

// SpendPersonalTime 度过个人时间
func (h *GameHandler) SpendPersonalTime(c *gin.Context) {
	var req game.PersonalTimeRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.service.SpendPersonalTime(c.Request.Context(), req.Location)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, res)
}

// Hire 雇佣候选人
func (h *GameHandler) Hire(c *gin.Context) {
	var req game.HireRequest
	if !bindJSON(c, &req) {
		return
	}
	e, err := h.service.Hire(c.Request.Context(), req.CandidateID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, e)
}

// Fire 解雇员工
func (h *GameHandler) Fire(c *gin.Context) {
	var req game.EmployeeRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.service.Fire(c.Request.Context(), req.EmployeeID); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

// Assign 分配员工到店铺
func (h *GameHandler) Assign(c *gin.Context) {
	var req game.AssignRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.service.Assign(c.Request.Context(), req.EmployeeID, req.RestaurantID); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

// Unassign 将员工移出店铺
func (h *GameHandler) Unassign(c *gin.Context) {
	var req game.EmployeeRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.service.Unassign(c.Request.Context(), req.EmployeeID); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

// Train 培训员工
func (h *GameHandler) Train(c *gin.Context) {
	var req game.EmployeeRequest
	if !bindJSON(c, &req) {
		return
	}
	e, err := h.service.Train(c.Request.Context(), req.EmployeeID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, e)
}

// Gift 给员工送礼
func (h *GameHandler) Gift(c *gin.Context) {
	var req game.EmployeeRequest
	if !bindJSON(c, &req) {
		return
	}
	e, err := h.service.Gift(c.Request.Context(), req.EmployeeID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, e)
}

// PurchaseSlot 购买店铺位
func (h *GameHandler) PurchaseSlot(c *gin.Context) {
	var req game.PurchaseRequest
	if !bindJSON(c, &req) {
		return
	}
	bar, err := h.service.PurchaseSlot(c.Request.Context(), *req.SlotIndex)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, bar)
}

// SellRestaurant 出售店铺
func (h *GameHandler) SellRestaurant(c *gin.Context) {
	var req game.RestaurantRequest
	if !bindJSON(c, &req) {
		return
	}
	refund, err := h.service.SellRestaurant(c.Request.Context(), req.RestaurantID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"refund": refund})
}

// Upgrade 升级店铺
func (h *GameHandler) Upgrade(c *gin.Context) {
	var req game.UpgradeRequest
	if !bindJSON(c, &req) {
		return
	}
	level, err := h.service.Upgrade(c.Request.Context(), req.RestaurantID, req.Category)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"category": req.Category, "level": level})
}

// TakeLoan 借款
func (h *GameHandler) TakeLoan(c *gin.Context) {
	var req game.AmountRequest
	if !bindJSON(c, &req) {
		return
	}
	debt, err := h.service.TakeLoan(c.Request.Context(), req.Amount)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"debt": debt})
}

// Repay 还款
func (h *GameHandler) Repay(c *gin.Context) {
	var req game.AmountRequest
	if !bindJSON(c, &req) {
		return
	}
	debt, err := h.service.Repay(c.Request.Context(), req.Amount)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"debt": debt})
}

// GetSettings 读取设置
func (h *GameHandler) GetSettings(c *gin.Context) {
	settings, err := h.service.Settings(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, settings)
}

// UpdateSettings 保存设置
func (h *GameHandler) UpdateSettings(c *gin.Context) {
	var req state.Settings
	if !bindJSON(c, &req) {
		return
	}
	if err := h.service.UpdateSettings(c.Request.Context(), req); err != nil {
		fail(c, err)
		return
	}
	ok(c, req)
}

// NewGame 开始新游戏
func (h *GameHandler) NewGame(c *gin.Context) {
	doc := h.service.NewGame(c.Request.Context())
	h.logger.Info("玩家开始新游戏")
	ok(c, doc)
}

// GetRunHistory 分页查询配送记录
func (h *GameHandler) GetRunHistory(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		fail(c, errors.New(errors.ErrInvalidParam, "page"))
		return
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if err != nil {
		fail(c, errors.New(errors.ErrInvalidParam, "page_size"))
		return
	}

	runs, err := h.service.RunHistory(c.Request.Context(), page, pageSize)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"runs": runs, "page": page, "page_size": pageSize})
}

// GetRunSummary 配送记录汇总
func (h *GameHandler) GetRunSummary(c *gin.Context) {
	summary, err := h.service.RunSummary(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, summary)
}
