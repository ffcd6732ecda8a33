package state

// SchemaVersion 存档文档版本
const SchemaVersion = 1

// 数值边界
const (
	MinRank    = 1
	MaxRank    = 200
	MinBurnout = 0
	MaxBurnout = 100
	MinMorale  = 0
	MaxMorale  = 100
)

// Document 游戏状态文档，唯一持久化的聚合根
type Document struct {
	Version      int          `json:"version"`
	GameProgress GameProgress `json:"game_progress"`
	Finances     Finances     `json:"finances"`
	PlayerStats  PlayerStats  `json:"player_stats"`
	Employees    Employees    `json:"employees"`
	Restaurants  Restaurants  `json:"restaurants"`
	Social       Social       `json:"social"`
	Buffs        Buffs        `json:"buffs"`
	Statistics   Statistics   `json:"statistics"`
}

// GameProgress 游戏进度
type GameProgress struct {
	CurrentPeriod   int         `json:"current_period"`
	InvestorClashIn int         `json:"investor_clash_in"`
	BusinessRank    int         `json:"business_rank"`
	RankHistory     []RankEntry `json:"rank_history"`
}

// RankEntry 排名历史
type RankEntry struct {
	Period int `json:"period"`
	Rank   int `json:"rank"`
}

// Finances 财务
type Finances struct {
	Funds           int64         `json:"funds"`
	TotalBalance    int64         `json:"total_balance"`
	Debt            int64         `json:"debt"`
	IncomeHistory   []LedgerEntry `json:"income_history"`
	ExpensesHistory []LedgerEntry `json:"expenses_history"`
}

// LedgerEntry 收支流水
type LedgerEntry struct {
	Amount int64  `json:"amount"`
	Source string `json:"source"`
	Period int    `json:"period"`
}

// 流水来源
const (
	SourceDeliveryRun   = "delivery_run"
	SourceHire          = "hire"
	SourceSeverance     = "severance"
	SourceTraining      = "training"
	SourceGift          = "gift"
	SourcePurchase      = "restaurant_purchase"
	SourceSale          = "restaurant_sale"
	SourceUpgrade       = "upgrade"
	SourceLoan          = "loan"
	SourceLoanRepayment = "loan_repayment"
	SourceLoanInterest  = "loan_interest"
)

// PlayerStats 玩家状态
type PlayerStats struct {
	Burnout        int            `json:"burnout"`
	BurnoutHistory []BurnoutEntry `json:"burnout_history"`
}

// BurnoutEntry 倦怠值历史
type BurnoutEntry struct {
	Period  int `json:"period"`
	Burnout int `json:"burnout"`
}

// Employees 员工
type Employees struct {
	Roster     []Employee `json:"roster"`
	Candidates []Employee `json:"candidates"`
}

// Employee 员工记录
type Employee struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Role      string  `json:"role"`
	Salary    int64   `json:"salary"`
	Level     int     `json:"level"`
	Morale    int     `json:"morale"`
	Assigned  *string `json:"assigned"`
	Protected bool    `json:"protected"`
}

// IsAssigned 是否已分配到店铺
func (e *Employee) IsAssigned() bool {
	return e.Assigned != nil && *e.Assigned != ""
}

// Restaurants 店铺
type Restaurants struct {
	Bars  []Restaurant `json:"bars"`
	Slots []Slot       `json:"slots"`
}

// Restaurant 店铺记录
type Restaurant struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	SlotIndex     int            `json:"slot_index"`
	Staff         []string       `json:"staff"`
	RequiredStaff int            `json:"required_staff"`
	StaffCost     int64          `json:"staff_cost"`
	Maintenance   int64          `json:"maintenance"`
	Upgrades      map[string]int `json:"upgrades"`
	SalesVolume   int64          `json:"sales_volume"`
}

// HasStaff 员工是否在该店铺
func (r *Restaurant) HasStaff(employeeID string) bool {
	for _, id := range r.Staff {
		if id == employeeID {
			return true
		}
	}
	return false
}

// Slot 店铺位
type Slot struct {
	Index         int    `json:"index"`
	Name          string `json:"name"`
	Price         int64  `json:"price"`
	Purchased     bool   `json:"purchased"`
	BarID         string `json:"bar_id"`
	SalesVolume   int64  `json:"sales_volume"`
	Maintenance   int64  `json:"maintenance"`
	RequiredStaff int    `json:"required_staff"`
}

// Social 社交
type Social struct {
	Relationships            []Relationship `json:"relationships"`
	PersonalTime             PersonalTime   `json:"personal_time"`
	SocialActionDoneInPeriod bool           `json:"social_action_done_in_period"`
}

// Relationship 与知己的关系
type Relationship struct {
	ConfidantID string `json:"confidant_id"`
	Level       int    `json:"level"`
}

// PersonalTime 个人时间
type PersonalTime struct {
	Planned string              `json:"planned"`
	History []PersonalTimeEntry `json:"history"`
}

// PersonalTimeEntry 个人时间记录
type PersonalTimeEntry struct {
	Period      int    `json:"period"`
	Location    string `json:"location"`
	Outcome     string `json:"outcome"`
	ConfidantID string `json:"confidant_id,omitempty"`
}

// BuffType 增益类型
type BuffType string

// Buffs 增益
type Buffs struct {
	Active []Buff `json:"active"`
}

// Buff 生效中的增益
type Buff struct {
	Type    BuffType `json:"type"`
	Level   int      `json:"level"`
	Value   float64  `json:"value"`
	Special string   `json:"special,omitempty"`
	Source  string   `json:"source"`
}

// Statistics 只增不减的统计计数
type Statistics struct {
	EmployeesHired       int `json:"employees_hired"`
	EmployeesFired       int `json:"employees_fired"`
	RestaurantsPurchased int `json:"restaurants_purchased"`
	RestaurantsSold      int `json:"restaurants_sold"`
	UpgradesBought       int `json:"upgrades_bought"`
	TrainingsCompleted   int `json:"trainings_completed"`
	GiftsGiven           int `json:"gifts_given"`
	LoansTaken           int `json:"loans_taken"`
	DeliveryRuns         int `json:"delivery_runs"`
	PositiveEvents       int `json:"positive_events"`
	NegativeEvents       int `json:"negative_events"`
	ConfidantEncounters  int `json:"confidant_encounters"`
	InvestorMeetings     int `json:"investor_meetings"`
}

// FindEmployee 按ID查找员工，返回下标
func (d *Document) FindEmployee(id string) (*Employee, int) {
	for i := range d.Employees.Roster {
		if d.Employees.Roster[i].ID == id {
			return &d.Employees.Roster[i], i
		}
	}
	return nil, -1
}

// FindCandidate 按ID查找候选人，返回下标
func (d *Document) FindCandidate(id string) (*Employee, int) {
	for i := range d.Employees.Candidates {
		if d.Employees.Candidates[i].ID == id {
			return &d.Employees.Candidates[i], i
		}
	}
	return nil, -1
}

// FindRestaurant 按ID查找店铺，返回下标
func (d *Document) FindRestaurant(id string) (*Restaurant, int) {
	for i := range d.Restaurants.Bars {
		if d.Restaurants.Bars[i].ID == id {
			return &d.Restaurants.Bars[i], i
		}
	}
	return nil, -1
}

// FindSlot 按序号查找店铺位
func (d *Document) FindSlot(index int) *Slot {
	for i := range d.Restaurants.Slots {
		if d.Restaurants.Slots[i].Index == index {
			return &d.Restaurants.Slots[i]
		}
	}
	return nil
}

// Relationship 查找与知己的关系
func (d *Document) Relationship(confidantID string) (*Relationship, bool) {
	for i := range d.Social.Relationships {
		if d.Social.Relationships[i].ConfidantID == confidantID {
			return &d.Social.Relationships[i], true
		}
	}
	return nil, false
}

// AddIncome 记一笔收入
func (d *Document) AddIncome(amount int64, source string) {
	d.Finances.Funds += amount
	d.Finances.IncomeHistory = append(d.Finances.IncomeHistory, LedgerEntry{
		Amount: amount,
		Source: source,
		Period: d.GameProgress.CurrentPeriod,
	})
}

// AddExpense 记一笔支出，amount 为正数
func (d *Document) AddExpense(amount int64, source string) {
	d.Finances.Funds -= amount
	d.Finances.ExpensesHistory = append(d.Finances.ExpensesHistory, LedgerEntry{
		Amount: amount,
		Source: source,
		Period: d.GameProgress.CurrentPeriod,
	})
}

// IsGameOver 倦怠值达到上限即游戏结束
func (d *Document) IsGameOver() bool {
	return d.PlayerStats.Burnout >= MaxBurnout
}
