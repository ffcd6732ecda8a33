// Package economy 集中存放店铺预测利润相关的纯函数，模拟器、结算和展示层共用同一套算法。
package economy

import (
	"math"

	"github.com/wfunc/noodle-rush/internal/game/buff"
	"github.com/wfunc/noodle-rush/internal/game/state"
)

// 升级类别
const (
	UpgradeKitchen   = "kitchen"
	UpgradeDecor     = "decor"
	UpgradeEquipment = "equipment"
)

// MaxUpgradeLevel 升级最高等级
const MaxUpgradeLevel = 5

// 升级效果与基础价格
var upgradeBaseCost = map[string]int64{
	UpgradeKitchen:   800,
	UpgradeDecor:     500,
	UpgradeEquipment: 600,
}

const (
	kitchenSalesBonus       = 0.10 // 每级销量加成
	decorSalesBonus         = 0.05
	equipmentMaintenanceCut = 0.05 // 每级维护费减免
	maintenanceFloor        = 0.50

	// StaffMalus 每缺一名有效员工，销量乘以 (1 − StaffMalus)
	StaffMalus = 0.25
	// LowMoraleThreshold 士气低于该值的员工不计入有效人手
	LowMoraleThreshold = 20
)

// 员工
const (
	MaxEmployeeLevel       = 5
	GiftCost         int64 = 150
	GiftMorale             = 15
	// SalaryRaisePercent 培训后加薪比例
	SalaryRaisePercent = 10
	// ExtraStaffCapacity 店铺可容纳的超出所需人手的员工数
	ExtraStaffCapacity = 2
)

// 贷款
const (
	DefaultLoanLimit        int64   = 20000
	DefaultLoanInterestRate float64 = 0.02
)

// IsUpgradeCategory 是否为合法的升级类别
func IsUpgradeCategory(category string) bool {
	_, ok := upgradeBaseCost[category]
	return ok
}

// UpgradeCost 从当前等级升一级的价格（未打折）
func UpgradeCost(category string, currentLevel int) int64 {
	return upgradeBaseCost[category] * int64(currentLevel+1)
}

// TrainingCost 培训价格（未打折）
func TrainingCost(level int) int64 {
	return 400 * int64(level)
}

// MaxStaff 店铺最多容纳的员工数
func MaxStaff(bar *state.Restaurant) int {
	return bar.RequiredStaff + ExtraStaffCapacity
}

// RaisedSalary 培训后的薪资
func RaisedSalary(salary int64) int64 {
	return salary + salary*SalaryRaisePercent/100
}

// EffectiveStaff 有效人手：在编且士气不低于阈值的员工数
func EffectiveStaff(doc *state.Document, bar *state.Restaurant) int {
	n := 0
	for _, id := range bar.Staff {
		e, _ := doc.FindEmployee(id)
		if e != nil && e.Morale >= LowMoraleThreshold {
			n++
		}
	}
	return n
}

// MissingStaff 距离所需人手还差几人
func MissingStaff(doc *state.Document, bar *state.Restaurant) int {
	missing := bar.RequiredStaff - EffectiveStaff(doc, bar)
	if missing < 0 {
		return 0
	}
	return missing
}

// Malus 人手不足时的销量乘数
func Malus(missing int) float64 {
	if missing <= 0 {
		return 1
	}
	return math.Pow(1-StaffMalus, float64(missing))
}

// EffectiveSales 有效销量：升级加成 × 人手不足乘数 × 人气增益
func EffectiveSales(doc *state.Document, bar *state.Restaurant, buffs []state.Buff) int64 {
	bonus := 1 +
		kitchenSalesBonus*float64(bar.Upgrades[UpgradeKitchen]) +
		decorSalesBonus*float64(bar.Upgrades[UpgradeDecor])
	crowd := 1 + buff.Value(buffs, buff.CrowdPull)/100

	sales := float64(bar.SalesVolume) * bonus * Malus(MissingStaff(doc, bar)) * crowd
	return int64(math.Round(sales))
}

// EffectiveMaintenance 设备升级后的维护费，最低为原值的一半
func EffectiveMaintenance(bar *state.Restaurant) int64 {
	factor := 1 - equipmentMaintenanceCut*float64(bar.Upgrades[UpgradeEquipment])
	if factor < maintenanceFloor {
		factor = maintenanceFloor
	}
	return int64(math.Round(float64(bar.Maintenance) * factor))
}

// StaffCost 店铺在编员工薪资合计
func StaffCost(doc *state.Document, bar *state.Restaurant) int64 {
	var cost int64
	for _, id := range bar.Staff {
		if e, _ := doc.FindEmployee(id); e != nil {
			cost += e.Salary
		}
	}
	return cost
}

// Forecast 单店预测明细
type Forecast struct {
	RestaurantID   string  `json:"restaurant_id"`
	Name           string  `json:"name"`
	BaseSales      int64   `json:"base_sales"`
	EffectiveSales int64   `json:"effective_sales"`
	Maintenance    int64   `json:"maintenance"`
	StaffCost      int64   `json:"staff_cost"`
	MissingStaff   int     `json:"missing_staff"`
	Malus          float64 `json:"malus"`
	Profit         int64   `json:"forecasted_profit"`
}

// ForecastFor 计算单店预测利润：有效销量 − 维护费 − 人员成本
func ForecastFor(doc *state.Document, bar *state.Restaurant) Forecast {
	missing := MissingStaff(doc, bar)
	f := Forecast{
		RestaurantID:   bar.ID,
		Name:           bar.Name,
		BaseSales:      bar.SalesVolume,
		EffectiveSales: EffectiveSales(doc, bar, doc.Buffs.Active),
		Maintenance:    EffectiveMaintenance(bar),
		StaffCost:      StaffCost(doc, bar),
		MissingStaff:   missing,
		Malus:          Malus(missing),
	}
	f.Profit = f.EffectiveSales - f.Maintenance - f.StaffCost
	return f
}

// Forecasts 所有店铺的预测
func Forecasts(doc *state.Document) []Forecast {
	out := make([]Forecast, 0, len(doc.Restaurants.Bars))
	for i := range doc.Restaurants.Bars {
		out = append(out, ForecastFor(doc, &doc.Restaurants.Bars[i]))
	}
	return out
}

// ForecastProfit 所有店铺预测利润合计
func ForecastProfit(doc *state.Document) int64 {
	var total int64
	for _, f := range Forecasts(doc) {
		total += f.Profit
	}
	return total
}

// LoanInterest 按利率计算本期利息，四舍五入，欠款为0时为0
func LoanInterest(debt int64, rate float64) int64 {
	if debt <= 0 || rate <= 0 {
		return 0
	}
	return int64(math.Round(float64(debt) * rate))
}

// SaleRefund 出售店铺返还店铺位价格的一半
func SaleRefund(slotPrice int64) int64 {
	return slotPrice / 2
}
