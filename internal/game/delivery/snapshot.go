package delivery

import (
	"github.com/wfunc/noodle-rush/internal/game/economy"
	"github.com/wfunc/noodle-rush/internal/game/state"
)

// RestaurantSnapshot 配送开始时的店铺快照
type RestaurantSnapshot struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	ForecastedProfit int64  `json:"forecasted_profit"`
	EffectiveSales   int64  `json:"effective_sales"`
	Maintenance      int64  `json:"maintenance"`
	StaffCost        int64  `json:"staff_cost"`
	MissingStaff     int    `json:"missing_staff"`
}

// Snapshot 一次配送的输入：店铺快照与生效增益
type Snapshot struct {
	Period      int                  `json:"period"`
	Restaurants []RestaurantSnapshot `json:"restaurants"`
	Buffs       []state.Buff         `json:"buffs"`
}

// SnapshotOf 从文档生成快照，预测利润由 economy 统一计算
func SnapshotOf(doc *state.Document) Snapshot {
	forecasts := economy.Forecasts(doc)
	restaurants := make([]RestaurantSnapshot, 0, len(forecasts))
	for _, f := range forecasts {
		restaurants = append(restaurants, RestaurantSnapshot{
			ID:               f.RestaurantID,
			Name:             f.Name,
			ForecastedProfit: f.Profit,
			EffectiveSales:   f.EffectiveSales,
			Maintenance:      f.Maintenance,
			StaffCost:        f.StaffCost,
			MissingStaff:     f.MissingStaff,
		})
	}

	buffs := make([]state.Buff, len(doc.Buffs.Active))
	copy(buffs, doc.Buffs.Active)

	return Snapshot{
		Period:      doc.GameProgress.CurrentPeriod,
		Restaurants: restaurants,
		Buffs:       buffs,
	}
}

// TotalForecast 快照中所有店铺预测利润合计
func (s Snapshot) TotalForecast() int64 {
	var total int64
	for _, r := range s.Restaurants {
		total += r.ForecastedProfit
	}
	return total
}
