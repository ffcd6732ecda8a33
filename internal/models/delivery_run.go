package models

import (
	"time"
)

// DeliveryRun 已结算的配送记录
type DeliveryRun struct {
	BaseModel
	RunID           string    `gorm:"uniqueIndex;size:64;not null" json:"run_id"`
	Period          int       `gorm:"index;not null" json:"period"`
	RestaurantCount int       `gorm:"default:0" json:"restaurant_count"`
	EventCount      int       `gorm:"default:0" json:"event_count"`
	ForecastProfit  int64     `json:"forecast_profit"`
	TotalProfit     int64     `json:"total_profit"`
	RankBefore      int       `json:"rank_before"`
	RankAfter       int       `json:"rank_after"`
	BurnoutDelta    int       `json:"burnout_delta"`
	TotalBalance    int64     `json:"total_balance"`
	Details         JSONMap   `gorm:"type:text" json:"details"`
	SettledAt       time.Time `json:"settled_at"`
}

// TableName 指定表名
func (DeliveryRun) TableName() string {
	return "delivery_runs"
}
