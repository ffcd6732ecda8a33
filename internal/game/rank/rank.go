package rank

import (
	"sort"

	"github.com/wfunc/noodle-rush/internal/game/state"
)

// Entry 排名表条目
type Entry struct {
	Rank            int    `json:"rank"`
	BalanceRequired int64  `json:"balance_required"`
	Title           string `json:"title"`
}

// Table 排名表：累计余额到排名的静态映射。排名越小越好，门槛随排名严格递增。
type Table struct {
	entries []Entry // entries[i].Rank == i+1
}

// 称号分段，按排名上限升序
var titleTiers = []struct {
	upTo  int
	title string
}{
	{1, "Noodle Legend"},
	{10, "Noodle Tycoon"},
	{30, "City Icon"},
	{60, "District Chain"},
	{90, "Local Favorite"},
	{120, "Shop Owner"},
	{150, "Noodle Cook"},
	{180, "Stall Keeper"},
	{200, "Street Vendor"},
}

// BalanceStep 门槛系数：rank r 需要 BalanceStep × (200 − r)²
const BalanceStep int64 = 500

// NewTable 创建默认排名表
func NewTable() *Table {
	entries := make([]Entry, state.MaxRank)
	for i := range entries {
		r := i + 1
		gap := int64(state.MaxRank - r)
		entries[i] = Entry{
			Rank:            r,
			BalanceRequired: BalanceStep * gap * gap,
			Title:           titleFor(r),
		}
	}
	return &Table{entries: entries}
}

func titleFor(r int) string {
	for _, tier := range titleTiers {
		if r <= tier.upTo {
			return tier.title
		}
	}
	return titleTiers[len(titleTiers)-1].title
}

// Lookup 返回满足 BalanceRequired ≤ balance 的最小排名号
func (t *Table) Lookup(balance int64) int {
	// 门槛随排名号递减，找到第一个满足条件的位置
	i := sort.Search(len(t.entries), func(i int) bool {
		return t.entries[i].BalanceRequired <= balance
	})
	if i == len(t.entries) {
		return state.MaxRank
	}
	return t.entries[i].Rank
}

// Entry 返回指定排名的条目
func (t *Table) Entry(r int) (Entry, bool) {
	if r < state.MinRank || r > state.MaxRank {
		return Entry{}, false
	}
	return t.entries[r-1], true
}

// Title 返回排名对应的称号
func (t *Table) Title(r int) string {
	e, ok := t.Entry(state.ClampRank(r))
	if !ok {
		return ""
	}
	return e.Title
}

// NextThreshold 返回晋升到下一名所需的累计余额，已是第一名时返回 false
func (t *Table) NextThreshold(r int) (int64, bool) {
	r = state.ClampRank(r)
	if r == state.MinRank {
		return 0, false
	}
	return t.entries[r-2].BalanceRequired, true
}

// Entries 返回全部条目的副本
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// ClampDelta 将排名变化限制在 [−199,199]
func ClampDelta(delta int) int {
	limit := state.MaxRank - state.MinRank
	if delta > limit {
		return limit
	}
	if delta < -limit {
		return -limit
	}
	return delta
}
