package state

import "fmt"

// Normalize 修复文档中的不变量，返回修复说明（无修复时为空）。
// 员工与店铺的分配关系以双方一致为准，不一致的一侧视为未分配。
func Normalize(d *Document) []string {
	var repairs []string

	if d.Version == 0 {
		d.Version = SchemaVersion
	}
	if d.GameProgress.CurrentPeriod < 1 {
		d.GameProgress.CurrentPeriod = 1
	}
	d.GameProgress.BusinessRank = ClampRank(d.GameProgress.BusinessRank)
	d.PlayerStats.Burnout = ClampBurnout(d.PlayerStats.Burnout)
	if d.Finances.Debt < 0 {
		d.Finances.Debt = 0
	}

	for i := range d.Employees.Roster {
		normalizeEmployee(&d.Employees.Roster[i])
	}
	for i := range d.Employees.Candidates {
		normalizeEmployee(&d.Employees.Candidates[i])
		d.Employees.Candidates[i].Assigned = nil
	}

	d.Buffs.Active = dedupeBuffs(d.Buffs.Active)
	d.Social.Relationships = dedupeRelationships(d.Social.Relationships)

	repairs = append(repairs, repairAssignments(d)...)
	return repairs
}

// ClampRank 将排名限制在 [1,200]
func ClampRank(rank int) int {
	return clamp(rank, MinRank, MaxRank)
}

// ClampBurnout 将倦怠值限制在 [0,100]
func ClampBurnout(burnout int) int {
	return clamp(burnout, MinBurnout, MaxBurnout)
}

// ClampMorale 将士气限制在 [0,100]
func ClampMorale(morale int) int {
	return clamp(morale, MinMorale, MaxMorale)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func normalizeEmployee(e *Employee) {
	if e.Level < 1 {
		e.Level = 1
	}
	if e.Salary < 0 {
		e.Salary = 0
	}
	e.Morale = ClampMorale(e.Morale)
	if e.Assigned != nil && *e.Assigned == "" {
		e.Assigned = nil
	}
}

// dedupeBuffs 同类型只保留最后一个（后授予的覆盖先授予的），保持首次出现的位置
func dedupeBuffs(buffs []Buff) []Buff {
	if len(buffs) < 2 {
		return buffs
	}
	last := make(map[BuffType]Buff, len(buffs))
	for _, b := range buffs {
		last[b.Type] = b
	}
	if len(last) == len(buffs) {
		return buffs
	}

	out := make([]Buff, 0, len(last))
	seen := make(map[BuffType]bool, len(last))
	for _, b := range buffs {
		if seen[b.Type] {
			continue
		}
		seen[b.Type] = true
		out = append(out, last[b.Type])
	}
	return out
}

// dedupeRelationships 同一知己只保留等级最高的记录
func dedupeRelationships(rels []Relationship) []Relationship {
	if len(rels) < 2 {
		return rels
	}
	index := make(map[string]int, len(rels))
	out := make([]Relationship, 0, len(rels))
	for _, r := range rels {
		if i, ok := index[r.ConfidantID]; ok {
			if r.Level > out[i].Level {
				out[i].Level = r.Level
			}
			continue
		}
		index[r.ConfidantID] = len(out)
		out = append(out, r)
	}
	return out
}

// repairAssignments 修复员工与店铺的双向引用并重算人员成本
func repairAssignments(d *Document) []string {
	var repairs []string

	employees := make(map[string]*Employee, len(d.Employees.Roster))
	for i := range d.Employees.Roster {
		employees[d.Employees.Roster[i].ID] = &d.Employees.Roster[i]
	}
	bars := make(map[string]*Restaurant, len(d.Restaurants.Bars))
	for i := range d.Restaurants.Bars {
		bars[d.Restaurants.Bars[i].ID] = &d.Restaurants.Bars[i]
	}

	// 店铺侧：只保留存在且指回本店的员工
	for _, bar := range bars {
		staff := make([]string, 0, len(bar.Staff))
		seen := make(map[string]bool, len(bar.Staff))
		for _, id := range bar.Staff {
			e, ok := employees[id]
			if !ok || seen[id] || !e.IsAssigned() || *e.Assigned != bar.ID {
				repairs = append(repairs, fmt.Sprintf("店铺 %s 移除员工 %s", bar.ID, id))
				continue
			}
			seen[id] = true
			staff = append(staff, id)
		}
		bar.Staff = staff
	}

	// 员工侧：店铺不存在或店铺未登记该员工时视为未分配
	for _, e := range employees {
		if !e.IsAssigned() {
			continue
		}
		bar, ok := bars[*e.Assigned]
		if !ok || !bar.HasStaff(e.ID) {
			repairs = append(repairs, fmt.Sprintf("员工 %s 解除分配 %s", e.ID, *e.Assigned))
			e.Assigned = nil
		}
	}

	for _, bar := range bars {
		var cost int64
		for _, id := range bar.Staff {
			cost += employees[id].Salary
		}
		bar.StaffCost = cost
	}

	return repairs
}
