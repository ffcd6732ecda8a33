package state

// Clone 深拷贝文档
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}

	c := *d
	c.GameProgress.RankHistory = cloneSlice(d.GameProgress.RankHistory)
	c.Finances.IncomeHistory = cloneSlice(d.Finances.IncomeHistory)
	c.Finances.ExpensesHistory = cloneSlice(d.Finances.ExpensesHistory)
	c.PlayerStats.BurnoutHistory = cloneSlice(d.PlayerStats.BurnoutHistory)
	c.Employees.Roster = cloneEmployees(d.Employees.Roster)
	c.Employees.Candidates = cloneEmployees(d.Employees.Candidates)
	c.Restaurants.Slots = cloneSlice(d.Restaurants.Slots)
	c.Social.Relationships = cloneSlice(d.Social.Relationships)
	c.Social.PersonalTime.History = cloneSlice(d.Social.PersonalTime.History)
	c.Buffs.Active = cloneSlice(d.Buffs.Active)

	if d.Restaurants.Bars != nil {
		c.Restaurants.Bars = make([]Restaurant, len(d.Restaurants.Bars))
		for i, bar := range d.Restaurants.Bars {
			c.Restaurants.Bars[i] = bar.clone()
		}
	}
	return &c
}

func (r Restaurant) clone() Restaurant {
	r.Staff = cloneSlice(r.Staff)
	if r.Upgrades != nil {
		upgrades := make(map[string]int, len(r.Upgrades))
		for k, v := range r.Upgrades {
			upgrades[k] = v
		}
		r.Upgrades = upgrades
	}
	return r
}

func cloneEmployees(in []Employee) []Employee {
	if in == nil {
		return nil
	}
	out := make([]Employee, len(in))
	for i, e := range in {
		if e.Assigned != nil {
			assigned := *e.Assigned
			e.Assigned = &assigned
		}
		out[i] = e
	}
	return out
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
