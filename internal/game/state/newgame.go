package state

// NewGameOptions 新游戏参数
type NewGameOptions struct {
	StartingFunds         int64
	InvestorClashInterval int
}

// DefaultNewGameOptions 默认新游戏参数
func DefaultNewGameOptions() NewGameOptions {
	return NewGameOptions{
		StartingFunds:         5000,
		InvestorClashInterval: 10,
	}
}

// 初始员工受保护，不可解雇
var startingRoster = []Employee{
	{ID: "emp-founder-cook", Name: "Mei", Role: "cook", Salary: 300, Level: 2, Morale: 80, Protected: true},
	{ID: "emp-founder-runner", Name: "Kenji", Role: "runner", Salary: 200, Level: 1, Morale: 75, Protected: true},
}

var startingCandidates = []Employee{
	{ID: "cand-01", Name: "Ana", Role: "cook", Salary: 280, Level: 1, Morale: 70},
	{ID: "cand-02", Name: "Bo", Role: "runner", Salary: 180, Level: 1, Morale: 65},
	{ID: "cand-03", Name: "Chidi", Role: "cashier", Salary: 220, Level: 1, Morale: 60},
	{ID: "cand-04", Name: "Dana", Role: "cook", Salary: 420, Level: 3, Morale: 70},
	{ID: "cand-05", Name: "Emre", Role: "runner", Salary: 240, Level: 2, Morale: 80},
	{ID: "cand-06", Name: "Fumiko", Role: "manager", Salary: 650, Level: 4, Morale: 75},
	{ID: "cand-07", Name: "Goran", Role: "cashier", Salary: 260, Level: 2, Morale: 55},
	{ID: "cand-08", Name: "Hana", Role: "cook", Salary: 900, Level: 5, Morale: 85},
}

var startingSlots = []Slot{
	{Index: 0, Name: "Station Alley", Price: 0, SalesVolume: 1800, Maintenance: 250, RequiredStaff: 2},
	{Index: 1, Name: "Riverside", Price: 6000, SalesVolume: 2600, Maintenance: 400, RequiredStaff: 2},
	{Index: 2, Name: "Old Market", Price: 12000, SalesVolume: 3800, Maintenance: 650, RequiredStaff: 3},
	{Index: 3, Name: "Campus Gate", Price: 25000, SalesVolume: 5600, Maintenance: 900, RequiredStaff: 3},
	{Index: 4, Name: "Central Plaza", Price: 50000, SalesVolume: 8500, Maintenance: 1500, RequiredStaff: 4},
}

// StartingBarID 初始店铺ID
const StartingBarID = "bar-0"

// NewDocument 创建新游戏文档：一间已开业的初始店铺，两名受保护员工已就位
func NewDocument(opts NewGameOptions) *Document {
	if opts.InvestorClashInterval <= 0 {
		opts.InvestorClashInterval = DefaultNewGameOptions().InvestorClashInterval
	}

	d := &Document{
		Version: SchemaVersion,
		GameProgress: GameProgress{
			CurrentPeriod:   1,
			InvestorClashIn: opts.InvestorClashInterval,
			BusinessRank:    MaxRank,
			RankHistory:     []RankEntry{},
		},
		Finances: Finances{
			Funds:           opts.StartingFunds,
			IncomeHistory:   []LedgerEntry{},
			ExpensesHistory: []LedgerEntry{},
		},
		PlayerStats: PlayerStats{
			BurnoutHistory: []BurnoutEntry{},
		},
		Employees: Employees{
			Roster:     cloneEmployees(startingRoster),
			Candidates: cloneEmployees(startingCandidates),
		},
		Restaurants: Restaurants{
			Slots: cloneSlice(startingSlots),
		},
		Social: Social{
			Relationships: []Relationship{},
			PersonalTime:  PersonalTime{History: []PersonalTimeEntry{}},
		},
		Buffs: Buffs{Active: []Buff{}},
	}

	first := &d.Restaurants.Slots[0]
	bar := OpenRestaurant(first, StartingBarID)
	for i := range d.Employees.Roster {
		e := &d.Employees.Roster[i]
		barID := bar.ID
		e.Assigned = &barID
		bar.Staff = append(bar.Staff, e.ID)
	}
	d.Restaurants.Bars = []Restaurant{bar}

	Normalize(d)
	return d
}

// OpenRestaurant 在店铺位上开一间新店，并标记店铺位已购买
func OpenRestaurant(slot *Slot, barID string) Restaurant {
	slot.Purchased = true
	slot.BarID = barID
	return Restaurant{
		ID:            barID,
		Name:          slot.Name,
		SlotIndex:     slot.Index,
		Staff:         []string{},
		RequiredStaff: slot.RequiredStaff,
		Maintenance:   slot.Maintenance,
		Upgrades:      map[string]int{},
		SalesVolume:   slot.SalesVolume,
	}
}
