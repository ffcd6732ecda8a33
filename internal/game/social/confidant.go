package social

// Location 个人时间地点
type Location string

// 地点
const (
	Home    Location = "Home"
	Market  Location = "Market"
	Park    Location = "Park"
	Bar     Location = "Bar"
	Gym     Location = "Gym"
	Library Location = "Library"
)

// Locations 所有地点
var Locations = []Location{Home, Market, Park, Bar, Gym, Library}

// IsValid 是否为已知地点
func (l Location) IsValid() bool {
	for _, x := range Locations {
		if x == l {
			return true
		}
	}
	return false
}

// Confidant 知己。从 FirstAppearance 周期起每隔 Frequency 个周期出现一次。
type Confidant struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Location        Location `json:"location"`
	FirstAppearance int      `json:"first_appearance"`
	Frequency       int      `json:"frequency"`
	MaxLevel        int      `json:"max_level"`
}

// AvailableAt 该周期是否出现
func (c Confidant) AvailableAt(period int) bool {
	if period < c.FirstAppearance {
		return false
	}
	freq := c.Frequency
	if freq <= 0 {
		freq = 1
	}
	return (period-c.FirstAppearance)%freq == 0
}

// DefaultConfidants 默认知己目录
func DefaultConfidants() []Confidant {
	return []Confidant{
		{ID: "chef_li", Name: "Chef Li", Location: Market, FirstAppearance: 1, Frequency: 2, MaxLevel: 5},
		{ID: "merchant_wu", Name: "Merchant Wu", Location: Market, FirstAppearance: 2, Frequency: 3, MaxLevel: 5},
		{ID: "zen_master", Name: "Zen Master", Location: Park, FirstAppearance: 1, Frequency: 2, MaxLevel: 5},
		{ID: "bartender", Name: "Rosa the Bartender", Location: Bar, FirstAppearance: 1, Frequency: 1, MaxLevel: 5},
		{ID: "coach", Name: "Coach Tanaka", Location: Gym, FirstAppearance: 3, Frequency: 2, MaxLevel: 4},
		{ID: "scholar", Name: "The Scholar", Location: Library, FirstAppearance: 2, Frequency: 2, MaxLevel: 5},
	}
}
