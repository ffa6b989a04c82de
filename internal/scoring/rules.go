package scoring

// Rule is one row of the static scoring reference table.
type Rule struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Example     string `json:"example"`
}

// ExampleCalculation walks through scoring one captained stock.
type ExampleCalculation struct {
	Stock       string `json:"stock"`
	PriceChange string `json:"price_change"`
	BaseScore   int    `json:"base_score"`
	VolumeBonus int    `json:"volume_bonus"`
	SectorBonus int    `json:"sector_bonus"`
	Role        string `json:"role"`
	FinalScore  int    `json:"final_score"`
}

// RuleSet is the scoring reference table served to clients.
type RuleSet struct {
	Rules              []Rule             `json:"rules"`
	ExampleCalculation ExampleCalculation `json:"example_calculation"`
}

// Rules returns the static scoring reference table. No inputs; the
// content only changes when the formula does.
func Rules() RuleSet {
	return RuleSet{
		Rules: []Rule{
			{
				Name:        "Price Change Score",
				Description: "Every 1% price change = 10 points",
				Example:     "+2.5% = 25 points",
			},
			{
				Name:        "Volume Bonus",
				Description: "High trading volume adds bonus points",
				Example:     "High volume = +10 points",
			},
			{
				Name:        "Sector Bonus",
				Description: "Strong sectors give additional points",
				Example:     "IT/Banking = +5 points",
			},
			{
				Name:        "Captain Multiplier",
				Description: "Captain's score is doubled",
				Example:     "Captain gets 2x points",
			},
			{
				Name:        "Vice Captain Multiplier",
				Description: "Vice Captain's score is multiplied by 1.5x",
				Example:     "Vice Captain gets 1.5x points",
			},
			{
				Name:        "Loss Penalty",
				Description: "Big losses incur penalties",
				Example:     "-2% drop = -5 points",
			},
		},
		ExampleCalculation: ExampleCalculation{
			Stock:       "TCS",
			PriceChange: "+2.5%",
			BaseScore:   25,
			VolumeBonus: 10,
			SectorBonus: 5,
			Role:        "Captain (2x)",
			FinalScore:  80,
		},
	}
}
