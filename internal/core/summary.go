package core

// Overview is what the fixed costs page renders: every live record and the
// sum of their monthly costs.
type Overview struct {
	FixedCosts []FixedCost `json:"fixedCosts"`
	Total      Money       `json:"total"`
}

// Total sums the monthly cost of the given records.
func Total(costs []FixedCost) Money {
	var total Money
	for _, c := range costs {
		total = total.Add(c.MonthlyCost)
	}
	return total
}
