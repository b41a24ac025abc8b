package pricing

import "merchant-onboarding/shared"

// RevenueBand is one option of the annual revenue selector.
type RevenueBand struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Min   int64  `json:"min"`
}

var revenueBands = []RevenueBand{
	{Value: "under-100k", Label: "Under $100K", Min: 0},
	{Value: "100k-250k", Label: "$100K - $250K", Min: 100_000},
	{Value: "250k-500k", Label: "$250K - $500K", Min: 250_000},
	{Value: "500k-1m", Label: "$500K - $1M", Min: 500_000},
	{Value: "1m-2m", Label: "$1M - $2M", Min: 1_000_000},
	{Value: "2m-5m", Label: "$2M - $5M", Min: 2_000_000},
	{Value: "5m-plus", Label: "$5M+", Min: 5_000_000},
}

// Cohort thresholds.
const (
	managedRevenueMin  = 2_000_000
	managedLocations   = 10
	assistedRevenueMin = 500_000
	assistedLocations  = 3
)

// RevenueBands returns the revenue bands in ascending order.
func RevenueBands() []RevenueBand {
	out := make([]RevenueBand, len(revenueBands))
	copy(out, revenueBands)
	return out
}

func bandMin(value string) (int64, bool) {
	for _, b := range revenueBands {
		if b.Value == value {
			return b.Min, true
		}
	}
	return 0, false
}

// DetermineCohort classifies a merchant from its revenue band and location
// count. An unrecognized revenue band yields self-serve.
func DetermineCohort(revenueRange string, locationCount int) shared.Cohort {
	min, ok := bandMin(revenueRange)
	if !ok {
		return shared.CohortSelfServe
	}
	switch {
	case min >= managedRevenueMin || locationCount >= managedLocations:
		return shared.CohortManaged
	case min >= assistedRevenueMin || locationCount >= assistedLocations:
		return shared.CohortAssisted
	default:
		return shared.CohortSelfServe
	}
}

var specialists = map[shared.Cohort]shared.Specialist{
	shared.CohortAssisted: {
		Name:  "Mike Chen",
		Role:  "IC",
		Email: "mike.chen@onboarding.example",
		Phone: "(555) 201-0144",
	},
	shared.CohortManaged: {
		Name:  "Sarah Johnson",
		Role:  "AE",
		Email: "sarah.johnson@onboarding.example",
		Phone: "(555) 201-0187",
	},
}

// SpecialistFor returns the specialist assigned to a cohort. Self-serve has none.
func SpecialistFor(c shared.Cohort) (shared.Specialist, bool) {
	s, ok := specialists[c]
	return s, ok
}
