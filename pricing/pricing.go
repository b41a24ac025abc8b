package pricing

import "merchant-onboarding/shared"

// Monthly software prices in dollars.
const (
	PerLocationMonthly  = 199
	PerRegisterMonthly  = 89
	EcommerceMonthly    = 99
	ImplementationPrice = 2500
)

// ProcessingRate is quoted verbatim on every breakdown.
const ProcessingRate = "2.6% + 15¢ per in-person transaction, 2.9% + 30¢ online"

// HardwareBundle is a catalog entry.
type HardwareBundle struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Price       int      `json:"price"`
	Description string   `json:"description,omitempty"`
	Includes    []string `json:"includes,omitempty"`
}

var hardwareCatalog = []HardwareBundle{
	{
		ID: "countertop-starter", Name: "Countertop Starter", Price: 799,
		Includes: []string{"Terminal", "Cash drawer", "Receipt printer"},
	},
	{
		ID: "countertop-pro", Name: "Countertop Pro", Price: 1299,
		Includes: []string{"Dual-screen terminal", "Cash drawer", "Receipt printer", "Barcode scanner"},
	},
	{
		ID: "handheld", Name: "Handheld", Price: 449,
		Includes: []string{"Handheld terminal", "Charging dock"},
	},
	{
		ID: "kitchen-display", Name: "Kitchen Display", Price: 599,
		Includes: []string{"22\" display", "Wall mount"},
	},
	{
		ID: "self-order-kiosk", Name: "Self-Order Kiosk", Price: 1899,
		Includes: []string{"Kiosk", "Floor stand", "Card reader"},
	},
}

// HardwareCatalog returns every bundle.
func HardwareCatalog() []HardwareBundle {
	out := make([]HardwareBundle, len(hardwareCatalog))
	copy(out, hardwareCatalog)
	return out
}

// LookupBundle finds a bundle by id.
func LookupBundle(id string) (HardwareBundle, bool) {
	for _, b := range hardwareCatalog {
		if b.ID == id {
			return b, true
		}
	}
	return HardwareBundle{}, false
}

// Breakdown is a computed quote.
type Breakdown struct {
	SoftwareMonthly       int    `json:"softwareMonthly"`
	HardwareOneTime       int    `json:"hardwareOneTime"`
	ImplementationPackage *int   `json:"implementationPackage,omitempty"`
	DueToday              int    `json:"dueToday"`
	Monthly               int    `json:"monthly"`
	ProcessingRate        string `json:"processingRate"`
}

// CalculatePricing computes the quote for a POS configuration. Unknown
// bundle ids contribute nothing.
func CalculatePricing(locations, registersPerLocation int, needsEcommerce bool, selections []shared.HardwareSelection, cohort shared.Cohort) Breakdown {
	software := locations*PerLocationMonthly + locations*registersPerLocation*PerRegisterMonthly
	if needsEcommerce {
		software += EcommerceMonthly
	}

	hardware := 0
	for _, sel := range selections {
		if b, ok := LookupBundle(sel.BundleID); ok {
			hardware += b.Price * sel.Quantity
		}
	}

	out := Breakdown{
		SoftwareMonthly: software,
		HardwareOneTime: hardware,
		DueToday:        hardware,
		Monthly:         software,
		ProcessingRate:  ProcessingRate,
	}
	if cohort == shared.CohortManaged {
		impl := ImplementationPrice
		out.ImplementationPackage = &impl
		out.DueToday += impl
	}
	return out
}

// ForSetup is CalculatePricing over a captured POS configuration.
func ForSetup(pos shared.POSSetupData, cohort shared.Cohort) Breakdown {
	return CalculatePricing(pos.Locations, pos.RegistersPerLocation, pos.NeedsEcommerce, pos.HardwareSelections, cohort)
}
