package shared

// BusinessStructure is the legal form of the business.
type BusinessStructure string

const (
	StructureSoleProprietor BusinessStructure = "sole-proprietor"
	StructureLLC            BusinessStructure = "llc"
	StructureCorporation    BusinessStructure = "corporation"
	StructurePartnership    BusinessStructure = "partnership"
	StructureNonProfit      BusinessStructure = "non-profit"
)

// RequiresBeneficialOwners reports whether the structure needs the
// beneficial owners step.
func (b BusinessStructure) RequiresBeneficialOwners() bool {
	switch b {
	case StructureLLC, StructureCorporation, StructurePartnership:
		return true
	}
	return false
}

// BeneficialOwner is an individual owning 25% or more of the business.
type BeneficialOwner struct {
	FirstName        string  `json:"firstName"`
	LastName         string  `json:"lastName"`
	Email            string  `json:"email,omitempty"`
	DateOfBirth      string  `json:"dateOfBirth,omitempty"`
	SSNLast4         string  `json:"ssnLast4,omitempty"`
	Address          Address `json:"address,omitempty"`
	OwnershipPercent float64 `json:"ownershipPercent,omitempty"`
}

// VerificationFormData is the full KYC/KYB/bank form of the verification wizard.
type VerificationFormData struct {
	// Individual
	FirstName        string  `json:"firstName,omitempty"`
	LastName         string  `json:"lastName,omitempty"`
	Email            string  `json:"email,omitempty"`
	Phone            string  `json:"phone,omitempty"`
	DateOfBirth      string  `json:"dateOfBirth,omitempty"` // YYYY-MM-DD
	HomeAddress      Address `json:"homeAddress,omitempty"`
	SSNLast4         string  `json:"ssnLast4,omitempty"`
	Role             string  `json:"role,omitempty"`
	OwnershipPercent string  `json:"ownershipPercent,omitempty"`
	AcceptedTerms    bool    `json:"acceptedTerms,omitempty"`

	// Business
	LegalName          string            `json:"legalName,omitempty"`
	DBA                string            `json:"dba,omitempty"`
	BusinessStructure  BusinessStructure `json:"businessStructure,omitempty"`
	EIN                string            `json:"ein,omitempty"`
	BusinessPhone      string            `json:"businessPhone,omitempty"`
	SupportPhone       string            `json:"supportPhone,omitempty"`
	BusinessAddress    Address           `json:"businessAddress,omitempty"`
	Website            string            `json:"website,omitempty"`
	ProductDescription string            `json:"productDescription,omitempty"`
	Category           string            `json:"category,omitempty"`

	// Beneficial owners
	HasBeneficialOwners bool              `json:"hasBeneficialOwners,omitempty"`
	BeneficialOwners    []BeneficialOwner `json:"beneficialOwners,omitempty"`

	// Bank
	SkipBank             bool   `json:"skipBank,omitempty"`
	AccountHolderName    string `json:"accountHolderName,omitempty"`
	AccountType          string `json:"accountType,omitempty"`
	RoutingNumber        string `json:"routingNumber,omitempty"`
	AccountNumber        string `json:"accountNumber,omitempty"`
	ConfirmAccountNumber string `json:"confirmAccountNumber,omitempty"`
}
