package verification

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"merchant-onboarding/shared"
)

// Errors maps a form field to a human readable message. An empty map means
// the step is valid.
type Errors map[string]string

// OK reports whether there are no field errors.
func (e Errors) OK() bool { return len(e) == 0 }

// MinDescriptionLength is the shortest product description accepted in
// place of a website.
const MinDescriptionLength = 20

// MinimumAge is the youngest an individual applicant may be.
const MinimumAge = 18

var (
	emailPattern   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	zipPattern     = regexp.MustCompile(`^\d{5}$`)
	last4Pattern   = regexp.MustCompile(`^\d{4}$`)
	einPattern     = regexp.MustCompile(`^\d{9}$`)
	routingPattern = regexp.MustCompile(`^\d{9}$`)
	accountPattern = regexp.MustCompile(`^\d{4,17}$`)
)

// Validate runs the validator of one step. now supplies the current date for
// the age check.
func Validate(step StepID, form shared.VerificationFormData, now time.Time) Errors {
	errs := Errors{}
	switch step {
	case StepPersonalInfo:
		validatePersonal(form, now, errs)
	case StepHomeAddress:
		validateAddress("homeAddress", form.HomeAddress, errs)
		if !last4Pattern.MatchString(form.SSNLast4) {
			errs["ssnLast4"] = "Enter the last 4 digits of your SSN"
		}
	case StepRole:
		validateRole(form, errs)
	case StepTermsReview:
		if !form.AcceptedTerms {
			errs["acceptedTerms"] = "You must accept the terms to continue"
		}
	case StepBusiness:
		validateBusiness(form, errs)
	case StepBeneficialOwners:
		if NeedsBeneficialOwners(form) && form.HasBeneficialOwners && len(form.BeneficialOwners) == 0 {
			errs["beneficialOwners"] = "Add at least one beneficial owner"
		}
	case StepReview:
	case StepBankAccount:
		validateBank(form, errs)
	}
	return errs
}

// ValidatePath validates every step the form walks through and returns the
// first step with errors. The errors are empty when the whole path is valid.
func ValidatePath(form shared.VerificationFormData, now time.Time) (StepID, Errors) {
	for _, step := range Path(form) {
		if errs := Validate(step, form, now); !errs.OK() {
			return step, errs
		}
	}
	return LastStep, Errors{}
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

func validatePersonal(form shared.VerificationFormData, now time.Time, errs Errors) {
	if blank(form.FirstName) {
		errs["firstName"] = "First name is required"
	}
	if blank(form.LastName) {
		errs["lastName"] = "Last name is required"
	}
	switch {
	case blank(form.Email):
		errs["email"] = "Email is required"
	case !emailPattern.MatchString(strings.TrimSpace(form.Email)):
		errs["email"] = "Enter a valid email address"
	}
	if blank(form.Phone) {
		errs["phone"] = "Phone number is required"
	}
	if blank(form.DateOfBirth) {
		errs["dateOfBirth"] = "Date of birth is required"
		return
	}
	dob, err := time.Parse("2006-01-02", strings.TrimSpace(form.DateOfBirth))
	if err != nil {
		errs["dateOfBirth"] = "Enter a valid date of birth"
		return
	}
	if AgeInYears(dob, now) < MinimumAge {
		errs["dateOfBirth"] = "You must be at least 18 years old"
	}
}

// AgeInYears is the difference of calendar years. Month and day are
// ignored, so someone turning 18 later this year already counts as 18.
func AgeInYears(dob, now time.Time) int {
	return now.Year() - dob.Year()
}

func validateAddress(prefix string, a shared.Address, errs Errors) {
	if blank(a.Street) {
		errs[prefix+".street"] = "Street address is required"
	}
	if blank(a.City) {
		errs[prefix+".city"] = "City is required"
	}
	if blank(a.State) {
		errs[prefix+".state"] = "Select a state"
	}
	if !zipPattern.MatchString(strings.TrimSpace(a.Zip)) {
		errs[prefix+".zip"] = "Enter a 5-digit ZIP code"
	}
}

func validateRole(form shared.VerificationFormData, errs Errors) {
	if blank(form.Role) {
		errs["role"] = "Select your role"
		return
	}
	if form.Role != "owner" && form.Role != "partner" {
		return
	}
	if blank(form.OwnershipPercent) {
		errs["ownershipPercent"] = "Ownership percentage is required"
		return
	}
	pct, err := strconv.ParseFloat(strings.TrimSpace(form.OwnershipPercent), 64)
	if err != nil || pct <= 0 || pct > 100 {
		errs["ownershipPercent"] = "Enter a percentage between 1 and 100"
	}
}

// NormalizeEIN strips hyphens and spaces.
func NormalizeEIN(ein string) string {
	return strings.NewReplacer("-", "", " ", "").Replace(ein)
}

func validateBusiness(form shared.VerificationFormData, errs Errors) {
	if blank(form.LegalName) {
		errs["legalName"] = "Legal business name is required"
	}
	if blank(string(form.BusinessStructure)) {
		errs["businessStructure"] = "Select a business structure"
	}
	if form.BusinessStructure != shared.StructureSoleProprietor {
		switch ein := NormalizeEIN(form.EIN); {
		case ein == "":
			errs["ein"] = "EIN is required"
		case !einPattern.MatchString(ein):
			errs["ein"] = "EIN must be 9 digits"
		}
	}
	if blank(form.BusinessPhone) {
		errs["businessPhone"] = "Business phone is required"
	}
	if blank(form.SupportPhone) {
		errs["supportPhone"] = "Support phone is required"
	}
	validateAddress("businessAddress", form.BusinessAddress, errs)
	if blank(form.Website) && len(strings.TrimSpace(form.ProductDescription)) < MinDescriptionLength {
		errs["website"] = "Provide a website or a product description of at least 20 characters"
	}
	if blank(form.Category) {
		errs["category"] = "Select a business category"
	}
}

func validateBank(form shared.VerificationFormData, errs Errors) {
	if form.SkipBank {
		return
	}
	if blank(form.AccountHolderName) {
		errs["accountHolderName"] = "Account holder name is required"
	}
	if blank(form.AccountType) {
		errs["accountType"] = "Select an account type"
	}
	if !routingPattern.MatchString(form.RoutingNumber) {
		errs["routingNumber"] = "Routing number must be 9 digits"
	}
	if !accountPattern.MatchString(form.AccountNumber) {
		errs["accountNumber"] = "Account number must be 4 to 17 digits"
	}
	if form.ConfirmAccountNumber != form.AccountNumber {
		errs["confirmAccountNumber"] = "Account numbers do not match"
	}
}
