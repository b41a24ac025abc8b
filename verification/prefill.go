package verification

import (
	"strings"

	"merchant-onboarding/shared"
)

// LocateMerchant picks the persisted merchant a verification session starts
// from: the one matching email, or the most recently updated one when no
// email is known.
func LocateMerchant(merchants []shared.StoredMerchant, email string) *shared.StoredMerchant {
	email = strings.TrimSpace(email)
	if email != "" {
		for i := range merchants {
			if strings.EqualFold(merchants[i].Email(), email) {
				m := merchants[i]
				return &m
			}
		}
		return nil
	}

	var latest *shared.StoredMerchant
	for i := range merchants {
		if latest == nil || merchants[i].UpdatedAt.After(latest.UpdatedAt) {
			latest = &merchants[i]
		}
	}
	if latest == nil {
		return nil
	}
	m := *latest
	return &m
}

// Prefill copies persisted onboarding data into empty form fields. It only
// runs on the first load; later calls report false and change nothing.
func (w *Wizard) Prefill(m *shared.StoredMerchant) bool {
	if w.prefilled || m == nil {
		return false
	}
	w.prefilled = true
	PrefillForm(&w.form, m)
	return true
}

// Prefilled reports whether the first load already happened.
func (w *Wizard) Prefilled() bool { return w.prefilled }

// PrefillForm fills empty fields of form from m.
func PrefillForm(form *shared.VerificationFormData, m *shared.StoredMerchant) {
	if su := m.SignUpData; su != nil {
		fill(&form.FirstName, su.FirstName)
		fill(&form.LastName, su.LastName)
		fill(&form.Email, su.Email)
		fill(&form.Phone, su.Phone)
		fill(&form.LegalName, su.BusinessName)
		fill(&form.BusinessPhone, su.Phone)
		fill(&form.Category, su.BusinessCategory)
		fillAddress(&form.BusinessAddress, su.BusinessAddress)
	}
	if co := m.CheckoutData; co != nil {
		fill(&form.DateOfBirth, co.OwnerDateOfBirth)
		fill(&form.SSNLast4, co.SSNLast4)
		fillAddress(&form.HomeAddress, co.ShippingAddress)
	}
	if vi := m.VerifiedIdentity; vi != nil {
		fill(&form.FirstName, vi.FirstName)
		fill(&form.LastName, vi.LastName)
		fill(&form.DateOfBirth, vi.DateOfBirth)
		fillAddress(&form.HomeAddress, vi.Address)
	}
	if ba := m.BankAccountData; ba != nil {
		fill(&form.AccountHolderName, ba.AccountHolderName)
		fill(&form.AccountType, ba.AccountType)
		fill(&form.RoutingNumber, ba.RoutingNumber)
		fill(&form.AccountNumber, ba.AccountNumber)
		fill(&form.ConfirmAccountNumber, ba.AccountNumber)
	}
}

func fill(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}

func fillAddress(dst *shared.Address, src shared.Address) {
	fill(&dst.Street, src.Street)
	fill(&dst.City, src.City)
	fill(&dst.State, src.State)
	fill(&dst.Zip, src.Zip)
}
