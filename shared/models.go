package shared

import "time"

// Cohort is the service tier a merchant is placed in.
type Cohort string

const (
	CohortSelfServe Cohort = "self-serve"
	CohortAssisted  Cohort = "assisted"
	CohortManaged   Cohort = "managed"
)

// Valid reports whether c is one of the known cohorts.
func (c Cohort) Valid() bool {
	switch c {
	case CohortSelfServe, CohortAssisted, CohortManaged:
		return true
	}
	return false
}

// Rank orders cohorts self-serve < assisted < managed. Unknown cohorts rank -1.
func (c Cohort) Rank() int {
	switch c {
	case CohortSelfServe:
		return 0
	case CohortAssisted:
		return 1
	case CohortManaged:
		return 2
	}
	return -1
}

// ReviewStatus is the KYB or KYC decision for a merchant.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewInReview ReviewStatus = "review"
	ReviewRejected ReviewStatus = "rejected"
)

// Address is a US postal address.
type Address struct {
	Street string `json:"street,omitempty"`
	City   string `json:"city,omitempty"`
	State  string `json:"state,omitempty"`
	Zip    string `json:"zip,omitempty"`
}

// Merge returns a copy of a with every non-empty field of b applied on top.
func (a Address) Merge(b Address) Address {
	if b.Street != "" {
		a.Street = b.Street
	}
	if b.City != "" {
		a.City = b.City
	}
	if b.State != "" {
		a.State = b.State
	}
	if b.Zip != "" {
		a.Zip = b.Zip
	}
	return a
}

// SignUpData is captured by step 1 (account and business basics).
type SignUpData struct {
	FirstName        string  `json:"firstName,omitempty"`
	LastName         string  `json:"lastName,omitempty"`
	Email            string  `json:"email,omitempty"`
	Phone            string  `json:"phone,omitempty"`
	BusinessName     string  `json:"businessName,omitempty"`
	BusinessCategory string  `json:"businessCategory,omitempty"`
	RevenueRange     string  `json:"revenueRange,omitempty"`
	LocationCount    int     `json:"locationCount,omitempty"`
	BusinessAddress  Address `json:"businessAddress,omitempty"`
}

// HardwareSelection is a quantity of one catalog bundle.
type HardwareSelection struct {
	BundleID string `json:"bundleId"`
	Quantity int    `json:"quantity"`
}

// POSSetupData is captured by step 2 (point-of-sale configuration).
type POSSetupData struct {
	Locations            int                 `json:"locations"`
	RegistersPerLocation int                 `json:"registersPerLocation"`
	NeedsEcommerce       bool                `json:"needsEcommerce"`
	HardwareSelections   []HardwareSelection `json:"hardwareSelections,omitempty"`
	Integrations         []string            `json:"integrations,omitempty"`
}

// CheckoutData is captured by step 3 (identity, payment and shipping).
type CheckoutData struct {
	OwnerDateOfBirth      string  `json:"ownerDateOfBirth,omitempty"`
	SSNLast4              string  `json:"ssnLast4,omitempty"`
	ShippingAddress       Address `json:"shippingAddress,omitempty"`
	PaymentMethod         string  `json:"paymentMethod,omitempty"`
	CardLast4             string  `json:"cardLast4,omitempty"`
	IdentitySessionID     string  `json:"identitySessionId,omitempty"`
	AcceptedTerms         bool    `json:"acceptedTerms,omitempty"`
	AcceptedProcessingFee bool    `json:"acceptedProcessingFee,omitempty"`
}

// BankAccountData is the payout account.
type BankAccountData struct {
	AccountHolderName string `json:"accountHolderName,omitempty"`
	AccountType       string `json:"accountType,omitempty"`
	RoutingNumber     string `json:"routingNumber,omitempty"`
	AccountNumber     string `json:"accountNumber,omitempty"`
}

// Specialist is the human assigned to non self-serve merchants.
type Specialist struct {
	Name  string `json:"name"`
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// SetupTask is one item of the step 4 checklist.
type SetupTask struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Required     bool   `json:"required"`
	Completed    bool   `json:"completed"`
	Instructions string `json:"instructions,omitempty"`
}

// VerifiedIdentity is the normalized output of a verified identity session.
type VerifiedIdentity struct {
	FirstName   string  `json:"firstName,omitempty"`
	LastName    string  `json:"lastName,omitempty"`
	DateOfBirth string  `json:"dateOfBirth,omitempty"`
	IDNumber    string  `json:"idNumber,omitempty"`
	Address     Address `json:"address,omitempty"`
}

// OnboardingState is the aggregate root of one merchant's onboarding.
type OnboardingState struct {
	CurrentStep        int               `json:"currentStep"`
	Cohort             Cohort            `json:"cohort"`
	CohortAssigned     bool              `json:"cohortAssigned,omitempty"`
	SignUpData         *SignUpData       `json:"signUpData,omitempty"`
	POSSetupData       *POSSetupData     `json:"posSetupData,omitempty"`
	CheckoutData       *CheckoutData     `json:"checkoutData,omitempty"`
	BankAccountData    *BankAccountData  `json:"bankAccountData,omitempty"`
	KYBStatus          ReviewStatus      `json:"kybStatus"`
	KYCStatus          ReviewStatus      `json:"kycStatus"`
	OrderConfirmed     bool              `json:"orderConfirmed"`
	HardwareShipped    bool              `json:"hardwareShipped"`
	PaymentsActive     bool              `json:"paymentsActive"`
	PayoutsEnabled     bool              `json:"payoutsEnabled"`
	AssignedSpecialist *Specialist       `json:"assignedSpecialist,omitempty"`
	SetupTasks         []SetupTask       `json:"setupTasks,omitempty"`
	VerifiedIdentity   *VerifiedIdentity `json:"verifiedIdentity,omitempty"`
	Completed          bool              `json:"completed,omitempty"`
}

// Email returns the sign-up email, or "" before step 1 has captured it.
func (s OnboardingState) Email() string {
	if s.SignUpData == nil {
		return ""
	}
	return s.SignUpData.Email
}

// StoredMerchant is an OnboardingState as persisted by the gateway.
type StoredMerchant struct {
	OnboardingState
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PrequalContext carries the landing-page prequalification into the wizard.
type PrequalContext struct {
	Email           string  `json:"email"`
	Phone           string  `json:"phone,omitempty"`
	FirstName       string  `json:"firstName,omitempty"`
	LastName        string  `json:"lastName,omitempty"`
	BusinessName    string  `json:"businessName,omitempty"`
	Category        string  `json:"category,omitempty"`
	RevenueRange    string  `json:"revenueRange,omitempty"`
	LocationCount   int     `json:"locationCount,omitempty"`
	BusinessAddress Address `json:"businessAddress,omitempty"`
	Cohort          Cohort  `json:"cohort,omitempty"`
}

// IdentityStatus is the provider-side state of a verification session.
type IdentityStatus string

const (
	IdentityVerified      IdentityStatus = "verified"
	IdentityRequiresInput IdentityStatus = "requires_input"
	IdentityProcessing    IdentityStatus = "processing"
	IdentityCanceled      IdentityStatus = "canceled"
)

// IdentityOutcome is a decision reported by the identity provider.
type IdentityOutcome struct {
	SessionID string            `json:"sessionId"`
	Status    IdentityStatus    `json:"status"`
	Verified  *VerifiedIdentity `json:"verified,omitempty"`
	EventID   string            `json:"eventId,omitempty"`
}

// EventKind names a UI event delivered to an onboarding session.
type EventKind string

const (
	EventCompleteStep1      EventKind = "complete-step-1"
	EventCompleteStep2      EventKind = "complete-step-2"
	EventCompleteStep3      EventKind = "complete-step-3"
	EventCompleteStep4      EventKind = "complete-step-4"
	EventGoBack             EventKind = "go-back"
	EventCompleteSetupTask  EventKind = "complete-setup-task"
	EventConnectBankAccount EventKind = "connect-bank-account"
)

// OnboardingEvent is the payload of SignalOnboardingEvent.
type OnboardingEvent struct {
	Kind       EventKind        `json:"kind"`
	SignUp     *SignUpData      `json:"signUp,omitempty"`
	CohortHint Cohort           `json:"cohortHint,omitempty"`
	POSSetup   *POSSetupData    `json:"posSetup,omitempty"`
	Checkout   *CheckoutData    `json:"checkout,omitempty"`
	Bank       *BankAccountData `json:"bank,omitempty"`
	TaskID     string           `json:"taskId,omitempty"`
}

// OnboardingRequest is the input to the OnboardingWorkflow.
type OnboardingRequest struct {
	SessionID string          `json:"sessionId"`
	Prequal   *PrequalContext `json:"prequal,omitempty"`
}

// ReminderRequest is the input to the SendReminder activity.
type ReminderRequest struct {
	SessionID    string `json:"sessionId"`
	Email        string `json:"email"`
	ReminderType string `json:"reminderType"` // "stalled", "identityVerification", "onboardingComplete"
	CurrentStep  int    `json:"currentStep,omitempty"`
	Link         string `json:"link,omitempty"`
}

// SpecialistAssignment is the input to the NotifySpecialist activity.
type SpecialistAssignment struct {
	SessionID    string     `json:"sessionId"`
	MerchantName string     `json:"merchantName"`
	Email        string     `json:"email"`
	Cohort       Cohort     `json:"cohort"`
	Specialist   Specialist `json:"specialist"`
}

// IdentitySessionRequest is the input to identity session creation.
// SessionID is the onboarding session to notify when the provider decides.
type IdentitySessionRequest struct {
	MerchantID  string `json:"merchantId"`
	SessionID   string `json:"sessionId,omitempty"`
	Email       string `json:"email"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
}

// IdentitySession is the handle returned by the provider.
type IdentitySession struct {
	ID           string `json:"id"`
	RedirectURL  string `json:"redirectUrl"`
	ClientSecret string `json:"clientSecret"`
}

// IdentityCheckRequest is the input to the IdentityVerificationWorkflow. A
// blank IdentitySessionID makes the workflow open a session from Session.
type IdentityCheckRequest struct {
	SessionID         string                 `json:"sessionId"`
	IdentitySessionID string                 `json:"identitySessionId,omitempty"`
	Session           IdentitySessionRequest `json:"session"`
}

// VerificationResult is the output of the IdentityVerificationWorkflow.
type VerificationResult struct {
	Passed    bool              `json:"passed"`
	SessionID string            `json:"sessionId"`
	Status    IdentityStatus    `json:"status"`
	Verified  *VerifiedIdentity `json:"verified,omitempty"`
	Details   string            `json:"details"`
}
