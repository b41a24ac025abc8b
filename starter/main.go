package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"merchant-onboarding/admin"
	"merchant-onboarding/config"
	"merchant-onboarding/logging"
	"merchant-onboarding/pricing"
	"merchant-onboarding/shared"
	"merchant-onboarding/store"
	"merchant-onboarding/workflows"
)

type cli struct {
	c         client.Client
	cfg       config.AppConfig
	log       *zap.Logger
	reader    *bufio.Reader
	sessionID string
}

func main() {
	cfg := config.Load()
	logger := logging.Must(cfg.Log)
	defer func() { _ = logger.Sync() }()

	opts := cfg.TemporalOptions()
	opts.Logger = logging.NewTemporalLogger(logger)
	c, err := client.Dial(opts)
	if err != nil {
		logger.Fatal("Unable to create Temporal client", zap.Error(err))
	}
	defer c.Close()

	app := &cli{c: c, cfg: cfg, log: logger, reader: bufio.NewReader(os.Stdin)}
	app.start()

	for {
		fmt.Println()
		fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		fmt.Println("  Merchant Onboarding CLI  ", app.sessionID)
		fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		fmt.Println()
		fmt.Println("  [1] Complete current step")
		fmt.Println("  [2] Go back one step")
		fmt.Println("  [3] Complete a setup task")
		fmt.Println("  [4] Connect bank account")
		fmt.Println("  [5] Simulate identity decision")
		fmt.Println("  [6] Show onboarding state")
		fmt.Println("  [7] Watch admin dashboard")
		fmt.Println("  [8] Exit (workflow keeps running)")
		fmt.Println()

		switch app.prompt("Choose: ") {
		case "1":
			app.completeStep()
		case "2":
			app.signal(shared.OnboardingEvent{Kind: shared.EventGoBack})
		case "3":
			app.completeTask()
		case "4":
			app.signal(shared.OnboardingEvent{Kind: shared.EventConnectBankAccount, Bank: &shared.BankAccountData{
				AccountHolderName: "Acme Coffee LLC",
				AccountType:       "checking",
				RoutingNumber:     "110000000",
				AccountNumber:     "000123456789",
			}})
		case "5":
			app.simulateIdentity()
		case "6":
			app.showState()
		case "7":
			app.watchDashboard()
		case "8":
			fmt.Println()
			fmt.Println("👋 Exiting. The session continues in Temporal:", shared.OnboardingWorkflowID(app.sessionID))
			return
		default:
			fmt.Println("❌ Invalid choice. Enter 1-8.")
		}
	}
}

func (a *cli) prompt(label string) string {
	fmt.Print(label)
	line, _ := a.reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func (a *cli) start() {
	a.sessionID = uuid.NewString()
	req := shared.OnboardingRequest{SessionID: a.sessionID}

	if strings.EqualFold(a.prompt("Arrive prequalified from the landing page? [y/N]: "), "y") {
		req.Prequal = &shared.PrequalContext{
			Email:         "owner@acme-coffee.example",
			Phone:         "555-0100",
			FirstName:     "Jordan",
			LastName:      "Reyes",
			BusinessName:  "Acme Coffee",
			Category:      "food-and-beverage",
			RevenueRange:  "2m-5m",
			LocationCount: 12,
			Cohort:        shared.CohortManaged,
		}
	}

	fmt.Println()
	fmt.Println("🚀 Starting onboarding session", a.sessionID)

	// The workflow id is derived from the session id, so restarting the CLI
	// with the same id would attach to the running session instead of
	// creating a duplicate.
	we, err := a.c.ExecuteWorkflow(
		context.Background(),
		client.StartWorkflowOptions{
			ID:        shared.OnboardingWorkflowID(a.sessionID),
			TaskQueue: shared.OnboardingWorkflowTaskQueue,
		},
		workflows.OnboardingWorkflow,
		req,
	)
	if err != nil {
		a.log.Fatal("Unable to start workflow", zap.Error(err))
	}
	fmt.Printf("   WorkflowID: %s\n", we.GetID())
	fmt.Printf("   RunID:      %s\n", we.GetRunID())
}

func (a *cli) query() (shared.OnboardingState, error) {
	var state shared.OnboardingState
	resp, err := a.c.QueryWorkflow(context.Background(), shared.OnboardingWorkflowID(a.sessionID), "", shared.QueryOnboardingState)
	if err != nil {
		return state, err
	}
	return state, resp.Get(&state)
}

func (a *cli) signal(ev shared.OnboardingEvent) {
	err := a.c.SignalWorkflow(context.Background(), shared.OnboardingWorkflowID(a.sessionID), "", shared.SignalOnboardingEvent, ev)
	if err != nil {
		fmt.Printf("❌ Signal failed: %v\n", err)
		return
	}
	fmt.Printf("✅ Sent %s\n", ev.Kind)
}

// completeStep sends canned data for whichever step the session is on.
func (a *cli) completeStep() {
	state, err := a.query()
	if err != nil {
		fmt.Printf("❌ Query failed: %v\n", err)
		return
	}
	if state.Completed {
		fmt.Println("🏁 Onboarding is already complete.")
		return
	}

	switch state.CurrentStep {
	case 1:
		a.signal(shared.OnboardingEvent{Kind: shared.EventCompleteStep1, SignUp: &shared.SignUpData{
			FirstName:        "Jordan",
			LastName:         "Reyes",
			Email:            "owner@acme-coffee.example",
			Phone:            "555-0100",
			BusinessName:     "Acme Coffee",
			BusinessCategory: "food-and-beverage",
			RevenueRange:     "500k-1m",
			LocationCount:    2,
			BusinessAddress:  shared.Address{Street: "1 Roast Ave", City: "Portland", State: "OR", Zip: "97201"},
		}})
	case 2:
		pos := shared.POSSetupData{
			Locations:            2,
			RegistersPerLocation: 2,
			NeedsEcommerce:       true,
			HardwareSelections:   []shared.HardwareSelection{{BundleID: "countertop-starter", Quantity: 2}},
		}
		quote := pricing.ForSetup(pos, state.Cohort)
		fmt.Printf("💲 Quote: $%d due today, $%d/month, %s processing\n", quote.DueToday, quote.Monthly, quote.ProcessingRate)
		a.signal(shared.OnboardingEvent{Kind: shared.EventCompleteStep2, POSSetup: &pos})
	case 3:
		a.signal(shared.OnboardingEvent{Kind: shared.EventCompleteStep3, Checkout: &shared.CheckoutData{
			OwnerDateOfBirth:      "1985-06-15",
			SSNLast4:              "4321",
			ShippingAddress:       shared.Address{Street: "1 Roast Ave", City: "Portland", State: "OR", Zip: "97201"},
			PaymentMethod:         "card",
			CardLast4:             "4242",
			AcceptedTerms:         true,
			AcceptedProcessingFee: true,
		}})
	case 4:
		a.signal(shared.OnboardingEvent{Kind: shared.EventCompleteStep4})
	}
}

func (a *cli) completeTask() {
	state, err := a.query()
	if err != nil {
		fmt.Printf("❌ Query failed: %v\n", err)
		return
	}
	if len(state.SetupTasks) == 0 {
		fmt.Println("The setup checklist opens at step 4.")
		return
	}
	for i, t := range state.SetupTasks {
		mark := " "
		if t.Completed {
			mark = "x"
		}
		fmt.Printf("  [%d] [%s] %s\n", i+1, mark, t.Title)
	}
	n, err := strconv.Atoi(a.prompt("Task number: "))
	if err != nil || n < 1 || n > len(state.SetupTasks) {
		fmt.Println("❌ No such task.")
		return
	}
	a.signal(shared.OnboardingEvent{Kind: shared.EventCompleteSetupTask, TaskID: state.SetupTasks[n-1].ID})
}

// simulateIdentity delivers a decision the way the webhook endpoint would.
// The verification child still confirms it against the provider, so with the
// sandbox provider set SANDBOX_AUTO_VERIFY=true to see a verified result.
func (a *cli) simulateIdentity() {
	state, err := a.query()
	if err != nil {
		fmt.Printf("❌ Query failed: %v\n", err)
		return
	}
	idSession := ""
	if state.CheckoutData != nil {
		idSession = state.CheckoutData.IdentitySessionID
	}

	fmt.Println("  [1] verified  [2] requires_input  [3] canceled")
	statuses := map[string]shared.IdentityStatus{
		"1": shared.IdentityVerified,
		"2": shared.IdentityRequiresInput,
		"3": shared.IdentityCanceled,
	}
	status, ok := statuses[a.prompt("Decision: ")]
	if !ok {
		fmt.Println("❌ Invalid decision.")
		return
	}

	outcome := shared.IdentityOutcome{SessionID: idSession, Status: status, EventID: "evt_cli_" + uuid.NewString()[:8]}
	err = a.c.SignalWorkflow(context.Background(), shared.OnboardingWorkflowID(a.sessionID), "", shared.SignalIdentityEvent, outcome)
	if err != nil {
		fmt.Printf("❌ Signal failed: %v\n", err)
		return
	}
	fmt.Printf("✅ Identity decision %q delivered\n", status)
}

func (a *cli) showState() {
	state, err := a.query()
	if err != nil {
		fmt.Printf("❌ Query failed: %v\n", err)
		return
	}
	fmt.Println()
	fmt.Printf("📋 Step %d/4  cohort=%s  kyb=%s  kyc=%s  completed=%t\n",
		state.CurrentStep, state.Cohort, state.KYBStatus, state.KYCStatus, state.Completed)
	if state.AssignedSpecialist != nil {
		fmt.Printf("   Specialist: %s (%s)\n", state.AssignedSpecialist.Name, state.AssignedSpecialist.Role)
	}
	fmt.Printf("   Order confirmed=%t shipped=%t payments=%t payouts=%t\n",
		state.OrderConfirmed, state.HardwareShipped, state.PaymentsActive, state.PayoutsEnabled)
}

// watchDashboard polls the admin view until the watch window passes or the
// user hits Ctrl-C.
func (a *cli) watchDashboard() {
	secs, err := strconv.Atoi(a.prompt("Watch for how many seconds? [10]: "))
	if err != nil || secs <= 0 {
		secs = 10
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(secs)*time.Second)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	dash := admin.NewDashboard(store.NewMerchantStore(a.cfg.MerchantsFile), a.cfg.AdminReferenceMerchants)
	for snap := range dash.Watch(ctx, shared.AdminPollInterval) {
		fmt.Println()
		if snap.Err != nil {
			fmt.Printf("❌ %s: %v\n", snap.At.Format(time.TimeOnly), snap.Err)
			continue
		}
		fmt.Printf("📊 %s  total=%d  active=%d  stalled=%d  completed=%d  blocked=%d\n",
			snap.At.Format(time.TimeOnly), snap.Summary.Total,
			snap.Summary.ByStatus[admin.StatusActive], snap.Summary.ByStatus[admin.StatusStalled],
			snap.Summary.ByStatus[admin.StatusCompleted], snap.Summary.ByStatus[admin.StatusBlocked])
		for _, v := range snap.Views {
			fmt.Printf("   %-18s %-22s %-10s %3d%%  %s\n", v.ID, v.BusinessName, v.Status, v.ProgressPercent, v.Cohort)
		}
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		fmt.Println("⏹  Watch stopped.")
	}
}
