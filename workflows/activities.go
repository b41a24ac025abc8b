package workflows

import "merchant-onboarding/activities"

// a is the activities struct used by workflows to reference activity methods.
// The worker registers the real, wired struct; this variable only provides
// method references for workflow.ExecuteActivity calls.
var a *activities.Activities
