package models

import "time"

type Plan string

const (
	PlanPro   Plan = "pro"
	PlanTrial Plan = "trial"
)

// AccessDecision is the outcome of the subscription gate.
type AccessDecision struct {
	Allowed  bool       `json:"allowed"`
	Plan     Plan       `json:"plan"`
	DaysLeft *int       `json:"days_left,omitempty"`
	EndsAt   *time.Time `json:"ends_at,omitempty"`
	// FailOpen marks decisions granted because the merchant record could not be read.
	FailOpen bool `json:"fail_open,omitempty"`
}
