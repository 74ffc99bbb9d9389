package models

// Decision решение по условию завершения
type Decision string

const (
	DecisionFinalizeNow Decision = "finalize_now"
	DecisionSkip        Decision = "skip"
	DecisionNotYet      Decision = "not_yet"
)

// Причины, по которым подведение итогов не завершилось выбором победителей
const (
	ReasonConditionsNotMet       = "conditions_not_met"
	ReasonNoEligibleParticipants = "no_eligible_participants"
	ReasonPausedNoCodes          = "paused_no_codes"
	ReasonContestInactive        = "contest_inactive"
)

// FinalizeResult ответ на запрос подведения итогов
type FinalizeResult struct {
	Success     bool            `json:"success"`
	Skipped     bool            `json:"skipped,omitempty"`
	Message     string          `json:"message,omitempty"`
	WinnerName  string          `json:"winnerName,omitempty"`
	PostLink    string          `json:"postLink,omitempty"`
	ErrorReason string          `json:"errorReason,omitempty"`
	CycleID     string          `json:"cycleId,omitempty"`
	Winners     []WinnerSummary `json:"winners,omitempty"`
}

type WinnerSummary struct {
	UserVkID       int64           `json:"userVkId"`
	UserName       string          `json:"userName"`
	EntryNumber    int64           `json:"entryNumber"`
	DeliveryStatus DeliveryStatus  `json:"deliveryStatus"`
	Channel        DeliveryChannel `json:"channel,omitempty"`
}
