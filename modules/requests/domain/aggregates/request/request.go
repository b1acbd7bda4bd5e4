package request

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iota-uz/approvals/pkg/serrors"
)

var (
	ErrRequestNotFound   = serrors.NewError("NOT_FOUND", "request not found", "Requests.Errors.NotFound")
	ErrInvalidTransition = serrors.NewError("INVALID_TRANSITION", "transition not allowed from current status", "Requests.Errors.InvalidTransition")
)

type Kind string

const (
	KindBudget    Kind = "budget"
	KindMarketing Kind = "marketing"
)

func ParseKind(v string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(v))); k {
	case KindBudget, KindMarketing:
		return k, nil
	default:
		return "", fmt.Errorf("unknown request kind %q", v)
	}
}

// RequiresDirectorStage reports whether requests of this kind pass through
// the director stage before finance.
func (k Kind) RequiresDirectorStage() bool {
	return k == KindBudget
}

// Stages lists the stages a request of this kind must pass, in order.
func (k Kind) Stages() []Stage {
	if k.RequiresDirectorStage() {
		return []Stage{StageDirector, StageFinance}
	}
	return []Stage{StageFinance}
}

type Status string

const (
	StatusDraft           Status = "draft"
	StatusPendingDirector Status = "pending_director"
	StatusPendingFinance  Status = "pending_finance"
	StatusApproved        Status = "approved"
	StatusRejected        Status = "rejected"
)

var AllStatuses = []Status{
	StatusDraft,
	StatusPendingDirector,
	StatusPendingFinance,
	StatusApproved,
	StatusRejected,
}

func (s Status) Valid() bool {
	return slices.Contains(AllStatuses, s)
}

func (s Status) IsPending() bool {
	return s == StatusPendingDirector || s == StatusPendingFinance
}

func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Stage returns the stage awaiting a decision in this status.
func (s Status) Stage() (Stage, bool) {
	switch s {
	case StatusPendingDirector:
		return StageDirector, true
	case StatusPendingFinance:
		return StageFinance, true
	default:
		return "", false
	}
}

type Urgency string

const (
	UrgencyNormal   Urgency = "normal"
	UrgencyUrgent   Urgency = "urgent"
	UrgencyCritical Urgency = "critical"
)

type Stage string

const (
	StageDirector Stage = "director"
	StageFinance  Stage = "finance"
)

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

func ParseDecision(v string) (Decision, error) {
	switch d := Decision(strings.ToLower(strings.TrimSpace(v))); d {
	case DecisionApprove, DecisionReject:
		return d, nil
	default:
		return "", fmt.Errorf("unknown decision %q", v)
	}
}

// StageDecision is the validator of record for one stage.
type StageDecision struct {
	ValidatorID int64     `json:"validator_id"`
	Decision    Decision  `json:"decision"`
	Comment     string    `json:"comment"`
	DecidedAt   time.Time `json:"decided_at"`
}

// Payload holds the descriptive fields supplied when a request is created.
type Payload struct {
	Kind            Kind              `json:"kind" validate:"required,oneof=budget marketing"`
	Title           string            `json:"title" validate:"required,max=255"`
	Counterpart     string            `json:"counterpart" validate:"max=255"`
	Location        string            `json:"location" validate:"max=255"`
	Comment         string            `json:"comment"`
	Amount          decimal.Decimal   `json:"amount"`
	EventDate       time.Time         `json:"event_date"`
	Urgency         Urgency           `json:"urgency" validate:"required,oneof=normal urgent critical"`
	Classifications map[string]string `json:"classifications"`
	FiscalPeriod    string            `json:"fiscal_period"`
	Participants    []int64           `json:"participants"`
}

// Normalize trims free text and fills defaults.
func (p *Payload) Normalize() {
	p.Kind = Kind(strings.ToLower(strings.TrimSpace(string(p.Kind))))
	p.Title = strings.TrimSpace(p.Title)
	p.Counterpart = strings.TrimSpace(p.Counterpart)
	p.Location = strings.TrimSpace(p.Location)
	p.Comment = strings.TrimSpace(p.Comment)
	p.FiscalPeriod = strings.TrimSpace(p.FiscalPeriod)
	if p.Urgency == "" {
		p.Urgency = UrgencyNormal
	}
	p.Urgency = Urgency(strings.ToLower(strings.TrimSpace(string(p.Urgency))))
	// Copies keep the caller's map and slice untouched.
	p.Classifications = maps.Clone(p.Classifications)
	for category, value := range p.Classifications {
		p.Classifications[category] = strings.TrimSpace(value)
	}
	p.Participants = slices.Compact(slices.Sorted(slices.Values(p.Participants)))
}

type Request struct {
	Payload

	ID        int64  `json:"id"`
	OwnerID   int64  `json:"owner_id"`
	CreatedBy int64  `json:"created_by"`
	Status    Status `json:"status"`

	DirectorStage *StageDecision `json:"director_stage,omitempty"`
	FinanceStage  *StageDecision `json:"finance_stage,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New returns a draft owned by ownerID.
func New(ownerID, createdBy int64, payload Payload, now time.Time) *Request {
	return &Request{
		Payload:   payload,
		OwnerID:   ownerID,
		CreatedBy: createdBy,
		Status:    StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// DecisionFor returns the recorded decision for stage, if any.
func (r *Request) DecisionFor(stage Stage) *StageDecision {
	switch stage {
	case StageDirector:
		return r.DirectorStage
	case StageFinance:
		return r.FinanceStage
	default:
		return nil
	}
}

func (r *Request) IsParticipant(userID int64) bool {
	return slices.Contains(r.Participants, userID)
}

// Clone returns a deep copy.
func (r *Request) Clone() *Request {
	cp := *r
	cp.Classifications = maps.Clone(r.Classifications)
	cp.Participants = slices.Clone(r.Participants)
	if r.DirectorStage != nil {
		d := *r.DirectorStage
		cp.DirectorStage = &d
	}
	if r.FinanceStage != nil {
		f := *r.FinanceStage
		cp.FinanceStage = &f
	}
	return &cp
}
