package request

import "time"

// Submit moves a draft into its first pending stage. When the director
// stage is pre-validated (a director submitting for their own team) and the
// kind requires it, that stage is recorded at now and the request skips
// straight to finance.
func (r *Request) Submit(now time.Time, preValidatedBy *int64, comment string) error {
	if r.Status != StatusDraft {
		return ErrInvalidTransition.WithMessage("cannot submit a request in status %s", r.Status)
	}
	if !r.Kind.RequiresDirectorStage() {
		r.Status = StatusPendingFinance
		r.UpdatedAt = now
		return nil
	}
	if preValidatedBy != nil {
		r.DirectorStage = &StageDecision{
			ValidatorID: *preValidatedBy,
			Decision:    DecisionApprove,
			Comment:     comment,
			DecidedAt:   now,
		}
		r.Status = StatusPendingFinance
		r.UpdatedAt = now
		return nil
	}
	r.Status = StatusPendingDirector
	r.UpdatedAt = now
	return nil
}

// Decide records validatorID's decision on the stage currently pending and
// returns that stage. Rejection at any stage is terminal.
func (r *Request) Decide(validatorID int64, decision Decision, comment string, now time.Time) (Stage, error) {
	stage, ok := r.Status.Stage()
	if !ok {
		return "", ErrInvalidTransition.WithMessage("request in status %s is not awaiting validation", r.Status)
	}
	if r.DecisionFor(stage) != nil {
		return "", ErrInvalidTransition.WithMessage("%s stage already decided", stage)
	}
	if stage == StageDirector && !r.Kind.RequiresDirectorStage() {
		return "", ErrInvalidTransition.WithMessage("%s requests have no director stage", r.Kind)
	}

	record := &StageDecision{
		ValidatorID: validatorID,
		Decision:    decision,
		Comment:     comment,
		DecidedAt:   now,
	}

	switch decision {
	case DecisionReject:
		r.setDecision(stage, record)
		r.Status = StatusRejected
	case DecisionApprove:
		r.setDecision(stage, record)
		if stage == StageDirector {
			r.Status = StatusPendingFinance
		} else {
			r.Status = StatusApproved
		}
	default:
		return "", ErrInvalidTransition.WithMessage("unknown decision %q", decision)
	}
	r.UpdatedAt = now
	return stage, nil
}

// ApproveAll stamps validatorID on every stage the kind requires and marks
// the request approved. Only drafts that have never been submitted qualify.
func (r *Request) ApproveAll(validatorID int64, comment string, now time.Time) error {
	if r.Status != StatusDraft {
		return ErrInvalidTransition.WithMessage("cannot approve a request in status %s directly", r.Status)
	}
	for _, stage := range r.Kind.Stages() {
		r.setDecision(stage, &StageDecision{
			ValidatorID: validatorID,
			Decision:    DecisionApprove,
			Comment:     comment,
			DecidedAt:   now,
		})
	}
	r.Status = StatusApproved
	r.UpdatedAt = now
	return nil
}

func (r *Request) setDecision(stage Stage, d *StageDecision) {
	switch stage {
	case StageDirector:
		r.DirectorStage = d
	case StageFinance:
		r.FinanceStage = d
	}
}
