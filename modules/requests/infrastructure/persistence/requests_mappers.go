package persistence

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/iota-uz/approvals/modules/requests/domain/aggregates/request"
	"github.com/iota-uz/approvals/modules/requests/domain/entities/auditlog"
	"github.com/iota-uz/approvals/modules/requests/domain/entities/notification"
	"github.com/iota-uz/approvals/modules/requests/domain/entities/option"
	"github.com/iota-uz/approvals/modules/requests/domain/entities/user"
	"github.com/iota-uz/approvals/modules/requests/domain/entities/validation"
	"github.com/iota-uz/approvals/modules/requests/infrastructure/persistence/models"
)

func toDBRequest(r *request.Request) (*models.Request, error) {
	classifications := r.Classifications
	if classifications == nil {
		classifications = map[string]string{}
	}
	raw, err := json.Marshal(classifications)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode classifications")
	}
	row := &models.Request{
		ID:              r.ID,
		Kind:            string(r.Kind),
		Title:           r.Title,
		Counterpart:     r.Counterpart,
		Location:        r.Location,
		Comment:         r.Comment,
		Amount:          r.Amount.String(),
		EventDate:       r.EventDate,
		Urgency:         string(r.Urgency),
		Classifications: raw,
		FiscalPeriod:    r.FiscalPeriod,
		OwnerID:         r.OwnerID,
		CreatedBy:       r.CreatedBy,
		Status:          string(r.Status),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		Participants:    r.Participants,
	}
	row.DirectorValidatorID, row.DirectorDecision, row.DirectorComment, row.DirectorDecidedAt = stageColumns(r.DirectorStage)
	row.FinanceValidatorID, row.FinanceDecision, row.FinanceComment, row.FinanceDecidedAt = stageColumns(r.FinanceStage)
	return row, nil
}

func stageColumns(d *request.StageDecision) (*int64, *string, *string, *time.Time) {
	if d == nil {
		return nil, nil, nil, nil
	}
	id, decision, comment, at := d.ValidatorID, string(d.Decision), d.Comment, d.DecidedAt
	return &id, &decision, &comment, &at
}

func toDomainRequest(row *models.Request) (*request.Request, error) {
	amount, err := decimal.NewFromString(row.Amount)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid amount %q on request %d", row.Amount, row.ID)
	}
	var classifications map[string]string
	if len(row.Classifications) > 0 {
		if err := json.Unmarshal(row.Classifications, &classifications); err != nil {
			return nil, errors.Wrapf(err, "invalid classifications on request %d", row.ID)
		}
	}
	return &request.Request{
		Payload: request.Payload{
			Kind:            request.Kind(row.Kind),
			Title:           row.Title,
			Counterpart:     row.Counterpart,
			Location:        row.Location,
			Comment:         row.Comment,
			Amount:          amount,
			EventDate:       row.EventDate,
			Urgency:         request.Urgency(row.Urgency),
			Classifications: classifications,
			FiscalPeriod:    row.FiscalPeriod,
			Participants:    row.Participants,
		},
		ID:            row.ID,
		OwnerID:       row.OwnerID,
		CreatedBy:     row.CreatedBy,
		Status:        request.Status(row.Status),
		DirectorStage: stageDecision(row.DirectorValidatorID, row.DirectorDecision, row.DirectorComment, row.DirectorDecidedAt),
		FinanceStage:  stageDecision(row.FinanceValidatorID, row.FinanceDecision, row.FinanceComment, row.FinanceDecidedAt),
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}, nil
}

func stageDecision(validatorID *int64, decision, comment *string, at *time.Time) *request.StageDecision {
	if validatorID == nil {
		return nil
	}
	d := &request.StageDecision{ValidatorID: *validatorID}
	if decision != nil {
		d.Decision = request.Decision(*decision)
	}
	if comment != nil {
		d.Comment = *comment
	}
	if at != nil {
		d.DecidedAt = *at
	}
	return d
}

func toDomainValidation(row *models.Validation) *validation.Record {
	return &validation.Record{
		ID:          row.ID,
		RequestID:   row.RequestID,
		ValidatorID: row.ValidatorID,
		Stage:       request.Stage(row.Stage),
		Decision:    request.Decision(row.Decision),
		Comment:     row.Comment,
		CreatedAt:   row.CreatedAt,
	}
}

func toDomainNotification(row *models.Notification) *notification.Notification {
	return &notification.Notification{
		ID:        row.ID,
		UserID:    row.UserID,
		RequestID: row.RequestID,
		Category:  notification.Category(row.Category),
		Title:     row.Title,
		Body:      row.Body,
		Read:      row.Read,
		CreatedAt: row.CreatedAt,
	}
}

func toDomainAuditEntry(row *models.AuditEntry) *auditlog.Entry {
	return &auditlog.Entry{
		ID:        row.ID,
		ActorID:   row.ActorID,
		RequestID: row.RequestID,
		Action:    auditlog.Action(row.Action),
		Detail:    row.Detail,
		CreatedAt: row.CreatedAt,
	}
}

func toDomainUser(row *models.User) *user.User {
	return &user.User{
		ID:        row.ID,
		Name:      row.Name,
		Email:     row.Email,
		Role:      user.Role(row.Role),
		ManagerID: row.ManagerID,
		Region:    row.Region,
		Active:    row.Active,
	}
}

func toDomainOption(row *models.Option) option.Option {
	return option.Option{
		Category: row.Category,
		Value:    row.Value,
		Label:    row.Label,
		Position: row.Position,
		Active:   row.Active,
	}
}
