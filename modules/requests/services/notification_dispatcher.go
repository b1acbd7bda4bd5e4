package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/approvals/modules/requests/domain/aggregates/request"
	"github.com/iota-uz/approvals/modules/requests/domain/entities/notification"
	"github.com/iota-uz/approvals/pkg/composables"
)

// NotificationDispatcher writes one notification per recipient for a
// transition. Individual write failures are logged and skipped.
type NotificationDispatcher struct {
	repo     notification.Repository
	logger   *logrus.Entry
	clock    func() time.Time
	currency string
}

func NewNotificationDispatcher(repo notification.Repository, currency string, logger *logrus.Logger) *NotificationDispatcher {
	if currency == "" {
		currency = money.EUR
	}
	return &NotificationDispatcher{
		repo:     repo,
		logger:   componentLogger(logger, "requests.notifications"),
		clock:    utcNow,
		currency: currency,
	}
}

// Dispatch notifies every distinct non-zero recipient once and returns the
// number of rows written.
func (d *NotificationDispatcher) Dispatch(ctx context.Context, r *request.Request, transition Transition, recipients []int64) int {
	category, title, body := d.render(r, transition)
	requestID := r.ID
	now := d.clock()

	seen := make(map[int64]struct{}, len(recipients))
	written := 0
	for _, userID := range recipients {
		if userID <= 0 {
			continue
		}
		if _, dup := seen[userID]; dup {
			continue
		}
		seen[userID] = struct{}{}

		n := &notification.Notification{
			UserID:    userID,
			RequestID: &requestID,
			Category:  category,
			Title:     title,
			Body:      body,
			CreatedAt: now,
		}
		if err := d.repo.Create(ctx, n); err != nil {
			recordSideEffectFailure("notification")
			composables.UseLogger(ctx, d.logger).WithError(err).WithFields(logrus.Fields{
				"request_id": requestID,
				"user_id":    userID,
				"transition": transition,
			}).Error("failed to write notification")
			continue
		}
		notificationsSent.WithLabelValues(string(category)).Inc()
		written++
	}
	return written
}

func (d *NotificationDispatcher) render(r *request.Request, transition Transition) (notification.Category, string, string) {
	amount := d.FormatAmount(r)
	switch transition {
	case TransitionSubmitted, TransitionDirectorApproved:
		stage, _ := r.Status.Stage()
		return notification.CategoryValidationRequired,
			fmt.Sprintf("Request #%d awaits %s validation", r.ID, stage),
			fmt.Sprintf("%q (%s, %s) is waiting for your decision.", r.Title, r.Kind, amount)
	case TransitionFinanceApproved:
		return notification.CategoryApproved,
			fmt.Sprintf("Request #%d approved", r.ID),
			fmt.Sprintf("%q (%s) passed every validation stage.", r.Title, amount)
	case TransitionRejected:
		comment := ""
		if rd := rejectingDecision(r); rd != nil && rd.Comment != "" {
			comment = " Comment: " + rd.Comment
		}
		return notification.CategoryRejected,
			fmt.Sprintf("Request #%d rejected", r.ID),
			fmt.Sprintf("%q (%s) was rejected.%s", r.Title, amount, comment)
	case TransitionDirectApproved:
		return notification.CategoryDirectApproved,
			fmt.Sprintf("Request #%d created and approved", r.ID),
			fmt.Sprintf("%q (%s) was created and approved by an administrator.", r.Title, amount)
	default:
		return notification.Category(transition),
			fmt.Sprintf("Request #%d updated", r.ID),
			fmt.Sprintf("%q (%s) is now %s.", r.Title, amount, r.Status)
	}
}

// FormatAmount renders the request amount in the dispatcher's currency.
func (d *NotificationDispatcher) FormatAmount(r *request.Request) string {
	cur := money.GetCurrency(d.currency)
	if cur == nil {
		return r.Amount.StringFixed(2) + " " + d.currency
	}
	minor := r.Amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, d.currency).Display()
}

func rejectingDecision(r *request.Request) *request.StageDecision {
	for _, stage := range []request.Stage{request.StageFinance, request.StageDirector} {
		if d := r.DecisionFor(stage); d != nil && d.Decision == request.DecisionReject {
			return d
		}
	}
	return nil
}
