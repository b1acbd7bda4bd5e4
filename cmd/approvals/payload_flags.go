package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"

	"github.com/iota-uz/approvals/modules/requests/domain/aggregates/request"
)

const eventDateLayout = "2006-01-02"

type payloadFlags struct {
	kind         string
	title        string
	counterpart  string
	location     string
	comment      string
	amount       string
	eventDate    string
	urgency      string
	fiscalPeriod string
	classes      []string
	participants []int64
}

func (p *payloadFlags) bind(fs *pflag.FlagSet) {
	fs.StringVar(&p.kind, "kind", "", "Request kind (budget|marketing)")
	fs.StringVar(&p.title, "title", "", "Short title")
	fs.StringVar(&p.counterpart, "counterpart", "", "Supplier or counterparty")
	fs.StringVar(&p.location, "location", "", "Event location")
	fs.StringVar(&p.comment, "comment", "", "Free-text comment")
	fs.StringVar(&p.amount, "amount", "", "Requested amount, e.g. 1500.00")
	fs.StringVar(&p.eventDate, "event-date", "", "Event date (YYYY-MM-DD)")
	fs.StringVar(&p.urgency, "urgency", string(request.UrgencyNormal), "normal|urgent|critical")
	fs.StringVar(&p.fiscalPeriod, "fiscal-period", "", "Fiscal period; defaults to the first active one")
	fs.StringArrayVar(&p.classes, "class", nil, "Classification category=value (repeatable)")
	fs.Int64SliceVar(&p.participants, "participant", nil, "Participant user id (repeatable)")
}

func (p *payloadFlags) payload() (request.Payload, error) {
	out := request.Payload{
		Kind:         request.Kind(p.kind),
		Title:        p.title,
		Counterpart:  p.counterpart,
		Location:     p.location,
		Comment:      p.comment,
		Urgency:      request.Urgency(p.urgency),
		FiscalPeriod: p.fiscalPeriod,
		Participants: p.participants,
	}
	if strings.TrimSpace(p.amount) != "" {
		amount, err := decimal.NewFromString(strings.TrimSpace(p.amount))
		if err != nil {
			return request.Payload{}, fmt.Errorf("invalid --amount %q: %w", p.amount, err)
		}
		out.Amount = amount
	}
	if strings.TrimSpace(p.eventDate) != "" {
		d, err := time.Parse(eventDateLayout, strings.TrimSpace(p.eventDate))
		if err != nil {
			return request.Payload{}, fmt.Errorf("invalid --event-date %q (expected YYYY-MM-DD)", p.eventDate)
		}
		out.EventDate = d
	}
	classes, err := parseClassifications(p.classes)
	if err != nil {
		return request.Payload{}, err
	}
	out.Classifications = classes
	return out, nil
}

func parseClassifications(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !ok || k == "" || v == "" {
			return nil, fmt.Errorf("invalid --class %q (expected category=value)", pair)
		}
		if _, dup := out[k]; dup {
			return nil, fmt.Errorf("--class %s given twice", k)
		}
		out[k] = v
	}
	return out, nil
}
