package main

import (
	"errors"
	"testing"
	"time"

	"github.com/iota-uz/approvals/modules/requests/domain/aggregates/request"
	"github.com/iota-uz/approvals/modules/requests/services"
)

func TestParseClassifications(t *testing.T) {
	got, err := parseClassifications([]string{"budget_type=opex", " channel = social "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["budget_type"] != "opex" || got["channel"] != "social" || len(got) != 2 {
		t.Fatalf("unexpected classifications: %v", got)
	}

	for _, bad := range [][]string{{"opex"}, {"=opex"}, {"budget_type="}, {"a=1", "a=2"}} {
		if _, err := parseClassifications(bad); err == nil {
			t.Fatalf("expected error for %v", bad)
		}
	}

	none, err := parseClassifications(nil)
	if err != nil || none != nil {
		t.Fatalf("expected nil map, got %v (%v)", none, err)
	}
}

func TestPayloadFlags(t *testing.T) {
	flags := payloadFlags{
		kind:         "budget",
		title:        "Trade fair",
		amount:       "1500.50",
		eventDate:    "2026-03-14",
		urgency:      "urgent",
		classes:      []string{"budget_type=opex"},
		participants: []int64{1, 3},
	}
	p, err := flags.payload()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Kind != request.KindBudget || p.Urgency != request.UrgencyUrgent {
		t.Fatalf("unexpected kind/urgency: %s/%s", p.Kind, p.Urgency)
	}
	if p.Amount.String() != "1500.5" {
		t.Fatalf("unexpected amount: %s", p.Amount)
	}
	if !p.EventDate.Equal(time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected event date: %s", p.EventDate)
	}

	flags.amount = "lots"
	if _, err := flags.payload(); err == nil {
		t.Fatal("expected amount error")
	}
	flags.amount = ""
	flags.eventDate = "14/03/2026"
	if _, err := flags.payload(); err == nil {
		t.Fatal("expected event date error")
	}
}

func TestExitCodes(t *testing.T) {
	cases := map[services.ErrorKind]int{
		services.KindValidationFailed:   exitValidation,
		services.KindPermissionDenied:   exitDenied,
		services.KindInvalidTransition:  exitTransition,
		services.KindNotFound:           exitNotFound,
		services.KindPersistenceFailure: exitDB,
	}
	for kind, want := range cases {
		if got := codeFor(kind); got != want {
			t.Fatalf("codeFor(%s) = %d, want %d", kind, got, want)
		}
	}

	if got := exitCode(nil); got != exitOK {
		t.Fatalf("exitCode(nil) = %d", got)
	}
	if got := exitCode(errors.New("boom")); got != 1 {
		t.Fatalf("exitCode(plain) = %d", got)
	}
	if got := exitCode(withCode(exitUsage, errors.New("bad flag"))); got != exitUsage {
		t.Fatalf("exitCode(usage) = %d", got)
	}
}

func TestParseRequestID(t *testing.T) {
	if id, err := parseRequestID("42"); err != nil || id != 42 {
		t.Fatalf("unexpected: %d %v", id, err)
	}
	for _, bad := range []string{"0", "-3", "abc"} {
		if _, err := parseRequestID(bad); exitCode(err) != exitUsage {
			t.Fatalf("expected usage error for %q", bad)
		}
	}
}

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"migrate", "user", "options", "draft", "submit", "validate", "direct", "show", "dashboard", "deps", "purge"} {
		sub, _, err := root.Find([]string{name})
		if err != nil || sub == root {
			t.Fatalf("missing subcommand %s", name)
		}
	}
}
