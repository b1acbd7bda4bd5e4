package models

import "time"

type Request struct {
	ID                  int64
	Kind                string
	Title               string
	Counterpart         string
	Location            string
	Comment             string
	Amount              string
	EventDate           time.Time
	Urgency             string
	Classifications     []byte
	FiscalPeriod        string
	OwnerID             int64
	CreatedBy           int64
	Status              string
	DirectorValidatorID *int64
	DirectorDecision    *string
	DirectorComment     *string
	DirectorDecidedAt   *time.Time
	FinanceValidatorID  *int64
	FinanceDecision     *string
	FinanceComment      *string
	FinanceDecidedAt    *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
	Participants        []int64
}

type Validation struct {
	ID          int64
	RequestID   int64
	ValidatorID int64
	Stage       string
	Decision    string
	Comment     string
	CreatedAt   time.Time
}

type Notification struct {
	ID        int64
	UserID    int64
	RequestID *int64
	Category  string
	Title     string
	Body      string
	Read      bool
	CreatedAt time.Time
}

type AuditEntry struct {
	ID        int64
	ActorID   int64
	RequestID *int64
	Action    string
	Detail    string
	CreatedAt time.Time
}

type User struct {
	ID        int64
	Name      string
	Email     string
	Role      string
	ManagerID *int64
	Region    string
	Active    bool
}

type Option struct {
	Category string
	Value    string
	Label    string
	Position int
	Active   bool
}
