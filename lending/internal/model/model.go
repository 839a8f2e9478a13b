package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// MemberClass is a closed set; each class carries its lending policy.
type MemberClass string

const (
	ClassStudent MemberClass = "STUDENT"
	ClassFaculty MemberClass = "FACULTY"
)

func (c MemberClass) Valid() bool {
	return c == ClassStudent || c == ClassFaculty
}

// MaxActiveLoans is the borrowing limit for the class.
func (c MemberClass) MaxActiveLoans() int {
	if c == ClassFaculty {
		return 10
	}
	return 5
}

// LoanPeriodDays is how long a copy may be kept before it is overdue.
func (c MemberClass) LoanPeriodDays() int {
	if c == ClassFaculty {
		return 30
	}
	return 14
}

type LoanStatus string

const (
	StatusIssued   LoanStatus = "ISSUED"
	StatusReturned LoanStatus = "RETURNED"
)

// Date is a calendar date with no time-of-day component. It marshals
// as YYYY-MM-DD and scans from a DATE column.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

func (d Date) AddDays(days int) Date {
	return Date{Time: d.Time.AddDate(0, 0, days)}
}

func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

// DaysBetween counts calendar days from d to other; negative if other
// precedes d.
func (d Date) DaysBetween(other Date) int {
	return int(other.Time.Sub(d.Time) / (24 * time.Hour))
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`null`), nil
	}
	return json.Marshal(d.Format(time.DateOnly))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*d = DateOf(v.UTC())
		return nil
	case nil:
		*d = Date{}
		return nil
	default:
		return errors.Errorf("cannot scan %T into Date", src)
	}
}

func (d Date) Value() (driver.Value, error) {
	return d.Time, nil
}

type Book struct {
	ID        int64     `json:"id" db:"book_id"`
	ISBN      string    `json:"isbn" db:"isbn"`
	Title     string    `json:"title" db:"title"`
	Author    string    `json:"author" db:"author"`
	Publisher string    `json:"publisher" db:"publisher"`
	Quantity  int       `json:"quantity" db:"quantity"`
	Available int       `json:"available" db:"available"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type Member struct {
	ID        int64       `json:"id" db:"member_id"`
	Name      string      `json:"name" db:"name"`
	Email     string      `json:"email" db:"email"`
	Phone     string      `json:"phone" db:"phone"`
	Class     MemberClass `json:"memberClass" db:"member_class"`
	CreatedAt time.Time   `json:"createdAt" db:"created_at"`
}

type Loan struct {
	ID         int64           `json:"id" db:"loan_id"`
	LoanUid    string          `json:"loanUid" db:"loan_uid"`
	BookID     int64           `json:"bookId" db:"book_id"`
	MemberID   int64           `json:"memberId" db:"member_id"`
	IssueDate  Date            `json:"issueDate" db:"issue_date"`
	DueDate    Date            `json:"dueDate" db:"due_date"`
	ReturnDate *Date           `json:"returnDate" db:"return_date"`
	FineAmount decimal.Decimal `json:"fineAmount" db:"fine_amount"`
	Status     LoanStatus      `json:"status" db:"status"`
	CreatedAt  time.Time       `json:"createdAt" db:"created_at"`
}

// IsOverdue reports whether the loan is past due as of the given date.
// A loan due today is not yet overdue; returned loans never are.
func (l Loan) IsOverdue(asOf Date) bool {
	return l.Status == StatusIssued && asOf.After(l.DueDate)
}

// OverdueDays counts whole calendar days past the due date, against
// the return date when one is set, otherwise against asOf.
func (l Loan) OverdueDays(asOf Date) int {
	if !l.IsOverdue(asOf) {
		return 0
	}
	compare := asOf
	if l.ReturnDate != nil {
		compare = *l.ReturnDate
	}
	days := l.DueDate.DaysBetween(compare)
	if days < 0 {
		return 0
	}
	return days
}
