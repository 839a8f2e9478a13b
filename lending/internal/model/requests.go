package model

import (
	"github.com/shopspring/decimal"
)

type CreateBookRequest struct {
	ISBN      string `json:"isbn" validate:"required,max=20"`
	Title     string `json:"title" validate:"required"`
	Author    string `json:"author"`
	Publisher string `json:"publisher"`
	Quantity  int    `json:"quantity" validate:"gte=0"`
}

type UpdateBookRequest struct {
	ISBN      string `json:"isbn" validate:"required,max=20"`
	Title     string `json:"title" validate:"required"`
	Author    string `json:"author"`
	Publisher string `json:"publisher"`
	Quantity  int    `json:"quantity" validate:"gte=0"`
}

type CreateMemberRequest struct {
	Name  string      `json:"name" validate:"required"`
	Email string      `json:"email" validate:"omitempty,email"`
	Phone string      `json:"phone"`
	Class MemberClass `json:"memberClass" validate:"required,oneof=STUDENT FACULTY"`
}

type UpdateMemberRequest struct {
	Name  string      `json:"name" validate:"required"`
	Email string      `json:"email" validate:"omitempty,email"`
	Phone string      `json:"phone"`
	Class MemberClass `json:"memberClass" validate:"required,oneof=STUDENT FACULTY"`
}

type IssueLoanRequest struct {
	BookID   int64 `json:"bookId" validate:"required,gt=0"`
	MemberID int64 `json:"memberId" validate:"required,gt=0"`
}

// ReturnLoanResponse carries the computed fine and overdue-day count
// alongside the updated loan for receipt display.
type ReturnLoanResponse struct {
	Loan        Loan            `json:"loan"`
	FineAmount  decimal.Decimal `json:"fineAmount"`
	OverdueDays int             `json:"overdueDays"`
}

type DashboardStats struct {
	TotalBooks     int             `json:"totalBooks" db:"total_books"`
	TotalMembers   int             `json:"totalMembers" db:"total_members"`
	ActiveLoans    int             `json:"activeLoans" db:"active_loans"`
	OverdueLoans   int             `json:"overdueLoans" db:"overdue_loans"`
	FinesCollected decimal.Decimal `json:"finesCollected" db:"fines_collected"`
}
