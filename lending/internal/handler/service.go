package handler

import (
	"context"

	"github.com/lendhub/lending-service/lending/internal/model"
	"github.com/lendhub/lending-service/lending/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

var _ LendingService = (*service.Service)(nil)

type LendingService interface {
	IssueLoan(ctx context.Context, bookID, memberID int64, today model.Date) (model.Loan, error)
	ReturnLoan(ctx context.Context, loanID int64, today model.Date) (model.ReturnLoanResponse, error)
	GetLoan(ctx context.Context, loanID int64) (model.Loan, error)
	ListLoans(ctx context.Context, status *model.LoanStatus) ([]model.Loan, error)
	ListOverdueLoans(ctx context.Context, today model.Date) ([]model.Loan, error)
	CountActiveLoansForMember(ctx context.Context, memberID int64) (int, error)
	ListMemberLoans(ctx context.Context, memberID int64, status *model.LoanStatus) ([]model.Loan, error)
	Stats(ctx context.Context, today model.Date) (model.DashboardStats, error)

	CreateBook(ctx context.Context, req model.CreateBookRequest) (model.Book, error)
	GetBook(ctx context.Context, id int64) (model.Book, error)
	ListBooks(ctx context.Context, query string, availableOnly bool) ([]model.Book, error)
	UpdateBook(ctx context.Context, id int64, req model.UpdateBookRequest) (model.Book, error)
	DeleteBook(ctx context.Context, id int64) error

	CreateMember(ctx context.Context, req model.CreateMemberRequest) (model.Member, error)
	GetMember(ctx context.Context, id int64) (model.Member, error)
	ListMembers(ctx context.Context) ([]model.Member, error)
	UpdateMember(ctx context.Context, id int64, req model.UpdateMemberRequest) (model.Member, error)
	DeleteMember(ctx context.Context, id int64) error
}
