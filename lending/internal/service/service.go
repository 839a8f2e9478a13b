package service

import (
	"context"

	"github.com/lendhub/lending-service/lending/internal/errs"
	"github.com/lendhub/lending-service/lending/internal/model"
	"github.com/lendhub/lending-service/lending/internal/repository"
	"github.com/lendhub/lending-service/pkg/kafka"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Enqueuer publishes loan lifecycle events. Publishing is
// best-effort: the ledger row is the source of truth and a broker
// outage must not fail a lending operation.
type Enqueuer interface {
	Enqueue(topic string, v any) error
}

type Service struct {
	log     *zap.Logger
	catalog repository.CatalogRepository
	members repository.MemberRepository
	loans   repository.LoanRepository

	events     Enqueuer
	finePerDay decimal.Decimal
}

func NewService(
	catalog repository.CatalogRepository,
	members repository.MemberRepository,
	loans repository.LoanRepository,
	events Enqueuer,
	finePerDay decimal.Decimal,
	log *zap.Logger,
) *Service {
	return &Service{
		log:        log,
		catalog:    catalog,
		members:    members,
		loans:      loans,
		events:     events,
		finePerDay: finePerDay,
	}
}

// IssueLoan checks book, member, availability and the member's class
// limit in that order, then reserves a copy and creates the ledger
// record. A failed create rolls the reservation back so no copy
// leaks out of inventory.
func (s *Service) IssueLoan(ctx context.Context, bookID, memberID int64, today model.Date) (model.Loan, error) {
	book, err := s.catalog.GetBook(ctx, bookID)
	if err != nil {
		return model.Loan{}, err
	}
	member, err := s.members.GetMember(ctx, memberID)
	if err != nil {
		return model.Loan{}, err
	}
	if book.Available <= 0 {
		return model.Loan{}, errors.Wrapf(errs.ErrBookUnavailable,
			"book %q is not available for lending", book.Title)
	}
	active, err := s.members.CountActiveLoans(ctx, memberID)
	if err != nil {
		return model.Loan{}, err
	}
	if limit := member.Class.MaxActiveLoans(); active >= limit {
		return model.Loan{}, errors.Wrapf(errs.ErrLoanLimitExceeded,
			"member has reached the maximum number of borrowed books (%d for %s)", limit, member.Class)
	}

	if err := s.catalog.TryReserveCopy(ctx, bookID); err != nil {
		return model.Loan{}, err
	}

	dueDate := today.AddDays(member.Class.LoanPeriodDays())
	loan, err := s.loans.CreateLoan(ctx, bookID, memberID, today, dueDate)
	if err != nil {
		if rbErr := s.catalog.ReleaseCopy(ctx, bookID); rbErr != nil {
			s.log.Error("IssueLoan: reservation rollback failed",
				zap.Int64("bookID", bookID), zap.Error(rbErr))
		}
		return model.Loan{}, err
	}

	s.publish(kafka.EventLoanIssued, loan, nil)
	return loan, nil
}

// ReturnLoan computes the fine from today and the due date, flips the
// loan to RETURNED and releases the copy. A failed release reopens
// the loan so no partial state remains observable.
func (s *Service) ReturnLoan(ctx context.Context, loanID int64, today model.Date) (model.ReturnLoanResponse, error) {
	loan, err := s.loans.GetLoan(ctx, loanID)
	if err != nil {
		return model.ReturnLoanResponse{}, err
	}
	if loan.Status == model.StatusReturned {
		return model.ReturnLoanResponse{}, errors.Wrap(errs.ErrAlreadyReturned,
			"this book has already been returned")
	}

	overdueDays := OverdueDaysAt(loan.DueDate, today)
	fineAmount := Fine(overdueDays, s.finePerDay)

	updated, err := s.loans.UpdateOnReturn(ctx, loanID, today, fineAmount)
	if err != nil {
		return model.ReturnLoanResponse{}, err
	}

	if err := s.catalog.ReleaseCopy(ctx, loan.BookID); err != nil {
		if errors.Is(err, errs.ErrReleaseClamped) {
			// counter already at quantity; the return itself stands
			s.log.Warn("ReturnLoan: release clamped", zap.Int64("bookID", loan.BookID))
		} else {
			if rbErr := s.loans.ReopenLoan(ctx, loanID); rbErr != nil {
				s.log.Error("ReturnLoan: reopen compensation failed",
					zap.Int64("loanID", loanID), zap.Error(rbErr))
			}
			return model.ReturnLoanResponse{}, err
		}
	}

	s.publish(kafka.EventLoanReturned, updated, &fineAmount)

	return model.ReturnLoanResponse{
		Loan:        updated,
		FineAmount:  fineAmount,
		OverdueDays: overdueDays,
	}, nil
}

func (s *Service) GetLoan(ctx context.Context, loanID int64) (model.Loan, error) {
	return s.loans.GetLoan(ctx, loanID)
}

func (s *Service) ListLoans(ctx context.Context, status *model.LoanStatus) ([]model.Loan, error) {
	if status == nil {
		issued, err := s.loans.ListByStatus(ctx, model.StatusIssued)
		if err != nil {
			return nil, err
		}
		returned, err := s.loans.ListByStatus(ctx, model.StatusReturned)
		if err != nil {
			return nil, err
		}
		return append(issued, returned...), nil
	}
	return s.loans.ListByStatus(ctx, *status)
}

func (s *Service) ListActiveLoans(ctx context.Context) ([]model.Loan, error) {
	return s.loans.ListByStatus(ctx, model.StatusIssued)
}

func (s *Service) ListOverdueLoans(ctx context.Context, today model.Date) ([]model.Loan, error) {
	return s.loans.ListOverdue(ctx, today)
}

func (s *Service) CountActiveLoansForMember(ctx context.Context, memberID int64) (int, error) {
	if _, err := s.members.GetMember(ctx, memberID); err != nil {
		return 0, err
	}
	return s.members.CountActiveLoans(ctx, memberID)
}

func (s *Service) ListMemberLoans(ctx context.Context, memberID int64, status *model.LoanStatus) ([]model.Loan, error) {
	if _, err := s.members.GetMember(ctx, memberID); err != nil {
		return nil, err
	}
	return s.loans.ListByMember(ctx, memberID, status)
}

func (s *Service) Stats(ctx context.Context, today model.Date) (model.DashboardStats, error) {
	return s.loans.Stats(ctx, today)
}

func (s *Service) publish(event string, loan model.Loan, fine *decimal.Decimal) {
	if s.events == nil {
		return
	}
	msg := kafka.LoanEvent{
		Event:      event,
		LoanID:     loan.ID,
		BookID:     loan.BookID,
		MemberID:   loan.MemberID,
		Date:       loan.IssueDate.Time,
		FineAmount: fine,
	}
	if loan.ReturnDate != nil {
		msg.Date = loan.ReturnDate.Time
	}
	if err := s.events.Enqueue(kafka.LoanTopic, msg); err != nil {
		s.log.Warn("publish loan event", zap.String("event", event),
			zap.Int64("loanID", loan.ID), zap.Error(err))
	}
}
