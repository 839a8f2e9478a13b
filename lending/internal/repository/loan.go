package repository

import (
	"context"
	"database/sql"

	"github.com/lendhub/lending-service/lending/internal/errs"
	"github.com/lendhub/lending-service/lending/internal/model"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateLoan locks the member row for the duration of the
// count-then-insert so two concurrent issues for the same member
// cannot both pass the limit check.
func (r *repository) CreateLoan(ctx context.Context, bookID, memberID int64, issueDate, dueDate model.Date) (model.Loan, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Loan{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var class model.MemberClass
	if err = tx.GetContext(ctx, &class,
		`select member_class from members where member_id = $1 for update`, memberID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = errs.ErrMemberNotFound
		}
		return model.Loan{}, err
	}

	var active int
	if err = tx.GetContext(ctx, &active,
		`select count(*) from loans where member_id = $1 and status = 'ISSUED'`, memberID); err != nil {
		return model.Loan{}, err
	}
	if limit := class.MaxActiveLoans(); active >= limit {
		err = errors.Wrapf(errs.ErrLoanLimitExceeded,
			"member has reached the maximum number of borrowed books (%d for %s)", limit, class)
		return model.Loan{}, err
	}

	q, args, qerr := qb.Insert(loansTableName).
		Columns("loan_uid", "book_id", "member_id", "issue_date", "due_date", "status", "fine_amount").
		Values(uuid.New(), bookID, memberID, issueDate, dueDate, model.StatusIssued, decimal.Zero).
		Suffix("returning *").
		ToSql()
	if qerr != nil {
		err = qerr
		return model.Loan{}, err
	}
	var loan model.Loan
	if err = tx.GetContext(ctx, &loan, q, args...); err != nil {
		r.log.Error("CreateLoan", zap.String("q", q), zap.Any("args", args))
		return model.Loan{}, err
	}

	if err = tx.Commit(); err != nil {
		return model.Loan{}, err
	}
	return loan, nil
}

func (r *repository) GetLoan(ctx context.Context, id int64) (model.Loan, error) {
	q, args, err := qb.Select("*").
		From(loansTableName).
		Where(sq.Eq{"loan_id": id}).
		ToSql()
	if err != nil {
		return model.Loan{}, err
	}
	var loan model.Loan
	if err := r.db.GetContext(ctx, &loan, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Loan{}, errs.ErrLoanNotFound
		}
		return model.Loan{}, err
	}
	return loan, nil
}

// UpdateOnReturn flips the loan to RETURNED exactly once; the status
// guard in the where clause makes a second return lose the race.
func (r *repository) UpdateOnReturn(ctx context.Context, id int64, returnDate model.Date, fineAmount decimal.Decimal) (model.Loan, error) {
	var loan model.Loan
	err := r.db.GetContext(ctx, &loan, `
	update loans
	set return_date = $2, fine_amount = $3, status = 'RETURNED'
	where loan_id = $1 and status = 'ISSUED'
	returning *`, id, returnDate, fineAmount)
	if err == nil {
		return loan, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.Loan{}, err
	}

	var exists bool
	if err := r.db.GetContext(ctx, &exists,
		`select exists(select 1 from loans where loan_id = $1)`, id); err != nil {
		return model.Loan{}, err
	}
	if exists {
		return model.Loan{}, errs.ErrAlreadyReturned
	}
	return model.Loan{}, errs.ErrLoanNotFound
}

// ReopenLoan undoes UpdateOnReturn. Compensation only: used when the
// inventory release fails after the loan row was already flipped.
func (r *repository) ReopenLoan(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `
	update loans
	set return_date = null, fine_amount = 0, status = 'ISSUED'
	where loan_id = $1 and status = 'RETURNED'`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.ErrLoanNotFound
	}
	return nil
}

func (r *repository) ListByStatus(ctx context.Context, status model.LoanStatus) ([]model.Loan, error) {
	q, args, err := qb.Select("*").
		From(loansTableName).
		Where(sq.Eq{"status": status}).
		OrderBy("loan_id").
		ToSql()
	if err != nil {
		return nil, err
	}
	var loans []model.Loan
	if err := r.db.SelectContext(ctx, &loans, q, args...); err != nil {
		return nil, err
	}
	return loans, nil
}

func (r *repository) ListOverdue(ctx context.Context, asOf model.Date) ([]model.Loan, error) {
	q, args, err := qb.Select("*").
		From(loansTableName).
		Where(sq.Eq{"status": model.StatusIssued}).
		Where(sq.Lt{"due_date": asOf}).
		OrderBy("due_date").
		ToSql()
	if err != nil {
		return nil, err
	}
	var loans []model.Loan
	if err := r.db.SelectContext(ctx, &loans, q, args...); err != nil {
		return nil, err
	}
	return loans, nil
}

func (r *repository) ListByMember(ctx context.Context, memberID int64, status *model.LoanStatus) ([]model.Loan, error) {
	b := qb.Select("*").
		From(loansTableName).
		Where(sq.Eq{"member_id": memberID}).
		OrderBy("loan_id")
	if status != nil {
		b = b.Where(sq.Eq{"status": *status})
	}
	q, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	var loans []model.Loan
	if err := r.db.SelectContext(ctx, &loans, q, args...); err != nil {
		return nil, err
	}
	return loans, nil
}

func (r *repository) Stats(ctx context.Context, asOf model.Date) (model.DashboardStats, error) {
	var stats model.DashboardStats
	err := r.db.GetContext(ctx, &stats, `
	select
		(select count(*) from books)                                                  as total_books,
		(select count(*) from members)                                                as total_members,
		(select count(*) from loans where status = 'ISSUED')                          as active_loans,
		(select count(*) from loans where status = 'ISSUED' and due_date < $1)        as overdue_loans,
		(select coalesce(sum(fine_amount), 0) from loans where status = 'RETURNED')   as fines_collected`,
		asOf)
	if err != nil {
		return model.DashboardStats{}, err
	}
	return stats, nil
}
