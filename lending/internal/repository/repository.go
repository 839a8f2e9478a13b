package repository

import (
	"context"
	"database/sql"

	"github.com/lendhub/lending-service/lending/internal/errs"
	"github.com/lendhub/lending-service/lending/internal/model"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CatalogRepository holds the book inventory. Reserve/release are the
// only paths that touch the available counter for in-flight loans.
type CatalogRepository interface {
	CreateBook(ctx context.Context, req model.CreateBookRequest) (model.Book, error)
	GetBook(ctx context.Context, id int64) (model.Book, error)
	ListBooks(ctx context.Context, query string, availableOnly bool) ([]model.Book, error)
	UpdateBook(ctx context.Context, id int64, req model.UpdateBookRequest) (model.Book, error)
	DeleteBook(ctx context.Context, id int64) error
	TryReserveCopy(ctx context.Context, id int64) error
	ReleaseCopy(ctx context.Context, id int64) error
}

type MemberRepository interface {
	CreateMember(ctx context.Context, req model.CreateMemberRequest) (model.Member, error)
	GetMember(ctx context.Context, id int64) (model.Member, error)
	ListMembers(ctx context.Context) ([]model.Member, error)
	UpdateMember(ctx context.Context, id int64, req model.UpdateMemberRequest) (model.Member, error)
	DeleteMember(ctx context.Context, id int64) error
	CountActiveLoans(ctx context.Context, memberID int64) (int, error)
}

// LoanRepository is the append/update-only loan ledger. CreateLoan
// re-checks the member limit under a row lock so concurrent issues
// for one member serialize; ReopenLoan exists solely as the
// compensation hook for a failed inventory release.
type LoanRepository interface {
	CreateLoan(ctx context.Context, bookID, memberID int64, issueDate, dueDate model.Date) (model.Loan, error)
	GetLoan(ctx context.Context, id int64) (model.Loan, error)
	UpdateOnReturn(ctx context.Context, id int64, returnDate model.Date, fineAmount decimal.Decimal) (model.Loan, error)
	ReopenLoan(ctx context.Context, id int64) error
	ListByStatus(ctx context.Context, status model.LoanStatus) ([]model.Loan, error)
	ListOverdue(ctx context.Context, asOf model.Date) ([]model.Loan, error)
	ListByMember(ctx context.Context, memberID int64, status *model.LoanStatus) ([]model.Loan, error)
	Stats(ctx context.Context, asOf model.Date) (model.DashboardStats, error)
}

type Repository interface {
	CatalogRepository
	MemberRepository
	LoanRepository
}

type repository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewRepository(db *sqlx.DB, log *zap.Logger) (*repository, error) {
	return &repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

const (
	booksTableName   = `books`
	membersTableName = `members`
	loansTableName   = `loans`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func (r *repository) CreateBook(ctx context.Context, req model.CreateBookRequest) (model.Book, error) {
	q, args, err := qb.Insert(booksTableName).
		Columns("isbn", "title", "author", "publisher", "quantity", "available").
		Values(req.ISBN, req.Title, req.Author, req.Publisher, req.Quantity, req.Quantity).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	var book model.Book
	if err := r.db.GetContext(ctx, &book, q, args...); err != nil {
		if isUniqueViolation(err) {
			return model.Book{}, errors.Wrapf(errs.ErrBookExists, "isbn %s", req.ISBN)
		}
		r.log.Error("CreateBook", zap.String("q", q), zap.Any("args", args))
		return model.Book{}, err
	}
	return book, nil
}

func (r *repository) GetBook(ctx context.Context, id int64) (model.Book, error) {
	q, args, err := qb.Select("*").
		From(booksTableName).
		Where(sq.Eq{"book_id": id}).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	var book model.Book
	if err := r.db.GetContext(ctx, &book, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrBookNotFound
		}
		return model.Book{}, err
	}
	return book, nil
}

func (r *repository) ListBooks(ctx context.Context, query string, availableOnly bool) ([]model.Book, error) {
	b := qb.Select("*").
		From(booksTableName).
		OrderBy("book_id")

	if query != "" {
		pattern := "%" + query + "%"
		b = b.Where(sq.Or{
			sq.ILike{"title": pattern},
			sq.ILike{"author": pattern},
			sq.ILike{"isbn": pattern},
		})
	}
	if availableOnly {
		b = b.Where(sq.Gt{"available": 0})
	}

	q, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	var books []model.Book
	if err := r.db.SelectContext(ctx, &books, q, args...); err != nil {
		return nil, err
	}
	return books, nil
}

// UpdateBook applies the quantity delta to available so copies out on
// loan stay accounted for; shrinking below the issued count is
// rejected.
func (r *repository) UpdateBook(ctx context.Context, id int64, req model.UpdateBookRequest) (model.Book, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Book{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var book model.Book
	if err = tx.GetContext(ctx, &book,
		`select * from books where book_id = $1 for update`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = errs.ErrBookNotFound
		}
		return model.Book{}, err
	}

	newAvailable := book.Available + (req.Quantity - book.Quantity)
	if newAvailable < 0 {
		err = errors.Wrapf(errs.ErrQuantityTooLow, "%d copies issued", book.Quantity-book.Available)
		return model.Book{}, err
	}

	var updated model.Book
	if err = tx.GetContext(ctx, &updated, `
	update books
	set isbn = $2, title = $3, author = $4, publisher = $5, quantity = $6, available = $7
	where book_id = $1
	returning *`,
		id, req.ISBN, req.Title, req.Author, req.Publisher, req.Quantity, newAvailable); err != nil {
		if isUniqueViolation(err) {
			err = errors.Wrapf(errs.ErrBookExists, "isbn %s", req.ISBN)
		}
		return model.Book{}, err
	}

	if err = tx.Commit(); err != nil {
		return model.Book{}, err
	}
	return updated, nil
}

func (r *repository) DeleteBook(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`delete from books where book_id = $1 and available = quantity`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists bool
		if err := r.db.GetContext(ctx, &exists,
			`select exists(select 1 from books where book_id = $1)`, id); err != nil {
			return err
		}
		if exists {
			return errs.ErrBookHasLoans
		}
		return errs.ErrBookNotFound
	}
	return nil
}

// TryReserveCopy is the single read-modify-write on available: the
// guard in the update makes two racers for the last copy resolve to
// exactly one success.
func (r *repository) TryReserveCopy(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`update books set available = available - 1 where book_id = $1 and available > 0`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists bool
		if err := r.db.GetContext(ctx, &exists,
			`select exists(select 1 from books where book_id = $1)`, id); err != nil {
			return err
		}
		if exists {
			return errs.ErrBookUnavailable
		}
		return errs.ErrBookNotFound
	}
	return nil
}

// ReleaseCopy increments available, clamped at quantity. A clamped
// call means a release without a matching reserve; the counter is
// left intact and the misuse reported.
func (r *repository) ReleaseCopy(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`update books set available = available + 1 where book_id = $1 and available < quantity`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists bool
		if err := r.db.GetContext(ctx, &exists,
			`select exists(select 1 from books where book_id = $1)`, id); err != nil {
			return err
		}
		if !exists {
			return errs.ErrBookNotFound
		}
		r.log.Warn("ReleaseCopy clamped", zap.Int64("bookID", id))
		return errs.ErrReleaseClamped
	}
	return nil
}

func (r *repository) CreateMember(ctx context.Context, req model.CreateMemberRequest) (model.Member, error) {
	q, args, err := qb.Insert(membersTableName).
		Columns("name", "email", "phone", "member_class").
		Values(req.Name, req.Email, req.Phone, req.Class).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.Member{}, err
	}
	var member model.Member
	if err := r.db.GetContext(ctx, &member, q, args...); err != nil {
		r.log.Error("CreateMember", zap.String("q", q), zap.Any("args", args))
		return model.Member{}, err
	}
	return member, nil
}

func (r *repository) GetMember(ctx context.Context, id int64) (model.Member, error) {
	q, args, err := qb.Select("*").
		From(membersTableName).
		Where(sq.Eq{"member_id": id}).
		ToSql()
	if err != nil {
		return model.Member{}, err
	}
	var member model.Member
	if err := r.db.GetContext(ctx, &member, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Member{}, errs.ErrMemberNotFound
		}
		return model.Member{}, err
	}
	return member, nil
}

func (r *repository) ListMembers(ctx context.Context) ([]model.Member, error) {
	q, args, err := qb.Select("*").
		From(membersTableName).
		OrderBy("member_id").
		ToSql()
	if err != nil {
		return nil, err
	}
	var members []model.Member
	if err := r.db.SelectContext(ctx, &members, q, args...); err != nil {
		return nil, err
	}
	return members, nil
}

func (r *repository) UpdateMember(ctx context.Context, id int64, req model.UpdateMemberRequest) (model.Member, error) {
	q, args, err := qb.Update(membersTableName).
		Set("name", req.Name).
		Set("email", req.Email).
		Set("phone", req.Phone).
		Set("member_class", req.Class).
		Where(sq.Eq{"member_id": id}).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.Member{}, err
	}
	var member model.Member
	if err := r.db.GetContext(ctx, &member, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Member{}, errs.ErrMemberNotFound
		}
		return model.Member{}, err
	}
	return member, nil
}

func (r *repository) DeleteMember(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `
	delete from members
	where member_id = $1
	  and not exists(select 1 from loans where member_id = $1 and status = 'ISSUED')`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists bool
		if err := r.db.GetContext(ctx, &exists,
			`select exists(select 1 from members where member_id = $1)`, id); err != nil {
			return err
		}
		if exists {
			return errs.ErrMemberHasLoans
		}
		return errs.ErrMemberNotFound
	}
	return nil
}

func (r *repository) CountActiveLoans(ctx context.Context, memberID int64) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count,
		`select count(*) from loans where member_id = $1 and status = 'ISSUED'`, memberID); err != nil {
		return 0, err
	}
	return count, nil
}
