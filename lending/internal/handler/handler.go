package handler

import (
	"net/http"
	"strconv"
	"time"

	md "github.com/lendhub/lending-service/pkg/middleware"
	"github.com/lendhub/lending-service/pkg/validate"

	"github.com/lendhub/lending-service/lending/internal/errs"
	"github.com/lendhub/lending-service/lending/internal/model"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Handler struct {
	lendingSvc LendingService
	log        *zap.Logger
}

func New(lendingSvc LendingService, log *zap.Logger) *Handler {
	return &Handler{
		lendingSvc: lendingSvc,
		log:        log,
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig()),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
	)

	api.POST("/books", h.CreateBook)
	api.GET("/books", h.GetBooks)
	api.GET("/books/:id", h.GetBook)
	api.PUT("/books/:id", h.UpdateBook)
	api.DELETE("/books/:id", h.DeleteBook)

	api.POST("/members", h.CreateMember)
	api.GET("/members", h.GetMembers)
	api.GET("/members/:id", h.GetMember)
	api.PUT("/members/:id", h.UpdateMember)
	api.DELETE("/members/:id", h.DeleteMember)
	api.GET("/members/:id/loans", h.GetMemberLoans)
	api.GET("/members/:id/loans/count", h.CountMemberActiveLoans)

	api.POST("/loans", h.IssueLoan)
	api.POST("/loans/:id/return", h.ReturnLoan)
	api.GET("/loans", h.GetLoans)
	api.GET("/loans/overdue", h.GetOverdueLoans)
	api.GET("/loans/:id", h.GetLoan)

	api.GET("/stats", h.Stats)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// today is supplied here, not inside the engine, so the engine stays
// deterministic under test.
func today() model.Date {
	return model.DateOf(time.Now().UTC())
}

func paramID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Errorf("%s is invalid", name)
	}
	return id, nil
}

// httpError maps error kinds to status codes: missing identities to
// 404, violated business rules to 409, the rest to 500.
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, errs.ErrBookNotFound),
		errors.Is(err, errs.ErrMemberNotFound),
		errors.Is(err, errs.ErrLoanNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, errs.ErrBookUnavailable),
		errors.Is(err, errs.ErrLoanLimitExceeded),
		errors.Is(err, errs.ErrAlreadyReturned),
		errors.Is(err, errs.ErrBookExists),
		errors.Is(err, errs.ErrBookHasLoans),
		errors.Is(err, errs.ErrMemberHasLoans),
		errors.Is(err, errs.ErrQuantityTooLow):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) IssueLoan(c echo.Context) error {
	var req model.IssueLoanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	loan, err := h.lendingSvc.IssueLoan(c.Request().Context(), req.BookID, req.MemberID, today())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, loan)
}

func (h *Handler) ReturnLoan(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	resp, err := h.lendingSvc.ReturnLoan(c.Request().Context(), id, today())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetLoan(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	loan, err := h.lendingSvc.GetLoan(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, loan)
}

func loanStatusParam(c echo.Context) (*model.LoanStatus, error) {
	statusParam := c.QueryParam("status")
	if statusParam == "" {
		return nil, nil
	}
	status := model.LoanStatus(statusParam)
	if status != model.StatusIssued && status != model.StatusReturned {
		return nil, errors.New("status is invalid")
	}
	return &status, nil
}

func (h *Handler) GetLoans(c echo.Context) error {
	status, err := loanStatusParam(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	loans, err := h.lendingSvc.ListLoans(c.Request().Context(), status)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, loans)
}

func (h *Handler) GetOverdueLoans(c echo.Context) error {
	loans, err := h.lendingSvc.ListOverdueLoans(c.Request().Context(), today())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, loans)
}

func (h *Handler) Stats(c echo.Context) error {
	stats, err := h.lendingSvc.Stats(c.Request().Context(), today())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, stats)
}
