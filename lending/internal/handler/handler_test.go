package handler_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lendhub/lending-service/lending/internal/errs"
	"github.com/lendhub/lending-service/lending/internal/handler"
	"github.com/lendhub/lending-service/lending/internal/model"

	"github.com/golang/mock/gomock"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	service_mocks "github.com/lendhub/lending-service/lending/internal/handler/mocks"
)

func TestHandler_IssueLoan(t *testing.T) {
	t.Parallel()
	type input struct {
		body string
	}
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockLendingService)

	issuedLoan := model.Loan{
		ID:        7,
		LoanUid:   "9a8e2a0c-3f64-4fd3-9e0c-2f4cf7a0f9d1",
		BookID:    1,
		MemberID:  10,
		IssueDate: model.NewDate(2024, time.March, 1),
		DueDate:   model.NewDate(2024, time.March, 15),
		Status:    model.StatusIssued,
	}

	var tests = []struct {
		name         string
		mockBehavior mockBehavior
		input        input
		response     response
		wantErr      bool
	}{
		{
			name: "ok",
			mockBehavior: func(r *service_mocks.MockLendingService) {
				r.EXPECT().
					IssueLoan(gomock.Any(), int64(1), int64(10), gomock.Any()).
					Return(issuedLoan, nil)
			},
			input: input{body: `{"bookId":1,"memberId":10}`},
			response: response{
				expectedCode: http.StatusCreated,
				expectedBody: `{"id":7,"loanUid":"9a8e2a0c-3f64-4fd3-9e0c-2f4cf7a0f9d1","bookId":1,"memberId":10,"issueDate":"2024-03-01","dueDate":"2024-03-15","returnDate":null,"fineAmount":"0","status":"ISSUED","createdAt":"0001-01-01T00:00:00Z"}`,
			},
		},
		{
			name:         "err. missing ids",
			mockBehavior: func(r *service_mocks.MockLendingService) {},
			input:        input{body: `{"bookId":1}`},
			response: response{
				expectedCode: http.StatusBadRequest,
			},
			wantErr: true,
		},
		{
			name: "err. limit exceeded",
			mockBehavior: func(r *service_mocks.MockLendingService) {
				r.EXPECT().
					IssueLoan(gomock.Any(), int64(1), int64(10), gomock.Any()).
					Return(model.Loan{}, errors.Wrap(errs.ErrLoanLimitExceeded,
						"member has reached the maximum number of borrowed books (5 for STUDENT)"))
			},
			input: input{body: `{"bookId":1,"memberId":10}`},
			response: response{
				expectedCode: http.StatusConflict,
				expectedBody: `{"message":"member has reached the maximum number of borrowed books (5 for STUDENT): loan limit exceeded"}`,
			},
			wantErr: true,
		},
		{
			name: "err. no copies",
			mockBehavior: func(r *service_mocks.MockLendingService) {
				r.EXPECT().
					IssueLoan(gomock.Any(), int64(1), int64(10), gomock.Any()).
					Return(model.Loan{}, errs.ErrBookUnavailable)
			},
			input: input{body: `{"bookId":1,"memberId":10}`},
			response: response{
				expectedCode: http.StatusConflict,
				expectedBody: `{"message":"no available copies"}`,
			},
			wantErr: true,
		},
		{
			name: "err. member gone",
			mockBehavior: func(r *service_mocks.MockLendingService) {
				r.EXPECT().
					IssueLoan(gomock.Any(), int64(1), int64(10), gomock.Any()).
					Return(model.Loan{}, errs.ErrMemberNotFound)
			},
			input: input{body: `{"bookId":1,"memberId":10}`},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"message":"member not found"}`,
			},
			wantErr: true,
		},
		{
			name: "err. internal",
			mockBehavior: func(r *service_mocks.MockLendingService) {
				r.EXPECT().
					IssueLoan(gomock.Any(), int64(1), int64(10), gomock.Any()).
					Return(model.Loan{}, errors.New("db internal"))
			},
			input: input{body: `{"bookId":1,"memberId":10}`},
			response: response{
				expectedCode: http.StatusInternalServerError,
				expectedBody: `{"message":"db internal"}`,
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockLendingService(c)
			log := zap.NewExample().Named("test")
			tt.mockBehavior(svc)

			h := handler.New(svc, log)
			router := h.NewRouter()

			req := httptest.NewRequest(http.MethodPost, "/api/v1/loans", strings.NewReader(tt.input.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, tt.response.expectedCode, rec.Code)
			if tt.response.expectedBody != "" {
				require.JSONEq(t, tt.response.expectedBody, rec.Body.String())
			}
		})
	}
}

func TestHandler_ReturnLoan(t *testing.T) {
	t.Parallel()
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockLendingService)

	returnDate := model.NewDate(2024, time.March, 18)
	returnedLoan := model.Loan{
		ID:         7,
		LoanUid:    "9a8e2a0c-3f64-4fd3-9e0c-2f4cf7a0f9d1",
		BookID:     1,
		MemberID:   10,
		IssueDate:  model.NewDate(2024, time.March, 1),
		DueDate:    model.NewDate(2024, time.March, 15),
		ReturnDate: &returnDate,
		FineAmount: decimal.RequireFromString("1.5"),
		Status:     model.StatusReturned,
	}

	var tests = []struct {
		name         string
		mockBehavior mockBehavior
		target       string
		response     response
		wantErr      bool
	}{
		{
			name: "ok with fine",
			mockBehavior: func(r *service_mocks.MockLendingService) {
				r.EXPECT().
					ReturnLoan(gomock.Any(), int64(7), gomock.Any()).
					Return(model.ReturnLoanResponse{
						Loan:        returnedLoan,
						FineAmount:  decimal.RequireFromString("1.5"),
						OverdueDays: 3,
					}, nil)
			},
			target: "/api/v1/loans/7/return",
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"loan":{"id":7,"loanUid":"9a8e2a0c-3f64-4fd3-9e0c-2f4cf7a0f9d1","bookId":1,"memberId":10,"issueDate":"2024-03-01","dueDate":"2024-03-15","returnDate":"2024-03-18","fineAmount":"1.5","status":"RETURNED","createdAt":"0001-01-01T00:00:00Z"},"fineAmount":"1.5","overdueDays":3}`,
			},
		},
		{
			name: "err. already returned",
			mockBehavior: func(r *service_mocks.MockLendingService) {
				r.EXPECT().
					ReturnLoan(gomock.Any(), int64(7), gomock.Any()).
					Return(model.ReturnLoanResponse{}, errs.ErrAlreadyReturned)
			},
			target: "/api/v1/loans/7/return",
			response: response{
				expectedCode: http.StatusConflict,
				expectedBody: `{"message":"loan already returned"}`,
			},
			wantErr: true,
		},
		{
			name: "err. not found",
			mockBehavior: func(r *service_mocks.MockLendingService) {
				r.EXPECT().
					ReturnLoan(gomock.Any(), int64(404), gomock.Any()).
					Return(model.ReturnLoanResponse{}, errs.ErrLoanNotFound)
			},
			target: "/api/v1/loans/404/return",
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"message":"loan not found"}`,
			},
			wantErr: true,
		},
		{
			name:         "err. invalid id",
			mockBehavior: func(r *service_mocks.MockLendingService) {},
			target:       "/api/v1/loans/abc/return",
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"id is invalid"}`,
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockLendingService(c)
			log := zap.NewExample().Named("test")
			tt.mockBehavior(svc)

			h := handler.New(svc, log)
			router := h.NewRouter()

			req := httptest.NewRequest(http.MethodPost, tt.target, http.NoBody)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, tt.response.expectedCode, rec.Code)
			if tt.response.expectedBody != "" {
				require.JSONEq(t, tt.response.expectedBody, rec.Body.String())
			}
		})
	}
}

func TestHandler_GetBooks(t *testing.T) {
	t.Parallel()
	c := gomock.NewController(t)
	defer c.Finish()
	svc := service_mocks.NewMockLendingService(c)
	svc.EXPECT().
		ListBooks(gomock.Any(), "clean", true).
		Return([]model.Book{
			{
				ID: 1, ISBN: "978-0132350884", Title: "Clean Code",
				Author: "Robert C. Martin", Publisher: "Prentice Hall",
				Quantity: 3, Available: 2,
			},
		}, nil)

	h := handler.New(svc, zap.NewExample().Named("test"))
	router := h.NewRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/books?q=clean&available=true", http.NoBody)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[{"id":1,"isbn":"978-0132350884","title":"Clean Code","author":"Robert C. Martin","publisher":"Prentice Hall","quantity":3,"available":2,"createdAt":"0001-01-01T00:00:00Z"}]`, rec.Body.String())
}

func TestHandler_DeleteBook(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		err          error
		expectedCode int
	}{
		{name: "ok", err: nil, expectedCode: http.StatusNoContent},
		{name: "err. loans outstanding", err: errs.ErrBookHasLoans, expectedCode: http.StatusConflict},
		{name: "err. not found", err: errs.ErrBookNotFound, expectedCode: http.StatusNotFound},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockLendingService(c)
			svc.EXPECT().DeleteBook(gomock.Any(), int64(3)).Return(tt.err)

			h := handler.New(svc, zap.NewExample().Named("test"))
			router := h.NewRouter()

			req := httptest.NewRequest(http.MethodDelete, "/api/v1/books/3", http.NoBody)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, tt.expectedCode, rec.Code)
		})
	}
}
