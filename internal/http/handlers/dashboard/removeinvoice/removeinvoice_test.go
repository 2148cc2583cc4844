package removeinvoice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockService реализует интерфейс removeinvoice.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) RemoveByNumber(ctx context.Context, invoiceNumber string) (int, error) {
	args := m.Called(ctx, invoiceNumber)
	return args.Int(0), args.Error(1)
}

func TestRemoveInvoiceHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

	tests := []struct {
		name           string
		invoiceNumber  string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:          "успешное удаление",
			invoiceNumber: "INV-2026-001",
			setupMock: func(m *MockService) {
				m.On("RemoveByNumber", mock.Anything, "INV-2026-001").Return(1, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"removed":1`,
		},
		{
			name:           "пустой номер счета",
			invoiceNumber:  "",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"invoice number is required"`,
		},
		{
			name:          "счёт не найден",
			invoiceNumber: "INV-2026-999",
			setupMock: func(m *MockService) {
				m.On("RemoveByNumber", mock.Anything, "INV-2026-999").Return(0, nil)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"invoice not found"`,
		},
		{
			name:          "ошибка сервиса",
			invoiceNumber: "INV-2026-002",
			setupMock: func(m *MockService) {
				m.On("RemoveByNumber", mock.Anything, "INV-2026-002").Return(0, errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"could not remove invoice"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPut, "/dashboard/invoices/"+tt.invoiceNumber+"/remove", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("invoiceId", tt.invoiceNumber)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}
