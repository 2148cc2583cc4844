package read

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

	"github.com/magabrotheeeer/billing-manager/internal/models"
	"github.com/magabrotheeeer/billing-manager/internal/storage/repository"
)

// MockService реализует интерфейс read.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Read(ctx context.Context, id string) (*models.Client, error) {
	args := m.Called(ctx, id)
	client, _ := args.Get(0).(*models.Client)
	return client, args.Error(1)
}

func TestReadHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

	tests := []struct {
		name           string
		id             string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешное чтение",
			id:   "c1",
			setupMock: func(m *MockService) {
				m.On("Read", mock.Anything, "c1").
					Return(&models.Client{ID: "c1", Name: "Acme", Email: "acme@example.com"}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"name":"Acme"`,
		},
		{
			name: "клиент не найден",
			id:   "missing",
			setupMock: func(m *MockService) {
				m.On("Read", mock.Anything, "missing").Return(nil, repository.ErrNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"client not found"`,
		},
		{
			name: "ошибка сервиса",
			id:   "c2",
			setupMock: func(m *MockService) {
				m.On("Read", mock.Anything, "c2").Return(nil, errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"could not read client"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodGet, "/clients/"+tt.id, nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.id)
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
