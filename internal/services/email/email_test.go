package services

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/billing-manager/internal/models"
)

type TemplatesMock struct{ mock.Mock }

func (m *TemplatesMock) UpsertReminderTemplate(ctx context.Context, tmpl models.ReminderTemplate) error {
	return m.Called(ctx, tmpl).Error(0)
}
func (m *TemplatesMock) GetReminderTemplate(ctx context.Context, templateType string) (*models.ReminderTemplate, error) {
	args := m.Called(ctx, templateType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReminderTemplate), args.Error(1)
}
func (m *TemplatesMock) ListReminderTemplates(ctx context.Context) ([]*models.ReminderTemplate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ReminderTemplate), args.Error(1)
}

type LogsMock struct{ mock.Mock }

func (m *LogsMock) ListEmailLogs(ctx context.Context) ([]*models.EmailLog, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.EmailLog), args.Error(1)
}

type BroadcastsMock struct{ mock.Mock }

func (m *BroadcastsMock) CreateBroadcastSchedule(ctx context.Context, schedule models.BroadcastSchedule) (string, error) {
	args := m.Called(ctx, schedule)
	return args.String(0), args.Error(1)
}

type ClientsMock struct{ mock.Mock }

func (m *ClientsMock) ListSubscribedClientIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
func (m *ClientsMock) CountExistingClients(ctx context.Context, ids []string) (int, error) {
	args := m.Called(ctx, ids)
	return args.Int(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newEmailService(t *TemplatesMock, l *LogsMock, b *BroadcastsMock, c *ClientsMock) *EmailService {
	return NewEmailService(t, l, b, c, newNoopLogger())
}

func TestParseScheduleDay(t *testing.T) {
	tests := []struct {
		day     string
		want    int
		wantErr bool
	}{
		{"sunday", 0, false},
		{"Monday", 1, false},
		{" friday ", 5, false},
		{"SATURDAY", 6, false},
		{"someday", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.day, func(t *testing.T) {
			got, err := ParseScheduleDay(tt.day)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseScheduleTime(t *testing.T) {
	tests := []struct {
		raw        string
		wantHour   int
		wantMinute int
		wantErr    bool
	}{
		{"09:30", 9, 30, false},
		{"0:00", 0, 0, false},
		{"23:59", 23, 59, false},
		{"24:00", 0, 0, true},
		{"12:60", 0, 0, true},
		{"noon", 0, 0, true},
		{"12", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			hour, minute, err := ParseScheduleTime(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantHour, hour)
				assert.Equal(t, tt.wantMinute, minute)
			}
		})
	}
}

func TestEmailService_UpdateTemplates(t *testing.T) {
	tests := []struct {
		name              string
		day3, day7, day14 string
		setupMocks        func(tm *TemplatesMock)
		wantErr           bool
	}{
		{
			name:  "success upserts all three",
			day3:  "pay soon",
			day7:  "still pending",
			day14: "final notice",
			setupMocks: func(tm *TemplatesMock) {
				tm.On("UpsertReminderTemplate", mock.Anything, models.ReminderTemplate{
					Type: models.TemplateDay3, Content: "pay soon"}).Return(nil).Once()
				tm.On("UpsertReminderTemplate", mock.Anything, models.ReminderTemplate{
					Type: models.TemplateDay7, Content: "still pending"}).Return(nil).Once()
				tm.On("UpsertReminderTemplate", mock.Anything, models.ReminderTemplate{
					Type: models.TemplateDay14, Content: "final notice"}).Return(nil).Once()
			},
		},
		{
			name:       "missing text rejects whole update",
			day3:       "pay soon",
			day7:       "   ",
			day14:      "final notice",
			setupMocks: func(_ *TemplatesMock) {},
			wantErr:    true,
		},
		{
			name:  "repo error",
			day3:  "a",
			day7:  "b",
			day14: "c",
			setupMocks: func(tm *TemplatesMock) {
				tm.On("UpsertReminderTemplate", mock.Anything, mock.Anything).
					Return(errors.New("db error")).Once()
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			templates := new(TemplatesMock)
			svc := newEmailService(templates, new(LogsMock), new(BroadcastsMock), new(ClientsMock))

			tt.setupMocks(templates)

			err := svc.UpdateTemplates(context.Background(), tt.day3, tt.day7, tt.day14)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			templates.AssertExpectations(t)
		})
	}
}

func TestEmailService_RegisterWeeklyEmail(t *testing.T) {
	attachmentData := []byte("%PDF-1.4 fake")

	tests := []struct {
		name       string
		req        models.DummyBroadcast
		setupMocks func(b *BroadcastsMock, c *ClientsMock)
		check      func(t *testing.T, schedule *models.BroadcastSchedule)
		wantErr    bool
	}{
		{
			name: "all mode freezes subscribed clients",
			req: models.DummyBroadcast{
				Subject:      "Weekly news",
				Content:      "<p>Hello</p>",
				Recipients:   models.RecipientsAll,
				ScheduleDay:  "monday",
				ScheduleTime: "09:00",
			},
			setupMocks: func(b *BroadcastsMock, c *ClientsMock) {
				c.On("ListSubscribedClientIDs", mock.Anything).
					Return([]string{"client-1", "client-2"}, nil).Once()
				b.On("CreateBroadcastSchedule", mock.Anything, mock.MatchedBy(func(s models.BroadcastSchedule) bool {
					return len(s.ClientIDs) == 2 && s.Weekday == 1 && s.Hour == 9 && s.Minute == 0
				})).Return("schedule-1", nil).Once()
			},
			check: func(t *testing.T, schedule *models.BroadcastSchedule) {
				assert.Equal(t, "schedule-1", schedule.ID)
				assert.Equal(t, []string{"client-1", "client-2"}, schedule.ClientIDs)
			},
		},
		{
			name: "selected mode validates client list",
			req: models.DummyBroadcast{
				Subject:         "Promo",
				Content:         "<p>Deal</p>",
				Recipients:      models.RecipientsSelected,
				SelectedClients: []string{"client-1", "ghost"},
				ScheduleDay:     "friday",
				ScheduleTime:    "18:30",
			},
			setupMocks: func(_ *BroadcastsMock, c *ClientsMock) {
				c.On("CountExistingClients", mock.Anything, []string{"client-1", "ghost"}).
					Return(1, nil).Once()
			},
			wantErr: true,
		},
		{
			name: "selected mode empty list",
			req: models.DummyBroadcast{
				Subject:      "Promo",
				Content:      "<p>Deal</p>",
				Recipients:   models.RecipientsSelected,
				ScheduleDay:  "friday",
				ScheduleTime: "18:30",
			},
			setupMocks: func(_ *BroadcastsMock, _ *ClientsMock) {},
			wantErr:    true,
		},
		{
			name: "attachment is decoded from base64",
			req: func() models.DummyBroadcast {
				req := models.DummyBroadcast{
					Subject:         "Report",
					Content:         "<p>Attached</p>",
					Recipients:      models.RecipientsSelected,
					SelectedClients: []string{"client-1"},
					ScheduleDay:     "wednesday",
					ScheduleTime:    "12:15",
				}
				req.Attachment = &struct {
					Name    string `json:"name"`
					Content string `json:"content"`
					Type    string `json:"type"`
				}{
					Name:    "report.pdf",
					Content: base64.StdEncoding.EncodeToString(attachmentData),
					Type:    "application/pdf",
				}
				return req
			}(),
			setupMocks: func(b *BroadcastsMock, c *ClientsMock) {
				c.On("CountExistingClients", mock.Anything, []string{"client-1"}).Return(1, nil).Once()
				b.On("CreateBroadcastSchedule", mock.Anything, mock.MatchedBy(func(s models.BroadcastSchedule) bool {
					return s.AttachmentName == "report.pdf" &&
						string(s.AttachmentData) == string(attachmentData) &&
						s.AttachmentMime == "application/pdf"
				})).Return("schedule-2", nil).Once()
			},
			check: func(t *testing.T, schedule *models.BroadcastSchedule) {
				assert.Equal(t, attachmentData, schedule.AttachmentData)
			},
		},
		{
			name: "bad attachment encoding",
			req: func() models.DummyBroadcast {
				req := models.DummyBroadcast{
					Subject:         "Report",
					Content:         "<p>Attached</p>",
					Recipients:      models.RecipientsSelected,
					SelectedClients: []string{"client-1"},
					ScheduleDay:     "wednesday",
					ScheduleTime:    "12:15",
				}
				req.Attachment = &struct {
					Name    string `json:"name"`
					Content string `json:"content"`
					Type    string `json:"type"`
				}{Name: "report.pdf", Content: "!!! not base64 !!!", Type: "application/pdf"}
				return req
			}(),
			setupMocks: func(_ *BroadcastsMock, c *ClientsMock) {
				c.On("CountExistingClients", mock.Anything, []string{"client-1"}).Return(1, nil).Once()
			},
			wantErr: true,
		},
		{
			name: "unknown recipients mode",
			req: models.DummyBroadcast{
				Subject:      "Weekly news",
				Content:      "<p>Hello</p>",
				Recipients:   "everyone",
				ScheduleDay:  "monday",
				ScheduleTime: "09:00",
			},
			setupMocks: func(_ *BroadcastsMock, _ *ClientsMock) {},
			wantErr:    true,
		},
		{
			name: "bad schedule day",
			req: models.DummyBroadcast{
				Subject:      "Weekly news",
				Content:      "<p>Hello</p>",
				Recipients:   models.RecipientsAll,
				ScheduleDay:  "someday",
				ScheduleTime: "09:00",
			},
			setupMocks: func(_ *BroadcastsMock, _ *ClientsMock) {},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			broadcasts := new(BroadcastsMock)
			clients := new(ClientsMock)
			svc := newEmailService(new(TemplatesMock), new(LogsMock), broadcasts, clients)

			tt.setupMocks(broadcasts, clients)

			schedule, err := svc.RegisterWeeklyEmail(context.Background(), tt.req)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, schedule)
			} else {
				assert.NoError(t, err)
				if tt.check != nil {
					tt.check(t, schedule)
				}
			}

			broadcasts.AssertExpectations(t)
			clients.AssertExpectations(t)
		})
	}
}

func TestEmailService_ListLogs(t *testing.T) {
	logs := new(LogsMock)
	svc := newEmailService(new(TemplatesMock), logs, new(BroadcastsMock), new(ClientsMock))

	entries := []*models.EmailLog{{ID: "log-1", Type: models.EmailTypeInvoice}}
	logs.On("ListEmailLogs", mock.Anything).Return(entries, nil).Once()

	got, err := svc.ListLogs(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, entries, got)

	logs.AssertExpectations(t)
}
