package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/billing-manager/internal/lib/smtp"
	"github.com/magabrotheeeer/billing-manager/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) ReadInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}
func (m *RepoMock) ReadClient(ctx context.Context, id string) (*models.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}
func (m *RepoMock) ReadSubscription(ctx context.Context, id string) (*models.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}
func (m *RepoMock) GetReminderTemplate(ctx context.Context, templateType string) (*models.ReminderTemplate, error) {
	args := m.Called(ctx, templateType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReminderTemplate), args.Error(1)
}
func (m *RepoMock) ReadBroadcastSchedule(ctx context.Context, id string) (*models.BroadcastSchedule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BroadcastSchedule), args.Error(1)
}
func (m *RepoMock) CreateEmailLog(ctx context.Context, entry models.EmailLog) (string, error) {
	args := m.Called(ctx, entry)
	return args.String(0), args.Error(1)
}

type RendererMock struct{ mock.Mock }

func (m *RendererMock) RenderInvoice(invoice *models.Invoice, client *models.Client, planName string) ([]byte, error) {
	args := m.Called(invoice, client, planName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type SMTPClientMock struct {
	mock.Mock
	written strings.Builder
}

func (m *SMTPClientMock) Mail(from string) error { return m.Called(from).Error(0) }
func (m *SMTPClientMock) Rcpt(to string) error   { return m.Called(to).Error(0) }
func (m *SMTPClientMock) Data() (io.WriteCloser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.WriteCloser), args.Error(1)
}
func (m *SMTPClientMock) Quit() error  { return m.Called().Error(0) }
func (m *SMTPClientMock) Close() error { return m.Called().Error(0) }

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

type TransportMock struct{ mock.Mock }

func (m *TransportMock) Connect() (smtp.Client, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(smtp.Client), args.Error(1)
}
func (m *TransportMock) GetSMTPUser() string {
	return m.Called().String(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

// happyClient настраивает мок SMTP клиента на успешную отправку.
func happyClient() *SMTPClientMock {
	client := new(SMTPClientMock)
	client.On("Mail", mock.Anything).Return(nil).Once()
	client.On("Rcpt", mock.Anything).Return(nil).Once()
	client.On("Data").Return(nopWriteCloser{&client.written}, nil).Once()
	client.On("Quit").Return(nil).Once()
	client.On("Close").Return(nil).Once()
	return client
}

func happyTransport(client *SMTPClientMock) *TransportMock {
	transport := new(TransportMock)
	transport.On("GetSMTPUser").Return("noreply@mycompany.com")
	transport.On("Connect").Return(client, nil).Once()
	return transport
}

func testInvoice() *models.Invoice {
	return &models.Invoice{
		ID:             "inv-db-id",
		InvoiceID:      "INV-2026-001",
		ClientID:       "client-1",
		SubscriptionID: "sub-1",
		DurationMonths: 1,
		PricePerMonth:  50,
		Status:         models.InvoiceStatusUnpaid,
		Company:        models.CompanyProfile{Name: "MyCompany Inc."},
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"plain text", "hello", "hello"},
		{"simple tags", "<p>hello</p>", "hello"},
		{"nested tags", "<p>Dear <strong>Acme</strong>,</p>", "Dear Acme,"},
		{"attributes", `<a href="https://x.test">link</a>`, "link"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripHTML(tt.content))
		})
	}
}

func TestBuildMessage(t *testing.T) {
	t.Run("without attachment", func(t *testing.T) {
		msg := buildMessage("from@x.test", "to@x.test", "Hello", "<p>Hi there</p>", nil)

		assert.Contains(t, msg, "From: from@x.test\r\n")
		assert.Contains(t, msg, "To: to@x.test\r\n")
		assert.Contains(t, msg, "Subject: Hello\r\n")
		assert.Contains(t, msg, "Content-Type: text/plain")
		assert.Contains(t, msg, "Content-Type: text/html")
		assert.Contains(t, msg, "Hi there\r\n")
		assert.Contains(t, msg, "<p>Hi there</p>\r\n")
		assert.NotContains(t, msg, "Content-Disposition: attachment")
		assert.True(t, strings.HasSuffix(msg, "--\r\n"))
	})

	t.Run("with attachment", func(t *testing.T) {
		data := []byte("%PDF-1.4 fake invoice content")
		msg := buildMessage("from@x.test", "to@x.test", "Invoice", "<p>Attached</p>", &Attachment{
			Name: "Invoice_INV-2026-001.pdf",
			Data: data,
			Mime: "application/pdf",
		})

		assert.Contains(t, msg, `Content-Type: application/pdf; name="Invoice_INV-2026-001.pdf"`)
		assert.Contains(t, msg, `Content-Disposition: attachment; filename="Invoice_INV-2026-001.pdf"`)
		assert.Contains(t, msg, "Content-Transfer-Encoding: base64")
		assert.Contains(t, msg, base64.StdEncoding.EncodeToString(data))
	})
}

func TestSenderService_HandleInvoiceTask(t *testing.T) {
	task := models.InvoiceMailTask{InvoiceID: "inv-db-id"}
	body, _ := json.Marshal(task)

	t.Run("success logs sent attempt", func(t *testing.T) {
		repo := new(RepoMock)
		renderer := new(RendererMock)
		client := happyClient()
		transport := happyTransport(client)
		svc := NewSenderService(repo, renderer, transport, newNoopLogger())

		invoice := testInvoice()
		repo.On("ReadInvoice", mock.Anything, "inv-db-id").Return(invoice, nil).Once()
		repo.On("ReadClient", mock.Anything, "client-1").
			Return(&models.Client{ID: "client-1", Name: "Acme Corp", Email: "billing@acme.test"}, nil).Once()
		repo.On("ReadSubscription", mock.Anything, "sub-1").
			Return(&models.Subscription{ID: "sub-1", Name: "Gold Plan"}, nil).Once()
		renderer.On("RenderInvoice", invoice, mock.Anything, "Gold Plan").
			Return([]byte("%PDF"), nil).Once()
		repo.On("CreateEmailLog", mock.Anything, mock.MatchedBy(func(e models.EmailLog) bool {
			return e.Recipient == "billing@acme.test" &&
				e.Subject == "Invoice INV-2026-001 for Your Gold Plan Subscription" &&
				e.Type == models.EmailTypeInvoice &&
				e.Status == models.EmailStatusSent &&
				e.Attachment == "Invoice_INV-2026-001.pdf" &&
				e.InvoiceID != nil && *e.InvoiceID == "inv-db-id"
		})).Return("log-1", nil).Once()

		err := svc.HandleInvoiceTask(context.Background(), body)
		assert.NoError(t, err)
		assert.Contains(t, client.written.String(), "Subject: Invoice INV-2026-001 for Your Gold Plan Subscription")

		repo.AssertExpectations(t)
		renderer.AssertExpectations(t)
		transport.AssertExpectations(t)
		client.AssertExpectations(t)
	})

	t.Run("send failure still writes exactly one log", func(t *testing.T) {
		repo := new(RepoMock)
		renderer := new(RendererMock)
		transport := new(TransportMock)
		transport.On("GetSMTPUser").Return("noreply@mycompany.com")
		transport.On("Connect").Return(nil, errors.New("smtp unreachable")).Once()
		svc := NewSenderService(repo, renderer, transport, newNoopLogger())

		invoice := testInvoice()
		repo.On("ReadInvoice", mock.Anything, "inv-db-id").Return(invoice, nil).Once()
		repo.On("ReadClient", mock.Anything, "client-1").
			Return(&models.Client{ID: "client-1", Name: "Acme Corp", Email: "billing@acme.test"}, nil).Once()
		repo.On("ReadSubscription", mock.Anything, "sub-1").
			Return(&models.Subscription{ID: "sub-1", Name: "Gold Plan"}, nil).Once()
		renderer.On("RenderInvoice", invoice, mock.Anything, "Gold Plan").
			Return([]byte("%PDF"), nil).Once()
		repo.On("CreateEmailLog", mock.Anything, mock.MatchedBy(func(e models.EmailLog) bool {
			return e.Status == models.EmailStatusFailed
		})).Return("log-1", nil).Once()

		err := svc.HandleInvoiceTask(context.Background(), body)
		assert.Error(t, err)

		repo.AssertExpectations(t)
		repo.AssertNumberOfCalls(t, "CreateEmailLog", 1)
	})

	t.Run("missing invoice skips log", func(t *testing.T) {
		repo := new(RepoMock)
		svc := NewSenderService(repo, new(RendererMock), new(TransportMock), newNoopLogger())

		repo.On("ReadInvoice", mock.Anything, "inv-db-id").
			Return(nil, errors.New("not found")).Once()

		err := svc.HandleInvoiceTask(context.Background(), body)
		assert.Error(t, err)
		repo.AssertNotCalled(t, "CreateEmailLog", mock.Anything, mock.Anything)
	})

	t.Run("bad payload", func(t *testing.T) {
		svc := NewSenderService(new(RepoMock), new(RendererMock), new(TransportMock), newNoopLogger())
		err := svc.HandleInvoiceTask(context.Background(), []byte("not json"))
		assert.Error(t, err)
	})
}

func TestSenderService_HandleReminderTask(t *testing.T) {
	task := models.ReminderMailTask{InvoiceID: "inv-db-id", TemplateType: models.TemplateDay7}
	body, _ := json.Marshal(task)

	repo := new(RepoMock)
	renderer := new(RendererMock)
	client := happyClient()
	transport := happyTransport(client)
	svc := NewSenderService(repo, renderer, transport, newNoopLogger())

	invoice := testInvoice()
	repo.On("ReadInvoice", mock.Anything, "inv-db-id").Return(invoice, nil).Once()
	repo.On("ReadClient", mock.Anything, "client-1").
		Return(&models.Client{ID: "client-1", Name: "Acme Corp", Email: "billing@acme.test"}, nil).Once()
	repo.On("ReadSubscription", mock.Anything, "sub-1").
		Return(&models.Subscription{ID: "sub-1", Name: "Gold Plan"}, nil).Once()
	repo.On("GetReminderTemplate", mock.Anything, models.TemplateDay7).
		Return(&models.ReminderTemplate{
			Type:    models.TemplateDay7,
			Content: "Reminder: Your payment is still pending after 7 days.",
		}, nil).Once()
	renderer.On("RenderInvoice", invoice, mock.Anything, "Gold Plan").
		Return([]byte("%PDF"), nil).Once()
	repo.On("CreateEmailLog", mock.Anything, mock.MatchedBy(func(e models.EmailLog) bool {
		return e.Subject == "Payment Reminder: Invoice INV-2026-001" &&
			e.Type == models.EmailTypeReminder &&
			e.Status == models.EmailStatusSent &&
			strings.Contains(e.Content, "still pending after 7 days")
	})).Return("log-1", nil).Once()

	err := svc.HandleReminderTask(context.Background(), body)
	assert.NoError(t, err)

	repo.AssertExpectations(t)
	renderer.AssertExpectations(t)
}

func TestSenderService_HandleBroadcastTask(t *testing.T) {
	task := models.BroadcastMailTask{ScheduleID: "schedule-1", ClientID: "client-1"}
	body, _ := json.Marshal(task)

	t.Run("without attachment", func(t *testing.T) {
		repo := new(RepoMock)
		client := happyClient()
		transport := happyTransport(client)
		svc := NewSenderService(repo, new(RendererMock), transport, newNoopLogger())

		repo.On("ReadBroadcastSchedule", mock.Anything, "schedule-1").
			Return(&models.BroadcastSchedule{
				ID:      "schedule-1",
				Subject: "Weekly news",
				Content: "<p>Hello</p>",
			}, nil).Once()
		repo.On("ReadClient", mock.Anything, "client-1").
			Return(&models.Client{ID: "client-1", Email: "billing@acme.test"}, nil).Once()
		repo.On("CreateEmailLog", mock.Anything, mock.MatchedBy(func(e models.EmailLog) bool {
			return e.Type == models.EmailTypeWeekly &&
				e.InvoiceID == nil &&
				e.Attachment == ""
		})).Return("log-1", nil).Once()

		err := svc.HandleBroadcastTask(context.Background(), body)
		assert.NoError(t, err)

		repo.AssertExpectations(t)
	})

	t.Run("with stored attachment", func(t *testing.T) {
		repo := new(RepoMock)
		client := happyClient()
		transport := happyTransport(client)
		svc := NewSenderService(repo, new(RendererMock), transport, newNoopLogger())

		repo.On("ReadBroadcastSchedule", mock.Anything, "schedule-1").
			Return(&models.BroadcastSchedule{
				ID:             "schedule-1",
				Subject:        "Weekly news",
				Content:        "<p>Hello</p>",
				AttachmentName: "report.pdf",
				AttachmentData: []byte("%PDF"),
				AttachmentMime: "application/pdf",
			}, nil).Once()
		repo.On("ReadClient", mock.Anything, "client-1").
			Return(&models.Client{ID: "client-1", Email: "billing@acme.test"}, nil).Once()
		repo.On("CreateEmailLog", mock.Anything, mock.MatchedBy(func(e models.EmailLog) bool {
			return e.Attachment == "report.pdf"
		})).Return("log-1", nil).Once()

		err := svc.HandleBroadcastTask(context.Background(), body)
		assert.NoError(t, err)
		assert.Contains(t, client.written.String(), `filename="report.pdf"`)

		repo.AssertExpectations(t)
	})
}

func TestSenderService_HandleSystemTask(t *testing.T) {
	task := models.SystemMailTask{
		Recipient: "admin@mycompany.com",
		Subject:   "Password Reset Code",
		Content:   "<p>Your password reset code is: <strong>123456</strong></p>",
	}
	body, _ := json.Marshal(task)

	repo := new(RepoMock)
	client := happyClient()
	transport := happyTransport(client)
	svc := NewSenderService(repo, new(RendererMock), transport, newNoopLogger())

	err := svc.HandleSystemTask(context.Background(), body)
	assert.NoError(t, err)

	// Служебные письма не попадают в журнал отправок
	repo.AssertNotCalled(t, "CreateEmailLog", mock.Anything, mock.Anything)
	assert.Contains(t, client.written.String(), "123456")
}
