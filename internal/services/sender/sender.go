// Package services реализует воркер отправки писем: обработку задач из
// очередей, сборку MIME-сообщений с вложениями и журналирование попыток.
package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/billing-manager/internal/lib/sl"
	"github.com/magabrotheeeer/billing-manager/internal/lib/smtp"
	"github.com/magabrotheeeer/billing-manager/internal/models"
)

// Repository отдаёт данные для писем. Задачи несут только идентификаторы,
// поэтому воркер загружает актуальное состояние перед каждой отправкой.
type Repository interface {
	ReadInvoice(ctx context.Context, id string) (*models.Invoice, error)
	ReadClient(ctx context.Context, id string) (*models.Client, error)
	ReadSubscription(ctx context.Context, id string) (*models.Subscription, error)
	GetReminderTemplate(ctx context.Context, templateType string) (*models.ReminderTemplate, error)
	ReadBroadcastSchedule(ctx context.Context, id string) (*models.BroadcastSchedule, error)
	CreateEmailLog(ctx context.Context, entry models.EmailLog) (string, error)
}

// InvoiceRenderer строит PDF-представление счета.
type InvoiceRenderer interface {
	RenderInvoice(invoice *models.Invoice, client *models.Client, planName string) ([]byte, error)
}

// Attachment — вложение письма.
type Attachment struct {
	Name string
	Data []byte
	Mime string
}

// SenderService обрабатывает задачи из очередей и отправляет письма.
type SenderService struct {
	repo      Repository
	renderer  InvoiceRenderer
	transport smtp.TransportInterface
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(repo Repository, renderer InvoiceRenderer,
	transport smtp.TransportInterface, log *slog.Logger) *SenderService {
	return &SenderService{
		repo:      repo,
		renderer:  renderer,
		transport: transport,
		log:       log,
	}
}

var htmlTagRe = regexp.MustCompile(`<[^>]+>`)

// StripHTML убирает теги из HTML-содержимого для текстовой версии письма.
func StripHTML(content string) string {
	return strings.TrimSpace(htmlTagRe.ReplaceAllString(content, ""))
}

// HandleInvoiceTask отправляет письмо со свежевыставленным счетом.
func (s *SenderService) HandleInvoiceTask(ctx context.Context, body []byte) error {
	var task models.InvoiceMailTask
	if err := json.Unmarshal(body, &task); err != nil {
		s.log.Error("failed to unmarshal invoice task", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	invoice, err := s.repo.ReadInvoice(ctx, task.InvoiceID)
	if err != nil {
		s.log.Error("failed to load invoice", slog.String("id", task.InvoiceID), sl.Err(err))
		return err
	}
	client, err := s.repo.ReadClient(ctx, invoice.ClientID)
	if err != nil {
		s.log.Error("failed to load client", slog.String("id", invoice.ClientID), sl.Err(err))
		return err
	}
	sub, err := s.repo.ReadSubscription(ctx, invoice.SubscriptionID)
	if err != nil {
		s.log.Error("failed to load subscription", slog.String("id", invoice.SubscriptionID), sl.Err(err))
		return err
	}

	pdfBytes, err := s.renderer.RenderInvoice(invoice, client, sub.Name)
	if err != nil {
		s.log.Error("failed to render invoice pdf", sl.Err(err))
		return err
	}

	subject := fmt.Sprintf("Invoice %s for Your %s Subscription", invoice.InvoiceID, sub.Name)
	content := fmt.Sprintf(`<p>Dear %s,</p>
<p>Thank you for your subscription to %s. Please find your invoice (%s) attached.</p>
<p><strong>Invoice Details:</strong></p>
<ul>
<li>Invoice ID: %s</li>
<li>Subscription: %s</li>
<li>Duration: %g months</li>
<li>Amount Due: $%.2f</li>
<li>Due Date: %s</li>
</ul>
<p>Best regards,<br>%s</p>`,
		client.Name, sub.Name, invoice.InvoiceID,
		invoice.InvoiceID, sub.Name, invoice.DurationMonths,
		invoice.Total(), invoice.DueDate.Format("01/02/2006"), invoice.Company.Name)

	attachment := &Attachment{
		Name: fmt.Sprintf("Invoice_%s.pdf", invoice.InvoiceID),
		Data: pdfBytes,
		Mime: "application/pdf",
	}
	return s.sendAndLog(ctx, client.Email, subject, content, attachment,
		models.EmailTypeInvoice, &invoice.ID)
}

// HandleReminderTask отправляет напоминание о просроченном счете с
// актуальным текстом шаблона и PDF счета во вложении.
func (s *SenderService) HandleReminderTask(ctx context.Context, body []byte) error {
	var task models.ReminderMailTask
	if err := json.Unmarshal(body, &task); err != nil {
		s.log.Error("failed to unmarshal reminder task", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	invoice, err := s.repo.ReadInvoice(ctx, task.InvoiceID)
	if err != nil {
		s.log.Error("failed to load invoice", slog.String("id", task.InvoiceID), sl.Err(err))
		return err
	}
	client, err := s.repo.ReadClient(ctx, invoice.ClientID)
	if err != nil {
		s.log.Error("failed to load client", slog.String("id", invoice.ClientID), sl.Err(err))
		return err
	}
	sub, err := s.repo.ReadSubscription(ctx, invoice.SubscriptionID)
	if err != nil {
		s.log.Error("failed to load subscription", slog.String("id", invoice.SubscriptionID), sl.Err(err))
		return err
	}
	template, err := s.repo.GetReminderTemplate(ctx, task.TemplateType)
	if err != nil {
		s.log.Error("failed to load reminder template",
			slog.String("type", task.TemplateType), sl.Err(err))
		return err
	}

	pdfBytes, err := s.renderer.RenderInvoice(invoice, client, sub.Name)
	if err != nil {
		s.log.Error("failed to render invoice pdf", sl.Err(err))
		return err
	}

	subject := fmt.Sprintf("Payment Reminder: Invoice %s", invoice.InvoiceID)
	content := fmt.Sprintf(`<p>Dear %s,</p>
<p>%s</p>
<p><strong>Invoice Details:</strong></p>
<ul>
<li>Invoice ID: %s</li>
<li>Subscription: %s</li>
<li>Amount Due: $%.2f</li>
<li>Due Date: %s</li>
</ul>
<p>Please find the invoice attached.</p>
<p>Best regards,<br>%s</p>`,
		client.Name, template.Content,
		invoice.InvoiceID, sub.Name, invoice.Total(),
		invoice.DueDate.Format("01/02/2006"), invoice.Company.Name)

	attachment := &Attachment{
		Name: fmt.Sprintf("Invoice_%s.pdf", invoice.InvoiceID),
		Data: pdfBytes,
		Mime: "application/pdf",
	}
	return s.sendAndLog(ctx, client.Email, subject, content, attachment,
		models.EmailTypeReminder, &invoice.ID)
}

// HandleBroadcastTask отправляет одно письмо еженедельной рассылки.
func (s *SenderService) HandleBroadcastTask(ctx context.Context, body []byte) error {
	var task models.BroadcastMailTask
	if err := json.Unmarshal(body, &task); err != nil {
		s.log.Error("failed to unmarshal broadcast task", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	schedule, err := s.repo.ReadBroadcastSchedule(ctx, task.ScheduleID)
	if err != nil {
		s.log.Error("failed to load broadcast schedule", slog.String("id", task.ScheduleID), sl.Err(err))
		return err
	}
	client, err := s.repo.ReadClient(ctx, task.ClientID)
	if err != nil {
		s.log.Error("failed to load client", slog.String("id", task.ClientID), sl.Err(err))
		return err
	}

	var attachment *Attachment
	if schedule.AttachmentName != "" {
		attachment = &Attachment{
			Name: schedule.AttachmentName,
			Data: schedule.AttachmentData,
			Mime: schedule.AttachmentMime,
		}
	}
	return s.sendAndLog(ctx, client.Email, schedule.Subject, schedule.Content,
		attachment, models.EmailTypeWeekly, nil)
}

// HandleSystemTask отправляет служебное письмо. Попытка не журналируется.
func (s *SenderService) HandleSystemTask(_ context.Context, body []byte) error {
	var task models.SystemMailTask
	if err := json.Unmarshal(body, &task); err != nil {
		s.log.Error("failed to unmarshal system task", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}
	return s.sendEmail(task.Recipient, task.Subject, task.Content, nil)
}

// sendAndLog отправляет письмо и пишет ровно одну запись журнала на попытку
// независимо от исхода. Ошибка отправки возвращается вызывающему.
func (s *SenderService) sendAndLog(ctx context.Context, to, subject, content string,
	attachment *Attachment, emailType string, invoiceID *string) error {
	sendErr := s.sendEmail(to, subject, content, attachment)

	entry := models.EmailLog{
		ID:        uuid.NewString(),
		Recipient: to,
		Subject:   subject,
		Content:   content,
		Type:      emailType,
		Status:    models.EmailStatusSent,
		InvoiceID: invoiceID,
		SentAt:    time.Now(),
	}
	if attachment != nil {
		entry.Attachment = attachment.Name
	}
	if sendErr != nil {
		entry.Status = models.EmailStatusFailed
	}

	if _, err := s.repo.CreateEmailLog(ctx, entry); err != nil {
		s.log.Error("failed to write email log", sl.Err(err))
	}

	return sendErr
}

// sendEmail собирает MIME-сообщение и отправляет его через SMTP транспорт.
func (s *SenderService) sendEmail(to, subject, content string, attachment *Attachment) error {
	msg := buildMessage(s.transport.GetSMTPUser(), to, subject, content, attachment)

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", sl.Err(err))
		return err
	}
	if err := client.Rcpt(to); err != nil {
		s.log.Error("failed to set RCPT TO", slog.String("recipient", to), sl.Err(err))
		return err
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get data writer", sl.Err(err))
		return err
	}
	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}
	if err = wc.Close(); err != nil {
		s.log.Error("failed to close data writer", sl.Err(err))
		return err
	}
	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", slog.String("to", to), slog.String("subject", subject))
	return nil
}

// buildMessage собирает multipart-сообщение: текстовая версия получается
// удалением тегов из HTML, вложение кодируется в base64.
func buildMessage(from, to, subject, content string, attachment *Attachment) string {
	const boundary = "billing-manager-mail-boundary"
	var b strings.Builder
	writeLine := func(line string) {
		b.WriteString(line)
		b.WriteString("\r\n")
	}

	writeLine("From: " + from)
	writeLine("To: " + to)
	writeLine("Subject: " + subject)
	writeLine("MIME-Version: 1.0")
	writeLine("Content-Type: multipart/mixed; boundary=\"" + boundary + "\"")
	writeLine("")
	writeLine("--" + boundary)
	writeLine("Content-Type: text/plain; charset=\"UTF-8\"")
	writeLine("")
	writeLine(StripHTML(content))
	writeLine("--" + boundary)
	writeLine("Content-Type: text/html; charset=\"UTF-8\"")
	writeLine("")
	writeLine(content)
	if attachment == nil {
		writeLine("--" + boundary + "--")
		return b.String()
	}
	writeLine("--" + boundary)
	writeLine("Content-Type: " + attachment.Mime + "; name=\"" + attachment.Name + "\"")
	writeLine("Content-Disposition: attachment; filename=\"" + attachment.Name + "\"")
	writeLine("Content-Transfer-Encoding: base64")
	writeLine("")

	encoded := base64.StdEncoding.EncodeToString(attachment.Data)
	for len(encoded) > 76 {
		writeLine(encoded[:76])
		encoded = encoded[76:]
	}
	writeLine(encoded)
	writeLine("--" + boundary + "--")

	return b.String()
}
