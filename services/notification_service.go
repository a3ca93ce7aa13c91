// services/notification_service.go
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bengkel-backend/models"
	"bengkel-backend/repository"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// MessageSender delivers one text message and returns the provider's id.
type MessageSender interface {
	Send(to, from, body string) (string, error)
}

type twilioSender struct {
	client *twilio.RestClient
}

// NewTwilioSender returns a MessageSender backed by the Twilio Messages API.
func NewTwilioSender(accountSID, authToken string) MessageSender {
	return &twilioSender{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		}),
	}
}

func (t *twilioSender) Send(to, from, body string) (string, error) {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(from)
	params.SetBody(body)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return "", err
	}
	if resp.Sid == nil {
		return "", nil
	}
	return *resp.Sid, nil
}

// SenderNumbers are the From addresses for each channel.
type SenderNumbers struct {
	SMS      string
	WhatsApp string
}

// NotificationService sends low-stock alerts to the workshop and
// service-ready notices to customers, and logs every attempt.
type NotificationService struct {
	sender    MessageSender
	numbers   SenderNumbers
	inventory *InventoryService
	workshops repository.WorkshopRepository
	logs      repository.NotificationRepository
	logger    *logrus.Logger
	loc       *time.Location
	now       func() time.Time
	cron      *cron.Cron
}

// NewNotificationService accepts a nil sender; messages are then logged as
// skipped instead of sent.
func NewNotificationService(
	sender MessageSender,
	numbers SenderNumbers,
	inventory *InventoryService,
	workshops repository.WorkshopRepository,
	logs repository.NotificationRepository,
	loc *time.Location,
	logger *logrus.Logger,
) *NotificationService {
	if loc == nil {
		loc = time.Local
	}
	return &NotificationService{
		sender:    sender,
		numbers:   numbers,
		inventory: inventory,
		workshops: workshops,
		logs:      logs,
		logger:    logger,
		loc:       loc,
		now:       time.Now,
	}
}

// StartScheduler runs the low-stock check on schedule (standard 5-field cron).
func (s *NotificationService) StartScheduler(schedule string) error {
	c := cron.New(cron.WithLocation(s.loc))
	if _, err := c.AddFunc(schedule, func() {
		if _, err := s.SendLowStockAlert(context.Background()); err != nil {
			s.logger.WithError(err).Error("low stock alert failed")
		}
	}); err != nil {
		return fmt.Errorf("schedule low stock alert %q: %w", schedule, err)
	}
	c.Start()
	s.cron = c
	s.logger.WithField("schedule", schedule).Info("notification scheduler started")
	return nil
}

func (s *NotificationService) StopScheduler() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

func lowStockMessage(workshop string, parts []models.SparePart) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d suku cadang di bawah stok minimum.\n", workshop, len(parts))
	for _, p := range parts {
		fmt.Fprintf(&b, "- %s (stok %d, min %d)\n", p.Name, p.Stock, p.MinStock)
	}
	return strings.TrimRight(b.String(), "\n")
}

// SendLowStockAlert messages the workshop phone with every part below its
// minimum. It returns the log entry, or nil when nothing was sent.
func (s *NotificationService) SendLowStockAlert(ctx context.Context) (*models.NotificationLog, error) {
	workshop, err := s.workshops.Get(ctx)
	if err != nil {
		return nil, storeErr("load workshop", err)
	}
	if !workshop.LowStockAlerts || workshop.Phone == "" {
		return nil, nil
	}

	parts, err := s.inventory.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		return nil, nil
	}

	entry := &models.NotificationLog{
		Type:      models.NotificationLowStock,
		Recipient: workshop.Phone,
		Message:   lowStockMessage(workshop.Name, parts),
	}
	return entry, s.deliver(ctx, workshop, entry)
}

// NotifyServiceReady tells the customer their vehicle is ready for pickup.
func (s *NotificationService) NotifyServiceReady(ctx context.Context, service *models.Service) error {
	workshop, err := s.workshops.Get(ctx)
	if err != nil {
		return storeErr("load workshop", err)
	}
	if !workshop.ServiceReadyNotices || service.Customer == nil || service.Customer.Phone == "" {
		return nil
	}

	plate := ""
	if service.Vehicle != nil {
		plate = service.Vehicle.PlateNumber
	}
	customerID := service.CustomerID
	serviceID := service.ID
	entry := &models.NotificationLog{
		CustomerID: &customerID,
		ServiceID:  &serviceID,
		Type:       models.NotificationServiceReady,
		Recipient:  service.Customer.Phone,
		Message: fmt.Sprintf("Halo %s, kendaraan %s sudah selesai diservis di %s dan siap diambil.",
			service.Customer.Name, plate, workshop.Name),
	}
	return s.deliver(ctx, workshop, entry)
}

// deliver sends entry over WhatsApp when enabled and the recipient is in
// E.164 form, otherwise SMS, and stores the outcome.
func (s *NotificationService) deliver(ctx context.Context, workshop *models.Workshop, entry *models.NotificationLog) error {
	entry.SentAt = s.now()

	to, from := entry.Recipient, s.numbers.SMS
	entry.Channel = "sms"
	if workshop.WhatsAppNotifications && strings.HasPrefix(entry.Recipient, "+") && s.numbers.WhatsApp != "" {
		entry.Channel = "whatsapp"
		to = "whatsapp:" + entry.Recipient
		from = "whatsapp:" + s.numbers.WhatsApp
	}

	switch {
	case s.sender == nil || (entry.Channel == "sms" && !workshop.SMSNotifications):
		entry.Status = "skipped"
	default:
		sid, err := s.sender.Send(to, from, entry.Message)
		if err != nil {
			entry.Status = "failed"
			entry.ErrorMessage = err.Error()
			s.logger.WithError(err).WithField("recipient", entry.Recipient).Warn("message not sent")
		} else {
			entry.Status = "sent"
			s.logger.WithFields(logrus.Fields{
				"recipient": entry.Recipient,
				"sid":       sid,
				"type":      entry.Type,
			}).Info("message sent")
		}
	}

	if err := s.logs.Create(ctx, entry); err != nil {
		return storeErr("log notification", err)
	}
	return nil
}

func (s *NotificationService) ListLogs(ctx context.Context, limit int) ([]models.NotificationLog, error) {
	logs, err := s.logs.ListRecent(ctx, limit)
	if err != nil {
		return nil, storeErr("list notifications", err)
	}
	return logs, nil
}
