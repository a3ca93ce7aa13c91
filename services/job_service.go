package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"bengkel-backend/models"
	"bengkel-backend/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ServiceReadyNotifier is told when a job is marked completed.
type ServiceReadyNotifier interface {
	NotifyServiceReady(ctx context.Context, service *models.Service) error
}

type ServiceJobInput struct {
	CustomerID  uuid.UUID
	VehicleID   uuid.UUID
	Complaint   string
	Cost        decimal.Decimal
	Mechanic    *string
	ServiceDate *time.Time
	Notes       *string
}

// JobService manages repair jobs (the "services" table) through their
// pending, in-progress and completed states.
type JobService struct {
	db       *gorm.DB
	services repository.ServiceRepository
	vehicles repository.VehicleRepository
	invoices repository.InvoiceRepository
	notifier ServiceReadyNotifier
	logger   *logrus.Logger
	now      func() time.Time
}

func NewJobService(
	db *gorm.DB,
	services repository.ServiceRepository,
	vehicles repository.VehicleRepository,
	invoices repository.InvoiceRepository,
	notifier ServiceReadyNotifier,
	logger *logrus.Logger,
) *JobService {
	return &JobService{
		db:       db,
		services: services,
		vehicles: vehicles,
		invoices: invoices,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *JobService) validate(ctx context.Context, in ServiceJobInput) error {
	switch {
	case in.CustomerID == uuid.Nil || in.VehicleID == uuid.Nil:
		return invalid(ErrInvalidInput, "customerId and vehicleId are required")
	case strings.TrimSpace(in.Complaint) == "":
		return invalid(ErrInvalidInput, "complaint is required")
	case in.Cost.IsNegative():
		return invalid(ErrInvalidInput, "cost must not be negative")
	case !minorUnits(in.Cost):
		return invalid(ErrAmountPrecision, "cost %s", in.Cost)
	}
	vehicle, err := s.vehicles.FindByID(ctx, in.VehicleID)
	if err != nil {
		return lookupErr("vehicle", in.VehicleID, err)
	}
	if vehicle.CustomerID != in.CustomerID {
		return invalid(ErrInvalidInput, "vehicle %s does not belong to customer %s", vehicle.PlateNumber, in.CustomerID)
	}
	return nil
}

func (s *JobService) CreateService(ctx context.Context, in ServiceJobInput) (*models.Service, error) {
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}
	date := s.now()
	if in.ServiceDate != nil {
		date = *in.ServiceDate
	}
	job := &models.Service{
		CustomerID:  in.CustomerID,
		VehicleID:   in.VehicleID,
		Complaint:   strings.TrimSpace(in.Complaint),
		Cost:        in.Cost,
		Mechanic:    in.Mechanic,
		Status:      models.ServicePending,
		ServiceDate: date,
		Notes:       in.Notes,
	}
	if err := s.services.Create(ctx, job); err != nil {
		return nil, storeErr("create service", err)
	}
	s.logger.WithFields(logrus.Fields{
		"serviceId": job.ID,
		"vehicleId": job.VehicleID,
	}).Info("service created")
	return job, nil
}

func (s *JobService) GetService(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	job, err := s.services.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr("service", id, err)
	}
	return job, nil
}

func (s *JobService) ListServices(ctx context.Context, filter repository.ServiceFilter) ([]models.Service, error) {
	if filter.Status != "" && !models.IsValidServiceStatus(filter.Status) {
		return nil, invalid(ErrInvalidInput, "status %q", filter.Status)
	}
	jobs, err := s.services.List(ctx, filter)
	if err != nil {
		return nil, storeErr("list services", err)
	}
	return jobs, nil
}

// UpdateService edits the job description and cost. The cost is frozen once
// an invoice exists, since the invoice's service line must match it.
func (s *JobService) UpdateService(ctx context.Context, id uuid.UUID, in ServiceJobInput) (*models.Service, error) {
	job, err := s.GetService(ctx, id)
	if err != nil {
		return nil, err
	}
	in.CustomerID, in.VehicleID = job.CustomerID, job.VehicleID
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}
	if !in.Cost.Equal(job.Cost) {
		invoiced, err := s.hasInvoice(ctx, id)
		if err != nil {
			return nil, err
		}
		if invoiced {
			return nil, conflict(ErrDuplicateInvoice, "cost of an invoiced service cannot change")
		}
	}

	job.Complaint = strings.TrimSpace(in.Complaint)
	job.Cost = in.Cost
	job.Mechanic = in.Mechanic
	if in.ServiceDate != nil {
		job.ServiceDate = *in.ServiceDate
	}
	job.Notes = in.Notes
	if err := s.services.Update(ctx, job); err != nil {
		return nil, storeErr("update service", err)
	}
	return job, nil
}

// UpdateStatus moves a job between states. Completing a job stamps the
// vehicle's last service date and notifies the customer; a failed notice is
// logged and does not fail the update.
func (s *JobService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Service, error) {
	if !models.IsValidServiceStatus(status) {
		return nil, invalid(ErrInvalidInput, "status %q", status)
	}
	job, err := s.GetService(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status == status {
		return job, nil
	}
	if job.Status == models.ServiceCompleted {
		invoiced, err := s.hasInvoice(ctx, id)
		if err != nil {
			return nil, err
		}
		if invoiced {
			return nil, conflict(ErrDuplicateInvoice, "an invoiced service cannot be reopened")
		}
	}

	if err := s.services.UpdateStatus(ctx, id, status); err != nil {
		return nil, lookupErr("service", id, err)
	}
	job.Status = status

	if status == models.ServiceCompleted {
		if err := s.vehicles.SetLastService(ctx, job.VehicleID, s.now()); err != nil {
			return nil, storeErr("set last service", err)
		}
		if s.notifier != nil {
			if err := s.notifier.NotifyServiceReady(ctx, job); err != nil {
				s.logger.WithError(err).WithField("serviceId", id).Warn("service ready notice failed")
			}
		}
	}
	s.logger.WithFields(logrus.Fields{"serviceId": id, "status": status}).Info("service status changed")
	return job, nil
}

func (s *JobService) DeleteService(ctx context.Context, id uuid.UUID) error {
	invoiced, err := s.hasInvoice(ctx, id)
	if err != nil {
		return err
	}
	if invoiced {
		return conflict(ErrDuplicateInvoice, "an invoiced service cannot be deleted")
	}
	if err := s.services.Delete(ctx, id); err != nil {
		return lookupErr("service", id, err)
	}
	return nil
}

func (s *JobService) CountByStatus(ctx context.Context) (map[string]int64, error) {
	counts, err := s.services.CountByStatus(ctx)
	if err != nil {
		return nil, storeErr("count services", err)
	}
	return counts, nil
}

func (s *JobService) hasInvoice(ctx context.Context, serviceID uuid.UUID) (bool, error) {
	found := false
	err := runTx(ctx, s.db, func(tx *gorm.DB) error {
		_, err := s.invoices.FindByServiceIDTx(tx, serviceID)
		switch {
		case err == nil:
			found = true
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return err
		}
		return nil
	})
	if err != nil {
		return false, storeErr("find invoice", err)
	}
	return found, nil
}
