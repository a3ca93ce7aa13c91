package services

import (
	"context"
	"strings"
	"time"

	"bengkel-backend/models"
	"bengkel-backend/repository"
	"bengkel-backend/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type CustomerInput struct {
	Name    string
	Phone   string
	Address *string
	Email   *string
}

type VehicleInput struct {
	CustomerID  uuid.UUID
	PlateNumber string
	Brand       string
	Model       string
	Year        int
}

type CustomerService struct {
	customers repository.CustomerRepository
	vehicles  repository.VehicleRepository
	logger    *logrus.Logger
}

func NewCustomerService(customers repository.CustomerRepository, vehicles repository.VehicleRepository, logger *logrus.Logger) *CustomerService {
	return &CustomerService{customers: customers, vehicles: vehicles, logger: logger}
}

func normalizeCustomer(in CustomerInput) (CustomerInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return in, invalid(ErrInvalidInput, "name is required")
	}
	phone, err := utils.NormalizePhone(in.Phone)
	if err != nil {
		return in, invalid(ErrInvalidInput, "phone %q: %v", in.Phone, err)
	}
	in.Phone = phone
	return in, nil
}

func (s *CustomerService) CreateCustomer(ctx context.Context, in CustomerInput) (*models.Customer, error) {
	in, err := normalizeCustomer(in)
	if err != nil {
		return nil, err
	}
	c := &models.Customer{Name: in.Name, Phone: in.Phone, Address: in.Address, Email: in.Email}
	if err := s.customers.Create(ctx, c); err != nil {
		return nil, storeErr("create customer", err)
	}
	s.logger.WithField("customerId", c.ID).Info("customer created")
	return c, nil
}

func (s *CustomerService) GetCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	c, err := s.customers.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr("customer", id, err)
	}
	return c, nil
}

func (s *CustomerService) ListCustomers(ctx context.Context, search string) ([]models.Customer, error) {
	customers, err := s.customers.List(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, storeErr("list customers", err)
	}
	return customers, nil
}

func (s *CustomerService) UpdateCustomer(ctx context.Context, id uuid.UUID, in CustomerInput) (*models.Customer, error) {
	in, err := normalizeCustomer(in)
	if err != nil {
		return nil, err
	}
	c, err := s.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Name, c.Phone, c.Address, c.Email = in.Name, in.Phone, in.Address, in.Email
	if err := s.customers.Update(ctx, c); err != nil {
		return nil, storeErr("update customer", err)
	}
	return c, nil
}

func (s *CustomerService) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	if err := s.customers.Delete(ctx, id); err != nil {
		return lookupErr("customer", id, err)
	}
	return nil
}

func validateVehicle(in VehicleInput) error {
	switch {
	case in.CustomerID == uuid.Nil:
		return invalid(ErrInvalidInput, "customerId is required")
	case models.NormalizePlate(in.PlateNumber) == "":
		return invalid(ErrInvalidInput, "plate number is required")
	case strings.TrimSpace(in.Brand) == "" || strings.TrimSpace(in.Model) == "":
		return invalid(ErrInvalidInput, "brand and model are required")
	case in.Year != 0 && (in.Year < 1900 || in.Year > time.Now().Year()+1):
		return invalid(ErrInvalidInput, "year %d", in.Year)
	}
	return nil
}

// CreateVehicle registers a vehicle to an existing customer. Plate numbers
// are unique after normalization; a duplicate is a ConflictError.
func (s *CustomerService) CreateVehicle(ctx context.Context, in VehicleInput) (*models.Vehicle, error) {
	if err := validateVehicle(in); err != nil {
		return nil, err
	}
	if _, err := s.GetCustomer(ctx, in.CustomerID); err != nil {
		return nil, err
	}
	v := &models.Vehicle{
		CustomerID:  in.CustomerID,
		PlateNumber: models.NormalizePlate(in.PlateNumber),
		Brand:       strings.TrimSpace(in.Brand),
		Model:       strings.TrimSpace(in.Model),
		Year:        in.Year,
	}
	if err := s.vehicles.Create(ctx, v); err != nil {
		return nil, storeErr("create vehicle", err)
	}
	return v, nil
}

func (s *CustomerService) GetVehicle(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	v, err := s.vehicles.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr("vehicle", id, err)
	}
	return v, nil
}

func (s *CustomerService) ListVehicles(ctx context.Context, customerID *uuid.UUID) ([]models.Vehicle, error) {
	vehicles, err := s.vehicles.List(ctx, customerID)
	if err != nil {
		return nil, storeErr("list vehicles", err)
	}
	return vehicles, nil
}

func (s *CustomerService) UpdateVehicle(ctx context.Context, id uuid.UUID, in VehicleInput) (*models.Vehicle, error) {
	if err := validateVehicle(in); err != nil {
		return nil, err
	}
	v, err := s.GetVehicle(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.CustomerID != v.CustomerID {
		if _, err := s.GetCustomer(ctx, in.CustomerID); err != nil {
			return nil, err
		}
	}
	v.CustomerID = in.CustomerID
	v.PlateNumber = models.NormalizePlate(in.PlateNumber)
	v.Brand = strings.TrimSpace(in.Brand)
	v.Model = strings.TrimSpace(in.Model)
	v.Year = in.Year
	if err := s.vehicles.Update(ctx, v); err != nil {
		return nil, storeErr("update vehicle", err)
	}
	return v, nil
}

func (s *CustomerService) DeleteVehicle(ctx context.Context, id uuid.UUID) error {
	if err := s.vehicles.Delete(ctx, id); err != nil {
		return lookupErr("vehicle", id, err)
	}
	return nil
}
