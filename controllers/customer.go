package controllers

import (
	"net/http"

	"bengkel-backend/services"
	"bengkel-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CustomerInput struct {
	Name    string  `json:"name" binding:"required"`
	Phone   string  `json:"phone" binding:"required,phone"`
	Address *string `json:"address"`
	Email   *string `json:"email" binding:"omitempty,email"`
}

type VehicleInput struct {
	CustomerID  uuid.UUID `json:"customerId" binding:"required"`
	PlateNumber string    `json:"plateNumber" binding:"required"`
	Brand       string    `json:"brand" binding:"required"`
	Model       string    `json:"model" binding:"required"`
	Year        int       `json:"year" binding:"omitempty,gte=1900"`
}

func (in VehicleInput) toService() services.VehicleInput {
	return services.VehicleInput{
		CustomerID:  in.CustomerID,
		PlateNumber: in.PlateNumber,
		Brand:       in.Brand,
		Model:       in.Model,
		Year:        in.Year,
	}
}

type CustomerController struct {
	customers *services.CustomerService
}

func NewCustomerController(customers *services.CustomerService) *CustomerController {
	return &CustomerController{customers: customers}
}

func (cc *CustomerController) CreateCustomer(c *gin.Context) {
	var input CustomerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	customer, err := cc.customers.CreateCustomer(c.Request.Context(), services.CustomerInput(input))
	if err != nil {
		respondServiceError(c, "CreateCustomer", err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}

func (cc *CustomerController) GetCustomers(c *gin.Context) {
	customers, err := cc.customers.ListCustomers(c.Request.Context(), c.Query("search"))
	if err != nil {
		respondServiceError(c, "GetCustomers", err)
		return
	}
	c.JSON(http.StatusOK, customers)
}

func (cc *CustomerController) GetCustomer(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	customer, err := cc.customers.GetCustomer(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, "GetCustomer", err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (cc *CustomerController) UpdateCustomer(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input CustomerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	customer, err := cc.customers.UpdateCustomer(c.Request.Context(), id, services.CustomerInput(input))
	if err != nil {
		respondServiceError(c, "UpdateCustomer", err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (cc *CustomerController) DeleteCustomer(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := cc.customers.DeleteCustomer(c.Request.Context(), id); err != nil {
		respondServiceError(c, "DeleteCustomer", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Customer deleted"})
}

func (cc *CustomerController) CreateVehicle(c *gin.Context) {
	var input VehicleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	vehicle, err := cc.customers.CreateVehicle(c.Request.Context(), input.toService())
	if err != nil {
		respondServiceError(c, "CreateVehicle", err)
		return
	}
	c.JSON(http.StatusCreated, vehicle)
}

func (cc *CustomerController) GetVehicles(c *gin.Context) {
	customerID, ok := queryID(c, "customerId")
	if !ok {
		return
	}
	vehicles, err := cc.customers.ListVehicles(c.Request.Context(), customerID)
	if err != nil {
		respondServiceError(c, "GetVehicles", err)
		return
	}
	c.JSON(http.StatusOK, vehicles)
}

func (cc *CustomerController) GetVehicle(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	vehicle, err := cc.customers.GetVehicle(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, "GetVehicle", err)
		return
	}
	c.JSON(http.StatusOK, vehicle)
}

func (cc *CustomerController) UpdateVehicle(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input VehicleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	vehicle, err := cc.customers.UpdateVehicle(c.Request.Context(), id, input.toService())
	if err != nil {
		respondServiceError(c, "UpdateVehicle", err)
		return
	}
	c.JSON(http.StatusOK, vehicle)
}

func (cc *CustomerController) DeleteVehicle(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := cc.customers.DeleteVehicle(c.Request.Context(), id); err != nil {
		respondServiceError(c, "DeleteVehicle", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Vehicle deleted"})
}
