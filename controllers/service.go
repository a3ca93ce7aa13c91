package controllers

import (
	"net/http"
	"strconv"
	"time"

	"bengkel-backend/repository"
	"bengkel-backend/services"
	"bengkel-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ServiceInput struct {
	CustomerID  uuid.UUID       `json:"customerId"`
	VehicleID   uuid.UUID       `json:"vehicleId"`
	Complaint   string          `json:"complaint" binding:"required"`
	Cost        decimal.Decimal `json:"cost" binding:"gte=0"`
	Mechanic    *string         `json:"mechanic"`
	ServiceDate *time.Time      `json:"serviceDate"`
	Notes       *string         `json:"notes"`
}

type UpdateServiceStatusInput struct {
	Status string `json:"status" binding:"required,oneof=pending in-progress completed"`
}

// ServiceController serves repair jobs.
type ServiceController struct {
	jobs *services.JobService
}

func NewServiceController(jobs *services.JobService) *ServiceController {
	return &ServiceController{jobs: jobs}
}

func (sc *ServiceController) CreateService(c *gin.Context) {
	var input ServiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	job, err := sc.jobs.CreateService(c.Request.Context(), services.ServiceJobInput(input))
	if err != nil {
		respondServiceError(c, "CreateService", err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

func (sc *ServiceController) GetServices(c *gin.Context) {
	customerID, ok := queryID(c, "customerId")
	if !ok {
		return
	}
	vehicleID, ok := queryID(c, "vehicleId")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	jobs, err := sc.jobs.ListServices(c.Request.Context(), repository.ServiceFilter{
		Status:     c.Query("status"),
		CustomerID: customerID,
		VehicleID:  vehicleID,
		Limit:      limit,
	})
	if err != nil {
		respondServiceError(c, "GetServices", err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

func (sc *ServiceController) GetService(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	job, err := sc.jobs.GetService(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, "GetService", err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (sc *ServiceController) UpdateService(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input ServiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	job, err := sc.jobs.UpdateService(c.Request.Context(), id, services.ServiceJobInput(input))
	if err != nil {
		respondServiceError(c, "UpdateService", err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (sc *ServiceController) UpdateServiceStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input UpdateServiceStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	job, err := sc.jobs.UpdateStatus(c.Request.Context(), id, input.Status)
	if err != nil {
		respondServiceError(c, "UpdateServiceStatus", err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (sc *ServiceController) DeleteService(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := sc.jobs.DeleteService(c.Request.Context(), id); err != nil {
		respondServiceError(c, "DeleteService", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Service deleted"})
}
