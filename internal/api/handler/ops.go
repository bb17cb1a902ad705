// Package handler provides HTTP handlers for the CitySense API.
package handler

import (
	"net/http"
	"time"

	"github.com/citysense/citysense/internal/api/models"
	"github.com/citysense/citysense/internal/api/response"
	"github.com/citysense/citysense/internal/hazard"
)

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	hazards   *hazard.Service
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(version, buildTime string, hazards *hazard.Service) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		hazards:   hazards,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check. Degraded when
// no hazard snapshot has been fetched yet.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	status := models.HealthStatusOK
	details := map[string]interface{}{}

	if h.hazards != nil {
		if age, ok := h.hazards.SnapshotAge(); ok {
			details["snapshotAgeSeconds"] = int(age.Seconds())
		} else {
			status = models.HealthStatusDegraded
			details["snapshot"] = "not yet fetched"
		}
	}

	health := models.Health{
		Status:  status,
		Time:    models.Timestamp(time.Now()),
		Details: details,
	}
	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - provider and subsystem status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	now := models.Timestamp(time.Now())

	hazardStatus := models.HealthStatusOK
	var lastSuccess *models.Timestamp
	if h.hazards != nil {
		if age, ok := h.hazards.SnapshotAge(); ok {
			fetched := models.Timestamp(time.Now().Add(-age))
			lastSuccess = &fetched
		} else {
			hazardStatus = models.HealthStatusDegraded
		}
	}

	status := models.SystemStatus{
		Status: hazardStatus,
		Time:   now,
		Subsystems: []models.SubsystemStatus{
			{Name: "postgres", Status: models.HealthStatusOK},
			{Name: "overlay-registry", Status: models.HealthStatusOK},
		},
		Providers: []models.ProviderStatus{
			{Provider: "hazard-store", Status: hazardStatus, LastSuccessAt: lastSuccess},
			{Provider: "mapbox", Status: models.HealthStatusOK},
		},
	}
	response.JSON(w, r, http.StatusOK, status)
}
