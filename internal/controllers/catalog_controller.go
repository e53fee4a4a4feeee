package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"

	"shuttle_desk/internal/config"
	"shuttle_desk/internal/models"
)

// --- Admin-maintained reference data: departments, routes, vehicles, drivers ---

func CreateDepartment(c *gin.Context) {
	var input struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid department input: " + err.Error()})
		return
	}

	department := models.Department{Name: input.Name}
	if err := config.DB.Create(&department).Error; err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			c.JSON(http.StatusConflict, gin.H{"error": "department name already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create department: " + err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"department": department})
}

func ListDepartments(c *gin.Context) {
	var departments []models.Department
	if err := config.DB.Order("name ASC").Find(&departments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing departments: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": departments})
}

func CreateRoute(c *gin.Context) {
	var input struct {
		RouteNo   string   `json:"route_no" binding:"required"`
		RouteName string   `json:"route_name" binding:"required"`
		SubNames  []string `json:"sub_names"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid route input: " + err.Error()})
		return
	}
	if len(input.SubNames) > models.MaxSubRoutesPerRoute {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a route may carry at most " +
			strconv.Itoa(models.MaxSubRoutesPerRoute) + " sub-routes"})
		return
	}

	tx := config.DB.Begin()
	if tx.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}
	route := models.Route{RouteNo: input.RouteNo, RouteName: input.RouteName}
	if err := tx.Create(&route).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Create route failed: " + err.Error()})
		return
	}
	for _, name := range input.SubNames {
		sub := models.SubRoute{RouteID: route.ID, SubName: name}
		if err := tx.Create(&sub).Error; err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Create sub-route failed: " + err.Error()})
			return
		}
	}
	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Transaction commit failed: " + err.Error()})
		return
	}

	config.DB.Preload("SubRoutes").First(&route, route.ID)
	c.JSON(http.StatusCreated, gin.H{"route": route})
}

// AddSubRoutes bulk-inserts sub-routes onto an existing route, enforcing the
// per-route cap against what is already there.
func AddSubRoutes(c *gin.Context) {
	routeID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid route ID format."})
		return
	}
	var route models.Route
	if err := config.DB.First(&route, uint(routeID)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found."})
		return
	}

	var input struct {
		SubNames []string `json:"sub_names" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existing int64
	config.DB.Model(&models.SubRoute{}).Where("route_id = ?", route.ID).Count(&existing)
	if int(existing)+len(input.SubNames) > models.MaxSubRoutesPerRoute {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a route may carry at most " +
			strconv.Itoa(models.MaxSubRoutesPerRoute) + " sub-routes"})
		return
	}

	tx := config.DB.Begin()
	for _, name := range input.SubNames {
		sub := models.SubRoute{RouteID: route.ID, SubName: name}
		if err := tx.Create(&sub).Error; err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Create sub-route failed: " + err.Error()})
			return
		}
	}
	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Transaction commit failed: " + err.Error()})
		return
	}

	config.DB.Preload("SubRoutes").First(&route, route.ID)
	c.JSON(http.StatusOK, gin.H{"route": route})
}

func ListRoutes(c *gin.Context) {
	var routes []models.Route
	if err := config.DB.Preload("SubRoutes").Order("route_no ASC").Find(&routes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing routes: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": routes})
}

func CreateVehicle(c *gin.Context) {
	var input struct {
		VehicleNo      string `json:"vehicle_no" binding:"required"`
		RegistrationNo string `json:"registration_no"`
		FleetNo        string `json:"fleet_no"`
		VehicleType    string `json:"vehicle_type" binding:"required"`
		Capacity       int    `json:"capacity" binding:"required"`
		OwnerName      string `json:"owner_name"`
		RouteIDs       []uint `json:"route_ids"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vehicle input: " + err.Error()})
		return
	}
	vehicleType, err := models.ParseVehicleType(input.VehicleType)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Capacity <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "capacity must be positive"})
		return
	}

	tx := config.DB.Begin()
	if tx.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}
	vehicle := models.Vehicle{
		VehicleNo:      input.VehicleNo,
		RegistrationNo: input.RegistrationNo,
		FleetNo:        input.FleetNo,
		VehicleType:    vehicleType,
		Capacity:       input.Capacity,
		OwnerName:      input.OwnerName,
	}
	if err := tx.Create(&vehicle).Error; err != nil {
		tx.Rollback()
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			c.JSON(http.StatusConflict, gin.H{"error": "vehicle_no already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create vehicle: " + err.Error()})
		return
	}
	for _, rid := range input.RouteIDs {
		var route models.Route
		if err := tx.First(&route, rid).Error; err != nil {
			tx.Rollback()
			c.JSON(http.StatusBadRequest, gin.H{"error": "route " + strconv.FormatUint(uint64(rid), 10) + " does not exist"})
			return
		}
		if err := tx.Create(&models.VehicleRoute{VehicleID: vehicle.ID, RouteID: rid}).Error; err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to set route coverage: " + err.Error()})
			return
		}
	}
	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Transaction commit failed: " + err.Error()})
		return
	}

	config.DB.Preload("Routes").First(&vehicle, vehicle.ID)
	c.JSON(http.StatusCreated, gin.H{"vehicle": vehicle})
}

func ListVehicles(c *gin.Context) {
	var vehicles []models.Vehicle
	if err := config.DB.Preload("Routes").Find(&vehicles).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing vehicles: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": vehicles})
}

// SetVehicleRoutes replaces a vehicle's route coverage.
func SetVehicleRoutes(c *gin.Context) {
	vehID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vehicle ID format."})
		return
	}
	var vehicle models.Vehicle
	if err := config.DB.First(&vehicle, uint(vehID)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Vehicle not found."})
		return
	}

	var input struct {
		RouteIDs []uint `json:"route_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tx := config.DB.Begin()
	if err := tx.Where("vehicle_id = ?", vehicle.ID).Delete(&models.VehicleRoute{}).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear coverage: " + err.Error()})
		return
	}
	for _, rid := range input.RouteIDs {
		if err := tx.Create(&models.VehicleRoute{VehicleID: vehicle.ID, RouteID: rid}).Error; err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to set coverage: " + err.Error()})
			return
		}
	}
	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Transaction commit failed: " + err.Error()})
		return
	}

	config.DB.Preload("Routes").First(&vehicle, vehicle.ID)
	c.JSON(http.StatusOK, gin.H{"vehicle": vehicle})
}

func CreateDriver(c *gin.Context) {
	var driver models.Driver
	if err := c.ShouldBindJSON(&driver); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid driver input: " + err.Error()})
		return
	}
	if err := config.DB.Create(&driver).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create driver: " + err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"driver": driver})
}

func ListDrivers(c *gin.Context) {
	var drivers []models.Driver
	if err := config.DB.Find(&drivers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing drivers: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": drivers})
}
