package routes

import (
	"strings"
	"time"

	"github.com/Discovery-supp/Nzoo-immo-concerigerie/models"
	"github.com/Discovery-supp/Nzoo-immo-concerigerie/storage"
	"github.com/Discovery-supp/Nzoo-immo-concerigerie/utils"

	"github.com/kataras/iris/v12"
)

func pageParams(ctx iris.Context) (page, perPage int) {
	page = ctx.URLParamIntDefault("page", 1)
	perPage = ctx.URLParamIntDefault("per_page", 25)
	if page < 1 {
		page = 1
	}
	if perPage <= 0 || perPage > 100 {
		perPage = 25
	}
	return page, perPage
}

// AdminListUsers - GET /admin/users?role=&q=&page=&per_page=
func AdminListUsers(ctx iris.Context) {
	page, perPage := pageParams(ctx)

	query := storage.DB.Model(&models.User{})
	if role := strings.TrimSpace(ctx.URLParamDefault("role", "")); role != "" {
		query = query.Where("role = ?", role)
	}
	if q := strings.TrimSpace(ctx.URLParamDefault("q", "")); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("lower(first_name) LIKE ? OR lower(last_name) LIKE ? OR lower(email) LIKE ?", like, like, like)
	}

	var total int64
	query.Count(&total)

	var users []models.User
	err := query.Offset((page - 1) * perPage).Limit(perPage).
		Order("created_at DESC").Find(&users).Error
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONPage(ctx, users, page, perPage, total)
}

// AdminChangeUserRole - PATCH /admin/users/:id/role
func AdminChangeUserRole(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid user ID", ctx)
		return
	}

	var body struct {
		Role string `json:"role"`
	}
	if readErr := ctx.ReadJSON(&body); readErr != nil || !models.ValidRole(body.Role) {
		utils.CreateError(iris.StatusBadRequest, "Validation Error",
			"role must be one of admin, owner, traveler, partner, provider", ctx)
		return
	}

	var user models.User
	if findErr := storage.DB.First(&user, id).Error; findErr != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "User not found", ctx)
		return
	}

	before := user
	user.Role = body.Role
	if saveErr := storage.DB.Save(&user).Error; saveErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "user.role_update", "user", user.ID, before, user)

	ctx.JSON(&user)
}

// AdminListReservations - GET /admin/reservations?status=&propertyID=&page=&per_page=
func AdminListReservations(ctx iris.Context) {
	page, perPage := pageParams(ctx)

	query := storage.DB.Model(&models.Reservation{})
	if status := ctx.URLParamDefault("status", ""); status != "" {
		query = query.Where("status = ?", status)
	}
	if propertyID := ctx.URLParamDefault("propertyID", ""); propertyID != "" {
		query = query.Where("property_id = ?", propertyID)
	}

	var total int64
	query.Count(&total)

	var reservations []models.Reservation
	err := query.Preload("Property").Preload("Guest").
		Offset((page - 1) * perPage).Limit(perPage).
		Order("created_at DESC").Find(&reservations).Error
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONPage(ctx, reservations, page, perPage, total)
}

// AdminUpdateReservationStatus - PATCH /admin/reservations/:id/status
// Admin moves still follow the reservation state machine.
func AdminUpdateReservationStatus(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid reservation ID", ctx)
		return
	}

	var body struct {
		Status models.ReservationStatus `json:"status"`
	}
	if readErr := ctx.ReadJSON(&body); readErr != nil {
		utils.HandleValidationErrors(readErr, ctx)
		return
	}

	adminID := ctx.Values().Get("userID").(uint)

	var before models.Reservation
	if findErr := storage.DB.First(&before, id).Error; findErr != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Reservation not found", ctx)
		return
	}

	reservation, trErr := bookingService().Transition(ctx.Request().Context(), id, body.Status, adminID, models.RoleAdmin)
	if trErr != nil {
		handleBookingError(trErr, ctx)
		return
	}

	utils.Audit(ctx, "reservation.status_update", "reservation", reservation.ID, before, reservation)

	ctx.JSON(reservation)
}

// AdminStats - GET /admin/stats
func AdminStats(ctx iris.Context) {
	var totalUsers, totalProperties, activeProperties int64
	storage.DB.Model(&models.User{}).Count(&totalUsers)
	storage.DB.Model(&models.Property{}).Count(&totalProperties)
	storage.DB.Model(&models.Property{}).Where("is_active = ?", true).Count(&activeProperties)

	var pendingReservations int64
	storage.DB.Model(&models.Reservation{}).
		Where("status = ?", models.ReservationPending).Count(&pendingReservations)

	since7 := time.Now().AddDate(0, 0, -7)
	since30 := time.Now().AddDate(0, 0, -30)
	var newRes7, newRes30 int64
	storage.DB.Model(&models.Reservation{}).Where("created_at >= ?", since7).Count(&newRes7)
	storage.DB.Model(&models.Reservation{}).Where("created_at >= ?", since30).Count(&newRes30)

	var revenue float64
	storage.DB.Model(&models.Reservation{}).
		Where("status IN ?", []models.ReservationStatus{models.ReservationConfirmed, models.ReservationCompleted}).
		Select("COALESCE(SUM(total_amount), 0)").Scan(&revenue)

	ctx.JSON(iris.Map{
		"total_users":          totalUsers,
		"total_properties":     totalProperties,
		"active_properties":    activeProperties,
		"pending_reservations": pendingReservations,
		"new_reservations_7d":  newRes7,
		"new_reservations_30d": newRes30,
		"booked_revenue":       revenue,
	})
}

// AdminActivity - GET /admin/activity
func AdminActivity(ctx iris.Context) {
	var logs []models.AuditLog
	storage.DB.Order("created_at DESC").Limit(100).Find(&logs)
	ctx.JSON(logs)
}
