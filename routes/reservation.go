package routes

import (
	"errors"
	"time"

	"github.com/Discovery-supp/Nzoo-immo-concerigerie/models"
	"github.com/Discovery-supp/Nzoo-immo-concerigerie/services"
	"github.com/Discovery-supp/Nzoo-immo-concerigerie/storage"
	"github.com/Discovery-supp/Nzoo-immo-concerigerie/utils"

	"github.com/kataras/iris/v12"
)

const dateLayout = "2006-01-02"

type CreateReservationInput struct {
	CheckIn        string                   `json:"checkIn" validate:"required"`
	CheckOut       string                   `json:"checkOut" validate:"required"`
	Adults         int                      `json:"adults" validate:"required,gte=1,lte=16"`
	Children       int                      `json:"children" validate:"gte=0"`
	Infants        int                      `json:"infants" validate:"gte=0"`
	Pets           int                      `json:"pets" validate:"gte=0"`
	Services       []services.BookedService `json:"services"`
	IdempotencyKey string                   `json:"idempotencyKey"`
}

type QuoteReservationInput struct {
	CheckIn  string                   `json:"checkIn" validate:"required"`
	CheckOut string                   `json:"checkOut" validate:"required"`
	Services []services.BookedService `json:"services"`
}

func bookingService() *services.BookingService {
	return services.NewBookingService(storage.DB)
}

// handleBookingError maps the booking-domain taxonomy to HTTP statuses.
func handleBookingError(err error, ctx iris.Context) {
	switch {
	case errors.Is(err, services.ErrInvalidRange):
		utils.CreateError(iris.StatusBadRequest, "Validation Error", err.Error(), ctx)
	case errors.Is(err, services.ErrInvalidNights):
		utils.CreateError(iris.StatusBadRequest, "Validation Error", err.Error(), ctx)
	case errors.Is(err, services.ErrRangeUnavailable):
		utils.CreateError(iris.StatusConflict, "Range Unavailable", err.Error(), ctx)
	case errors.Is(err, services.ErrInvalidTransition):
		utils.CreateError(iris.StatusConflict, "Invalid Transition", err.Error(), ctx)
	case errors.Is(err, services.ErrUnauthorized):
		utils.CreateError(iris.StatusForbidden, "Forbidden", err.Error(), ctx)
	case errors.Is(err, services.ErrNotFound):
		utils.CreateError(iris.StatusNotFound, "Not Found", err.Error(), ctx)
	case errors.Is(err, services.ErrTransient):
		utils.CreateError(iris.StatusServiceUnavailable, "Temporary Failure", err.Error(), ctx)
	default:
		utils.CreateInternalServerError(ctx)
	}
}

func parseDateRange(checkInStr, checkOutStr string, ctx iris.Context) (time.Time, time.Time, bool) {
	checkIn, err := time.Parse(dateLayout, checkInStr)
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "checkIn must be formatted YYYY-MM-DD", ctx)
		return time.Time{}, time.Time{}, false
	}
	checkOut, err := time.Parse(dateLayout, checkOutStr)
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "checkOut must be formatted YYYY-MM-DD", ctx)
		return time.Time{}, time.Time{}, false
	}
	return checkIn, checkOut, true
}

// CheckAvailability answers whether [checkIn, checkOut) can be booked.
func CheckAvailability(ctx iris.Context) {
	propertyID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid property ID", ctx)
		return
	}

	checkIn, checkOut, ok := parseDateRange(ctx.URLParam("checkIn"), ctx.URLParam("checkOut"), ctx)
	if !ok {
		return
	}

	available, availErr := bookingService().CheckAvailability(ctx.Request().Context(), propertyID, checkIn, checkOut)
	if availErr != nil {
		handleBookingError(availErr, ctx)
		return
	}

	ctx.JSON(iris.Map{
		"propertyID": propertyID,
		"checkIn":    checkIn.Format(dateLayout),
		"checkOut":   checkOut.Format(dateLayout),
		"available":  available,
	})
}

// QuoteReservation prices a stay without booking it.
func QuoteReservation(ctx iris.Context) {
	propertyID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid property ID", ctx)
		return
	}

	var input QuoteReservationInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	checkIn, checkOut, ok := parseDateRange(input.CheckIn, input.CheckOut, ctx)
	if !ok {
		return
	}

	var property models.Property
	if err := storage.DB.First(&property, propertyID).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Property not found", ctx)
		return
	}

	quote, quoteErr := services.PriceStay(&property, checkIn, checkOut, input.Services)
	if quoteErr != nil {
		handleBookingError(quoteErr, ctx)
		return
	}

	ctx.JSON(quote)
}

// CreateReservation books a stay for the authenticated guest. The booking
// service serializes competing requests per property; a retried request with
// the same idempotency key returns the original reservation.
func CreateReservation(ctx iris.Context) {
	propertyID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid property ID", ctx)
		return
	}

	guestID := ctx.Values().Get("userID").(uint)

	var input CreateReservationInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	checkIn, checkOut, ok := parseDateRange(input.CheckIn, input.CheckOut, ctx)
	if !ok {
		return
	}

	if input.IdempotencyKey == "" {
		input.IdempotencyKey = ctx.GetHeader("Idempotency-Key")
	}

	reservation, createErr := bookingService().CreateReservation(ctx.Request().Context(), services.BookingInput{
		PropertyID:     propertyID,
		GuestID:        guestID,
		CheckIn:        checkIn,
		CheckOut:       checkOut,
		Adults:         input.Adults,
		Children:       input.Children,
		Infants:        input.Infants,
		Pets:           input.Pets,
		Services:       input.Services,
		IdempotencyKey: input.IdempotencyKey,
	})
	if createErr != nil {
		handleBookingError(createErr, ctx)
		return
	}

	// Reload with relationships for the response
	storage.DB.Preload("Property").Preload("Guest").First(reservation, reservation.ID)

	if reservation.Property != nil && reservation.Guest != nil {
		ns := services.NewNotificationService(storage.DB)
		go ns.NotifyReservationRequested(reservation, reservation.Property, reservation.Guest)
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(reservation)
}

// GetReservation returns one reservation to its guest, the property owner or
// an admin.
func GetReservation(ctx iris.Context) {
	id := ctx.Params().Get("id")
	actorID := ctx.Values().Get("userID").(uint)
	actorRole, _ := ctx.Values().Get("userRole").(string)

	var reservation models.Reservation
	if err := storage.DB.Preload("Property").Preload("Guest").First(&reservation, id).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Reservation not found", ctx)
		return
	}

	isGuest := reservation.GuestID == actorID
	isOwner := reservation.Property != nil && reservation.Property.OwnerID == actorID
	if !isGuest && !isOwner && actorRole != models.RoleAdmin {
		utils.CreateError(iris.StatusForbidden, "Forbidden", "Not your reservation", ctx)
		return
	}

	ctx.JSON(reservation)
}

// GetUserReservations lists a guest's bookings, newest first.
func GetUserReservations(ctx iris.Context) {
	params := ctx.Params()
	userID := params.Get("id")

	var reservations []models.Reservation
	res := storage.DB.Preload("Property").Preload("Property.Owner").
		Where("guest_id = ?", userID).
		Order("created_at DESC").
		Find(&reservations)

	if res.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(reservations)
}

// GetReservationsByPropertyID lists bookings on a listing for its owner.
func GetReservationsByPropertyID(ctx iris.Context) {
	id := ctx.Params().Get("id")
	actorID := ctx.Values().Get("userID").(uint)
	actorRole, _ := ctx.Values().Get("userRole").(string)

	var property models.Property
	if err := storage.DB.First(&property, id).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Property not found", ctx)
		return
	}

	if property.OwnerID != actorID && actorRole != models.RoleAdmin {
		utils.CreateError(iris.StatusForbidden, "Forbidden", "Not your property", ctx)
		return
	}

	var reservations []models.Reservation
	res := storage.DB.Preload("Guest").
		Where("property_id = ?", id).
		Order("check_in ASC").
		Find(&reservations)

	if res.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(reservations)
}

// GetHostReservations returns reservations across all properties owned by the
// authenticated host.
func GetHostReservations(ctx iris.Context) {
	ownerID := ctx.Values().Get("userID").(uint)

	var reservations []models.Reservation
	res := storage.DB.
		Joins("JOIN properties p ON p.id = reservations.property_id").
		Where("p.owner_id = ?", ownerID).
		Preload("Property").
		Preload("Guest").
		Order("reservations.created_at DESC").
		Find(&reservations)

	if res.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(reservations)
}

// CancelReservation cancels a stay. Status and payment status change in the
// same write: cancelled + refunded.
func CancelReservation(ctx iris.Context) {
	reservationID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid reservation ID", ctx)
		return
	}

	actorID := ctx.Values().Get("userID").(uint)
	actorRole, _ := ctx.Values().Get("userRole").(string)

	reservation, cancelErr := bookingService().Cancel(ctx.Request().Context(), reservationID, actorID, actorRole)
	if cancelErr != nil {
		handleBookingError(cancelErr, ctx)
		return
	}

	if reservation.Property != nil {
		ns := services.NewNotificationService(storage.DB)
		go ns.NotifyReservationStatus(reservation, reservation.Property)
	}

	ctx.JSON(reservation)
}

// ConfirmReservation is the owner's acceptance of a pending booking; payment
// is marked paid with the same write.
func ConfirmReservation(ctx iris.Context) {
	reservationID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid reservation ID", ctx)
		return
	}

	actorID := ctx.Values().Get("userID").(uint)
	actorRole, _ := ctx.Values().Get("userRole").(string)

	reservation, confirmErr := bookingService().Confirm(ctx.Request().Context(), reservationID, actorID, actorRole)
	if confirmErr != nil {
		handleBookingError(confirmErr, ctx)
		return
	}

	if reservation.Property != nil {
		ns := services.NewNotificationService(storage.DB)
		go ns.NotifyReservationStatus(reservation, reservation.Property)
	}

	ctx.JSON(reservation)
}

// CompleteDueReservations sweeps confirmed stays whose check-out has passed
// into completed. Exposed to admins; deployments usually hit it from a cron.
func CompleteDueReservations(ctx iris.Context) {
	count, err := bookingService().CompleteDueStays(ctx.Request().Context(), time.Now())
	if err != nil {
		handleBookingError(err, ctx)
		return
	}

	ctx.JSON(iris.Map{"completed": count})
}

// GetOwnerStats aggregates booking counts and revenue for an owner's
// dashboard.
func GetOwnerStats(ctx iris.Context) {
	ownerID := ctx.Values().Get("userID").(uint)

	stats, err := bookingService().OwnerStats(ctx.Request().Context(), ownerID)
	if err != nil {
		handleBookingError(err, ctx)
		return
	}

	ctx.JSON(stats)
}
