package routes

import (
	"errors"

	"github.com/Discovery-supp/Nzoo-immo-concerigerie/models"
	"github.com/Discovery-supp/Nzoo-immo-concerigerie/storage"
	"github.com/Discovery-supp/Nzoo-immo-concerigerie/utils"

	"github.com/kataras/iris/v12"
	"gorm.io/gorm"
)

type CreateReviewInput struct {
	ReservationID uint   `json:"reservationID" validate:"required"`
	Rating        int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment       string `json:"comment" validate:"max=2000"`
}

// GetPropertyReviews lists a property's reviews with the aggregate rating.
// When the caller is authenticated it also reports whether they may still
// leave a review of their own.
func GetPropertyReviews(ctx iris.Context) {
	propertyID := ctx.Params().Get("id")

	var reviews []models.Review
	res := storage.DB.Preload("Guest").
		Where("property_id = ?", propertyID).
		Order("created_at DESC").
		Find(&reviews)

	if res.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	canReview := false
	if userID, ok := ctx.Values().Get("userID").(uint); ok {
		canReview = eligibleReservationID(userID, propertyID) != 0
	}

	ctx.JSON(iris.Map{
		"reviews":   reviews,
		"rating":    averageRating(reviews),
		"count":     len(reviews),
		"canReview": canReview,
	})
}

// CreateReview records a guest's review of a completed stay. A reservation
// carries at most one review.
func CreateReview(ctx iris.Context) {
	propertyID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid property ID", ctx)
		return
	}

	guestID := ctx.Values().Get("userID").(uint)

	var input CreateReviewInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var reservation models.Reservation
	findErr := storage.DB.
		Where("id = ? AND guest_id = ? AND property_id = ? AND status = ?",
			input.ReservationID, guestID, propertyID, models.ReservationCompleted).
		First(&reservation).Error
	if findErr != nil {
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			utils.CreateError(iris.StatusForbidden, "Forbidden",
				"Reviews require a completed stay at this property", ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	review := models.Review{
		GuestID:       guestID,
		PropertyID:    propertyID,
		ReservationID: &reservation.ID,
		Rating:        input.Rating,
		Comment:       input.Comment,
	}

	if createErr := storage.DB.Create(&review).Error; createErr != nil {
		if errors.Is(createErr, gorm.ErrDuplicatedKey) {
			utils.CreateError(iris.StatusConflict, "Already Reviewed",
				"This stay has already been reviewed", ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	refreshPropertyRating(propertyID)

	storage.DB.Preload("Guest").First(&review, review.ID)

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(review)
}

// DeleteReview removes a review; only its author or an admin may do so.
func DeleteReview(ctx iris.Context) {
	reviewID := ctx.Params().Get("id")
	actorID := ctx.Values().Get("userID").(uint)
	actorRole, _ := ctx.Values().Get("userRole").(string)

	var review models.Review
	if err := storage.DB.First(&review, reviewID).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Review not found", ctx)
		return
	}

	if review.GuestID != actorID && actorRole != models.RoleAdmin {
		utils.CreateError(iris.StatusForbidden, "Forbidden", "Not your review", ctx)
		return
	}

	if err := storage.DB.Delete(&review).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	refreshPropertyRating(review.PropertyID)

	ctx.StatusCode(iris.StatusNoContent)
}

// eligibleReservationID returns a completed, not-yet-reviewed reservation of
// the guest at the property, or zero.
func eligibleReservationID(guestID uint, propertyID interface{}) uint {
	var reservation models.Reservation
	res := storage.DB.
		Where("guest_id = ? AND property_id = ? AND status = ?", guestID, propertyID, models.ReservationCompleted).
		Where("id NOT IN (?)", storage.DB.Model(&models.Review{}).
			Select("reservation_id").Where("reservation_id IS NOT NULL")).
		Limit(1).Find(&reservation)

	if res.Error != nil || res.RowsAffected == 0 {
		return 0
	}
	return reservation.ID
}

// refreshPropertyRating recomputes the cached average on the property row.
func refreshPropertyRating(propertyID uint) {
	var reviews []models.Review
	if err := storage.DB.Where("property_id = ?", propertyID).Find(&reviews).Error; err != nil {
		return
	}
	storage.DB.Model(&models.Property{}).Where("id = ?", propertyID).
		Update("rating", averageRating(reviews))
}
