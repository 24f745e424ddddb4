package routes

import (
	"encoding/json"
	"errors"

	"github.com/Discovery-supp/Nzoo-immo-concerigerie/models"
	"github.com/Discovery-supp/Nzoo-immo-concerigerie/storage"
	"github.com/Discovery-supp/Nzoo-immo-concerigerie/utils"

	"github.com/kataras/iris/v12"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CreatePropertyInput struct {
	Title              string   `json:"title" validate:"required,max=256"`
	Description        string   `json:"description" validate:"required"`
	Type               string   `json:"type" validate:"required,oneof=apartment villa studio house room"`
	Address            string   `json:"address" validate:"required"`
	Surface            float64  `json:"surface" validate:"gte=0"`
	MaxGuests          int      `json:"maxGuests" validate:"required,gte=1,lte=30"`
	Bedrooms           int      `json:"bedrooms" validate:"gte=0"`
	Bathrooms          int      `json:"bathrooms" validate:"gte=0"`
	Beds               int      `json:"beds" validate:"gte=0"`
	PricePerNight      float64  `json:"pricePerNight" validate:"required,gt=0"`
	CleaningFee        float64  `json:"cleaningFee" validate:"gte=0"`
	MinNights          int      `json:"minNights" validate:"required,gte=1"`
	MaxNights          int      `json:"maxNights" validate:"required,gte=1"`
	Amenities          []string `json:"amenities"`
	Images             []string `json:"images"`
	Rules              []string `json:"rules"`
	CancellationPolicy string   `json:"cancellationPolicy" validate:"omitempty,oneof=flexible moderate strict"`
	CheckInTime        string   `json:"checkInTime"`
	CheckOutTime       string   `json:"checkOutTime"`
	Category           string   `json:"category"`
	Neighborhood       string   `json:"neighborhood"`
	BeachAccess        bool     `json:"beachAccess"`
}

type UpdatePropertyInput struct {
	Title              *string   `json:"title"`
	Description        *string   `json:"description"`
	Address            *string   `json:"address"`
	MaxGuests          *int      `json:"maxGuests"`
	PricePerNight      *float64  `json:"pricePerNight"`
	CleaningFee        *float64  `json:"cleaningFee"`
	MinNights          *int      `json:"minNights"`
	MaxNights          *int      `json:"maxNights"`
	Amenities          *[]string `json:"amenities"`
	Images             *[]string `json:"images"`
	Rules              *[]string `json:"rules"`
	CancellationPolicy *string   `json:"cancellationPolicy"`
	Category           *string   `json:"category"`
	Neighborhood       *string   `json:"neighborhood"`
	BeachAccess        *bool     `json:"beachAccess"`
	IsActive           *bool     `json:"isActive"`
}

// CreateProperty publishes a listing owned by the authenticated user.
func CreateProperty(ctx iris.Context) {
	ownerID := ctx.Values().Get("userID").(uint)

	var input CreatePropertyInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if input.MinNights > input.MaxNights {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "minNights cannot exceed maxNights", ctx)
		return
	}

	property := models.Property{
		OwnerID:            ownerID,
		Title:              input.Title,
		Description:        input.Description,
		Type:               input.Type,
		Address:            input.Address,
		Surface:            input.Surface,
		MaxGuests:          input.MaxGuests,
		Bedrooms:           input.Bedrooms,
		Bathrooms:          input.Bathrooms,
		Beds:               input.Beds,
		PricePerNight:      input.PricePerNight,
		CleaningFee:        input.CleaningFee,
		MinNights:          input.MinNights,
		MaxNights:          input.MaxNights,
		Amenities:          marshalJSONList(input.Amenities),
		Images:             marshalJSONList(input.Images),
		Rules:              marshalJSONList(input.Rules),
		CancellationPolicy: input.CancellationPolicy,
		CheckInTime:        input.CheckInTime,
		CheckOutTime:       input.CheckOutTime,
		Category:           input.Category,
		Neighborhood:       input.Neighborhood,
		BeachAccess:        input.BeachAccess,
	}

	if err := storage.DB.Create(&property).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(property)
}

// GetProperty returns a listing with its owner and review summary.
func GetProperty(ctx iris.Context) {
	id := ctx.Params().Get("id")

	var property models.Property
	if err := storage.DB.
		Preload("Owner").
		Preload("Reviews").
		Preload("Reviews.Guest").
		First(&property, id).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Property not found", ctx)
		return
	}

	property.Rating = averageRating(property.Reviews)

	ctx.JSON(iris.Map{
		"property":     property,
		"reviewsCount": len(property.Reviews),
	})
}

// ListProperties returns active listings matching the query filters:
// equality on type/category/neighborhood, price bounds, amenity containment,
// beach access and minimum rating.
func ListProperties(ctx iris.Context) {
	query := storage.DB.Model(&models.Property{}).
		Preload("Owner").
		Preload("Reviews").
		Where("is_active = ?", true)

	if t := ctx.URLParam("type"); t != "" && t != "all" {
		query = query.Where("type = ?", t)
	}
	if c := ctx.URLParam("category"); c != "" && c != "all" {
		query = query.Where("category = ?", c)
	}
	if n := ctx.URLParam("neighborhood"); n != "" && n != "all" {
		query = query.Where("neighborhood = ?", n)
	}
	if minPrice := ctx.URLParamFloat64Default("minPrice", 0); minPrice > 0 {
		query = query.Where("price_per_night >= ?", minPrice)
	}
	if maxPrice := ctx.URLParamFloat64Default("maxPrice", 0); maxPrice > 0 {
		query = query.Where("price_per_night <= ?", maxPrice)
	}
	if beach, err := ctx.URLParamBool("beachAccess"); err == nil && beach {
		query = query.Where("beach_access = ?", true)
	}
	if amenities := ctx.URLParamSlice("amenities"); len(amenities) > 0 {
		raw, _ := json.Marshal(amenities)
		query = query.Where("amenities @> ?", datatypes.JSON(raw))
	}

	var properties []models.Property
	if err := query.Order("created_at DESC").Find(&properties).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	minRating := ctx.URLParamFloat64Default("minRating", 0)
	out := make([]iris.Map, 0, len(properties))
	for i := range properties {
		rating := averageRating(properties[i].Reviews)
		if rating < minRating {
			continue
		}
		properties[i].Rating = rating
		out = append(out, iris.Map{
			"property":     &properties[i],
			"rating":       rating,
			"reviewsCount": len(properties[i].Reviews),
		})
	}

	ctx.JSON(out)
}

// GetOwnerProperties lists everything the owner has published, active or not,
// with reservations preloaded.
func GetOwnerProperties(ctx iris.Context) {
	ownerID := ctx.Values().Get("userID").(uint)

	var properties []models.Property
	if err := storage.DB.Preload("Reservations").Where("owner_id = ?", ownerID).Find(&properties).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(properties)
}

// UpdateProperty mutates a listing. Only its owner (or an admin) may do so.
func UpdateProperty(ctx iris.Context) {
	id := ctx.Params().Get("id")
	actorID := ctx.Values().Get("userID").(uint)
	actorRole, _ := ctx.Values().Get("userRole").(string)

	var property models.Property
	if err := storage.DB.First(&property, id).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Property not found", ctx)
		return
	}

	if property.OwnerID != actorID && actorRole != models.RoleAdmin {
		utils.CreateError(iris.StatusForbidden, "Forbidden", "Only the owner can update this property", ctx)
		return
	}

	var input UpdatePropertyInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	updates := map[string]interface{}{}
	if input.Title != nil {
		updates["title"] = *input.Title
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Address != nil {
		updates["address"] = *input.Address
	}
	if input.MaxGuests != nil {
		updates["max_guests"] = *input.MaxGuests
	}
	if input.PricePerNight != nil {
		updates["price_per_night"] = *input.PricePerNight
	}
	if input.CleaningFee != nil {
		updates["cleaning_fee"] = *input.CleaningFee
	}
	if input.MinNights != nil {
		updates["min_nights"] = *input.MinNights
	}
	if input.MaxNights != nil {
		updates["max_nights"] = *input.MaxNights
	}
	if input.Amenities != nil {
		updates["amenities"] = marshalJSONList(*input.Amenities)
	}
	if input.Images != nil {
		updates["images"] = marshalJSONList(*input.Images)
	}
	if input.Rules != nil {
		updates["rules"] = marshalJSONList(*input.Rules)
	}
	if input.CancellationPolicy != nil {
		updates["cancellation_policy"] = *input.CancellationPolicy
	}
	if input.Category != nil {
		updates["category"] = *input.Category
	}
	if input.Neighborhood != nil {
		updates["neighborhood"] = *input.Neighborhood
	}
	if input.BeachAccess != nil {
		updates["beach_access"] = *input.BeachAccess
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	minNights := property.MinNights
	maxNights := property.MaxNights
	if input.MinNights != nil {
		minNights = *input.MinNights
	}
	if input.MaxNights != nil {
		maxNights = *input.MaxNights
	}
	if minNights < 1 || maxNights < 1 || minNights > maxNights {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "invalid night limits", ctx)
		return
	}

	if err := storage.DB.Model(&property).Updates(updates).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(property)
}

// DeactivateProperty unpublishes a listing instead of deleting it, so
// historical reservations keep a valid reference.
func DeactivateProperty(ctx iris.Context) {
	id := ctx.Params().Get("id")
	actorID := ctx.Values().Get("userID").(uint)
	actorRole, _ := ctx.Values().Get("userRole").(string)

	var property models.Property
	if err := storage.DB.First(&property, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.CreateError(iris.StatusNotFound, "Not Found", "Property not found", ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	if property.OwnerID != actorID && actorRole != models.RoleAdmin {
		utils.CreateError(iris.StatusForbidden, "Forbidden", "Only the owner can deactivate this property", ctx)
		return
	}

	if err := storage.DB.Model(&property).Update("is_active", false).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"deactivated": true})
}

func averageRating(reviews []models.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	var total float64
	for _, r := range reviews {
		total += float64(r.Rating)
	}
	return total / float64(len(reviews))
}

func marshalJSONList(values []string) datatypes.JSON {
	if values == nil {
		values = []string{}
	}
	raw, _ := json.Marshal(values)
	return raw
}
