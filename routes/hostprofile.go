package routes

import (
	"encoding/json"
	"errors"

	"github.com/Discovery-supp/Nzoo-immo-concerigerie/models"
	"github.com/Discovery-supp/Nzoo-immo-concerigerie/storage"
	"github.com/Discovery-supp/Nzoo-immo-concerigerie/utils"

	"github.com/kataras/iris/v12"
	"gorm.io/gorm"
)

type UpsertHostProfileInput struct {
	CompanyName  string   `json:"companyName" validate:"max=200"`
	Bio          string   `json:"bio" validate:"max=2000"`
	Languages    []string `json:"languages"`
	Neighborhood string   `json:"neighborhood" validate:"max=200"`
}

// UpsertHostProfile creates or updates the caller's host profile. Editing an
// existing profile resets verification.
func UpsertHostProfile(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var input UpsertHostProfileInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	languagesJSON, _ := json.Marshal(input.Languages)

	var profile models.HostProfile
	err := storage.DB.Where("user_id = ?", userID).First(&profile).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.CreateInternalServerError(ctx)
		return
	}

	profile.UserID = userID
	profile.CompanyName = input.CompanyName
	profile.Bio = input.Bio
	profile.Languages = languagesJSON
	profile.Neighborhood = input.Neighborhood
	profile.IsVerified = false

	if saveErr := storage.DB.Save(&profile).Error; saveErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(profile)
}

// GetHostProfile returns the profile of the user in the path.
func GetHostProfile(ctx iris.Context) {
	userID := ctx.Params().Get("id")

	var profile models.HostProfile
	err := storage.DB.Preload("User").Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Host profile not found", ctx)
		return
	}

	ctx.JSON(profile)
}

// ListVerifiedHosts is the public directory of verified hosts.
func ListVerifiedHosts(ctx iris.Context) {
	var profiles []models.HostProfile
	res := storage.DB.Preload("User").
		Where("is_verified = ?", true).
		Order("company_name ASC").
		Find(&profiles)

	if res.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(profiles)
}

// VerifyHostProfile flips the verification flag; admin only, audited.
func VerifyHostProfile(ctx iris.Context) {
	profileID := ctx.Params().Get("id")

	var input struct {
		Verified bool `json:"verified"`
	}
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var profile models.HostProfile
	if err := storage.DB.First(&profile, profileID).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Host profile not found", ctx)
		return
	}

	before := profile
	profile.IsVerified = input.Verified
	if err := storage.DB.Save(&profile).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "host_profile.verify", "host_profile", profile.ID, before, profile)

	ctx.JSON(profile)
}
