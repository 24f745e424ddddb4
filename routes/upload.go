package routes

import (
	"github.com/Discovery-supp/Nzoo-immo-concerigerie/storage"
	"github.com/Discovery-supp/Nzoo-immo-concerigerie/utils"

	"github.com/kataras/iris/v12"
)

type uploadInput struct {
	Data     string `json:"data" validate:"required"` // base64 data URL or raw base64
	PublicID string `json:"public_id"`                // optional
}

// UploadImage handles base64 image upload to Cloudinary.
func UploadImage(ctx iris.Context) {
	var in uploadInput
	if err := ctx.ReadJSON(&in); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	url := storage.UploadBase64Image(in.Data, in.PublicID)
	if url == "" {
		utils.CreateError(iris.StatusBadRequest, "Upload Failed", "Image could not be uploaded", ctx)
		return
	}

	ctx.JSON(iris.Map{"url": url})
}
