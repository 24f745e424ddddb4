package main

import (
	"log"
	"os"

	"github.com/Discovery-supp/Nzoo-immo-concerigerie/models"
	"github.com/Discovery-supp/Nzoo-immo-concerigerie/routes"
	"github.com/Discovery-supp/Nzoo-immo-concerigerie/storage"
	"github.com/Discovery-supp/Nzoo-immo-concerigerie/utils"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

func main() {
	godotenv.Load()
	storage.InitializeDB()
	storage.InitializeRedis()

	app := iris.New()
	app.Validator = validator.New()

	app.AllowMethods(iris.MethodOptions)
	app.UseRouter(func(ctx iris.Context) {
		ctx.Header("Access-Control-Allow-Origin", ctx.GetHeader("Origin"))
		ctx.Header("Vary", "Origin")
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With")
		ctx.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	})

	app.Use(iris.Compression)

	resetTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("EMAIL_TOKEN_SECRET")))
	resetTokenVerifier.WithDefaultBlocklist()
	resetTokenVerifierMiddleware := resetTokenVerifier.Verify(func() interface{} {
		return new(utils.ForgotPasswordToken)
	})

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifier.WithDefaultBlocklist()
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})

	refreshTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("REFRESH_TOKEN_SECRET")))
	refreshTokenVerifier.WithDefaultBlocklist()
	refreshTokenVerifierMiddleware := refreshTokenVerifier.Verify(func() interface{} {
		return new(jwt.Claims)
	})

	refreshTokenVerifier.Extractors = append(refreshTokenVerifier.Extractors, func(ctx iris.Context) string {
		var tokenInput utils.RefreshTokenInput
		err := ctx.ReadJSON(&tokenInput)
		if err != nil {
			return ""
		}

		return tokenInput.RefreshToken
	})

	auth := accessTokenVerifierMiddleware
	withUser := utils.UserIDFromTokenMiddleware
	hostOnly := utils.RoleMiddleware(models.RoleOwner, models.RolePartner)
	hostOrProvider := utils.RoleMiddleware(models.RoleOwner, models.RolePartner, models.RoleProvider)

	user := app.Party("/api/user")
	{
		user.Post("/register", routes.Register)
		user.Post("/login", routes.Login)
		user.Post("/logout", routes.Logout)
		user.Post("/facebook", routes.FacebookLoginOrSignUp)
		user.Post("/google", routes.GoogleLoginOrSignUp)
		user.Post("/apple", routes.AppleLoginOrSignUp)
		user.Post("/forgotpassword", routes.ForgotPassword)
		user.Post("/resetpassword", resetTokenVerifierMiddleware, routes.ResetPassword)
		user.Post("/refresh", refreshTokenVerifierMiddleware, utils.RefreshToken)
		user.Get("/me", auth, withUser, routes.GetCurrentUser)
		user.Patch("/{id:uint}/profile", auth, utils.UserIDMiddleware, routes.UpdateUserProfile)
		user.Get("/{id:uint}/properties/saved", auth, utils.UserIDMiddleware, routes.GetUserSavedProperties)
		user.Patch("/{id:uint}/properties/saved", auth, utils.UserIDMiddleware, routes.AlterUserSavedProperties)
		user.Patch("/{id:uint}/pushtoken", auth, utils.UserIDMiddleware, routes.AlterPushToken)
		user.Patch("/{id:uint}/settings/notifications", auth, utils.UserIDMiddleware, routes.AllowsNotifications)
		user.Get("/{id:uint}/reservations", auth, utils.UserIDMiddleware, routes.GetUserReservations)
	}

	property := app.Party("/api/property")
	{
		property.Get("/", routes.ListProperties)
		property.Get("/{id:uint}", routes.GetProperty)
		property.Get("/{id:uint}/availability", routes.CheckAvailability)
		property.Get("/{id:uint}/reviews", routes.GetPropertyReviews)
		property.Post("/{id:uint}/quote", routes.QuoteReservation)

		property.Post("/", auth, withUser, hostOnly, routes.CreateProperty)
		property.Patch("/{id:uint}", auth, withUser, routes.UpdateProperty)
		property.Delete("/{id:uint}", auth, withUser, routes.DeactivateProperty)
		property.Get("/owner/mine", auth, withUser, hostOnly, routes.GetOwnerProperties)
		property.Get("/{id:uint}/reservations", auth, withUser, routes.GetReservationsByPropertyID)

		property.Post("/{id:uint}/reservation", auth, withUser, routes.CreateReservation)
		property.Post("/{id:uint}/review", auth, withUser, routes.CreateReview)
	}

	reservation := app.Party("/api/reservation", auth, withUser)
	{
		reservation.Get("/host", routes.GetHostReservations)
		reservation.Get("/host/stats", routes.GetOwnerStats)
		reservation.Get("/{id:uint}", routes.GetReservation)
		reservation.Post("/{id:uint}/cancel", routes.CancelReservation)
		reservation.Post("/{id:uint}/confirm", routes.ConfirmReservation)
	}

	review := app.Party("/api/review", auth, withUser)
	{
		review.Delete("/{id:uint}", routes.DeleteReview)
	}

	host := app.Party("/api/host")
	{
		host.Get("/verified", routes.ListVerifiedHosts)
		host.Post("/profile", auth, withUser, hostOrProvider, routes.UpsertHostProfile)
		host.Get("/{id:uint}", routes.GetHostProfile)
	}

	notification := app.Party("/api/notification", auth, withUser)
	{
		notification.Get("/", routes.GetUserNotifications)
		notification.Patch("/read-all", routes.MarkAllNotificationsRead)
		notification.Patch("/{id:uint}/read", routes.MarkNotificationRead)
	}

	upload := app.Party("/api/upload", auth, withUser)
	{
		upload.Post("/image", routes.UploadImage)
	}

	admin := app.Party("/api/admin", auth, withUser, utils.AdminOnlyMiddleware)
	{
		admin.Get("/users", routes.AdminListUsers)
		admin.Patch("/users/{id:uint}/role", routes.AdminChangeUserRole)
		admin.Get("/reservations", routes.AdminListReservations)
		admin.Patch("/reservations/{id:uint}/status", routes.AdminUpdateReservationStatus)
		admin.Post("/reservations/complete-due", routes.CompleteDueReservations)
		admin.Patch("/hosts/{id:uint}/verify", routes.VerifyHostProfile)
		admin.Get("/stats", routes.AdminStats)
		admin.Get("/activity", routes.AdminActivity)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "4000"
	}

	if err := app.Listen(":" + port); err != nil {
		log.Fatal(err)
	}
}
