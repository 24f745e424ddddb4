package utils

import (
	"strconv"

	"github.com/Discovery-supp/Nzoo-immo-concerigerie/models"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
	"golang.org/x/exp/slices"
)

// UserIDMiddleware rejects requests whose {id} path parameter is not the
// authenticated user.
func UserIDMiddleware(ctx iris.Context) {
	params := ctx.Params()
	id := params.Get("id")

	claims := jwt.Get(ctx).(*AccessToken)

	userID := strconv.FormatUint(uint64(claims.ID), 10)

	if userID != id && claims.Role != models.RoleAdmin {
		ctx.StatusCode(iris.StatusForbidden)
		return
	}
	ctx.Values().Set("userID", claims.ID)
	ctx.Values().Set("userRole", claims.Role)
	ctx.Next()
}

// UserIDFromTokenMiddleware extracts the user ID from the JWT and stores it
// in the context. Use for routes without an {id} parameter.
func UserIDFromTokenMiddleware(ctx iris.Context) {
	claims := jwt.Get(ctx).(*AccessToken)
	ctx.Values().Set("userID", claims.ID)
	ctx.Values().Set("userRole", claims.Role)
	ctx.Next()
}

// RoleMiddleware limits a route to the given account types. Admins always
// pass.
func RoleMiddleware(roles ...string) iris.Handler {
	return func(ctx iris.Context) {
		claims := jwt.Get(ctx).(*AccessToken)
		if claims.Role != models.RoleAdmin && !slices.Contains(roles, claims.Role) {
			ctx.StopWithJSON(iris.StatusForbidden, iris.Map{"error": "forbidden", "message": "insufficient role"})
			return
		}
		ctx.Values().Set("userID", claims.ID)
		ctx.Values().Set("userRole", claims.Role)
		ctx.Next()
	}
}

// AdminOnlyMiddleware ensures the requester has the admin role.
func AdminOnlyMiddleware(ctx iris.Context) {
	claims := jwt.Get(ctx).(*AccessToken)
	if claims.Role != models.RoleAdmin {
		ctx.StopWithJSON(iris.StatusForbidden, iris.Map{"error": "forbidden", "message": "admin access required"})
		return
	}
	ctx.Values().Set("userID", claims.ID)
	ctx.Values().Set("userRole", claims.Role)
	ctx.Next()
}
