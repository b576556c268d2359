package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"account-api/pkg/cerror"
	"account-api/pkg/jwt_generator"
	"account-api/pkg/logger"
)

const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"

	RoleAdmin = "admin"

	MessageUnauthorizedRequest = "Unauthorized request"
	MessageInvalidAccessToken  = "Invalid access token"
	MessageAdminAccessRequired = "Admin access required"

	claimsLocalsKey = "claims"
	bearerPrefix    = "Bearer "
)

// VerifyAccessToken rejects requests without a valid access token. The token is
// read from the access cookie first and the bearer header second.
func VerifyAccessToken(jwtGenerator jwt_generator.JwtGenerator) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		rawToken := extractAccessToken(ctx)
		if rawToken == "" {
			return cerror.NewAuthenticationError(MessageUnauthorizedRequest)
		}

		claims, err := jwtGenerator.VerifyAccessToken(rawToken)
		if err != nil {
			return cerror.NewAuthenticationError(MessageInvalidAccessToken, zap.Error(err))
		}

		ctx.Locals(claimsLocalsKey, claims)

		log := logger.FromContext(ctx.UserContext()).With(zap.String("userId", claims.Subject))
		ctx.SetUserContext(logger.InjectContext(ctx.UserContext(), log))

		return ctx.Next()
	}
}

// RequireAdmin must run after VerifyAccessToken.
func RequireAdmin() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		claims, isOk := ClaimsFromContext(ctx)
		if !isOk {
			return cerror.NewAuthenticationError(MessageUnauthorizedRequest)
		}

		if claims.Role != RoleAdmin {
			return cerror.NewAuthorizationError(MessageAdminAccessRequired)
		}

		return ctx.Next()
	}
}

func ClaimsFromContext(ctx *fiber.Ctx) (*jwt_generator.Claims, bool) {
	claims, isOk := ctx.Locals(claimsLocalsKey).(*jwt_generator.Claims)
	return claims, isOk && claims != nil
}

func extractAccessToken(ctx *fiber.Ctx) string {
	if cookie := ctx.Cookies(AccessTokenCookie); cookie != "" {
		return cookie
	}

	header := ctx.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(header, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	}

	return ""
}
