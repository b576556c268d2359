package user

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"account-api/pkg/auth"
	"account-api/pkg/cerror"
	"account-api/pkg/config"
	"account-api/pkg/jwt_generator"
	"account-api/pkg/logger"
	"account-api/pkg/ratelimit"
	"account-api/pkg/response"
	"account-api/pkg/server"
)

const (
	RoutePrefix = "/api/v1/users"

	MessageMalformedBody = "Malformed request body"

	MessageRegistered      = "User registered successfully"
	MessageLoggedIn        = "User logged in successfully"
	MessageLoggedOut       = "User logged out successfully"
	MessageUserFetched     = "User fetched successfully"
	MessageTokenRefreshed  = "Access token refreshed"
	MessageProfileFetched  = "Profile fetched successfully"
	MessageProfileUpdated  = "Profile updated successfully"
	MessagePasswordChanged = "Password changed successfully"
	MessageUsersFetched    = "Users fetched successfully"
	MessageUserActivated   = "User activated successfully"
	MessageUserDeactivated = "User deactivated successfully"

	userIdParam = "id"
	cookiePath  = "/"
)

type handler struct {
	userService  Service
	jwtGenerator jwt_generator.JwtGenerator
	limiter      ratelimit.Limiter
	cookieConfig config.CookieConfig
}

func NewHandler(
	userService Service,
	jwtGenerator jwt_generator.JwtGenerator,
	limiter ratelimit.Limiter,
	cookieConfig config.CookieConfig,
) server.Handler {
	return &handler{
		userService:  userService,
		jwtGenerator: jwtGenerator,
		limiter:      limiter,
		cookieConfig: cookieConfig,
	}
}

func (h *handler) RegisterRoutes(app *fiber.App) {
	rateLimited := h.limiter.Middleware()
	authenticated := auth.VerifyAccessToken(h.jwtGenerator)
	admin := auth.RequireAdmin()

	users := app.Group(RoutePrefix)
	users.Post("/register", rateLimited, h.Register)
	users.Post("/login", rateLimited, h.Login)
	users.Post("/refresh-token", rateLimited, h.RefreshToken)

	users.Post("/logout", authenticated, h.Logout)
	users.Get("/current-user", authenticated, h.CurrentUser)
	users.Get("/profile", authenticated, h.GetProfile)
	users.Patch("/profile", authenticated, h.UpdateProfile)
	users.Post("/change-password", authenticated, h.ChangePassword)

	users.Get("/admin/users", authenticated, admin, h.ListUsers)
	users.Patch("/admin/users/:id/activate", authenticated, admin, h.ActivateUser)
	users.Patch("/admin/users/:id/deactivate", authenticated, admin, h.DeactivateUser)
}

func (h *handler) Register(ctx *fiber.Ctx) error {
	log := h.eventLogger(ctx, "register")

	var payload RegisterPayload
	err := ctx.BodyParser(&payload)
	if err != nil {
		return malformedBody(err)
	}

	result, err := h.userService.Register(ctx.UserContext(), &payload)
	if err != nil {
		return err
	}

	h.setAuthCookies(ctx, result.AccessToken, result.RefreshToken)

	log.Info(logger.EventFinishedSuccessfully)
	return response.Send(ctx, fiber.StatusCreated, result, MessageRegistered)
}

func (h *handler) Login(ctx *fiber.Ctx) error {
	log := h.eventLogger(ctx, "login")

	var payload LoginPayload
	err := ctx.BodyParser(&payload)
	if err != nil {
		return malformedBody(err)
	}

	result, err := h.userService.Login(ctx.UserContext(), &payload)
	if err != nil {
		return err
	}

	h.setAuthCookies(ctx, result.AccessToken, result.RefreshToken)

	log.Info(logger.EventFinishedSuccessfully)
	return response.Send(ctx, fiber.StatusOK, result, MessageLoggedIn)
}

// RefreshToken takes the refresh token from its cookie, falling back to the body.
// An unreadable body counts as no token.
func (h *handler) RefreshToken(ctx *fiber.Ctx) error {
	log := h.eventLogger(ctx, "refreshToken")

	refreshToken := ctx.Cookies(auth.RefreshTokenCookie)
	if refreshToken == "" && len(ctx.Body()) > 0 {
		var payload RefreshTokenPayload
		if err := ctx.BodyParser(&payload); err == nil {
			refreshToken = payload.RefreshToken
		}
	}

	tokens, err := h.userService.RefreshTokens(ctx.UserContext(), refreshToken)
	if err != nil {
		return err
	}

	h.setAuthCookies(ctx, tokens.AccessToken, tokens.RefreshToken)

	log.Info(logger.EventFinishedSuccessfully)
	return response.Send(ctx, fiber.StatusOK, tokens, MessageTokenRefreshed)
}

func (h *handler) Logout(ctx *fiber.Ctx) error {
	log := h.eventLogger(ctx, "logout")

	claims, err := currentClaims(ctx)
	if err != nil {
		return err
	}

	err = h.userService.Logout(ctx.UserContext(), claims.Subject)
	if err != nil {
		return err
	}

	h.clearAuthCookies(ctx)

	log.Info(logger.EventFinishedSuccessfully)
	return response.Send(ctx, fiber.StatusOK, fiber.Map{}, MessageLoggedOut)
}

func (h *handler) CurrentUser(ctx *fiber.Ctx) error {
	return h.sendUser(ctx, "currentUser", MessageUserFetched)
}

func (h *handler) GetProfile(ctx *fiber.Ctx) error {
	return h.sendUser(ctx, "getProfile", MessageProfileFetched)
}

func (h *handler) UpdateProfile(ctx *fiber.Ctx) error {
	log := h.eventLogger(ctx, "updateProfile")

	claims, err := currentClaims(ctx)
	if err != nil {
		return err
	}

	var payload UpdateProfilePayload
	err = ctx.BodyParser(&payload)
	if err != nil {
		return malformedBody(err)
	}

	user, err := h.userService.UpdateProfile(ctx.UserContext(), claims.Subject, &payload)
	if err != nil {
		return err
	}

	log.Info(logger.EventFinishedSuccessfully)
	return response.Send(ctx, fiber.StatusOK, user, MessageProfileUpdated)
}

func (h *handler) ChangePassword(ctx *fiber.Ctx) error {
	log := h.eventLogger(ctx, "changePassword")

	claims, err := currentClaims(ctx)
	if err != nil {
		return err
	}

	var payload ChangePasswordPayload
	err = ctx.BodyParser(&payload)
	if err != nil {
		return malformedBody(err)
	}

	err = h.userService.ChangePassword(ctx.UserContext(), claims.Subject, &payload)
	if err != nil {
		return err
	}

	log.Info(logger.EventFinishedSuccessfully)
	return response.Send(ctx, fiber.StatusOK, fiber.Map{}, MessagePasswordChanged)
}

// ListUsers treats missing, non-numeric and non-positive paging values as defaults.
func (h *handler) ListUsers(ctx *fiber.Ctx) error {
	log := h.eventLogger(ctx, "listUsers")

	query := &ListUsersQuery{
		Page:     ctx.QueryInt("page", DefaultPage),
		Limit:    ctx.QueryInt("limit", DefaultLimit),
		Search:   ctx.Query("search"),
		IsActive: ctx.Query("isActive"),
		Role:     ctx.Query("role"),
	}

	users, err := h.userService.ListUsers(ctx.UserContext(), query)
	if err != nil {
		return err
	}

	log.Info(logger.EventFinishedSuccessfully)
	return response.Send(ctx, fiber.StatusOK, users, MessageUsersFetched)
}

func (h *handler) ActivateUser(ctx *fiber.Ctx) error {
	log := h.eventLogger(ctx, "activateUser")

	claims, err := currentClaims(ctx)
	if err != nil {
		return err
	}

	user, err := h.userService.ActivateUser(ctx.UserContext(), claims.Subject, ctx.Params(userIdParam))
	if err != nil {
		return err
	}

	log.Info(logger.EventFinishedSuccessfully)
	return response.Send(ctx, fiber.StatusOK, user, MessageUserActivated)
}

func (h *handler) DeactivateUser(ctx *fiber.Ctx) error {
	log := h.eventLogger(ctx, "deactivateUser")

	claims, err := currentClaims(ctx)
	if err != nil {
		return err
	}

	user, err := h.userService.DeactivateUser(ctx.UserContext(), claims.Subject, ctx.Params(userIdParam))
	if err != nil {
		return err
	}

	log.Info(logger.EventFinishedSuccessfully)
	return response.Send(ctx, fiber.StatusOK, user, MessageUserDeactivated)
}

func (h *handler) sendUser(ctx *fiber.Ctx, eventName, message string) error {
	log := h.eventLogger(ctx, eventName)

	claims, err := currentClaims(ctx)
	if err != nil {
		return err
	}

	user, err := h.userService.GetUser(ctx.UserContext(), claims.Subject)
	if err != nil {
		return err
	}

	log.Info(logger.EventFinishedSuccessfully)
	return response.Send(ctx, fiber.StatusOK, user, message)
}

func (h *handler) eventLogger(ctx *fiber.Ctx, eventName string) *zap.SugaredLogger {
	log := logger.FromContext(ctx.UserContext()).
		With(zap.String("eventName", eventName))
	ctx.SetUserContext(logger.InjectContext(ctx.UserContext(), log))

	return log
}

// Cookie lifetime follows CookieConfig.MaxAge, not the token expiry.
func (h *handler) setAuthCookies(ctx *fiber.Ctx, accessToken, refreshToken string) {
	maxAge := int(h.cookieConfig.MaxAge / time.Second)
	for name, value := range map[string]string{
		auth.AccessTokenCookie:  accessToken,
		auth.RefreshTokenCookie: refreshToken,
	} {
		ctx.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    value,
			Path:     cookiePath,
			MaxAge:   maxAge,
			Secure:   h.cookieConfig.Secure,
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteStrictMode,
		})
	}
}

func (h *handler) clearAuthCookies(ctx *fiber.Ctx) {
	for _, name := range []string{auth.AccessTokenCookie, auth.RefreshTokenCookie} {
		ctx.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Path:     cookiePath,
			Expires:  time.Unix(0, 0),
			Secure:   h.cookieConfig.Secure,
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteStrictMode,
		})
	}
}

func currentClaims(ctx *fiber.Ctx) (*jwt_generator.Claims, error) {
	claims, isOk := auth.ClaimsFromContext(ctx)
	if !isOk {
		return nil, cerror.NewAuthenticationError(auth.MessageUnauthorizedRequest)
	}

	return claims, nil
}

func malformedBody(err error) error {
	return cerror.NewValidationError(MessageMalformedBody).
		SetErrors([]string{err.Error()})
}
