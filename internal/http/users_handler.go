package http

import (
	"strings"

	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/crypto"

	"github.com/ShubhamPimparkar/PortfolioMaker/internal/users"
)

// ProcessLoginAction handles the login request
func ProcessLoginAction(ctx *cartridge.Context) error {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := ctx.BodyParser(&body); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	username := strings.TrimSpace(body.Username)
	if username == "" || body.Password == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Username and password are required",
		})
	}

	db := ctx.DB()

	user, err := users.FindByUsername(db, username)

	// Always verify a password to keep the response time constant
	// whether or not the username exists.
	var passwordValid bool
	if err != nil {
		ctx.Logger.Debug("User not found during login",
			slog.String("username", username))
		dummyHash := "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy" // bcrypt hash of "dummy"
		crypto.VerifyPassword(dummyHash, body.Password)
		passwordValid = false
	} else {
		passwordValid = crypto.VerifyPassword(user.EncryptedPassword, body.Password)
		if !passwordValid {
			ctx.Logger.Debug("Invalid password attempt",
				slog.String("username", username))
		}
	}

	if !passwordValid {
		// Generic message - don't reveal whether the username exists
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid username or password",
		})
	}

	if err := ctx.Session.SetSession(ctx.Ctx, user.ID); err != nil {
		ctx.Logger.Error("Failed to set session", slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Login failed",
		})
	}

	ctx.Logger.Debug("Login successful",
		slog.String("username", username),
		slog.Int("userId", int(user.ID)))

	return ctx.JSON(fiber.Map{
		"username": user.Username,
		"email":    user.Email,
	})
}

// LogoutAction clears the session
func LogoutAction(ctx *cartridge.Context) error {
	userID, isAuthenticated := ctx.Session.GetUserID(ctx.Ctx)
	ctx.Logger.Debug("Logout requested",
		slog.Uint64("userID", uint64(userID)),
		slog.Bool("isAuthenticated", isAuthenticated))

	ctx.Session.ClearSession(ctx.Ctx)

	return ctx.SendStatus(fiber.StatusNoContent)
}
