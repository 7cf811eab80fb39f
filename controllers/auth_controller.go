package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Odiedo123/Tenacity/middleware"
	"github.com/Odiedo123/Tenacity/models"
	"github.com/Odiedo123/Tenacity/utils"
)

const sessionDuration = 72 * time.Hour

// AuthController handles registration, login and logout.
type AuthController struct {
	db *gorm.DB
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

// Register creates a new account and redirects to the login page.
// A taken email answers 200 with an error message rather than a failure
// status, so the sign-in page can render it inline.
func (a *AuthController) Register(ctx *gin.Context) {
	email := strings.TrimSpace(ctx.PostForm("email"))
	password := ctx.PostForm("password")
	if email == "" || password == "" {
		utils.Error(ctx, http.StatusBadRequest, 40001, "email and password are required")
		return
	}

	var existing models.User
	if err := a.db.Where("email = ?", email).First(&existing).Error; err == nil {
		utils.Respond(ctx, http.StatusOK, 40901, "This email is already registered.", nil)
		return
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to hash password")
		return
	}

	user := models.User{
		Email:        email,
		PasswordHash: hash,
		RegisterIP:   ctx.ClientIP(),
	}
	if err := a.db.Create(&user).Error; err != nil {
		utils.Sugar.Errorw("user registration failed", "email", email, "err", err)
		utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to create account")
		return
	}

	ctx.Redirect(http.StatusFound, "/login")
}

// Login verifies credentials, sets the session cookie and redirects home.
// Bad credentials answer 200 with an error message for inline rendering.
func (a *AuthController) Login(ctx *gin.Context) {
	email := strings.TrimSpace(ctx.PostForm("email"))
	password := ctx.PostForm("password")

	var user models.User
	if err := a.db.Where("email = ?", email).First(&user).Error; err != nil {
		utils.Respond(ctx, http.StatusOK, 40101, "Incorrect Email or Password.", nil)
		return
	}
	if !utils.CheckPassword(user.PasswordHash, password) {
		utils.Respond(ctx, http.StatusOK, 40101, "Incorrect Email or Password.", nil)
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Email, sessionDuration)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50003, "failed to create session")
		return
	}

	ctx.SetCookie(middleware.SessionCookieName, token, int(sessionDuration.Seconds()), "/", "", false, true)
	ctx.Redirect(http.StatusFound, "/home")
}

// Logout revokes the current session token and redirects to the login page.
func (a *AuthController) Logout(ctx *gin.Context) {
	if token, err := ctx.Cookie(middleware.SessionCookieName); err == nil && token != "" {
		expiresAt := time.Now().Add(sessionDuration)
		if claims, err := utils.ParseToken(token); err == nil && claims.ExpiresAt != nil {
			expiresAt = claims.ExpiresAt.Time
		}
		utils.BlacklistToken(token, expiresAt)
	}

	ctx.SetCookie(middleware.SessionCookieName, "", -1, "/", "", false, true)
	ctx.Redirect(http.StatusFound, "/login")
}
