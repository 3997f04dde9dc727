package controllers

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/brewcraft/restaurant-backend/config"
	"github.com/brewcraft/restaurant-backend/middlewares"
	"github.com/brewcraft/restaurant-backend/models"
	"github.com/brewcraft/restaurant-backend/notify"
	"github.com/brewcraft/restaurant-backend/reservation"
	"github.com/brewcraft/restaurant-backend/utils"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	errInvalidCredentials = errors.New("invalid credentials")
	errNotVerified        = errors.New("email not verified, enter the code we sent you")
	errAlreadyVerified    = errors.New("user is already verified")
	errInvalidCode        = errors.New("invalid verification code")
	errCodeExpired        = errors.New("verification code has expired, request a new one")
)

type UserController struct {
	DB     *gorm.DB
	Sender reservation.Notifier
	Auth   config.AuthConfig
}

func NewUserController(db *gorm.DB, sender reservation.Notifier, auth config.AuthConfig) *UserController {
	if auth.CodeTTL <= 0 {
		auth.CodeTTL = 15 * time.Minute
	}
	return &UserController{DB: db, Sender: sender, Auth: auth}
}

// Register -> self sign-up always creates a customer
func (uc *UserController) Register(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required,min=3,max=50"`
		Name     string `json:"name"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == models.GuestUserID || strings.ContainsAny(username, " _") {
		utils.RespondError(c, http.StatusBadRequest, errors.New("username is not allowed"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = username
	}
	user := models.User{
		Username: username,
		Name:     name,
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Password: string(hashed),
		Role:     models.RoleCustomer,
		Verified: !uc.Auth.VerifyEmail,
	}
	var code string
	if uc.Auth.VerifyEmail {
		if code, err = uc.issueCode(&user); err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
	}
	if err := uc.DB.Create(&user).Error; err != nil {
		respondWriteError(c, err)
		return
	}

	message := "User registered"
	if code != "" {
		uc.sendCode(c, user, code)
		message = "User registered, check your email for the verification code"
	}
	utils.InfoLogger.Printf("New user registered: %s", user.Username)
	utils.RespondJSON(c, http.StatusCreated, message, gin.H{
		"userId":   user.ID,
		"username": user.Username,
		"verified": user.Verified,
	})
}

// ConfirmEmail -> activates an account with the emailed code
func (uc *UserController) ConfirmEmail(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Code     string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("username and code are required"))
		return
	}

	user, ok := uc.pendingUser(c, req.Username)
	if !ok {
		return
	}
	if user.VerifyExpiresAt == nil || time.Now().After(*user.VerifyExpiresAt) {
		utils.RespondError(c, http.StatusBadRequest, errCodeExpired)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.VerifyCodeHash), []byte(strings.TrimSpace(req.Code))) != nil {
		utils.RespondError(c, http.StatusBadRequest, errInvalidCode)
		return
	}

	err := uc.DB.Model(user).Updates(map[string]interface{}{
		"verified":          true,
		"verify_code_hash":  "",
		"verify_expires_at": nil,
	}).Error
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Email verified for user: %s", user.Username)
	utils.RespondJSON(c, http.StatusOK, "Email verified successfully", gin.H{"username": user.Username})
}

// ResendCode -> replaces the pending code and sends it again
func (uc *UserController) ResendCode(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("username is required"))
		return
	}

	user, ok := uc.pendingUser(c, req.Username)
	if !ok {
		return
	}
	code, err := uc.issueCode(user)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	err = uc.DB.Model(user).Updates(map[string]interface{}{
		"verify_code_hash":  user.VerifyCodeHash,
		"verify_expires_at": user.VerifyExpiresAt,
	}).Error
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	uc.sendCode(c, *user, code)
	utils.RespondJSON(c, http.StatusOK, "Verification code has been resent to your email", nil)
}

// pendingUser loads an unverified user, writing the error response itself.
func (uc *UserController) pendingUser(c *gin.Context, username string) (*models.User, bool) {
	var user models.User
	if err := uc.DB.Where("username = ?", strings.TrimSpace(username)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondError(c, http.StatusNotFound, errors.New("user not found"))
		} else {
			utils.RespondError(c, http.StatusInternalServerError, err)
		}
		return nil, false
	}
	if user.Verified {
		utils.RespondError(c, http.StatusBadRequest, errAlreadyVerified)
		return nil, false
	}
	return &user, true
}

// issueCode sets a fresh hashed code and expiry on u and returns the code.
func (uc *UserController) issueCode(u *models.User) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	code := fmt.Sprintf("%06d", n.Int64())
	hashed, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	expires := time.Now().Add(uc.Auth.CodeTTL)
	u.VerifyCodeHash = string(hashed)
	u.VerifyExpiresAt = &expires
	return code, nil
}

func (uc *UserController) sendCode(c *gin.Context, u models.User, code string) {
	if uc.Sender == nil {
		utils.ErrorLogger.Printf("No notifier configured, verification code for %s not sent", u.Username)
		return
	}
	uc.Sender.Send(c.Request.Context(), notify.VerificationCode(u, code, uc.Auth.CodeTTL))
}

// Login -> accepts username or email, returns a JWT and the user info
func (uc *UserController) Login(c *gin.Context) {
	var input struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("username and password are required"))
		return
	}

	login := strings.TrimSpace(input.Username)
	var user models.User
	if err := uc.DB.Where("username = ? OR email = ?", login, strings.ToLower(login)).First(&user).Error; err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errInvalidCredentials)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errInvalidCredentials)
		return
	}
	if !user.Verified {
		utils.RespondError(c, http.StatusForbidden, errNotVerified)
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Login successful for user: %s, role: %s", user.Username, user.Role)
	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"token":     token,
		"expiresIn": int(utils.TokenExpiration().Seconds()),
		"isAdmin":   user.IsAdmin(),
		"userInfo":  user,
	})
}

// Logout -> revokes the presented token
func (uc *UserController) Logout(c *gin.Context) {
	token := c.GetString(middlewares.ContextToken)
	if token == "" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("no token to revoke"))
		return
	}
	utils.BlacklistToken(token)
	utils.RespondJSON(c, http.StatusOK, "Logged out", nil)
}

// GetProfile -> the user behind the token
func (uc *UserController) GetProfile(c *gin.Context) {
	userID, ok := c.Get(middlewares.ContextUserID)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("user id not found in context"))
		return
	}

	var user models.User
	if err := uc.DB.First(&user, userID.(uint)).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("user not found"))
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Profile data retrieved successfully", gin.H{
		"userInfo": user,
		"isAdmin":  user.IsAdmin(),
	})
}

// GetAllUsers -> admin only
func (uc *UserController) GetAllUsers(c *gin.Context) {
	var users []models.User
	if err := uc.DB.Order("id ASC").Find(&users).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "All users", users)
}
