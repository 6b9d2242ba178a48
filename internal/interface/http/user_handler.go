package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/oksasatya/vplayer-account/internal/application"
	"github.com/oksasatya/vplayer-account/internal/domain/entity"
	"github.com/oksasatya/vplayer-account/internal/interface/middleware"
	"github.com/oksasatya/vplayer-account/pkg/apperror"
	"github.com/oksasatya/vplayer-account/pkg/helpers"
	"github.com/oksasatya/vplayer-account/pkg/response"
	"github.com/oksasatya/vplayer-account/pkg/validation"
)

const (
	AvatarField = "avatar"
	CoverField  = "cover"
)

type UserHandler struct {
	Svc     *userapp.Service
	Logger  *logrus.Logger
	Cookies *helpers.Manager
}

func NewUserHandler(svc *userapp.Service, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger, Cookies: helpers.NewCookie(cookieDomain, cookieSecure)}
}

type registerRequest struct {
	FullName string `form:"fullName"`
	Email    string `form:"email" binding:"omitempty,email"`
	Username string `form:"username" binding:"omitempty,handle"`
	Password string `form:"password" binding:"omitempty,pwd"`
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" binding:"omitempty,pwd"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword" binding:"omitempty,pwd"`
}

type updateDetailsRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email" binding:"omitempty,email"`
}

type userResponse struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Avatar     string    `json:"avatar"`
	CoverImage string    `json:"coverImage"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func toUserResponse(u *entity.User) userResponse {
	return userResponse{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FullName:   u.FullName,
		Avatar:     u.Avatar,
		CoverImage: u.CoverImage,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

type tokensResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type loginResponse struct {
	User userResponse `json:"user"`
	tokensResponse
}

func tokenMeta(pair userapp.TokenPair) map[string]any {
	return map[string]any{"access_expires_at": pair.AccessTokenExpiry, "refresh_expires_at": pair.RefreshTokenExpiry}
}

func (h *UserHandler) invalid(c *gin.Context, err error) {
	response.Fail(c, h.Logger, apperror.BadRequest("invalid payload").WithDetails(validation.ToDetails(err)))
}

func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBind(&req); err != nil {
		h.invalid(c, err)
		return
	}
	u, err := h.Svc.Register(c.Request.Context(), userapp.RegisterInput{
		FullName:   req.FullName,
		Email:      req.Email,
		Username:   req.Username,
		Password:   req.Password,
		AvatarPath: middleware.UploadedFile(c, AvatarField),
		CoverPath:  middleware.UploadedFile(c, CoverField),
	})
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, toUserResponse(u), "user registered successfully", nil)
}

func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.invalid(c, err)
		return
	}
	u, pair, err := h.Svc.Login(c.Request.Context(), userapp.LoginInput{Username: req.Username, Email: req.Email, Password: req.Password})
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, loginResponse{
		User:           toUserResponse(u),
		tokensResponse: tokensResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken},
	}, "user logged in successfully", tokenMeta(pair))
}

// Refresh reads the refresh token from the cookie, falling back to the JSON body.
func (h *UserHandler) Refresh(c *gin.Context) {
	presented, _ := c.Cookie(helpers.RefreshTokenCookie)
	if presented == "" {
		var req refreshRequest
		// an empty or non-JSON body just means no token was sent
		_ = c.ShouldBindJSON(&req)
		presented = req.RefreshToken
	}
	pair, err := h.Svc.RefreshTokens(c.Request.Context(), presented)
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, tokensResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, "access token refreshed", tokenMeta(pair))
}

func (h *UserHandler) Logout(c *gin.Context) {
	if err := h.Svc.Logout(c.Request.Context(), c.GetString(middleware.CtxUserIDKey)); err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	h.Cookies.Clear(c)
	response.Success(c, http.StatusOK, gin.H{}, "user logged out", nil)
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.invalid(c, err)
		return
	}
	err := h.Svc.ChangePassword(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), userapp.ChangePasswordInput{
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{}, "password changed successfully", nil)
}

func (h *UserHandler) CurrentUser(c *gin.Context) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		response.Fail(c, h.Logger, apperror.Unauthorized("unauthorized request"))
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u), "current user fetched successfully", nil)
}

func (h *UserHandler) UpdateDetails(c *gin.Context) {
	var req updateDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.invalid(c, err)
		return
	}
	u, err := h.Svc.UpdateDetails(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), userapp.UpdateDetailsInput{
		FullName: req.FullName,
		Email:    req.Email,
	})
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u), "account details updated successfully", nil)
}

func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	u, err := h.Svc.UpdateAvatar(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), middleware.UploadedFile(c, AvatarField))
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u), "avatar updated successfully", nil)
}

func (h *UserHandler) Search(c *gin.Context) {
	size, _ := strconv.Atoi(c.Query("size"))
	docs, err := h.Svc.SearchUsers(c.Request.Context(), c.Query("q"), size)
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, docs, "users fetched successfully", map[string]any{"count": len(docs)})
}
