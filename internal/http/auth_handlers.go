package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("Username, email and password are required"))
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.respondError(c, err, "Registration failed. Please try again.")
		return
	}

	h.log(c).WithField("user_id", user.ID).Info("user registered")
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Registration successful! You can now login.",
		"userId":  user.ID,
	})
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("Username and password are required"))
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.respondError(c, err, "Login failed. Please try again.")
		return
	}

	resp := gin.H{
		"success": true,
		"message": "Login successful!",
		"user": UserResponse{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
		},
	}
	if h.tokens != nil {
		token, expiresAt, err := h.tokens.Issue(user.ID)
		if err != nil {
			h.respondError(c, err, "Login failed. Please try again.")
			return
		}
		resp["token"] = token
		resp["expiresAt"] = expiresAt.UTC().Format(time.RFC3339)
	}

	h.log(c).WithField("user_id", user.ID).Info("user logged in")
	c.JSON(http.StatusOK, resp)
}
