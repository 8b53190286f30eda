package handlers

import (
	"net/http"
	"time"

	"meetwise/utils"

	"github.com/gin-gonic/gin"
)

const tokenLifetime = 24 * time.Hour

type tokenRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// IssueTokenHandler mints a bearer token for a user ID. Upstream identity is
// assumed to be handled by the caller (gateway or app backend).
func IssueTokenHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req tokenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
			return
		}

		token, err := utils.GenerateToken(req.UserID, tokenLifetime)
		if err != nil {
			utils.JSONError(c, http.StatusInternalServerError, "Failed to generate token", err.Error())
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token":     token,
			"expiresIn": int(tokenLifetime.Seconds()),
		})
	}
}
