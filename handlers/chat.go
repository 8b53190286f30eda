package handlers

import (
	"net/http"

	"meetwise/models"
	"meetwise/services/conversation"
	"meetwise/services/tasks"
	"meetwise/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// ChatHandler runs one conversation turn for the authenticated user. After a
// committed booking it enqueues a background calendar refresh.
func ChatHandler(machine *conversation.Machine, store *conversation.Store, taskClient *asynq.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := utils.GetLogger()
		userID := c.GetString("userID")

		var req models.ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
			return
		}

		state, err := store.Get(c.Request.Context(), userID)
		if err != nil {
			utils.JSONError(c, http.StatusInternalServerError, "Failed to load session", err.Error())
			return
		}

		reply, err := machine.HandleMessage(c.Request.Context(), state, req.Message)
		if err != nil {
			logger.Error("Conversation turn failed", zap.String("userId", userID), zap.Error(err))
			utils.JSONError(c, http.StatusInternalServerError, "Failed to process message", err.Error())
			return
		}

		if err := store.Save(c.Request.Context(), state); err != nil {
			utils.JSONError(c, http.StatusInternalServerError, "Failed to save session", err.Error())
			return
		}

		if state.BookingConfirmed && taskClient != nil {
			if task, err := tasks.NewCalendarRefreshTask(userID); err == nil {
				if _, err := taskClient.Enqueue(task); err != nil {
					logger.Warn("Failed to enqueue calendar refresh", zap.Error(err))
				}
			}
		}

		resp := models.ChatResponse{
			Reply:            reply,
			Phase:            state.ConversationPhase,
			BookingConfirmed: state.BookingConfirmed,
		}
		if state.BookingConfirmed {
			resp.Booking = state.LastCompletedBooking
		}
		c.JSON(http.StatusOK, resp)
	}
}

// GetSessionHandler returns the caller's full conversation state.
func GetSessionHandler(store *conversation.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		state, err := store.Get(c.Request.Context(), c.GetString("userID"))
		if err != nil {
			utils.JSONError(c, http.StatusInternalServerError, "Failed to load session", err.Error())
			return
		}
		c.JSON(http.StatusOK, state)
	}
}

// ClearSessionHandler drops the caller's conversation and starts over.
func ClearSessionHandler(store *conversation.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := store.Clear(c.Request.Context(), c.GetString("userID")); err != nil {
			utils.JSONError(c, http.StatusInternalServerError, "Failed to clear session", err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Session cleared"})
	}
}
