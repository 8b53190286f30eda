package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Auth endpoints
	IssueTokenHandler gin.HandlerFunc

	// Chat endpoints
	ChatHandler         gin.HandlerFunc
	GetSessionHandler   gin.HandlerFunc
	ClearSessionHandler gin.HandlerFunc

	// Booking record endpoints
	ListRecordsHandler  gin.HandlerFunc
	DeleteRecordHandler gin.HandlerFunc

	// Operations
	HealthHandler gin.HandlerFunc
}
