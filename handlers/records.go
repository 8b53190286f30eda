package handlers

import (
	"net/http"

	recordsRepo "meetwise/database/repository/records"
	"meetwise/utils"

	"github.com/gin-gonic/gin"
)

// ListRecordsHandler returns the caller's booking history, newest first.
func ListRecordsHandler(repo recordsRepo.BookingRecordRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		records, err := repo.GetByUserID(c.Request.Context(), c.GetString("userID"))
		if err != nil {
			utils.JSONError(c, http.StatusInternalServerError, "Failed to fetch records", err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{"records": records})
	}
}

// DeleteRecordHandler removes one booking record by ID.
func DeleteRecordHandler(repo recordsRepo.BookingRecordRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := repo.DeleteByID(c.Request.Context(), c.Param("id")); err != nil {
			utils.JSONError(c, http.StatusNotFound, "Record not found", err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Record deleted"})
	}
}
