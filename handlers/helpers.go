package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"event-link/backend/database"
	"event-link/backend/models"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// validate 是整個 handlers 套件共用的驗證器實例
var validate = validator.New()

// sendJSONError 統一發送 JSON 格式錯誤響應
func sendJSONError(w http.ResponseWriter, message string, statusCode int) {
	var errorResponse models.ErrorResponse
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	errorResponse.Message = message
	if err := json.NewEncoder(w).Encode(errorResponse); err != nil {
		log.Printf("Failed to write error response: %v", err)
	}
}

// sendJSON 統一發送 JSON 格式成功響應
func sendJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Failed to write JSON response: %v", err)
	}
}

// validateStruct 對請求體做 schema 驗證，失敗時回傳 400 與欄位列表
func validateStruct(w http.ResponseWriter, payload interface{}) bool {
	if err := validate.Struct(payload); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			fields := lo.Map(validationErrors, func(fe validator.FieldError, _ int) string {
				return fe.Field()
			})
			sendJSONError(w, "Validation failed on fields: "+strings.Join(fields, ", "), http.StatusBadRequest)
		} else {
			sendJSONError(w, "Validation failed", http.StatusBadRequest)
		}
		return false
	}
	return true
}

// sendDatabaseError 將資料庫層的哨兵錯誤對應到 HTTP 狀態碼
// 未預期的錯誤一律記 log 並回 500 的泛用訊息，不對外暴露細節
func sendDatabaseError(w http.ResponseWriter, err error, logContext string) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		sendJSONError(w, "Resource not found", http.StatusNotFound)
	case errors.Is(err, database.ErrCapacityExceeded):
		sendJSONError(w, "Event is already at full capacity", http.StatusConflict)
	case errors.Is(err, database.ErrAlreadyJoined):
		sendJSONError(w, "You have already joined this event", http.StatusConflict)
	case errors.Is(err, database.ErrCapacityTooSmall):
		sendJSONError(w, "Max capacity cannot be lower than current participant count", http.StatusConflict)
	default:
		log.Printf("Error %s: %v", logContext, err)
		sendJSONError(w, "Internal server error", http.StatusInternalServerError)
	}
}

// parseIDVar 從 URL 路徑解析 ObjectID 形式的 {id}
func parseIDVar(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	idStr := mux.Vars(r)["id"]
	if idStr == "" {
		sendJSONError(w, "ID is required", http.StatusBadRequest)
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(idStr)
	if err != nil {
		sendJSONError(w, "Invalid ID format", http.StatusBadRequest)
		return primitive.NilObjectID, false
	}
	return id, true
}
