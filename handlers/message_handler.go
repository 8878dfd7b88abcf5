package handlers

import (
	"net/http"

	"event-link/backend/database"
)

// GetEventMessages 處理活動聊天記錄的查詢請求，由舊到新排序
// 這是推播之外的輪詢備援:客戶端定期重抓完整列表，
// 廣播當下不在線而漏掉的訊息最慢一個輪詢間隔後就會補齊
func GetEventMessages(w http.ResponseWriter, r *http.Request) {
	eventID, ok := parseIDVar(w, r)
	if !ok {
		return
	}

	if _, err := database.FindEventByID(eventID); err != nil {
		sendDatabaseError(w, err, "fetching event for messages")
		return
	}

	messages, err := database.GetEventMessages(eventID)
	if err != nil {
		sendDatabaseError(w, err, "fetching messages")
		return
	}

	sendJSON(w, http.StatusOK, messages)
}
