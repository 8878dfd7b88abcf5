package database

import "errors"

// 資料庫層的哨兵錯誤，handlers 依據這些錯誤決定 HTTP 狀態碼
var (
	// ErrNotFound 表示查詢的資源不存在
	ErrNotFound = errors.New("not found")

	// ErrCapacityExceeded 表示活動已額滿，無法再加入
	ErrCapacityExceeded = errors.New("event capacity exceeded")

	// ErrAlreadyJoined 表示使用者已經報名過這個活動
	ErrAlreadyJoined = errors.New("user already joined this event")

	// ErrCapacityTooSmall 表示欲更新的容量上限低於目前報名人數
	ErrCapacityTooSmall = errors.New("max capacity below current participant count")
)
