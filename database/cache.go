package database

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"event-link/backend/models"

	"github.com/redis/go-redis/v9"
)

// redisClient 為 nil 時表示未啟用快取，所有讀取都直接打到 MongoDB
var redisClient *redis.Client

const (
	eventListCacheKey = "events:list"     // 探索頁完整活動列表的快取鍵
	eventListCacheTTL = 30 * time.Second // 短 TTL:最慢 30 秒後一定會看到新活動
)

// ConnectRedis 初始化 Redis 連線，addr 為空字串時直接略過
// Redis 只當作活動列表的快取，連不上也不影響服務啟動
func ConnectRedis(addr string) {
	if addr == "" {
		log.Println("REDIS_ADDR not set, event list cache disabled.")
		return
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Failed to ping Redis at %s, event list cache disabled: %v", addr, err)
		return
	}

	redisClient = client
	log.Println("Connected to Redis successfully!")
}

// DisconnectRedis 關閉 Redis 連線
func DisconnectRedis() {
	if redisClient == nil {
		return
	}
	if err := redisClient.Close(); err != nil {
		log.Printf("Error disconnecting from Redis: %v", err)
	}
}

// getCachedEventList 嘗試從快取讀取活動列表，沒命中或發生錯誤都回傳 nil
func getCachedEventList(ctx context.Context) []models.Event {
	if redisClient == nil {
		return nil
	}

	data, err := redisClient.Get(ctx, eventListCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("Error reading event list cache: %v", err)
		}
		return nil
	}

	var events []models.Event
	if err := json.Unmarshal(data, &events); err != nil {
		log.Printf("Error decoding event list cache: %v", err)
		return nil
	}
	return events
}

// setCachedEventList 將活動列表寫入快取，寫入失敗只記 log 不影響回應
func setCachedEventList(ctx context.Context, events []models.Event) {
	if redisClient == nil {
		return
	}

	data, err := json.Marshal(events)
	if err != nil {
		log.Printf("Error encoding event list cache: %v", err)
		return
	}
	if err := redisClient.Set(ctx, eventListCacheKey, data, eventListCacheTTL).Err(); err != nil {
		log.Printf("Error writing event list cache: %v", err)
	}
}

// invalidateEventListCache 在活動有任何異動時清掉快取
// 注意:報名人數與容量判斷永遠不走快取，這裡只影響探索頁的顯示延遲
func invalidateEventListCache(ctx context.Context) {
	if redisClient == nil {
		return
	}
	if err := redisClient.Del(ctx, eventListCacheKey).Err(); err != nil {
		log.Printf("Error invalidating event list cache: %v", err)
	}
}
