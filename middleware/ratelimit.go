// middleware/ratelimit.go
package middleware

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter 以 Redis 做固定視窗限流，用於保護註冊與登入端點
type RateLimiter struct {
	Redis  *redis.Client
	Prefix string
	Limit  int // 視窗內允許的請求數
	Window time.Duration
}

// NewRateLimiter 建立限流器
func NewRateLimiter(r *redis.Client, prefix string, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{Redis: r, Prefix: prefix, Limit: limit, Window: window}
}

// Middleware 以來源 IP 為鍵進行限流
// INCR + 第一次時設定 EXPIRE；超過上限返回 429。
// Redis 無法使用時選擇放行而不是擋下所有人
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		redisKey := fmt.Sprintf("%s:%s", rl.Prefix, ip)

		ctx := r.Context()
		count, err := rl.Redis.Incr(ctx, redisKey).Result()
		if err != nil {
			log.Printf("Rate limiter error (allowing request): %v", err)
			next.ServeHTTP(w, r)
			return
		}
		if count == 1 {
			rl.Redis.Expire(ctx, redisKey, rl.Window)
		}
		if count > int64(rl.Limit) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{"message": "Too many requests, please try again later"})
			return
		}

		next.ServeHTTP(w, r)
	})
}
