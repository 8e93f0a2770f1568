package cache

import "fmt"

func RateLimitKey(clientIP string) string {
	return fmt.Sprintf("ratelimit:%s", clientIP)
}

func SyncStatusKey() string {
	return "sortly:sync:status"
}

func SyncCursorKey() string {
	return "sortly:sync:cursor"
}
