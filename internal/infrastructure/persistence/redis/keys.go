package redis

import "fmt"

const keyPrefix = "sda"

// DashboardKey 看板统计缓存键
func DashboardKey() string {
	return keyPrefix + ":dashboard"
}

// ScreenKey 屏幕详情缓存键
func ScreenKey(screenID string) string {
	return fmt.Sprintf("%s:screen:%s", keyPrefix, screenID)
}

// ReviewKey 屏幕最新测试结果缓存键
func ReviewKey(screenID string) string {
	return fmt.Sprintf("%s:review:%s", keyPrefix, screenID)
}

// RateLimitKey 限流键，scope 区分接口分组
func RateLimitKey(scope, client string) string {
	return fmt.Sprintf("%s:ratelimit:%s:%s", keyPrefix, scope, client)
}

// keyFamily 把具体键折叠为指标标签，避免 ID 进入标签
func keyFamily(key string) string {
	n := 0
	for i := 0; i < len(key); i++ {
		if key[i] == ':' {
			n++
			if n == 2 {
				return key[:i]
			}
		}
	}
	return key
}
