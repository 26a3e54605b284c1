package redis

import (
	"errors"
	"fmt"
	"testing"

	"github.com/redis/go-redis/v9"

	"screen-dev-assistant/internal/config"
)

func TestKeys(t *testing.T) {
	cases := []struct {
		got, want string
	}{
		{DashboardKey(), "sda:dashboard"},
		{ScreenKey("s1"), "sda:screen:s1"},
		{ReviewKey("s1"), "sda:review:s1"},
		{RateLimitKey("codegen", "10.0.0.1"), "sda:ratelimit:codegen:10.0.0.1"},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Errorf("got %q, want %q", c.got, c.want)
		}
	}
}

func TestKeyFamily(t *testing.T) {
	cases := map[string]string{
		"sda:dashboard":                 "sda:dashboard",
		"sda:screen:abc":                "sda:screen",
		"sda:ratelimit:codegen:1.2.3.4": "sda:ratelimit",
		"plain":                         "plain",
	}
	for in, want := range cases {
		if got := keyFamily(in); got != want {
			t.Errorf("keyFamily(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsNil(t *testing.T) {
	if !IsNil(redis.Nil) {
		t.Error("redis.Nil should be nil")
	}
	if !IsNil(fmt.Errorf("wrapped: %w", redis.Nil)) {
		t.Error("wrapped redis.Nil should be nil")
	}
	if IsNil(errors.New("boom")) {
		t.Error("other errors are not nil")
	}
}

func TestNewOptionsDefaults(t *testing.T) {
	opts := newOptions(&config.RedisConfig{Host: "cache.internal", Port: 6380, DB: 2})
	if opts.Addr != "cache.internal:6380" {
		t.Errorf("addr = %q", opts.Addr)
	}
	if opts.PoolSize != defaultPoolSize || opts.DialTimeout != defaultDialTimeout {
		t.Errorf("pool = %d, dial = %s", opts.PoolSize, opts.DialTimeout)
	}
	if opts.DB != 2 || opts.ClientName != clientName {
		t.Errorf("db = %d, name = %q", opts.DB, opts.ClientName)
	}
}
