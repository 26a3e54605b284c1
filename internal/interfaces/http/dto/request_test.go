package dto

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestBindPage(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		query        string
		wantPage     int
		wantPageSize int
	}{
		{"", 1, 20},
		{"?page=3&page_size=50", 3, 50},
		{"?page=-1&page_size=1000", 1, 100},
		{"?page=abc&page_size=", 1, 20},
	}
	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/screens"+tt.query, nil)

		p := BindPage(c).Pagination()
		if p.Page != tt.wantPage || p.PageSize != tt.wantPageSize {
			t.Errorf("%q: got page=%d size=%d, want %d/%d", tt.query, p.Page, p.PageSize, tt.wantPage, tt.wantPageSize)
		}
	}
}

func TestParseBool(t *testing.T) {
	for in, want := range map[string]bool{"true": true, "1": true, "false": false, "": false, "yes": false} {
		if got := parseBool(in); got != want {
			t.Errorf("parseBool(%q) = %v, want %v", in, got, want)
		}
	}
}
