package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRedactQuery(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "no query", in: "/ws/matches/m1", want: "/ws/matches/m1"},
		{name: "no credentials", in: "/api/feed?cursor=g2", want: "/api/feed?cursor=g2"},
		{name: "token", in: "/ws/matches/m1?token=abc.def.ghi", want: "/ws/matches/m1?token=REDACTED"},
		{name: "token among others", in: "/ws/matches/m1?device_id=d1&token=abc", want: "/ws/matches/m1?device_id=d1&token=REDACTED"},
		{name: "unparseable", in: "/ws/matches/m1?token=%zz", want: "/ws/matches/m1?REDACTED"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, RedactQuery(tc.in))
		})
	}
}

func TestAccessLoggerDoesNotLogTokens(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	r := gin.New()
	r.Use(AccessLogger(&buf))
	r.GET("/ws/matches/:match_id", func(c *gin.Context) { c.Status(http.StatusUnauthorized) })

	req := httptest.NewRequest(http.MethodGet, "/ws/matches/m1?token=secret-jwt", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.NotContains(t, buf.String(), "secret-jwt")
	assert.Contains(t, buf.String(), "token=REDACTED")
	assert.Contains(t, buf.String(), "401")
}
