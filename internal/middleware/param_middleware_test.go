package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestExtractUintParam(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/duels/:id", ExtractUintParam("id", "duelID"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"duel_id": c.GetUint("duelID")})
	})

	cases := []struct {
		name string
		path string
		code int
	}{
		{"валидный ID", "/duels/42", http.StatusOK},
		{"нечисловой ID", "/duels/abc", http.StatusBadRequest},
		{"нулевой ID", "/duels/0", http.StatusBadRequest},
		{"отрицательный ID", "/duels/-1", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.code, w.Code)
		})
	}
}
