package message

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	messageService "github.com/MazadiaS/ai-crm-messaging-system/internal/service/message"
)

func TestMessageEditUsesPatch(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()

	svc := messageService.NewService(nil, nil, nil, zerolog.Nop(), nil)
	h := NewHandler(svc, func(c *gin.Context) { c.Next() })
	h.RegisterRoutes(engine.Group("/api/v1"))

	routes := make(map[string]bool)
	for _, r := range engine.Routes() {
		routes[r.Method+" "+r.Path] = true
	}

	// Message edits are partial updates; full-replace PUT is not exposed.
	assert.True(t, routes[http.MethodPatch+" /api/v1/messages/:id"])
	assert.False(t, routes[http.MethodPut+" /api/v1/messages/:id"])
}
