package handlers

import (
	"net/http"

	"ppms/internal/middleware"

	"github.com/gin-gonic/gin"
)

func IndexPage(c *gin.Context) {
	a, ok := middleware.CurrentActor(c)
	body := gin.H{"service": "ppms", "authenticated": ok}
	if ok {
		body["user"] = a
	}
	render(c, http.StatusOK, body)
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
