package router

import "github.com/gin-gonic/gin"

// Module registers its routes on the versioned API group.
type Module interface {
	Register(rg *gin.RouterGroup)
}
