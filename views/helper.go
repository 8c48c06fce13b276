package views

import (
	"context"
	"errors"
	"net/http"

	"github.com/GrainArc/EarthWork/config"
	"github.com/GrainArc/EarthWork/errkind"
	"github.com/GrainArc/EarthWork/services"
	"github.com/gin-gonic/gin"
)

// errorStatus 错误类别到HTTP状态码
func errorStatus(err error) (int, string) {
	var nf *services.NotFoundError
	switch {
	case errors.As(err, &nf):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, errkind.Input):
		return http.StatusBadRequest, "Invalid input"
	case errors.Is(err, errkind.Domain):
		return http.StatusBadRequest, "Invalid parameter"
	case errors.Is(err, errkind.Crs):
		return http.StatusBadRequest, "Coordinate transform failed"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout, "Request cancelled"
	}
	return http.StatusInternalServerError, "Internal server error"
}

func writeError(c *gin.Context, err error) {
	status, kind := errorStatus(err)
	if status == http.StatusInternalServerError {
		config.Logger().Error("request failed", "path", c.FullPath(), "err", err)
	}
	c.JSON(status, gin.H{
		"error":   kind,
		"message": err.Error(),
	})
}

func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"message": err.Error(),
		})
		return false
	}
	return true
}
