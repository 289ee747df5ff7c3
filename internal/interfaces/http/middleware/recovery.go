package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"z-scenario-gen/internal/interfaces/http/dto"
	"z-scenario-gen/pkg/logger"
)

// Recovery Panic 恢复中间件
// 运维服务与批次运行在同一进程，handler panic 不能拖垮批次。
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(c.Request.Context(), "panic recovered",
					fmt.Errorf("%v", r),
					"stack", string(debug.Stack()),
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
				)
				c.Abort()
				dto.Error(c, http.StatusInternalServerError, "internal server error")
			}
		}()

		c.Next()
	}
}
