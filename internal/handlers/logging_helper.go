package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func requestContextFields(c *gin.Context) []interface{} {
	uidVal, _ := c.Get("uid")
	uid := ""
	if s, ok := uidVal.(string); ok {
		uid = s
	}
	return []interface{}{
		"request_id", c.GetString("request_id"),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"client_ip", c.ClientIP(),
		"user_uid", uid,
	}
}

func logErrorWithContext(logger *zap.SugaredLogger, c *gin.Context, err error, msg string, fields ...interface{}) {
	if logger == nil {
		return
	}
	all := append(requestContextFields(c), fields...)
	logger.Errorw(msg, append(all, "error", err)...)
}

func (h *NotificationsHandler) logError(c *gin.Context, err error, msg string, fields ...interface{}) {
	logErrorWithContext(h.logger, c, err, msg, fields...)
}

func (h *MedicationsHandler) logError(c *gin.Context, err error, msg string, fields ...interface{}) {
	logErrorWithContext(h.logger, c, err, msg, fields...)
}
