package utils

import (
	"io"

	"github.com/MrSnakeDoc/demo-api/internal/logger"
)

// CloseLogged closes c and logs a failure under name. Meant for teardown
// paths where the error cannot be returned.
func CloseLogged(c io.Closer, name string, log logger.Logger) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		log.Warn("failed to close "+name, logger.Error(err))
	}
}
