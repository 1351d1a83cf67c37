package utility

import (
	"runtime/debug"
	"time"

	"tamil_society/internal/logger"
)

// GoProtect runs f and logs instead of crashing when it panics
func GoProtect(f func()) {
	defer func() {
		if err := recover(); err != nil {
			logger.GetErrorLogger().WithFields(map[string]interface{}{
				"panic": err,
				"stack": string(debug.Stack()),
			}).Error("Recovered from panic")
		}
	}()

	f()
}

// CurrentTimeInMilli returns the current unix time in milliseconds
func CurrentTimeInMilli() int64 {
	return time.Now().UnixMilli()
}
