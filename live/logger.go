package live

import "github.com/labstack/gommon/log"

// Logger is the subset of echo.Logger the live views write to.
type Logger interface {
	Debugf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

func defaultLogger() Logger {
	return log.New("live")
}
