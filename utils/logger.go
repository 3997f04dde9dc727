package utils

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var (
	InfoLogger  *logrus.Logger
	ErrorLogger *logrus.Logger
)

func InitLogger() {
	InfoLogger = newLogger(os.Stdout, logrus.InfoLevel)
	ErrorLogger = newLogger(os.Stderr, logrus.InfoLevel)
}

// SetLogLevel adjusts the info logger, e.g. "debug" in development.
func SetLogLevel(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		ErrorLogger.Errorf("unknown log level %q, keeping %s", level, InfoLogger.GetLevel())
		return
	}
	InfoLogger.SetLevel(lvl)
}

func newLogger(out io.Writer, level logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	l.SetLevel(level)
	return l
}

func init() {
	// packages that log before main calls InitLogger (tests mostly)
	if InfoLogger == nil {
		InitLogger()
	}
}
