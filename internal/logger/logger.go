package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

var Log *logrus.Logger

func Init(ginMode string) {
	Log = logrus.New()
	Log.SetOutput(os.Stdout)
	if ginMode == "release" {
		Log.SetFormatter(&logrus.JSONFormatter{})
		Log.SetLevel(logrus.InfoLevel)
	} else {
		Log.SetLevel(logrus.DebugLevel)
	}
}

// L returns the process logger, initialising a default one when Init has
// not run yet (tests).
func L() *logrus.Logger {
	if Log == nil {
		Init("debug")
	}
	return Log
}
