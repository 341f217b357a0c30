package main

import (
	"fmt"
	"os"
	"path"
	"runtime"

	"github.com/sirupsen/logrus"
)

var log *logrus.Logger

func initLogger() {
	log = logrus.New()
	log.SetOutput(os.Stdout)
	level, err := logrus.ParseLevel(os.Getenv("AUDIOCONV_LOG_LEVEL"))
	if err != nil {
		level = logrus.DebugLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		CallerPrettyfier: func(f *runtime.Frame) (string, string) {
			filename := path.Base(f.File)
			return "", fmt.Sprintf("%s:%d", filename, f.Line)
		},
	})
	log.SetReportCaller(true)
}
