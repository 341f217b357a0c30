package jobs

import "github.com/sirupsen/logrus"

var log *logrus.Logger = logrus.New()

func Init(logger *logrus.Logger) error {
	log = logger.WithFields(logrus.Fields{
		"component": "jobs",
	}).Logger
	return nil
}
