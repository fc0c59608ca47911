package app

import (
	cron "github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/cleanmatch/mono-repo/backend/shared/go-utils"
)

// cronLogger routes cron's own logging through the shared logrus Logger.
type cronLogger struct {
	log *logrus.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(pairs(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.WithError(err).WithFields(pairs(keysAndValues)).Error(msg)
}

func pairs(keysAndValues []interface{}) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if k, ok := keysAndValues[i].(string); ok {
			fields[k] = keysAndValues[i+1]
		}
	}
	return fields
}

// NewScheduler returns a cron scheduler whose jobs recover from panics, so
// a failing sweep is logged instead of taking the service down.
func NewScheduler() *cron.Cron {
	logger := cronLogger{log: utils.Logger}
	return cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger)),
	)
}
