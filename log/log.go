// Package log provides leveled, structured logging backed by logrus and a rotating file sink.
package log

import (
	"io"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/streamscout/streamscout/constant"
	"github.com/streamscout/streamscout/key"
	"github.com/streamscout/streamscout/where"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	enabled bool
	discard = &logrus.Logger{Out: io.Discard, Formatter: new(logrus.TextFormatter), Level: logrus.PanicLevel, Hooks: make(logrus.LevelHooks)}
)

// Setup configures the logger from logs.* settings.
// When logs.write is false every emission is dropped.
func Setup() error {
	enabled = viper.GetBool(key.LogsWrite)
	if !enabled {
		return nil
	}

	logrus.SetOutput(&lumberjack.Logger{
		Filename:   filepath.Join(where.Logs(), constant.Streamscout+".log"),
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     14,
	})

	if viper.GetBool(key.LogsJson) {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	}

	parsed, err := logrus.ParseLevel(viper.GetString(key.LogsLevel))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logrus.SetLevel(parsed)

	return nil
}

// SetOutput enables logging to w at the given level. Used by tests and the --verbose flag.
func SetOutput(w io.Writer, level logrus.Level) {
	enabled = true
	logrus.SetOutput(w)
	logrus.SetLevel(level)
}

// WithFields returns an entry carrying fields. The entry writes nothing while logging is disabled.
func WithFields(fields logrus.Fields) *logrus.Entry {
	if !enabled {
		return logrus.NewEntry(discard).WithFields(fields)
	}
	return logrus.WithFields(fields)
}

// WithField is WithFields for a single field.
func WithField(k string, v any) *logrus.Entry {
	return WithFields(logrus.Fields{k: v})
}

func Error(args ...interface{}) {
	if enabled {
		logrus.Error(args...)
	}
}
func Errorf(format string, args ...interface{}) {
	if enabled {
		logrus.Errorf(format, args...)
	}
}
func Warn(args ...interface{}) {
	if enabled {
		logrus.Warn(args...)
	}
}
func Warnf(format string, args ...interface{}) {
	if enabled {
		logrus.Warnf(format, args...)
	}
}
func Info(args ...interface{}) {
	if enabled {
		logrus.Info(args...)
	}
}
func Infof(format string, args ...interface{}) {
	if enabled {
		logrus.Infof(format, args...)
	}
}
func Debug(args ...interface{}) {
	if enabled {
		logrus.Debug(args...)
	}
}
func Debugf(format string, args ...interface{}) {
	if enabled {
		logrus.Debugf(format, args...)
	}
}
