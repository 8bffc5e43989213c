// Package logger provides the structured logger shared by the portal binaries.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

type Logger interface {
	Info(message string, fields map[string]interface{})
	Error(message string, fields map[string]interface{})
	Warn(message string, fields map[string]interface{})
	Debug(message string, fields map[string]interface{})
	Fatal(message string, fields map[string]interface{})
}

type logrusLogger struct {
	entry *logrus.Entry
}

// New returns a JSON logger tagged with serviceName, writing to stdout at info level.
func New(serviceName string) Logger {
	return NewWithLevel(serviceName, "info", os.Stdout)
}

// NewWithLevel is New with an explicit level name and output. Unknown levels fall back to info.
func NewWithLevel(serviceName, level string, out io.Writer) Logger {
	base := logrus.New()
	base.SetOutput(out)
	base.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05Z07:00",
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyMsg: "message",
			logrus.FieldKeyTime: "timestamp",
		},
	})

	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	base.SetLevel(lvl)

	return &logrusLogger{entry: base.WithField("service", serviceName)}
}

func (l *logrusLogger) with(fields map[string]interface{}) *logrus.Entry {
	if len(fields) == 0 {
		return l.entry
	}
	return l.entry.WithFields(logrus.Fields(fields))
}

func (l *logrusLogger) Info(message string, fields map[string]interface{}) {
	l.with(fields).Info(message)
}

func (l *logrusLogger) Error(message string, fields map[string]interface{}) {
	l.with(fields).Error(message)
}

func (l *logrusLogger) Warn(message string, fields map[string]interface{}) {
	l.with(fields).Warn(message)
}

func (l *logrusLogger) Debug(message string, fields map[string]interface{}) {
	l.with(fields).Debug(message)
}

func (l *logrusLogger) Fatal(message string, fields map[string]interface{}) {
	l.with(fields).Fatal(message)
}

func NewNop() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (l *nopLogger) Info(message string, fields map[string]interface{})  {}
func (l *nopLogger) Error(message string, fields map[string]interface{}) {}
func (l *nopLogger) Warn(message string, fields map[string]interface{})  {}
func (l *nopLogger) Debug(message string, fields map[string]interface{}) {}
func (l *nopLogger) Fatal(message string, fields map[string]interface{}) {}
