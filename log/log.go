// Package log hands out prefixed loggers, one per part of the program, all
// writing through a single logrus logger.
package log

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var base = newBase()

func newBase() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05.000",
	})
	return l
}

// SetOutput redirects every context. Tests use it to capture log lines.
func SetOutput(w io.Writer) {
	base.SetOutput(w)
}

// SetLevel accepts logrus level names.
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return err
	}
	base.SetLevel(lvl)
	return nil
}

type Context struct {
	Prefix string
}

func (c Context) entry() *logrus.Entry {
	return base.WithField("component", c.Prefix)
}

func (c Context) With(key string, value interface{}) *logrus.Entry {
	return c.entry().WithField(key, value)
}

type Fields = logrus.Fields

func (c Context) WithFields(fields Fields) *logrus.Entry {
	return c.entry().WithFields(fields)
}

func (c Context) Debugf(format string, args ...interface{}) {
	c.entry().Debugf(format, args...)
}

func (c Context) Printf(format string, args ...interface{}) {
	c.entry().Infof(format, args...)
}

func (c Context) Warnf(format string, args ...interface{}) {
	c.entry().Warnf(format, args...)
}

func (c Context) Errorf(format string, args ...interface{}) {
	c.entry().Errorf(format, args...)
}

var (
	Pipeline = Context{"pipeline"}
	Corpus   = Context{"corpus"}
	Inspect  = Context{"inspect"}
	DB       = Context{"db"}
)
