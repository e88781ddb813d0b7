// Package log hands out one logrus entry per engine module (kernel,
// pool, coordinator, ...) and lets the front-end raise or lower single
// modules without drowning a long search in debug output from the rest.
package log

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

type Entry = logrus.Entry

// override maps a module pattern ("kernel", "cluster-*", "*") to a
// level. Later overrides win over earlier ones.
type override struct {
	pattern string
	level   logrus.Level
}

type registry struct {
	lock         sync.Mutex
	out          io.Writer
	defaultLevel logrus.Level
	overrides    []override
	loggers      map[string]*logrus.Logger
}

var reg = &registry{
	out:          os.Stdout,
	defaultLevel: logrus.InfoLevel,
	loggers:      make(map[string]*logrus.Logger),
}

// NewLoggerEntry returns the entry for one module, creating its logger
// on first use at the currently effective level.
func NewLoggerEntry(module string) *Entry {
	reg.lock.Lock()
	defer reg.lock.Unlock()
	return reg.logger(module).WithField("module", module)
}

func (r *registry) logger(module string) *logrus.Logger {
	logger, found := r.loggers[module]
	if !found {
		logger = logrus.New()
		logger.SetOutput(r.out)
		logger.SetLevel(r.levelFor(module))
		r.loggers[module] = logger
	}
	return logger
}

func (r *registry) levelFor(module string) logrus.Level {
	level := r.defaultLevel
	for _, o := range r.overrides {
		if matches(o.pattern, module) {
			level = o.level
		}
	}
	return level
}

func matches(pattern, module string) bool {
	if pattern == "*" || pattern == "all" || pattern == module {
		return true
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(module, strings.TrimSuffix(pattern, "*"))
	}
	return false
}

// reapply recomputes the level of every live logger after the default
// or the override list changed. Overridden modules keep their override.
func (r *registry) reapply() {
	for module, logger := range r.loggers {
		logger.SetLevel(r.levelFor(module))
	}
}

// SetDefaultLevel changes the level of every module without a matching
// override. Unknown level names are ignored.
func SetDefaultLevel(name string) {
	level, err := logrus.ParseLevel(name)
	if err != nil {
		return
	}
	reg.lock.Lock()
	defer reg.lock.Unlock()
	reg.defaultLevel = level
	reg.reapply()
}

// SetModuleLevel overrides the level of every module matching pattern,
// existing and future. Unknown level names are ignored.
func SetModuleLevel(pattern, name string) {
	level, err := logrus.ParseLevel(name)
	if err != nil {
		return
	}
	reg.lock.Lock()
	defer reg.lock.Unlock()
	reg.overrides = append(reg.overrides, override{pattern: pattern, level: level})
	reg.reapply()
}

// SetOutput redirects every module, existing and future.
func SetOutput(out io.Writer) {
	reg.lock.Lock()
	defer reg.lock.Unlock()
	reg.out = out
	for _, logger := range reg.loggers {
		logger.SetOutput(out)
	}
}
