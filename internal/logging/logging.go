package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/snowzach/rotatefilehook"
)

// New returns a logger writing text to stderr, at debug level in development.
// When file is set, JSON entries are also written there and rotated.
func New(development bool, file string) (*logrus.Logger, error) {
	return newLogger(os.Stderr, development, file)
}

func newLogger(out io.Writer, development bool, file string) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(out)

	level := logrus.InfoLevel
	if development {
		level = logrus.DebugLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{
		ForceColors:   development,
		FullTimestamp: true,
	})

	if file != "" {
		hook, err := rotatefilehook.NewRotateFileHook(rotatefilehook.RotateFileConfig{
			Filename:   file,
			MaxSize:    10,
			MaxBackups: 5,
			MaxAge:     28,
			Level:      level,
			Formatter:  &logrus.JSONFormatter{},
		})
		if err != nil {
			return nil, fmt.Errorf("unable to create log file hook: %w", err)
		}
		log.AddHook(hook)
	}

	return log, nil
}

// Adopt makes a package-level logger share the output, level, formatter and
// hooks of log.
func Adopt(pkg, log *logrus.Logger) {
	pkg.SetOutput(log.Out)
	pkg.SetLevel(log.GetLevel())
	pkg.SetFormatter(log.Formatter)
	pkg.ReplaceHooks(log.Hooks)
}
