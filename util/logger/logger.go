package logger

import (
	"fmt"
	"github.com/APTrust/livepremis/models"
	"github.com/op/go-logging"
	"io/ioutil"
	stdlog "log"
	"os"
	"path"
	"path/filepath"
)

/*
InitLogger creates and returns a logger suitable for logging
human-readable messages, along with the path to the log file.
Invalid-record diagnostics go here, never to stdout.
*/
func InitLogger(config *models.Config) (*logging.Logger, string) {
	processName := path.Base(os.Args[0])
	filename := fmt.Sprintf("%s.log", processName)
	logDir, err := config.EnsureLogDirectory()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot create log directory '%s': %v\n",
			config.LogDirectory, err)
		os.Exit(1)
	}
	filename = filepath.Join(logDir, filename)
	writer, err := os.OpenFile(filename, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot open log file '%s': %v\n", filename, err)
		os.Exit(1)
	}

	log := logging.MustGetLogger(processName)
	format := logging.MustStringFormatter("%{time} [%{level}] %{message}")
	logging.SetFormatter(format)

	logBackend := logging.NewLogBackend(writer, "", 0)
	if config.LogToStderr {
		// Log to BOTH file and stderr
		stderrBackend := logging.NewLogBackend(os.Stderr, "", stdlog.LstdFlags|stdlog.Lshortfile)
		stderrBackend.Color = true
		logging.SetBackend(logBackend, stderrBackend)
	} else {
		// Log to file only
		logging.SetBackend(logBackend)
	}
	// SetBackend resets levels, so set ours afterward.
	logging.SetLevel(config.LogLevel, processName)

	return log, filename
}

/*
StderrLogger returns a logger that writes only to stderr. The
command-line tools use this, since they have no log directory.
*/
func StderrLogger(module string, level logging.Level) *logging.Logger {
	log := logging.MustGetLogger(module)
	format := logging.MustStringFormatter("%{time:15:04:05} [%{level}] %{message}")
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	formatted := logging.NewBackendFormatter(backend, format)
	leveled := logging.AddModuleLevel(formatted)
	leveled.SetLevel(level, module)
	log.SetBackend(leveled)
	return log
}

/*
Discard logger returns a logger that writes to dev/null.
Suitable for use in testing.
*/
func DiscardLogger(module string) *logging.Logger {
	log := logging.MustGetLogger(module)
	devnull := logging.NewLogBackend(ioutil.Discard, "", 0)
	logging.SetBackend(devnull)
	logging.SetLevel(logging.INFO, module)
	return log
}
