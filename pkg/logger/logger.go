package logger

import (
	"io"
	"log"
	"os"
	"strings"
)

type LogLevel int

const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
	NONE
)

var (
	Trace *log.Logger
	Debug *log.Logger
	Info  *log.Logger
	Warn  *log.Logger
	Error *log.Logger

	currentLevel LogLevel
)

func init() {
	Trace = log.New(os.Stdout, "[TRACE] ", log.Ldate|log.Ltime)
	Debug = log.New(os.Stdout, "[DEBUG] ", log.Ldate|log.Ltime)
	Info = log.New(os.Stdout, "[INFO] ", log.Ldate|log.Ltime)
	Warn = log.New(os.Stdout, "[WARN] ", log.Ldate|log.Ltime)
	Error = log.New(os.Stderr, "[ERROR] ", log.Ldate|log.Ltime)

	SetLevel(parseLevel(os.Getenv("APIROUTE_LOG_LEVEL")))
}

func parseLevel(lvl string) LogLevel {
	switch strings.ToUpper(lvl) {
	case "TRACE":
		return TRACE
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN":
		return WARN
	case "ERROR":
		return ERROR
	case "NONE", "OFF":
		return NONE
	default:
		return INFO
	}
}

// SetLevel sets the current log level and silences loggers below it
func SetLevel(level LogLevel) {
	currentLevel = level

	setOutput(Trace, IsTraceEnabled(), os.Stdout)
	setOutput(Debug, IsDebugEnabled(), os.Stdout)
	setOutput(Info, IsInfoEnabled(), os.Stdout)
	setOutput(Warn, IsWarnEnabled(), os.Stdout)
	setOutput(Error, IsErrorEnabled(), os.Stderr)
}

func setOutput(l *log.Logger, enabled bool, w io.Writer) {
	if enabled {
		l.SetOutput(w)
	} else {
		l.SetOutput(io.Discard)
	}
}

// Level check functions
func IsTraceEnabled() bool {
	return currentLevel <= TRACE
}

func IsDebugEnabled() bool {
	return currentLevel <= DEBUG
}

func IsInfoEnabled() bool {
	return currentLevel <= INFO
}

func IsWarnEnabled() bool {
	return currentLevel <= WARN
}

func IsErrorEnabled() bool {
	return currentLevel <= ERROR
}

// Trace level logging
func Tracef(format string, v ...interface{}) {
	if IsTraceEnabled() {
		Trace.Printf(format, v...)
	}
}

func Traceln(msg string) {
	if IsTraceEnabled() {
		Trace.Println(msg)
	}
}

// Debug level logging
func Debugf(format string, v ...interface{}) {
	if IsDebugEnabled() {
		Debug.Printf(format, v...)
	}
}

func Debugln(msg string) {
	if IsDebugEnabled() {
		Debug.Println(msg)
	}
}

// Info level logging
func Infof(format string, v ...interface{}) {
	if IsInfoEnabled() {
		Info.Printf(format, v...)
	}
}

func Infoln(msg string) {
	if IsInfoEnabled() {
		Info.Println(msg)
	}
}

// Warn level logging
func Warnf(format string, v ...interface{}) {
	if IsWarnEnabled() {
		Warn.Printf(format, v...)
	}
}

func Warnln(msg string) {
	if IsWarnEnabled() {
		Warn.Println(msg)
	}
}

// Error level logging
func Errorf(format string, v ...interface{}) {
	if IsErrorEnabled() {
		Error.Printf(format, v...)
	}
}

func Errorln(msg string) {
	if IsErrorEnabled() {
		Error.Println(msg)
	}
}

// GetCurrentLevel returns the current log level
func GetCurrentLevel() LogLevel {
	return currentLevel
}
