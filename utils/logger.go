/*
 * Copyright 2026 the strata authors.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger is an alias so callers do not import logrus directly.
type Logger = logrus.Logger

var (
	defaultLevel     = logrus.InfoLevel
	loggerRegistryMu sync.RWMutex
	loggerRegistry   = map[string]*logrus.Logger{}
	logFormat        = EnvDefaultString("LOG_FORMAT", "text")
)

// ParseLogLevel maps a level name onto a logrus level, defaulting to info.
func ParseLogLevel(s string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "info", "":
		return logrus.InfoLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.InfoLevel
	}
}

// ConfigureLogFormat switches all subsequently created loggers between the
// text and json formatters.
func ConfigureLogFormat(format string) {
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		logFormat = "json"
	} else {
		logFormat = "text"
	}
}

// ConfigureLogLevel sets the level for every registered logger.
func ConfigureLogLevel(levelStr string) {
	lvl := ParseLogLevel(levelStr)
	defaultLevel = lvl
	loggerRegistryMu.RLock()
	for _, lg := range loggerRegistry {
		lg.SetLevel(lvl)
	}
	loggerRegistryMu.RUnlock()
	logrus.SetLevel(lvl)
}

// SetLoggerLevel sets the level of one named logger, reporting whether the
// name was registered.
func SetLoggerLevel(name, lvlStr string) bool {
	lvl := ParseLogLevel(lvlStr)
	loggerRegistryMu.RLock()
	lg, ok := loggerRegistry[name]
	loggerRegistryMu.RUnlock()
	if !ok {
		return false
	}
	lg.SetLevel(lvl)
	return true
}

// RegisterLogger adds a logger to the named registry.
func RegisterLogger(name string, l *logrus.Logger) {
	loggerRegistryMu.Lock()
	defer loggerRegistryMu.Unlock()
	loggerRegistry[name] = l
}

// NewLogger creates a named logger writing to stdout with the configured
// format and registers it for level control.
func NewLogger(name string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetLevel(defaultLevel)
	l.SetReportCaller(true)
	if logFormat == "json" {
		l.SetFormatter(&JSONLogFormatter{LoggerName: name})
	} else {
		l.SetFormatter(&ColorLogFormatter{LoggerName: name, NameWidth: 10})
	}
	RegisterLogger(name, l)
	return l
}

const (
	ansiLogReset   = "\x1b[0m"
	ansiLogFaint   = "\x1b[2m"
	ansiLogRed     = "\x1b[31m"
	ansiLogGreen   = "\x1b[32m"
	ansiLogYellow  = "\x1b[33m"
	ansiLogBlue    = "\x1b[34m"
	ansiLogMagenta = "\x1b[35m"
	ansiLogCyan    = "\x1b[36m"
)

func wrapColor(s, code string) string { return code + s + ansiLogReset }

func levelColor(s string, level logrus.Level) string {
	switch level {
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return wrapColor(s, ansiLogRed)
	case logrus.WarnLevel:
		return wrapColor(s, ansiLogYellow)
	case logrus.InfoLevel:
		return wrapColor(s, ansiLogGreen)
	case logrus.DebugLevel:
		return wrapColor(s, ansiLogBlue)
	default:
		return wrapColor(s, ansiLogMagenta)
	}
}

// ColorLogFormatter renders log4j-style colored lines for terminals.
type ColorLogFormatter struct {
	LoggerName      string
	TimestampFormat string
	NameWidth       int
}

func (f *ColorLogFormatter) tsFormat() string {
	if f.TimestampFormat != "" {
		return f.TimestampFormat
	}
	return "2006-01-02 15:04:05.000"
}

func (f *ColorLogFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	ts := time.Now().Format(f.tsFormat())
	lvl := levelColor(fmt.Sprintf("%7s", strings.ToUpper(entry.Level.String())), entry.Level)
	name := f.LoggerName
	if f.NameWidth > 0 {
		name = fmt.Sprintf("%*s", f.NameWidth, limitString(name, f.NameWidth))
	}
	caller := ""
	if entry.Caller != nil {
		caller = wrapColor(fmt.Sprintf(" %s:%d", filepath.Base(entry.Caller.File), entry.Caller.Line), ansiLogFaint)
	}
	line := fmt.Sprintf("%s %s %s - %s%s %s %s\n",
		ts, lvl, wrapColor(fmt.Sprintf("%-6d", os.Getpid()), ansiLogMagenta),
		wrapColor(name, ansiLogCyan), caller, wrapColor(":", ansiLogFaint), entry.Message)
	return []byte(line), nil
}

// JSONLogFormatter renders one JSON object per line for log shippers.
type JSONLogFormatter struct {
	LoggerName      string
	TimestampFormat string
}

func (f *JSONLogFormatter) tsFormat() string {
	if f.TimestampFormat != "" {
		return f.TimestampFormat
	}
	return "2006-01-02 15:04:05.000"
}

func (f *JSONLogFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	rec := struct {
		Time    string                 `json:"time"`
		Level   string                 `json:"level"`
		Name    string                 `json:"name"`
		Caller  string                 `json:"caller,omitempty"`
		Message string                 `json:"message"`
		Fields  map[string]interface{} `json:"fields,omitempty"`
	}{
		Time:    time.Now().Format(f.tsFormat()),
		Level:   strings.ToLower(entry.Level.String()),
		Name:    f.LoggerName,
		Message: entry.Message,
	}
	if entry.Caller != nil {
		rec.Caller = fmt.Sprintf("%s:%d", filepath.Base(entry.Caller.File), entry.Caller.Line)
	}
	if len(entry.Data) > 0 {
		rec.Fields = entry.Data
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func limitString(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// EnvDefaultString returns the env value for key or def when unset.
func EnvDefaultString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// EnvDefaultBool returns the env value for key parsed as a bool, or def.
func EnvDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, _ := strconv.ParseBool(v)
		return b
	}
	return def
}
