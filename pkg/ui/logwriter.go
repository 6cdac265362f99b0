package ui

import (
	"encoding/json"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// LogWriter turns JSON log lines into LogMsg for the activity feed.
type LogWriter struct {
	send func(tea.Msg)
}

// NewLogWriter returns a writer that forwards to the running program.
func NewLogWriter() *LogWriter {
	return &LogWriter{send: Send}
}

// Write implements io.Writer. Lines that are not JSON are forwarded verbatim.
func (w *LogWriter) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimSpace(string(p)), "\n") {
		if line == "" {
			continue
		}
		w.send(parseLogLine(line))
	}
	return len(p), nil
}

func parseLogLine(line string) LogMsg {
	var entry struct {
		Level string `json:"level"`
		Msg   string `json:"msg"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(line), &entry); err != nil || entry.Msg == "" {
		return LogMsg{Level: "info", Message: line}
	}

	msg := entry.Msg
	if entry.Error != "" {
		msg += ": " + entry.Error
	}
	return LogMsg{Level: strings.ToLower(entry.Level), Message: msg}
}
