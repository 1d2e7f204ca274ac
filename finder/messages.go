package finder

import (
	"fmt"
	"strings"
	"sync"
)

// Messages collects the diagnostic text a finder shows after a scan.
// Scan-time problems end up here instead of being returned as errors.
type Messages struct {
	mu       sync.Mutex
	Messages []string
	Warnings []string
	Errors   []string
}

// AddMessage records an informational message (thread-safe)
func (m *Messages) AddMessage(format string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, fmt.Sprintf(format, args...))
}

// AddWarning records a warning (thread-safe)
func (m *Messages) AddWarning(format string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Warnings = append(m.Warnings, fmt.Sprintf(format, args...))
}

// AddError records an error (thread-safe)
func (m *Messages) AddError(format string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors = append(m.Errors, fmt.Sprintf(format, args...))
}

// CreateMessagesText renders all collected messages as one block of text
func (m *Messages) CreateMessagesText() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var sb strings.Builder
	writeSection := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		sb.WriteString(title)
		sb.WriteString(":\n")
		for _, item := range items {
			sb.WriteString(item)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	writeSection("Errors", m.Errors)
	writeSection("Warnings", m.Warnings)
	writeSection("Messages", m.Messages)

	return strings.TrimSuffix(sb.String(), "\n")
}

// Reset clears all messages
func (m *Messages) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = nil
	m.Warnings = nil
	m.Errors = nil
}
