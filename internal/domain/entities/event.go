package entities

// Severity of an operational event.
type Severity string

const (
	SeverityInfo  Severity = "INFO"
	SeverityWarn  Severity = "WARN"
	SeverityError Severity = "ERROR"
)

// EventColumns is the fixed column order of the event log.
var EventColumns = []string{"timestamp", "level", "message", "payload"}

// EventLogEntry is one operational event. Payload is a JSON object encoded
// as text, or "" when the event carries no context.
type EventLogEntry struct {
	Timestamp string   `json:"timestamp" db:"timestamp"`
	Level     Severity `json:"level" db:"level"`
	Message   string   `json:"message" db:"message"`
	Payload   string   `json:"payload" db:"payload"`
}

// Values returns the entry's cells in EventColumns order.
func (e *EventLogEntry) Values() []string {
	return []string{e.Timestamp, string(e.Level), e.Message, e.Payload}
}

// EventFromValues rebuilds an entry from a stored row. Short rows are
// padded with empty cells.
func EventFromValues(row []string) *EventLogEntry {
	cell := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	return &EventLogEntry{
		Timestamp: cell(0),
		Level:     Severity(cell(1)),
		Message:   cell(2),
		Payload:   cell(3),
	}
}
