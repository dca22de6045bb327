package claude

import (
	"bufio"
	"encoding/json"
	"io"
)

// defaultBufferSize is the longest JSON line the parser accepts.
const defaultBufferSize = 10 * 1024 * 1024

// Parser parses streaming JSON output from the CLI.
//
// Each line of output is one [StreamEvent]. The channel returned by Parse is
// closed at EOF or on a read error. Malformed lines are skipped.
type Parser interface {
	Parse(reader io.Reader) <-chan Event
}

// DefaultParser implements [Parser] for the stream-json format.
type DefaultParser struct {
	// BufferSize is the maximum size in bytes for a single JSON line.
	// Defaults to 10MB if not set or <= 0.
	BufferSize int
}

// NewParser creates a [DefaultParser] with a 10MB line limit.
func NewParser() *DefaultParser {
	return &DefaultParser{BufferSize: defaultBufferSize}
}

// Parse reads JSON lines from reader in a goroutine and emits one [Event]
// per parsable line. Empty and unparsable lines are skipped.
func (p *DefaultParser) Parse(reader io.Reader) <-chan Event {
	events := make(chan Event)

	go func() {
		defer close(events)

		bufSize := p.BufferSize
		if bufSize <= 0 {
			bufSize = defaultBufferSize
		}
		scanner := bufio.NewScanner(reader)
		scanner.Buffer(make([]byte, 0, 64*1024), bufSize)

		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			var raw StreamEvent
			if err := json.Unmarshal(line, &raw); err != nil {
				continue
			}
			events <- NewEventFromStream(&raw)
		}
	}()

	return events
}
