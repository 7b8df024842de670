package sse

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

var bom = []byte{0xEF, 0xBB, 0xBF}

// Event is one dispatched server-sent event. Event, ID and Retry are only
// set when the stream supplied them. Data holds the parsed JSON value when
// the payload is valid JSON and the raw string otherwise.
type Event struct {
	Event string `json:"event,omitempty"`
	Data  any    `json:"data"`
	ID    string `json:"id,omitempty"`
	Retry *int   `json:"retry,omitempty"`
}

// Parser is the line-oriented event-stream state machine. It buffers
// incomplete lines across Feed calls, so chunks may split anywhere,
// including between the CR and LF of a CRLF pair.
//
// A Parser is not safe for concurrent use.
type Parser struct {
	buf     []byte
	started bool

	event string
	data  strings.Builder
	id    string
	retry *int
}

// Feed appends chunk to the pending input and returns every event completed
// by it, in arrival order.
func (p *Parser) Feed(chunk []byte) []Event {
	if !p.started {
		p.buf = append(p.buf, chunk...)
		if len(p.buf) < len(bom) && bytes.HasPrefix(bom, p.buf) {
			return nil
		}
		p.buf = bytes.TrimPrefix(p.buf, bom)
		p.started = true
	} else {
		p.buf = append(p.buf, chunk...)
	}

	var events []Event
	for {
		i := bytes.IndexAny(p.buf, "\r\n")
		if i < 0 {
			break
		}

		// A trailing CR may be the first half of a CRLF.
		if p.buf[i] == '\r' && i == len(p.buf)-1 {
			break
		}

		next := i + 1
		if p.buf[i] == '\r' && p.buf[next] == '\n' {
			next++
		}

		if ev, ok := p.line(string(p.buf[:i])); ok {
			events = append(events, ev)
		}
		p.buf = p.buf[next:]
	}

	return events
}

// Finish treats any pending fragment as a complete line, flushes the
// current event and resets the Parser.
func (p *Parser) Finish() []Event {
	var events []Event

	if len(p.buf) > 0 {
		line := strings.TrimSuffix(string(p.buf), "\r")
		if ev, ok := p.line(line); ok {
			events = append(events, ev)
		}
	}

	if ev, ok := p.flush(); ok {
		events = append(events, ev)
	}

	p.buf = nil
	p.started = false

	return events
}

func (p *Parser) line(line string) (Event, bool) {
	if line == "" {
		return p.flush()
	}

	if line[0] == ':' {
		return Event{}, false
	}

	field, value, _ := strings.Cut(line, ":")
	value = strings.TrimPrefix(value, " ")

	switch field {
	case "event":
		p.event = value
	case "data":
		p.data.WriteString(value)
		p.data.WriteByte('\n')
	case "id":
		if !strings.ContainsRune(value, 0) {
			p.id = value
		}
	case "retry":
		if isDigits(value) {
			if n, err := strconv.Atoi(value); err == nil {
				p.retry = &n
			}
		}
	}

	return Event{}, false
}

// flush builds the pending event. Buffers are cleared whether or not an
// event is produced; an event without data is dropped.
func (p *Parser) flush() (Event, bool) {
	defer p.reset()

	if p.data.Len() == 0 {
		return Event{}, false
	}

	data := strings.TrimSuffix(p.data.String(), "\n")

	return Event{
		Event: p.event,
		Data:  parseData(data),
		ID:    p.id,
		Retry: p.retry,
	}, true
}

func (p *Parser) reset() {
	p.event = ""
	p.data.Reset()
	p.id = ""
	p.retry = nil
}

func parseData(data string) any {
	var v any
	if err := sonic.ConfigStd.UnmarshalFromString(data, &v); err != nil {
		return data
	}
	return v
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
