// Package logger is a small central log shared by the emulator packages. Entries are
// kept in memory, up to a fixed number, and can optionally be echoed as they arrive.
//
// Consecutive identical entries are folded into one entry with a repeat count, so a
// register poked in a tight loop does not flush everything else out of the log.
package logger

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// MaxEntries is the number of entries kept by the central logger.
const MaxEntries = 256

type Entry struct {
	Tag      string
	Detail   string
	Repeated int
}

func (e Entry) String() string {
	s := strings.Builder{}
	s.WriteString(fmt.Sprintf("%s: %s", e.Tag, e.Detail))
	if e.Repeated > 0 {
		s.WriteString(fmt.Sprintf(" (repeat x%d)", e.Repeated+1))
	}
	s.WriteString("\n")
	return s.String()
}

type logger struct {
	mu         sync.Mutex
	maxEntries int
	entries    []Entry
	echo       io.Writer
}

func newLogger(maxEntries int) *logger {
	return &logger{
		maxEntries: maxEntries,
		entries:    make([]Entry, 0, maxEntries),
	}
}

func (l *logger) log(tag, detail string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	tag = strings.ReplaceAll(tag, "\n", "")
	detail = strings.ReplaceAll(detail, "\n", "")

	n := len(l.entries)
	if n > 0 && l.entries[n-1].Tag == tag && l.entries[n-1].Detail == detail {
		l.entries[n-1].Repeated++
	} else {
		l.entries = append(l.entries, Entry{Tag: tag, Detail: detail})
		if len(l.entries) > l.maxEntries {
			l.entries = l.entries[len(l.entries)-l.maxEntries:]
		}
	}

	if l.echo != nil {
		io.WriteString(l.echo, l.entries[len(l.entries)-1].String())
	}
}

func (l *logger) clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = l.entries[:0]
}

func (l *logger) tail(output io.Writer, number int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if number > len(l.entries) {
		number = len(l.entries)
	}
	if number < 0 {
		number = 0
	}
	for _, e := range l.entries[len(l.entries)-number:] {
		io.WriteString(output, e.String())
	}
}

func (l *logger) copy() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	c := make([]Entry, len(l.entries))
	copy(c, l.entries)
	return c
}

var central = newLogger(MaxEntries)

func Log(tag, detail string) {
	central.log(tag, detail)
}

func Logf(tag, detail string, args ...any) {
	central.log(tag, fmt.Sprintf(detail, args...))
}

// SetEcho prints every new entry to output. A nil output stops the echo.
func SetEcho(output io.Writer) {
	central.mu.Lock()
	defer central.mu.Unlock()
	central.echo = output
}

func Clear() {
	central.clear()
}

func Write(output io.Writer) {
	central.tail(output, MaxEntries)
}

// Tail writes the most recent entries. Asking for more entries than there are is
// fine.
func Tail(output io.Writer, number int) {
	central.tail(output, number)
}

// Entries returns a copy of the log.
func Entries() []Entry {
	return central.copy()
}
