// Package logging wires logrus to the systemd journal when the setup
// tool runs as a unit, so provisioning progress lands in the host's
// journal with structured fields intact.
//
// Inspired by github.com/wercker/journalhook (MIT license)
package logging

import (
	"fmt"
	"strings"

	"github.com/coreos/go-systemd/v22/journal"
	"github.com/sirupsen/logrus"
)

// JournalHook forwards every logrus entry to the journal.
type JournalHook struct{}

// Available reports whether the journal socket can be reached.
func Available() bool {
	return journal.Enabled()
}

var severityMap = map[logrus.Level]journal.Priority{
	logrus.DebugLevel: journal.PriDebug,
	logrus.InfoLevel:  journal.PriInfo,
	logrus.WarnLevel:  journal.PriWarning,
	logrus.ErrorLevel: journal.PriErr,
	logrus.FatalLevel: journal.PriCrit,
	logrus.PanicLevel: journal.PriEmerg,
}

// journalKey maps a logrus field name to a journal-acceptable variable
// name: uppercase alphanumerics and underscores, no leading
// underscore.
func journalKey(key string) string {
	key = strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		case r >= 'a' && r <= 'z':
			return r - 32
		default:
			return '_'
		}
	}, key)
	return strings.TrimPrefix(key, "_")
}

func journalVars(data map[string]interface{}) map[string]string {
	vars := make(map[string]string, len(data))
	for k, v := range data {
		vars[journalKey(k)] = fmt.Sprint(v)
	}
	return vars
}

func (hook *JournalHook) Fire(entry *logrus.Entry) error {
	return journal.Send(entry.Message, severityMap[entry.Level], journalVars(entry.Data))
}

func (hook *JournalHook) Levels() []logrus.Level {
	return []logrus.Level{
		logrus.PanicLevel,
		logrus.FatalLevel,
		logrus.ErrorLevel,
		logrus.WarnLevel,
		logrus.InfoLevel,
		logrus.DebugLevel,
	}
}
