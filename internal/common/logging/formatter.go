package logging

import (
	"bytes"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// CommandLineFormatter prints only the message of each entry, followed by the error field if one is set.
// Used by the CLI, where timestamps and levels only add noise.
type CommandLineFormatter struct{}

func (f *CommandLineFormatter) Format(entry *log.Entry) ([]byte, error) {
	var b bytes.Buffer
	b.WriteString(entry.Message)
	if err, ok := entry.Data[log.ErrorKey]; ok {
		fmt.Fprintf(&b, ": %v", err)
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}
