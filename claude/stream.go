package claude

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"time"

	"github.com/abhitsian/claude-session-manager/claude/models"
)

// eachLine calls fn for every line of the file at path, including a last
// line that has no trailing newline. Returning false from fn stops early.
func eachLine(path string, fn func(line []byte) bool) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open session file: %w", err)
	}
	defer file.Close()

	// ReadBytes has no line length limit; tool results can be megabytes long
	reader := bufio.NewReader(file)
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 && !fn(line) {
			return nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("error reading session file: %w", err)
		}
	}
}

// Messages returns the decoded records of a session log as a lazy sequence.
// Each range over the result opens the file again, so independent
// consumers never share a cursor. Undecodable lines are skipped; an I/O
// error is yielded once as the final element.
func Messages(path string, now func() time.Time) iter.Seq2[*models.ConversationMessage, error] {
	if now == nil {
		now = time.Now
	}
	return func(yield func(*models.ConversationMessage, error) bool) {
		stopped := false
		err := eachLine(path, func(line []byte) bool {
			msg, ok := DecodeRecord(line, now)
			if !ok {
				return true
			}
			if !yield(msg, nil) {
				stopped = true
				return false
			}
			return true
		})
		if err != nil && !stopped {
			yield(nil, err)
		}
	}
}

// Conversation is Messages restricted to user and assistant turns.
func Conversation(path string, now func() time.Time) iter.Seq2[*models.ConversationMessage, error] {
	return func(yield func(*models.ConversationMessage, error) bool) {
		for msg, err := range Messages(path, now) {
			if err != nil {
				yield(nil, err)
				return
			}
			if !msg.IsConversational() {
				continue
			}
			if !yield(msg, nil) {
				return
			}
		}
	}
}

// ReadMessages collects every decoded record of a session log.
func ReadMessages(path string, now func() time.Time) ([]*models.ConversationMessage, error) {
	var messages []*models.ConversationMessage
	for msg, err := range Messages(path, now) {
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, nil
}
