package sending

import (
	"fmt"

	"github.com/casualjim/roost/api"
)

// MessageTooLargeError rejects a dispatch before anything is sent.
type MessageTooLargeError struct {
	// MessageID is set when a single message is over the limit.
	MessageID string
	Size      int
	Limit     int
}

func (e *MessageTooLargeError) Error() string {
	if e.MessageID != "" {
		return fmt.Sprintf("message %s is %d bytes, the maximum message size is %d bytes", e.MessageID, e.Size, e.Limit)
	}
	return fmt.Sprintf("batch is %d bytes, the maximum message size is %d bytes", e.Size, e.Limit)
}

// checkSize verifies that every message and the batch as a whole fit in
// limit bytes. A limit of zero or less disables the check.
func checkSize(msgs []*api.BrokeredMessage, limit int) error {
	if limit <= 0 {
		return nil
	}
	total := 0
	for _, msg := range msgs {
		size := msg.Size()
		if size > limit {
			return &MessageTooLargeError{MessageID: msg.MessageID, Size: size, Limit: limit}
		}
		total += size
	}
	if total > limit {
		return &MessageTooLargeError{Size: total, Limit: limit}
	}
	return nil
}
