package topology

import (
	"fmt"
	"strings"

	"github.com/casualjim/roost/meta"
)

// SQLFilter returns the subscription rule selecting messages whose enclosed
// message types header mentions eventType.
func SQLFilter(eventType meta.EventType) string {
	header := "[" + meta.HeaderEnclosedMessageTypes + "]"
	name := strings.ReplaceAll(eventType.FullName(), "'", "''")
	return fmt.Sprintf("%[1]s LIKE '%[2]s%%' OR %[1]s LIKE '%%%[2]s%%' OR %[1]s LIKE '%%%[2]s' OR %[1]s = '%[2]s'", header, name)
}
