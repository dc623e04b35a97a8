package session

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewCallID returns a duplex call identifier in the broker's
// ws_<unix-millis>_<hex8> layout. The time component keeps identifiers
// roughly ordered without a central counter; the random suffix breaks
// same-millisecond collisions.
func NewCallID() string {
	u := uuid.New()
	return fmt.Sprintf("ws_%d_%s", time.Now().UnixMilli(), hex.EncodeToString(u[:4]))
}
