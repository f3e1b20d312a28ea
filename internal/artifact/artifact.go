// Package artifact persists generated test plans on disk so a conversation
// session can refer back to plans it produced earlier.
//
// Each artifact is identified by (SessionID, Filename); filenames are
// unique within a session and saved files get a collision-free name.
package artifact

import (
	"time"

	"github.com/google/uuid"
)

// Artifact is a persisted test plan.
type Artifact struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	Filename  string // display name, unique within the session (e.g. "login-test.jmx")
	Path      string // absolute path of the stored file
	Content   string
	CreatedAt time.Time
}
