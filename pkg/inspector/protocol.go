package inspector

import (
	"encoding/json"
	"fmt"

	"github.com/vigil-dev/vigil"
)

// FrameType discriminates server-to-client frames.
type FrameType string

const (
	FrameTypesAdded     FrameType = "typesAdded"
	FrameTypesUpdated   FrameType = "typesUpdated"
	FrameRecordsAdded   FrameType = "recordsAdded"
	FrameRecordsUpdated FrameType = "recordsUpdated"
	FrameRecordsRemoved FrameType = "recordsRemoved"
	FrameWatchStarted   FrameType = "watchStarted"
	FrameWatchReleased  FrameType = "watchReleased"
	FrameError          FrameType = "error"
)

// Frame is one server-to-client message. Seq increases by one per
// frame within a session, so a tool can detect gaps after reconnects.
type Frame struct {
	Seq  uint64    `json:"seq"`
	Type FrameType `json:"type"`

	// Watch identifies the subscription a frame belongs to.
	Watch uint64 `json:"watch,omitempty"`

	// TypeName is set on record frames.
	TypeName string `json:"typeName,omitempty"`

	Types   []vigil.WrappedType   `json:"types,omitempty"`
	Records []vigil.WrappedRecord `json:"records,omitempty"`

	// Message carries error text on FrameError.
	Message string `json:"message,omitempty"`
}

// Command actions a client may send.
const (
	ActionWatchTypes   = "watchTypes"
	ActionWatchRecords = "watchRecords"
	ActionRelease      = "release"
)

// Command is one client-to-server message.
type Command struct {
	Action string `json:"action"`

	// TypeName names the record type for watchRecords.
	TypeName string `json:"typeName,omitempty"`

	// Watch is the subscription to tear down for release.
	Watch uint64 `json:"watch,omitempty"`
}

// decodeCommand parses and validates one client message.
func decodeCommand(data []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return Command{}, fmt.Errorf("inspector: malformed command: %w", err)
	}
	switch cmd.Action {
	case ActionWatchTypes:
	case ActionWatchRecords:
		if cmd.TypeName == "" {
			return Command{}, fmt.Errorf("inspector: watchRecords requires typeName")
		}
	case ActionRelease:
		if cmd.Watch == 0 {
			return Command{}, fmt.Errorf("inspector: release requires watch")
		}
	default:
		return Command{}, fmt.Errorf("inspector: unknown action %q", cmd.Action)
	}
	return cmd, nil
}
