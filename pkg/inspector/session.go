package inspector

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vigil-dev/vigil"
)

// sendQueueSize bounds the per-session outgoing buffer. A tool that
// cannot keep up loses frames rather than stalling revalidation.
const sendQueueSize = 256

// session is one connected debugging tool.
type session struct {
	id     uint64
	conn   *websocket.Conn
	co     *vigil.Coordinator
	logger *slog.Logger

	writeTimeout time.Duration

	out  chan Frame
	once sync.Once
	done chan struct{}

	mu        sync.Mutex
	seq       uint64
	nextWatch uint64
	watches   map[uint64]vigil.ReleaseFunc
}

func newSession(id uint64, conn *websocket.Conn, co *vigil.Coordinator, logger *slog.Logger, writeTimeout time.Duration) *session {
	return &session{
		id:           id,
		conn:         conn,
		co:           co,
		logger:       logger,
		writeTimeout: writeTimeout,
		out:          make(chan Frame, sendQueueSize),
		done:         make(chan struct{}),
		watches:      make(map[uint64]vigil.ReleaseFunc),
	}
}

// readLoop consumes client commands until the connection closes.
func (s *session) readLoop() {
	defer s.close()

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("inspector: read error", "session", s.id, "error", err)
			}
			return
		}

		cmd, err := decodeCommand(msg)
		if err != nil {
			s.logger.Warn("inspector: bad command", "session", s.id, "error", err)
			s.send(Frame{Type: FrameError, Message: err.Error()})
			continue
		}
		s.handle(cmd)
	}
}

// writeLoop drains the outgoing queue onto the connection.
func (s *session) writeLoop() {
	for {
		select {
		case frame := <-s.out:
			s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := s.conn.WriteJSON(frame); err != nil {
				s.logger.Error("inspector: write error", "session", s.id, "error", err)
				s.close()
				return
			}
		case <-s.done:
			return
		}
	}
}

// handle executes one client command.
func (s *session) handle(cmd Command) {
	switch cmd.Action {
	case ActionWatchTypes:
		id := s.allocWatch()
		release := s.co.WatchTypes(
			func(types []vigil.WrappedType) {
				s.send(Frame{Type: FrameTypesAdded, Watch: id, Types: types})
			},
			func(types []vigil.WrappedType) {
				s.send(Frame{Type: FrameTypesUpdated, Watch: id, Types: types})
			},
		)
		s.storeWatch(id, release)
		s.send(Frame{Type: FrameWatchStarted, Watch: id})

	case ActionWatchRecords:
		name := cmd.TypeName
		id := s.allocWatch()
		// watchStarted goes out before WatchRecords runs, because the
		// initial revalidation delivers the full added set
		// synchronously and must arrive after its own handle.
		s.send(Frame{Type: FrameWatchStarted, Watch: id, TypeName: name})
		release := s.co.WatchRecords(name,
			func(added []vigil.WrappedRecord) {
				s.send(Frame{Type: FrameRecordsAdded, Watch: id, TypeName: name, Records: added})
			},
			func(updated []vigil.WrappedRecord) {
				s.send(Frame{Type: FrameRecordsUpdated, Watch: id, TypeName: name, Records: updated})
			},
			func(removed []vigil.WrappedRecord) {
				s.send(Frame{Type: FrameRecordsRemoved, Watch: id, TypeName: name, Records: removed})
			},
		)
		s.storeWatch(id, release)

	case ActionRelease:
		s.mu.Lock()
		release, ok := s.watches[cmd.Watch]
		delete(s.watches, cmd.Watch)
		s.mu.Unlock()
		if !ok {
			s.send(Frame{Type: FrameError, Message: "unknown watch"})
			return
		}
		release()
		s.send(Frame{Type: FrameWatchReleased, Watch: cmd.Watch})
	}
}

func (s *session) allocWatch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextWatch++
	return s.nextWatch
}

func (s *session) storeWatch(id uint64, release vigil.ReleaseFunc) {
	s.mu.Lock()
	s.watches[id] = release
	s.mu.Unlock()
}

// send stamps the frame's sequence number and queues it. Frames are
// dropped, with a warning, when the tool is too slow to drain the
// queue; revalidation must never block on a client.
func (s *session) send(frame Frame) {
	s.mu.Lock()
	s.seq++
	frame.Seq = s.seq
	s.mu.Unlock()

	select {
	case s.out <- frame:
	case <-s.done:
	default:
		s.logger.Warn("inspector: send queue full, dropping frame",
			"session", s.id, "type", frame.Type)
	}
}

// close releases every watch this session held and closes the
// connection. Idempotent.
func (s *session) close() {
	s.once.Do(func() {
		close(s.done)

		s.mu.Lock()
		releases := make([]vigil.ReleaseFunc, 0, len(s.watches))
		for _, r := range s.watches {
			releases = append(releases, r)
		}
		s.watches = make(map[uint64]vigil.ReleaseFunc)
		s.mu.Unlock()

		for _, r := range releases {
			r()
		}
		s.conn.Close()
	})
}

// encodeFrame is used by tests to verify the wire shape.
func encodeFrame(f Frame) ([]byte, error) {
	return json.Marshal(f)
}
