package input

import (
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"

	"murmur/internal/domain"
)

// Raw input_event layout on 64-bit Linux: 16-byte timeval, then type,
// code, value.
const (
	eventSize = 24

	evKey = 1

	valueRelease = 0
	valuePress   = 1
)

// Reader turns the blocking device read into a stream of KeyEdges for one
// watched key. All other keys and event types are dropped; autorepeat
// pseudo-events are filtered so only real transitions remain.
type Reader struct {
	Device Device
	Key    Key
}

// Label describes the monitored device.
func (r *Reader) Label() string {
	return r.Device.Label()
}

// Start spawns the reader goroutine. The returned channel delivers edges in
// production order and is closed when the reader exits. A read failure is
// forwarded once as a reader-error edge; the goroutine never retries.
func (r *Reader) Start(shutdown *domain.ShutdownFlag) <-chan domain.KeyEdge {
	edges := make(chan domain.KeyEdge, 16)
	go r.run(edges, shutdown)
	return edges
}

func (r *Reader) run(edges chan<- domain.KeyEdge, shutdown *domain.ShutdownFlag) {
	defer close(edges)

	f, err := os.Open(r.Device.Path)
	if err != nil {
		edges <- domain.KeyEdge{
			Kind: domain.KeyEdgeReaderError,
			Err:  fmt.Sprintf("failed to open %s: %v", r.Device.Path, err),
		}
		return
	}
	defer f.Close()

	slog.Info("opened input device", "path", r.Device.Path, "name", r.Device.Name)
	r.readLoop(f, edges, shutdown)
}

func (r *Reader) readLoop(src io.Reader, edges chan<- domain.KeyEdge, shutdown *domain.ShutdownFlag) {
	buf := make([]byte, eventSize)
	for !shutdown.Requested() {
		if _, err := io.ReadFull(src, buf); err != nil {
			if shutdown.Requested() {
				return
			}
			edges <- domain.KeyEdge{
				Kind: domain.KeyEdgeReaderError,
				Err:  fmt.Sprintf("event read error: %v", err),
			}
			return
		}

		eventType := binary.LittleEndian.Uint16(buf[16:18])
		code := binary.LittleEndian.Uint16(buf[18:20])
		value := int32(binary.LittleEndian.Uint32(buf[20:24]))

		if eventType != evKey || Key(code) != r.Key {
			continue
		}

		switch value {
		case valuePress:
			edges <- domain.KeyEdge{Kind: domain.KeyEdgePress}
		case valueRelease:
			edges <- domain.KeyEdge{Kind: domain.KeyEdgeRelease}
		}
	}
}
