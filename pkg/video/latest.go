package video

import "sync"

// LatestFrame holds the most recent encoded frame for snapshot readers.
type LatestFrame struct {
	mu    sync.RWMutex
	frame []byte
	seq   uint64
}

// Store replaces the latest frame. The caller must not modify jpeg after.
func (l *LatestFrame) Store(jpeg []byte) {
	l.mu.Lock()
	l.frame = jpeg
	l.seq++
	l.mu.Unlock()
}

// Load returns a copy of the latest frame and its sequence number.
// The frame is nil before the first Store.
func (l *LatestFrame) Load() ([]byte, uint64) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.frame == nil {
		return nil, l.seq
	}
	frame := make([]byte, len(l.frame))
	copy(frame, l.frame)
	return frame, l.seq
}
