// ABOUTME: Ordered track list with an index-preserving mutation contract
// ABOUTME: currentIndex semantics follow removeAt/reorder/jumpTo exactly as the room protocol requires
package queue

import "github.com/syncjam/syncjam-go/internal/protocol"

// Queue is an ordered sequence of tracks plus the index of the currently
// selected one. It is not safe for concurrent use; the coordinator owns it
// under its own single-writer discipline the same way Room State is owned.
type Queue struct {
	tracks       []protocol.Track
	currentIndex int
}

// New creates an empty Queue.
func New() *Queue {
	return &Queue{}
}

// Tracks returns the queue's current contents. Callers must not mutate the
// returned slice.
func (q *Queue) Tracks() []protocol.Track {
	return q.tracks
}

// Len reports the number of tracks in the queue.
func (q *Queue) Len() int {
	return len(q.tracks)
}

// CurrentIndex returns the index of the currently selected track, always 0
// when the queue is empty.
func (q *Queue) CurrentIndex() int {
	return q.currentIndex
}

// Current returns the currently selected track and true, or the zero value
// and false if the queue is empty.
func (q *Queue) Current() (protocol.Track, bool) {
	if len(q.tracks) == 0 {
		return protocol.Track{}, false
	}
	return q.tracks[q.currentIndex], true
}

// Append adds a track to the end of the queue.
func (q *Queue) Append(t protocol.Track) {
	q.tracks = append(q.tracks, t)
}

// RemoveOutcome describes the side effects a removal had on playback
// position, so the coordinator knows whether it must also rewind and pause.
type RemoveOutcome struct {
	IndexChanged bool
	BecameEmpty  bool
	Wrapped      bool // removing the current-last track rewound to index 0
}

// RemoveAt removes the track at index i, adjusting currentIndex per the
// room's index-preservation rules:
//   - i < currentIndex: currentIndex -= 1.
//   - i == currentIndex and queue becomes empty: currentIndex = 0.
//   - i == currentIndex and removal would leave currentIndex >= len: wrap to 0.
//   - i == currentIndex otherwise: currentIndex stays (now points at the next track).
//   - i > currentIndex: no change.
func (q *Queue) RemoveAt(i int) (RemoveOutcome, bool) {
	if i < 0 || i >= len(q.tracks) {
		return RemoveOutcome{}, false
	}

	wasCurrent := i == q.currentIndex
	q.tracks = append(q.tracks[:i], q.tracks[i+1:]...)

	var outcome RemoveOutcome
	switch {
	case i < q.currentIndex:
		q.currentIndex--
		outcome.IndexChanged = true
	case wasCurrent:
		if len(q.tracks) == 0 {
			q.currentIndex = 0
			outcome.BecameEmpty = true
			outcome.IndexChanged = true
		} else if q.currentIndex >= len(q.tracks) {
			q.currentIndex = 0
			outcome.Wrapped = true
			outcome.IndexChanged = true
		}
		// else currentIndex stays, now pointing at the former next track.
	}

	return outcome, true
}

// Reorder replaces the queue wholesale, trusting the caller's newIndex. This
// implements the unhardened behavior the room protocol ships with: the
// client supplies currentTrackIndex and the queue believes it. See
// ReconcileIndex for the optional hardening the coordinator does not call by
// default.
func (q *Queue) Reorder(newTracks []protocol.Track, newIndex int) {
	q.tracks = newTracks
	if newIndex < 0 {
		newIndex = 0
	}
	if len(q.tracks) == 0 {
		newIndex = 0
	} else if newIndex >= len(q.tracks) {
		newIndex = len(q.tracks) - 1
	}
	q.currentIndex = newIndex
}

// ReconcileIndex recomputes currentIndex by locating previousTrackID in the
// current queue, instead of trusting a client-supplied index. Not called by
// the coordinator by default; available for callers that want the hardened
// behavior discussed as an open question.
func (q *Queue) ReconcileIndex(previousTrackID string) {
	for i, t := range q.tracks {
		if t.ID == previousTrackID {
			q.currentIndex = i
			return
		}
	}
}

// JumpTo moves currentIndex to i if it is in range, reporting whether the
// move happened.
func (q *Queue) JumpTo(i int) bool {
	if i < 0 || i >= len(q.tracks) {
		return false
	}
	q.currentIndex = i
	return true
}

// HasNext reports whether a track follows the current one.
func (q *Queue) HasNext() bool {
	return q.currentIndex+1 < len(q.tracks)
}

// Advance moves to the next track, reporting whether it succeeded.
func (q *Queue) Advance() bool {
	if !q.HasNext() {
		return false
	}
	q.currentIndex++
	return true
}
