package looper

// loopBuffer is the recorded audio, one slice per channel. Both slices always
// have the same length.
type loopBuffer struct {
	left  []float32
	right []float32
}

func newLoopBuffer(frames int) loopBuffer {
	return loopBuffer{
		left:  make([]float32, 0, frames),
		right: make([]float32, 0, frames),
	}
}

// append grows both channels by the block. The backing arrays grow
// geometrically, so a cycle only reallocates when capacity runs out.
func (b *loopBuffer) append(left, right []float32) {
	b.left = append(b.left, left...)
	b.right = append(b.right, right...)
}

// len returns the frames per channel, or 0 when the channels disagree so the
// caller treats an inconsistent buffer as empty
func (b *loopBuffer) len() int {
	if len(b.left) != len(b.right) {
		return 0
	}
	return len(b.left)
}
