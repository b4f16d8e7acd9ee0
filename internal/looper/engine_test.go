package looper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xlemi/looper/internal/transport"
)

// fixedState is a transport that always reports the same state
type fixedState struct {
	state transport.State
}

func (f *fixedState) State() transport.State { return f.state }

func ramp(start float32, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = start + float32(i)
	}
	return out
}

func filled(n int, v float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// recordBlocks records the given left blocks (right = left * -1) and
// switches the engine to looping
func recordBlocks(t *testing.T, e *Engine, st *fixedState, blocks ...[]float32) {
	t.Helper()

	st.state = transport.Recording
	for _, left := range blocks {
		right := make([]float32, len(left))
		for i, v := range left {
			right[i] = -v
		}
		e.Process(left, right, make([]float32, len(left)), make([]float32, len(left)))
	}
	st.state = transport.Looping
}

func TestEngine_NotStartedPassesInputThrough(t *testing.T) {
	t.Parallel()

	st := &fixedState{state: transport.NotStarted}
	e := New(st)

	inL := ramp(1, 64)
	inR := ramp(-100, 64)
	outL := filled(64, 9)
	outR := filled(64, 9)

	e.Process(inL, inR, outL, outR)

	assert.Equal(t, inL, outL)
	assert.Equal(t, inR, outR)
	assert.Equal(t, 0, e.LoopFrames())
}

func TestEngine_RecordingConcatenatesBlocks(t *testing.T) {
	t.Parallel()

	st := &fixedState{}
	e := New(st)

	blocks := [][]float32{ramp(0, 4), ramp(4, 8), ramp(12, 3)}
	recordBlocks(t, e, st, blocks...)

	left, right := e.Frames()
	require.Len(t, left, 15)
	require.Len(t, right, 15)
	assert.Equal(t, ramp(0, 15), left)
	for i := range right {
		assert.Equal(t, -left[i], right[i])
	}
	assert.Equal(t, 15, e.LoopFrames())
}

func TestEngine_RecordOutputPolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		policy RecordOutput
		want   func(in []float32) []float32
	}{
		{"monitor", MonitorInput, func(in []float32) []float32 { return in }},
		{"silence", Silence, func(in []float32) []float32 { return make([]float32, len(in)) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			st := &fixedState{state: transport.Recording}
			e := New(st, WithRecordOutput(tt.policy))

			inL, inR := ramp(1, 16), ramp(20, 16)
			outL, outR := filled(16, 7), filled(16, 7)
			e.Process(inL, inR, outL, outR)

			assert.Equal(t, tt.want(inL), outL)
			assert.Equal(t, tt.want(inR), outR)
			assert.Equal(t, 16, e.LoopFrames())
		})
	}
}

func TestEngine_WrapExample(t *testing.T) {
	t.Parallel()

	st := &fixedState{}
	e := New(st)
	recordBlocks(t, e, st, []float32{1, 2, 3, 4}, []float32{5, 6, 7, 8})
	require.Equal(t, 8, e.LoopFrames())

	outL, outR := make([]float32, 3), make([]float32, 3)
	e.Process(make([]float32, 3), make([]float32, 3), outL, outR)
	assert.Equal(t, []float32{1, 2, 3}, outL)
	assert.Equal(t, []float32{-1, -2, -3}, outR)
	assert.Equal(t, 3, e.Cursor())

	outL, outR = make([]float32, 6), make([]float32, 6)
	e.Process(make([]float32, 6), make([]float32, 6), outL, outR)
	assert.Equal(t, []float32{4, 5, 6, 7, 8, 1}, outL)
	assert.Equal(t, []float32{-4, -5, -6, -7, -8, -1}, outR)
	assert.Equal(t, 1, e.Cursor())
}

func TestCircularCopy_MatchesModuloIndexing(t *testing.T) {
	t.Parallel()

	const length = 11
	src := ramp(0, length)

	for cursor := range length {
		for want := 1; want <= 2*length+3; want++ {
			dst := make([]float32, want)
			next := circularCopy(dst, src, cursor)

			for i := range dst {
				if dst[i] != src[(cursor+i)%length] {
					t.Fatalf("cursor=%d want=%d: dst[%d] = %v, expected %v",
						cursor, want, i, dst[i], src[(cursor+i)%length])
				}
			}
			if next != (cursor+want)%length {
				t.Fatalf("cursor=%d want=%d: next = %d, expected %d",
					cursor, want, next, (cursor+want)%length)
			}
		}
	}
}

func TestEngine_LoopIsPeriodic(t *testing.T) {
	t.Parallel()

	st := &fixedState{}
	e := New(st)
	recordBlocks(t, e, st, ramp(0, 10), ramp(10, 10), ramp(20, 10))
	const length = 30

	// Block size that does not divide the loop length
	const block = 7
	period := func() []float32 {
		var seq []float32
		for produced := 0; produced < length*block; produced += block {
			outL, outR := make([]float32, block), make([]float32, block)
			e.Process(make([]float32, block), make([]float32, block), outL, outR)
			seq = append(seq, outL...)
		}
		return seq
	}

	start := e.Cursor()
	first := period()
	assert.Equal(t, start, e.Cursor())
	second := period()
	assert.Equal(t, first, second)
}

func TestEngine_EmptyLoopIsSilent(t *testing.T) {
	t.Parallel()

	st := &fixedState{state: transport.Looping}
	e := New(st)

	outL, outR := filled(32, 3), filled(32, 3)
	require.NotPanics(t, func() {
		e.Process(ramp(1, 32), ramp(1, 32), outL, outR)
	})
	assert.Equal(t, make([]float32, 32), outL)
	assert.Equal(t, make([]float32, 32), outR)
	assert.Equal(t, 0, e.Cursor())
}

func TestEngine_StoppingAndUndefinedAreSilent(t *testing.T) {
	t.Parallel()

	for _, state := range []transport.State{transport.Stopping, transport.State(99), transport.State(-3)} {
		t.Run(state.String(), func(t *testing.T) {
			st := &fixedState{}
			e := New(st)
			recordBlocks(t, e, st, ramp(1, 8))

			st.state = state
			outL, outR := filled(8, 5), filled(8, 5)
			e.Process(ramp(1, 8), ramp(1, 8), outL, outR)

			assert.Equal(t, make([]float32, 8), outL)
			assert.Equal(t, make([]float32, 8), outR)
			assert.Equal(t, 8, e.LoopFrames())
		})
	}
}

func TestEngine_MismatchedBlocksDegradeToSilence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                 string
		state                transport.State
		inL, inR, outL, outR int
	}{
		{"outputs differ", transport.NotStarted, 8, 8, 8, 6},
		{"inputs differ", transport.NotStarted, 8, 5, 8, 8},
		{"input shorter than output", transport.NotStarted, 4, 4, 8, 8},
		{"recording inputs differ", transport.Recording, 8, 5, 8, 8},
		{"looping outputs differ", transport.Looping, 8, 8, 3, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			st := &fixedState{state: tt.state}
			e := New(st)

			outL, outR := filled(tt.outL, 2), filled(tt.outR, 2)
			require.NotPanics(t, func() {
				e.Process(ramp(1, tt.inL), ramp(1, tt.inR), outL, outR)
			})
			assert.Equal(t, make([]float32, tt.outL), outL)
			assert.Equal(t, make([]float32, tt.outR), outR)
			assert.Zero(t, e.LoopFrames())
		})
	}
}

func TestEngine_BufferFrozenAfterLooping(t *testing.T) {
	t.Parallel()

	st := &fixedState{}
	e := New(st)
	recordBlocks(t, e, st, ramp(1, 4))

	e.Process(ramp(0, 2), ramp(0, 2), make([]float32, 2), make([]float32, 2))

	// A stale Recording value after looping began must not grow the loop
	st.state = transport.Recording
	e.Process(ramp(50, 4), ramp(50, 4), make([]float32, 4), make([]float32, 4))

	left, _ := e.Frames()
	assert.Equal(t, ramp(1, 4), left)
	assert.Equal(t, 4, e.LoopFrames())
}

func TestEngine_VaryingBlockSizes(t *testing.T) {
	t.Parallel()

	st := &fixedState{}
	e := New(st)
	recordBlocks(t, e, st, ramp(0, 5), ramp(5, 2))

	var got []float32
	for _, size := range []int{1, 3, 9, 2} {
		outL, outR := make([]float32, size), make([]float32, size)
		e.Process(make([]float32, size), make([]float32, size), outL, outR)
		got = append(got, outL...)
	}

	want := make([]float32, 0, 15)
	for i := range 15 {
		want = append(want, float32(i%7))
	}
	assert.Equal(t, want, got)
	assert.Equal(t, 15%7, e.Cursor())
}

func TestEngine_LoopingDoesNotAllocate(t *testing.T) {
	st := &fixedState{}
	e := New(st)
	recordBlocks(t, e, st, ramp(0, 1000))

	inL, inR := make([]float32, 256), make([]float32, 256)
	outL, outR := make([]float32, 256), make([]float32, 256)

	allocs := testing.AllocsPerRun(200, func() {
		e.Process(inL, inR, outL, outR)
	})
	assert.Zero(t, allocs)
}

func TestEngine_PreallocatedRecordingDoesNotAllocate(t *testing.T) {
	st := &fixedState{state: transport.Recording}
	e := New(st, WithCapacity(256*300))

	inL, inR := ramp(0, 256), ramp(0, 256)
	outL, outR := make([]float32, 256), make([]float32, 256)

	allocs := testing.AllocsPerRun(200, func() {
		e.Process(inL, inR, outL, outR)
	})
	assert.Zero(t, allocs)
}

type recordingTap struct {
	left, right [][]float32
}

func (r *recordingTap) Write(left, right []float32) {
	r.left = append(r.left, append([]float32(nil), left...))
	r.right = append(r.right, append([]float32(nil), right...))
}

func TestEngine_TapSeesInput(t *testing.T) {
	t.Parallel()

	tap := &recordingTap{}
	st := &fixedState{state: transport.NotStarted}
	e := New(st, WithTap(tap))

	e.Process(ramp(1, 4), ramp(10, 4), make([]float32, 4), make([]float32, 4))
	st.state = transport.Stopping
	e.Process(ramp(5, 4), ramp(50, 4), make([]float32, 4), make([]float32, 4))

	require.Len(t, tap.left, 2)
	assert.Equal(t, ramp(1, 4), tap.left[0])
	assert.Equal(t, ramp(50, 4), tap.right[1])
}

func TestEngine_LastState(t *testing.T) {
	t.Parallel()

	tr := transport.New()
	e := New(tr)
	assert.Equal(t, transport.NotStarted, e.LastState())

	tr.Advance()
	e.Process(ramp(0, 4), ramp(0, 4), make([]float32, 4), make([]float32, 4))
	assert.Equal(t, transport.Recording, e.LastState())
}
