package audio

import (
	"math"

	"github.com/go-audio/audio"
)

// Cut copies the frames of buf between start and stop seconds. Times are
// clamped to the signal, so a negative VOT-padded start begins at frame 0.
// ok is false when nothing is left after clamping.
func Cut(buf *audio.IntBuffer, start, stop float64) (clip *audio.IntBuffer, ok bool) {
	n := Frames(buf)
	if n == 0 {
		return nil, false
	}
	rate := float64(buf.Format.SampleRate)
	from := clampFrame(int(math.Round(start*rate)), n)
	to := clampFrame(int(math.Round(stop*rate)), n)
	if to <= from {
		return nil, false
	}

	ch := buf.Format.NumChannels
	data := make([]int, (to-from)*ch)
	copy(data, buf.Data[from*ch:to*ch])
	return &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: ch, SampleRate: buf.Format.SampleRate},
		Data:           data,
		SourceBitDepth: buf.SourceBitDepth,
	}, true
}

func clampFrame(f, n int) int {
	if f < 0 {
		return 0
	}
	if f > n {
		return n
	}
	return f
}
