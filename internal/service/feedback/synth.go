package feedback

import (
	"bytes"
	"encoding/binary"
	"math"
)

const (
	DefaultSampleRate = 22050

	amplitude = 0.3 * math.MaxInt16
	envelope  = 0.005
)

// Synthesize renders p as 16-bit mono PCM. Each tone has a linear attack and release.
func Synthesize(p Pattern, sampleRate int) []int16 {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}

	gap := p.GapMs * sampleRate / 1000
	out := make([]int16, 0, int(p.Duration().Seconds()*float64(sampleRate))+1)

	ramp := int(envelope * float64(sampleRate))
	for i, t := range p.Tones {
		if i > 0 {
			out = append(out, make([]int16, gap)...)
		}

		n := t.DurationMs * sampleRate / 1000
		r := min(ramp, n/2)
		step := 2 * math.Pi * float64(t.FrequencyHz) / float64(sampleRate)

		for j := 0; j < n; j++ {
			gain := 1.0
			switch {
			case r > 0 && j < r:
				gain = float64(j) / float64(r)
			case r > 0 && j >= n-r:
				gain = float64(n-1-j) / float64(r)
			}
			out = append(out, int16(amplitude*gain*math.Sin(step*float64(j))))
		}
	}

	return out
}

// EncodeWAV wraps PCM samples in a RIFF/WAVE container.
func EncodeWAV(samples []int16, sampleRate int) []byte {
	const (
		channels      = 1
		bitsPerSample = 16
	)
	dataSize := len(samples) * 2
	blockAlign := channels * bitsPerSample / 8

	buf := bytes.NewBuffer(make([]byte, 0, 44+dataSize))
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1))
	binary.Write(buf, binary.LittleEndian, uint16(channels))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*blockAlign))
	binary.Write(buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(buf, binary.LittleEndian, uint16(bitsPerSample))

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataSize))
	binary.Write(buf, binary.LittleEndian, samples)

	return buf.Bytes()
}
