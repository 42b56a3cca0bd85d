package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Capture and playback format parameters. Recording is PCM16 mono at
// CaptureSampleRate; playback runs at PlaybackSampleRate and decoded
// audio is resampled to match.
const (
	CaptureSampleRate  = 16000
	PlaybackSampleRate = 24000
	ChannelCount       = 1
	BitDepth           = 16
)

const wavHeaderSize = 44

// EncodeWAV wraps raw PCM16 mono samples in a RIFF/WAV container at the
// given sample rate.
func EncodeWAV(pcm []byte, sampleRate int) []byte {
	byteRate := sampleRate * ChannelCount * BitDepth / 8
	blockAlign := ChannelCount * BitDepth / 8

	buf := make([]byte, 0, wavHeaderSize+len(pcm))
	buf = append(buf, "RIFF"...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(36+len(pcm)))
	buf = append(buf, "WAVE"...)

	buf = append(buf, "fmt "...)
	buf = binary.LittleEndian.AppendUint32(buf, 16) // PCM fmt chunk size
	buf = binary.LittleEndian.AppendUint16(buf, 1)  // PCM format tag
	buf = binary.LittleEndian.AppendUint16(buf, ChannelCount)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(sampleRate))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(byteRate))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(blockAlign))
	buf = binary.LittleEndian.AppendUint16(buf, BitDepth)

	buf = append(buf, "data"...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(pcm)))
	buf = append(buf, pcm...)
	return buf
}

// WAVInfo describes a decoded WAV payload.
type WAVInfo struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
	PCM           []byte
}

// DecodeWAV parses a RIFF/WAV container and returns its format and raw
// PCM data. Only 16-bit PCM is supported.
func DecodeWAV(data []byte) (*WAVInfo, error) {
	if len(data) < wavHeaderSize {
		return nil, errors.New("wav data too short")
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, errors.New("not a valid WAV file")
	}

	info := &WAVInfo{}

	// Walk chunks to find "fmt " and "data".
	pos := 12
	for pos+8 <= len(data) {
		chunkID := string(data[pos : pos+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8

		switch chunkID {
		case "fmt ":
			if body+16 > len(data) {
				return nil, errors.New("truncated fmt chunk")
			}
			format := binary.LittleEndian.Uint16(data[body : body+2])
			if format != 1 {
				return nil, fmt.Errorf("unsupported WAV format tag %d (want PCM)", format)
			}
			info.Channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			info.SampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			info.BitsPerSample = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
		case "data":
			end := body + chunkSize
			if end > len(data) {
				end = len(data)
			}
			info.PCM = data[body:end]
		}

		pos = body + chunkSize
		// Chunks are word-aligned.
		if chunkSize%2 != 0 {
			pos++
		}
	}

	if info.SampleRate == 0 {
		return nil, errors.New("fmt chunk not found in WAV")
	}
	if info.PCM == nil {
		return nil, errors.New("data chunk not found in WAV")
	}
	if info.BitsPerSample != 16 {
		return nil, fmt.Errorf("unsupported bit depth %d (want 16)", info.BitsPerSample)
	}
	return info, nil
}

// DownmixStereo averages interleaved stereo PCM16 into mono.
func DownmixStereo(pcm []byte) []byte {
	out := make([]byte, 0, len(pcm)/2)
	for i := 0; i+4 <= len(pcm); i += 4 {
		l := int16(binary.LittleEndian.Uint16(pcm[i : i+2]))
		r := int16(binary.LittleEndian.Uint16(pcm[i+2 : i+4]))
		m := int16((int32(l) + int32(r)) / 2)
		out = binary.LittleEndian.AppendUint16(out, uint16(m))
	}
	return out
}

// ResampleS16Mono converts mono PCM16 between sample rates using linear
// interpolation. Quality is fine for speech; returns the input when the
// rates already match.
func ResampleS16Mono(pcm []byte, from, to int) []byte {
	if from == to || from <= 0 || to <= 0 {
		return pcm
	}
	n := len(pcm) / 2
	if n < 2 {
		return pcm
	}

	outN := int(int64(n) * int64(to) / int64(from))
	out := make([]byte, 0, outN*2)
	for i := 0; i < outN; i++ {
		srcPos := float64(i) * float64(from) / float64(to)
		idx := int(srcPos)
		if idx >= n-1 {
			idx = n - 2
		}
		frac := srcPos - float64(idx)

		a := int16(binary.LittleEndian.Uint16(pcm[idx*2 : idx*2+2]))
		b := int16(binary.LittleEndian.Uint16(pcm[idx*2+2 : idx*2+4]))
		v := int16(float64(a)*(1-frac) + float64(b)*frac)
		out = binary.LittleEndian.AppendUint16(out, uint16(v))
	}
	return out
}
