package recorder

import (
	"encoding/binary"
	"io"
	"math"
)

// wavWriter emits canonical 16-bit PCM stereo RIFF/WAVE (spec §6 "Recording
// file format"). No example in the pack writes WAV (go-audio/wav only
// decodes), so this is standard-library-only by necessity; it is a thin,
// self-contained 44-byte header plus a streaming sample encoder.
type wavWriter struct {
	w          io.WriteSeeker
	sampleRate int
	dataBytes  uint32
}

func newWavWriter(w io.WriteSeeker, sampleRate int) *wavWriter {
	return &wavWriter{w: w, sampleRate: sampleRate}
}

const (
	wavChannels     = 2
	wavBitsPerSample = 16
)

func (w *wavWriter) writeHeaderPlaceholder() error {
	return w.writeHeader(0)
}

func (w *wavWriter) writeHeader(dataSize uint32) error {
	var hdr [44]byte
	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], 36+dataSize)
	copy(hdr[8:12], "WAVE")

	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16) // fmt chunk size
	binary.LittleEndian.PutUint16(hdr[20:22], 1)  // PCM
	binary.LittleEndian.PutUint16(hdr[22:24], wavChannels)
	binary.LittleEndian.PutUint32(hdr[24:28], uint32(w.sampleRate))
	byteRate := uint32(w.sampleRate) * wavChannels * (wavBitsPerSample / 8)
	binary.LittleEndian.PutUint32(hdr[28:32], byteRate)
	blockAlign := uint16(wavChannels * (wavBitsPerSample / 8))
	binary.LittleEndian.PutUint16(hdr[32:34], blockAlign)
	binary.LittleEndian.PutUint16(hdr[34:36], wavBitsPerSample)

	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], dataSize)

	if _, err := w.w.Seek(0, io.SeekStart); err != nil {
		return err
	}
	_, err := w.w.Write(hdr[:])
	return err
}

// writeSamples clips to [-1, 1] and scales by 32767 at write time only
// (spec §4.5 invariant: never clipped in the RT path), appending to the
// end of the file.
func (w *wavWriter) writeSamples(samples []float32) error {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		v := int16(math.Round(float64(s) * 32767))
		binary.LittleEndian.PutUint16(buf[2*i:2*i+2], uint16(v))
	}

	if _, err := w.w.Seek(0, io.SeekEnd); err != nil {
		return err
	}
	if _, err := w.w.Write(buf); err != nil {
		return err
	}
	w.dataBytes += uint32(len(buf))
	return nil
}

// finalize rewrites the header with the accumulated data size.
func (w *wavWriter) finalize() error {
	return w.writeHeader(w.dataBytes)
}
