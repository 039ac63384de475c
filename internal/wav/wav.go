// Package wav reads and writes single-channel 16-bit PCM WAV files.
package wav

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

const (
	bytesPerSample = 2
	bitsPerSample  = 16
	pcmFormat      = 1 // WAV PCM format tag
	channels       = 1
	headerSize     = 44
)

// Info describes a PCM WAV file on disk.
type Info struct {
	Frames     int
	SampleRate int
	Size       int64
}

// Duration returns the runtime in seconds.
func (i Info) Duration() float64 {
	if i.SampleRate == 0 {
		return 0
	}
	return float64(i.Frames) / float64(i.SampleRate)
}

// Encode writes samples as a mono PCM16 RIFF/WAVE stream.
func Encode(w io.Writer, samples []int16, sampleRate int) error {
	dataLen := len(samples) * bytesPerSample
	byteRate := sampleRate * channels * bytesPerSample

	var hdr [headerSize]byte
	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(36+dataLen))
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16)
	binary.LittleEndian.PutUint16(hdr[20:22], pcmFormat)
	binary.LittleEndian.PutUint16(hdr[22:24], channels)
	binary.LittleEndian.PutUint32(hdr[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(hdr[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(hdr[32:34], channels*bytesPerSample)
	binary.LittleEndian.PutUint16(hdr[34:36], bitsPerSample)
	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], uint32(dataLen))

	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("failed to write WAV header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, samples); err != nil {
		return fmt.Errorf("failed to write PCM data: %w", err)
	}
	return nil
}

// Probe parses the header of a WAV file and returns its frame count,
// sample rate and byte size without reading the audio data.
func Probe(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return Info{}, err
	}

	sampleRate, _, dataLen, err := parseHeader(f)
	if err != nil {
		return Info{}, fmt.Errorf("%s: %w", path, err)
	}

	return Info{
		Frames:     int(dataLen) / bytesPerSample,
		SampleRate: sampleRate,
		Size:       fi.Size(),
	}, nil
}

// Reader streams samples out of a WAV file.
type Reader struct {
	f         *os.File
	remaining int // samples left in the data chunk
}

// Open opens a WAV file positioned at the start of its audio data.
// The returned error wraps fs.ErrNotExist when the file is absent.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	_, _, dataLen, err := parseHeader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &Reader{f: f, remaining: int(dataLen) / bytesPerSample}, nil
}

// Read fills buf with up to len(buf) samples and returns the number
// read. It returns 0, io.EOF once the data chunk is exhausted.
func (r *Reader) Read(buf []int16) (int, error) {
	if r.remaining == 0 {
		return 0, io.EOF
	}
	n := len(buf)
	if n > r.remaining {
		n = r.remaining
	}
	if err := binary.Read(r.f, binary.LittleEndian, buf[:n]); err != nil {
		return 0, fmt.Errorf("failed to read PCM data: %w", err)
	}
	r.remaining -= n
	return n, nil
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.f.Close()
}

// parseHeader reads the RIFF header and chunk list, leaving the file
// positioned at the start of the data chunk.
func parseHeader(f *os.File) (sampleRate, chans int, dataLen uint32, err error) {
	var riff [12]byte
	if _, err := io.ReadFull(f, riff[:]); err != nil {
		return 0, 0, 0, fmt.Errorf("not a WAV file: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return 0, 0, 0, fmt.Errorf("not a WAV file: bad RIFF header")
	}

	sawFmt := false
	for {
		var chunk [8]byte
		if _, err := io.ReadFull(f, chunk[:]); err != nil {
			return 0, 0, 0, fmt.Errorf("truncated WAV file: %w", err)
		}
		id := string(chunk[0:4])
		size := binary.LittleEndian.Uint32(chunk[4:8])

		switch id {
		case "fmt ":
			if size < 16 {
				return 0, 0, 0, fmt.Errorf("malformed fmt chunk")
			}
			var body [16]byte
			if _, err := io.ReadFull(f, body[:]); err != nil {
				return 0, 0, 0, fmt.Errorf("truncated fmt chunk: %w", err)
			}
			format := binary.LittleEndian.Uint16(body[0:2])
			chans = int(binary.LittleEndian.Uint16(body[2:4]))
			sampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			bits := binary.LittleEndian.Uint16(body[14:16])
			if format != pcmFormat || chans != channels || bits != bitsPerSample {
				return 0, 0, 0, fmt.Errorf("unsupported format: want mono PCM16, got format=%d channels=%d bits=%d", format, chans, bits)
			}
			if size > 16 {
				if _, err := f.Seek(int64(size-16), io.SeekCurrent); err != nil {
					return 0, 0, 0, err
				}
			}
			sawFmt = true
		case "data":
			if !sawFmt {
				return 0, 0, 0, fmt.Errorf("malformed WAV file: data chunk before fmt")
			}
			return sampleRate, chans, size, nil
		default:
			if _, err := f.Seek(int64(size), io.SeekCurrent); err != nil {
				return 0, 0, 0, err
			}
		}
	}
}
