package pack

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/hupe1980/pme/distance"
	"github.com/hupe1980/pme/internal/conv"
	"github.com/hupe1980/pme/internal/hash"
)

// Magic identifies a knowledge pack.
var Magic = [4]byte{'P', 'M', 'E', 'K'}

// Version is the current format version.
const Version uint16 = 1

// MaxBodySize bounds the uncompressed body accepted by Decode.
const MaxBodySize = 1 << 30

const headerSize = 4 + 2 + 1 + 1 + 16 + 2 + 4 + 4 + 2 + 2 + 1 + 1 + 4 + 4 + 4 + 4

var (
	// ErrCorrupt is returned for malformed packs.
	ErrCorrupt = errors.New("pack: corrupt")
	// ErrChecksum is returned when the body does not match its CRC32C.
	ErrChecksum = errors.New("pack: checksum mismatch")
	// ErrVersion is returned for packs written by an unsupported format version.
	ErrVersion = errors.New("pack: unsupported version")
)

// Header describes the classifier a pack belongs to.
type Header struct {
	ModelID      uuid.UUID
	ClassifierID uint16
	PatternSize  int
	MaxPatterns  int
	NumClasses   int
	NumChannels  int
	Distance     distance.Metric
	// Mode is the classification mode, 0 for RBF and 1 for KNN.
	Mode        uint8
	Compression Compression
}

// Pattern is one stored pattern.
type Pattern struct {
	Category  uint16
	Influence uint32
	Vector    []byte
}

// Pack is the serialized state of one classifier.
type Pack struct {
	Header   Header
	Patterns []Pattern
}

func (p *Pack) recordSize() int {
	return 2 + 4 + p.Header.PatternSize
}

func (p *Pack) validate() error {
	h := p.Header
	if h.PatternSize <= 0 {
		return fmt.Errorf("pack: invalid pattern size %d", h.PatternSize)
	}
	if len(p.Patterns) > h.MaxPatterns {
		return fmt.Errorf("pack: %d patterns exceed max %d", len(p.Patterns), h.MaxPatterns)
	}
	if len(p.Patterns)*p.recordSize() > MaxBodySize {
		return fmt.Errorf("pack: body exceeds %d bytes", MaxBodySize)
	}
	for i, pat := range p.Patterns {
		if len(pat.Vector) != h.PatternSize {
			return fmt.Errorf("pack: pattern %d has %d bytes, want %d", i, len(pat.Vector), h.PatternSize)
		}
	}
	return nil
}

// Marshal encodes the pack. The header's Compression selects the body
// compression; the body is stored uncompressed when compression does not
// shrink it, and the header written reflects that.
func (p *Pack) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode writes the pack to w.
func Encode(w io.Writer, p *Pack) error {
	if err := p.validate(); err != nil {
		return err
	}

	h := p.Header
	size := p.recordSize()
	body := make([]byte, len(p.Patterns)*size)
	for i, pat := range p.Patterns {
		rec := body[i*size : (i+1)*size]
		binary.LittleEndian.PutUint16(rec[0:], pat.Category)
		binary.LittleEndian.PutUint32(rec[2:], pat.Influence)
		copy(rec[6:], pat.Vector)
	}

	payload, err := compress(h.Compression, body)
	if err != nil {
		return fmt.Errorf("pack: compress %s: %w", h.Compression, err)
	}
	if payload == nil {
		h.Compression = CompressionNone
		payload = body
	}

	fields, err := headerFields(h, len(p.Patterns), len(body), len(payload))
	if err != nil {
		return err
	}

	hdr := make([]byte, headerSize)
	copy(hdr[0:4], Magic[:])
	binary.LittleEndian.PutUint16(hdr[4:], Version)
	hdr[6] = byte(h.Compression)
	copy(hdr[8:24], h.ModelID[:])
	binary.LittleEndian.PutUint16(hdr[24:], h.ClassifierID)
	binary.LittleEndian.PutUint32(hdr[26:], fields.patternSize)
	binary.LittleEndian.PutUint32(hdr[30:], fields.maxPatterns)
	binary.LittleEndian.PutUint16(hdr[34:], fields.numClasses)
	binary.LittleEndian.PutUint16(hdr[36:], fields.numChannels)
	hdr[38] = byte(h.Distance)
	hdr[39] = h.Mode
	binary.LittleEndian.PutUint32(hdr[40:], fields.count)
	binary.LittleEndian.PutUint32(hdr[44:], fields.bodyLen)
	binary.LittleEndian.PutUint32(hdr[48:], fields.payloadLen)
	binary.LittleEndian.PutUint32(hdr[52:], hash.CRC32C(body))

	if _, err := w.Write(hdr); err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}

type encodedFields struct {
	patternSize, maxPatterns   uint32
	numClasses, numChannels    uint16
	count, bodyLen, payloadLen uint32
}

func headerFields(h Header, count, bodyLen, payloadLen int) (encodedFields, error) {
	var (
		f    encodedFields
		errs []error
		err  error
	)
	f.patternSize, err = conv.IntToUint32(h.PatternSize)
	errs = append(errs, err)
	f.maxPatterns, err = conv.IntToUint32(h.MaxPatterns)
	errs = append(errs, err)
	f.numClasses, err = conv.IntToUint16(h.NumClasses)
	errs = append(errs, err)
	f.numChannels, err = conv.IntToUint16(h.NumChannels)
	errs = append(errs, err)
	f.count, err = conv.IntToUint32(count)
	errs = append(errs, err)
	f.bodyLen, err = conv.IntToUint32(bodyLen)
	errs = append(errs, err)
	f.payloadLen, err = conv.IntToUint32(payloadLen)
	errs = append(errs, err)

	if err := errors.Join(errs...); err != nil {
		return f, fmt.Errorf("pack: header field out of range: %w", err)
	}
	return f, nil
}

// Unmarshal decodes a pack from data.
func Unmarshal(data []byte) (*Pack, error) {
	return Decode(bytes.NewReader(data))
}

// Info is a decoded pack header.
type Info struct {
	Header
	// Count is the number of patterns.
	Count int
	// BodyLen is the uncompressed body length.
	BodyLen int
	// PayloadLen is the stored body length.
	PayloadLen int
	Checksum   uint32
}

// ReadInfo reads and validates the header at the start of r.
func ReadInfo(r io.Reader) (Info, error) {
	hdr := make([]byte, headerSize)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return Info{}, fmt.Errorf("%w: header: %w", ErrCorrupt, err)
	}
	if !bytes.Equal(hdr[0:4], Magic[:]) {
		return Info{}, fmt.Errorf("%w: bad magic %q", ErrCorrupt, hdr[0:4])
	}
	if v := binary.LittleEndian.Uint16(hdr[4:]); v != Version {
		return Info{}, fmt.Errorf("%w: %d", ErrVersion, v)
	}

	var info Info
	h := &info.Header
	h.Compression = Compression(hdr[6])
	copy(h.ModelID[:], hdr[8:24])
	h.ClassifierID = binary.LittleEndian.Uint16(hdr[24:])
	h.PatternSize = int(binary.LittleEndian.Uint32(hdr[26:]))
	h.MaxPatterns = int(binary.LittleEndian.Uint32(hdr[30:]))
	h.NumClasses = int(binary.LittleEndian.Uint16(hdr[34:]))
	h.NumChannels = int(binary.LittleEndian.Uint16(hdr[36:]))
	h.Distance = distance.Metric(hdr[38])
	h.Mode = hdr[39]

	info.Count = int(binary.LittleEndian.Uint32(hdr[40:]))
	info.BodyLen = int(binary.LittleEndian.Uint32(hdr[44:]))
	info.PayloadLen = int(binary.LittleEndian.Uint32(hdr[48:]))
	info.Checksum = binary.LittleEndian.Uint32(hdr[52:])

	if h.PatternSize <= 0 {
		return Info{}, fmt.Errorf("%w: pattern size %d", ErrCorrupt, h.PatternSize)
	}
	if info.Count > h.MaxPatterns {
		return Info{}, fmt.Errorf("%w: %d patterns exceed max %d", ErrCorrupt, info.Count, h.MaxPatterns)
	}
	size := 2 + 4 + h.PatternSize
	if info.BodyLen > MaxBodySize || info.PayloadLen > MaxBodySize || info.BodyLen%size != 0 || info.BodyLen/size != info.Count {
		return Info{}, fmt.Errorf("%w: body of %d bytes for %d patterns of %d bytes", ErrCorrupt, info.BodyLen, info.Count, h.PatternSize)
	}
	return info, nil
}

// Decode reads a pack from r.
func Decode(r io.Reader) (*Pack, error) {
	info, err := ReadInfo(r)
	if err != nil {
		return nil, err
	}

	p := &Pack{Header: info.Header}
	h := &p.Header
	size := p.recordSize()
	count, bodyLen, payloadLen, sum := info.Count, info.BodyLen, info.PayloadLen, info.Checksum

	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("%w: body: %w", ErrCorrupt, err)
	}

	body, err := decompress(h.Compression, payload, bodyLen)
	if err != nil {
		return nil, err
	}
	if !hash.Verify(body, sum) {
		return nil, ErrChecksum
	}

	p.Patterns = make([]Pattern, count)
	for i := range p.Patterns {
		rec := body[i*size : (i+1)*size]
		p.Patterns[i] = Pattern{
			Category:  binary.LittleEndian.Uint16(rec[0:]),
			Influence: binary.LittleEndian.Uint32(rec[2:]),
			Vector:    rec[6:size:size],
		}
	}
	return p, nil
}
