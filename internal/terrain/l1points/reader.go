package l1points

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// XYZB binary layout: 4-byte magic, little-endian uint64 record count, then
// fixed-size records of x f64, y f64, z f32, class u8, number of returns
// u8, return number u8 and one padding byte.
const (
	BINARY_MAGIC       = "XYZB"
	BINARY_HEADER_SIZE = 12
	BINARY_RECORD_SIZE = 24
)

var (
	// ErrFormat is returned when a point stream cannot be parsed.
	ErrFormat = errors.New("malformed point stream")
	// ErrEmptyTile is returned when a stream yields no points after decimation.
	ErrEmptyTile = errors.New("tile contains no points")
)

// PointReader yields raw (unscaled) points one at a time and returns io.EOF
// after the last one.
type PointReader interface {
	Next() (Point, error)
}

// NewReader sniffs r and returns a binary reader when it starts with the
// XYZB magic, or a whitespace-separated text reader otherwise.
func NewReader(r io.Reader) (PointReader, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	head, err := br.Peek(len(BINARY_MAGIC))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("peek point stream: %w", err)
	}
	if string(head) == BINARY_MAGIC {
		return newBinaryReader(br)
	}
	return &textReader{scanner: bufio.NewScanner(br)}, nil
}

// textReader parses lines of "x y z [class [returns [return_number]]]".
// Missing trailing fields default to an unclassified single return.
type textReader struct {
	scanner *bufio.Scanner
	line    int
}

func (r *textReader) Next() (Point, error) {
	for r.scanner.Scan() {
		r.line++
		text := strings.TrimSpace(r.scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		p, err := parseTextLine(strings.Fields(text))
		if err != nil {
			return Point{}, fmt.Errorf("%w: line %d: %v", ErrFormat, r.line, err)
		}
		return p, nil
	}
	if err := r.scanner.Err(); err != nil {
		return Point{}, fmt.Errorf("%w: line %d: %v", ErrFormat, r.line+1, err)
	}
	return Point{}, io.EOF
}

func parseTextLine(fields []string) (Point, error) {
	if len(fields) < 3 {
		return Point{}, fmt.Errorf("expected at least 3 fields, got %d", len(fields))
	}
	var xyz [3]float64
	for i := range xyz {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return Point{}, err
		}
		xyz[i] = v
	}
	p := Point{X: xyz[0], Y: xyz[1], Z: xyz[2], Class: ClassUnclassified, ReturnNumber: 1, NumberOfReturns: 1}

	small := make([]uint8, 0, 3)
	for _, f := range fields[3:min(len(fields), 6)] {
		v, err := strconv.ParseUint(f, 10, 8)
		if err != nil {
			return Point{}, err
		}
		small = append(small, uint8(v))
	}
	if len(small) > 0 {
		p.Class = Classification(small[0])
	}
	if len(small) > 1 {
		p.NumberOfReturns = small[1]
	}
	if len(small) > 2 {
		p.ReturnNumber = small[2]
	}
	return p, nil
}

type binaryReader struct {
	r     io.Reader
	count uint64
	read  uint64
	buf   [BINARY_RECORD_SIZE]byte
}

func newBinaryReader(r io.Reader) (*binaryReader, error) {
	var header [BINARY_HEADER_SIZE]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("%w: short XYZB header: %v", ErrFormat, err)
	}
	count := binary.LittleEndian.Uint64(header[len(BINARY_MAGIC):])
	if count == math.MaxUint64 {
		return nil, fmt.Errorf("%w: XYZB stream was never finalised", ErrFormat)
	}
	return &binaryReader{r: r, count: count}, nil
}

func (r *binaryReader) Next() (Point, error) {
	if r.read >= r.count {
		return Point{}, io.EOF
	}
	if _, err := io.ReadFull(r.r, r.buf[:]); err != nil {
		return Point{}, fmt.Errorf("%w: record %d of %d: %v", ErrFormat, r.read, r.count, err)
	}
	r.read++
	b := r.buf[:]
	return Point{
		X:               math.Float64frombits(binary.LittleEndian.Uint64(b[0:8])),
		Y:               math.Float64frombits(binary.LittleEndian.Uint64(b[8:16])),
		Z:               float64(math.Float32frombits(binary.LittleEndian.Uint32(b[16:20]))),
		Class:           Classification(b[20]),
		NumberOfReturns: b[21],
		ReturnNumber:    b[22],
	}, nil
}

// WriteBinary encodes pts as an XYZB stream. Elevations are stored as
// float32, so a round trip is exact only for values representable in 32 bits.
func WriteBinary(w io.Writer, pts []Point) error {
	bw := bufio.NewWriter(w)
	var header [BINARY_HEADER_SIZE]byte
	copy(header[:], BINARY_MAGIC)
	binary.LittleEndian.PutUint64(header[len(BINARY_MAGIC):], uint64(len(pts)))
	if _, err := bw.Write(header[:]); err != nil {
		return fmt.Errorf("write XYZB header: %w", err)
	}

	var rec [BINARY_RECORD_SIZE]byte
	for _, p := range pts {
		binary.LittleEndian.PutUint64(rec[0:8], math.Float64bits(p.X))
		binary.LittleEndian.PutUint64(rec[8:16], math.Float64bits(p.Y))
		binary.LittleEndian.PutUint32(rec[16:20], math.Float32bits(float32(p.Z)))
		rec[20] = byte(p.Class)
		rec[21] = p.NumberOfReturns
		rec[22] = p.ReturnNumber
		rec[23] = 0
		if _, err := bw.Write(rec[:]); err != nil {
			return fmt.Errorf("write XYZB record: %w", err)
		}
	}
	return bw.Flush()
}
