package trace

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/golang/snappy"
	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"

	"github.com/sheepshaver/sheepbug/go/debug"
)

var JOURNAL_MAGIC = "SBHJ"

const JOURNAL_VERSION = 1

var order = binary.BigEndian

type Header struct {
	// MAGIC ("SBHJ")
	Magic   string `struc:"[4]byte"`
	Version uint32
	// Emulated architecture, right-null-padded.
	Arch string `struc:"[16]byte"`
	// 1 if the decode hook was checking the write set
	CompatDecode uint8
}

// Record is one fired hook. Seq counts records from zero.
type Record struct {
	Seq    uint64
	Kind   uint8
	Size   uint8
	Addr   uint32
	PC     uint32
	Opcode uint32
}

func NewRecord(seq uint64, c debug.HookCall) Record {
	return Record{
		Seq:    seq,
		Kind:   uint8(c.Kind),
		Size:   uint8(c.Size),
		Addr:   c.Addr,
		PC:     c.PC,
		Opcode: c.Opcode,
	}
}

func (r Record) Call() debug.HookCall {
	return debug.HookCall{
		Kind:   debug.HookKind(r.Kind),
		Size:   int(r.Size),
		Addr:   r.Addr,
		PC:     r.PC,
		Opcode: r.Opcode,
	}
}

func (r Record) String() string {
	return fmt.Sprintf("%06d %s", r.Seq, r.Call())
}

var recordSize int

func init() {
	var err error
	if recordSize, err = struc.Sizeof(&Record{}); err != nil {
		panic(err)
	}
}

// Writer journals hook calls into a snappy stream. It implements debug.Recorder.
type Writer struct {
	w   io.WriteCloser
	zw  *snappy.Writer
	seq uint64
}

func NewWriter(w io.WriteCloser, arch string, compatDecode bool) (*Writer, error) {
	header := &Header{Magic: JOURNAL_MAGIC, Version: JOURNAL_VERSION, Arch: arch}
	if compatDecode {
		header.CompatDecode = 1
	}
	if err := struc.PackWithOrder(w, header, order); err != nil {
		return nil, errors.Wrap(err, "failed to pack header")
	}
	return &Writer{w: w, zw: snappy.NewBufferedWriter(w)}, nil
}

func (t *Writer) Record(c debug.HookCall) error {
	rec := NewRecord(t.seq, c)
	t.seq++
	return errors.Wrap(struc.PackWithOrder(t.zw, &rec, order), "failed to pack record")
}

func (t *Writer) Count() uint64 { return t.seq }

func (t *Writer) Close() error {
	err := t.zw.Close()
	if cerr := t.w.Close(); err == nil {
		err = cerr
	}
	return err
}

type Reader struct {
	r      io.ReadCloser
	zr     *snappy.Reader
	buf    []byte
	Header Header
}

func NewReader(r io.ReadCloser) (*Reader, error) {
	t := &Reader{r: r, buf: make([]byte, recordSize)}
	if err := struc.UnpackWithOrder(r, &t.Header, order); err != nil {
		return nil, errors.Wrap(err, "failed to unpack header")
	}
	if t.Header.Magic != JOURNAL_MAGIC {
		return nil, errors.New("invalid journal magic")
	}
	if t.Header.Version != JOURNAL_VERSION {
		return nil, errors.Errorf("unsupported journal version %d", t.Header.Version)
	}
	t.Header.Arch = strings.TrimRight(t.Header.Arch, "\x00")
	t.zr = snappy.NewReader(r)
	return t, nil
}

// Next returns io.EOF after the last record.
func (t *Reader) Next() (Record, error) {
	var rec Record
	if _, err := io.ReadFull(t.zr, t.buf); err != nil {
		if err == io.EOF {
			return rec, err
		}
		return rec, errors.Wrap(err, "truncated record")
	}
	err := struc.UnpackWithOrder(bytes.NewReader(t.buf), &rec, order)
	return rec, errors.Wrap(err, "failed to unpack record")
}

func (t *Reader) Close() error {
	t.zr.Reset(nil)
	return t.r.Close()
}
