package marc

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bookops/overload/pkg/errors"
)

// ISO 2709 structural bytes.
const (
	leaderLen         = 24
	dirEntryLen       = 12
	fieldTerminator   = 0x1e
	recordTerminator  = 0x1d
	subfieldDelimiter = 0x1f
)

// ParseRecord decodes a single ISO 2709 encoded record.
func ParseRecord(data []byte) (*Record, error) {
	if len(data) < leaderLen {
		return nil, fmt.Errorf("%w: record shorter than leader (%d bytes)", errors.ErrInvalidInput, len(data))
	}
	leader := string(data[:leaderLen])
	base, err := strconv.Atoi(strings.TrimSpace(leader[12:17]))
	if err != nil || base < leaderLen || base > len(data) {
		return nil, fmt.Errorf("%w: invalid base address %q", errors.ErrInvalidInput, leader[12:17])
	}

	record := &Record{Leader: leader}
	dir := data[leaderLen:base]
	if i := bytes.IndexByte(dir, fieldTerminator); i >= 0 {
		dir = dir[:i]
	}
	for i := 0; i+dirEntryLen <= len(dir); i += dirEntryLen {
		entry := dir[i : i+dirEntryLen]
		tag := string(entry[0:3])
		length, err := strconv.Atoi(string(entry[3:7]))
		if err != nil {
			return nil, fmt.Errorf("%w: bad directory length for tag %s", errors.ErrInvalidInput, tag)
		}
		start, err := strconv.Atoi(string(entry[7:12]))
		if err != nil {
			return nil, fmt.Errorf("%w: bad directory offset for tag %s", errors.ErrInvalidInput, tag)
		}
		if base+start+length > len(data) {
			return nil, fmt.Errorf("%w: field %s runs past end of record", errors.ErrInvalidInput, tag)
		}
		fieldData := data[base+start : base+start+length]
		fieldData = bytes.TrimRight(fieldData, string(rune(fieldTerminator)))

		field, err := parseField(tag, fieldData)
		if err != nil {
			return nil, err
		}
		record.Fields = append(record.Fields, field)
	}
	return record, nil
}

func parseField(tag string, data []byte) (Field, error) {
	if strings.HasPrefix(tag, "00") {
		return Field{Tag: tag, Data: string(data)}, nil
	}
	if len(data) < 2 {
		return Field{}, fmt.Errorf("%w: data field %s shorter than indicators", errors.ErrInvalidInput, tag)
	}
	field := Field{Tag: tag, Ind1: string(data[0]), Ind2: string(data[1])}
	for _, chunk := range bytes.Split(data[2:], []byte{subfieldDelimiter}) {
		if len(chunk) == 0 {
			continue
		}
		field.Subfields = append(field.Subfields, Subfield{
			Code:  string(chunk[0:1]),
			Value: string(chunk[1:]),
		})
	}
	return field, nil
}

// MARC serializes the record to its ISO 2709 binary form. Record and base
// address lengths in the leader are recomputed.
func (r *Record) MARC() []byte {
	var dir, data bytes.Buffer
	for i := range r.Fields {
		f := &r.Fields[i]
		start := data.Len()
		if f.IsControl() {
			data.WriteString(f.Data)
		} else {
			data.WriteString(indicator(f.Ind1))
			data.WriteString(indicator(f.Ind2))
			for _, sf := range f.Subfields {
				data.WriteByte(subfieldDelimiter)
				data.WriteString(sf.Code)
				data.WriteString(sf.Value)
			}
		}
		data.WriteByte(fieldTerminator)
		fmt.Fprintf(&dir, "%3s%04d%05d", f.Tag, data.Len()-start, start)
	}
	dir.WriteByte(fieldTerminator)

	base := leaderLen + dir.Len()
	total := base + data.Len() + 1

	leader := []byte(r.Leader)
	if len(leader) != leaderLen {
		leader = []byte(defaultLeader)
	}
	copy(leader[0:5], fmt.Sprintf("%05d", total))
	copy(leader[12:17], fmt.Sprintf("%05d", base))

	out := make([]byte, 0, total)
	out = append(out, leader...)
	out = append(out, dir.Bytes()...)
	out = append(out, data.Bytes()...)
	out = append(out, recordTerminator)
	return out
}

func indicator(ind string) string {
	if ind == "" {
		return " "
	}
	return ind[:1]
}

// Reader decodes ISO 2709 records from a stream.
type Reader struct {
	r io.Reader
}

// NewReader creates a Reader over raw ISO 2709 data.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Next returns the next record from the stream, or io.EOF when exhausted.
func (r *Reader) Next() (*Record, error) {
	head := make([]byte, 5)
	if _, err := io.ReadFull(r.r, head); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, err
	}
	length, err := strconv.Atoi(string(head))
	if err != nil || length <= 5 {
		return nil, fmt.Errorf("%w: invalid record length %q", errors.ErrInvalidInput, head)
	}
	body := make([]byte, length-5)
	if _, err := io.ReadFull(r.r, body); err != nil {
		return nil, fmt.Errorf("truncated record: %w", err)
	}
	return ParseRecord(append(head, body...))
}

// ReadAll decodes every record in the stream.
func ReadAll(r io.Reader) ([]*Record, error) {
	reader := NewReader(r)
	var records []*Record
	for {
		record, err := reader.Next()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
}

// WriteAll serializes records back to back onto w.
func WriteAll(w io.Writer, records []*Record) error {
	for _, record := range records {
		if _, err := w.Write(record.MARC()); err != nil {
			return err
		}
	}
	return nil
}
