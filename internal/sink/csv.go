package sink

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/san-kum/ecosim/internal/world"
)

// ZstdExt marks compressed record files.
const ZstdExt = ".zst"

// CSV writes a header row followed by one row per record. Each record is
// flushed before Write returns so a failing destination stops the run in the
// month it failed.
type CSV struct {
	w           *csv.Writer
	enc         *zstd.Encoder
	file        io.Closer
	wroteHeader bool
}

func NewCSV(w io.Writer) *CSV {
	return &CSV{w: csv.NewWriter(w)}
}

// CreateCSV creates path, compressing with zstd when it ends in ".zst".
func CreateCSV(path string) (*CSV, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	if !strings.HasSuffix(path, ZstdExt) {
		c := NewCSV(f)
		c.file = f
		return c, nil
	}

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	c := NewCSV(enc)
	c.enc = enc
	c.file = f
	return c, nil
}

func (c *CSV) Write(rec world.Record) error {
	if !c.wroteHeader {
		if err := c.w.Write(Header); err != nil {
			return err
		}
		c.wroteHeader = true
	}
	if err := c.w.Write(Fields(rec)); err != nil {
		return err
	}
	c.w.Flush()
	return c.w.Error()
}

// Close flushes and releases the destination when CSV opened it.
func (c *CSV) Close() error {
	c.w.Flush()
	errs := []error{c.w.Error()}
	if c.enc != nil {
		errs = append(errs, c.enc.Close())
	}
	if c.file != nil {
		errs = append(errs, c.file.Close())
	}
	return errors.Join(errs...)
}

// ReadCSV reads records written by CSV, decompressing ".zst" files.
func ReadCSV(path string) ([]world.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var src io.Reader = f
	if strings.HasSuffix(path, ZstdExt) {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		src = dec
	}
	return DecodeCSV(src)
}

// DecodeCSV parses a header row and the records after it.
func DecodeCSV(r io.Reader) ([]world.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return []world.Record{}, nil
	}

	records := make([]world.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec, err := ParseFields(row)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
