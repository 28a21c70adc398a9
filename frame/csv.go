package frame

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ReadCSV reads a frame from CSV with a header row.
// Columns listed in numeric are parsed as float64; all others are kept as
// strings.
func ReadCSV(r io.Reader, numeric ...string) (*Frame, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return New()
		}
		return nil, fmt.Errorf("frame: read header: %w", err)
	}

	isNumeric := make(map[string]bool, len(numeric))
	for _, n := range numeric {
		isNumeric[n] = true
	}

	cols := make([]Column, len(header))
	for i, name := range header {
		if isNumeric[name] {
			cols[i] = Floats(name)
		} else {
			cols[i] = Strings(name)
		}
	}

	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("frame: read line %d: %w", line+1, err)
		}
		line++
		for i, v := range rec {
			c := &cols[i]
			if c.Floats != nil {
				f, err := strconv.ParseFloat(v, 64)
				if err != nil {
					return nil, fmt.Errorf("frame: line %d column %q: %w", line, c.Name, err)
				}
				c.Floats = append(c.Floats, f)
			} else {
				c.Strings = append(c.Strings, v)
			}
		}
	}

	return New(cols...)
}
