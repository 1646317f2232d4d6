// Package recfile implements the phonebook's delimited text wire format
// (§6): one record per line, five ", "-separated fields. It is a
// deliberately minimal codec rather than encoding/csv, because the wire
// format's separator is the two-byte sequence ", " with unquoted
// free-text name fields — encoding/csv's single-delimiter-rune model
// cannot express that without misparsing a name containing a bare
// comma or losing the space convention on write.
package recfile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"phonebook/models"
)

// Row is one parsed line: a phone number, its record, and its activity
// flag.
type Row struct {
	Number   string
	Record   models.Record
	Activity bool
}

// WriteRow appends one line to w in the §6 format:
// "8PPPPSSSSSS, LAST, FIRST, PATRONYMIC, A\n".
func WriteRow(w io.Writer, number string, rec models.Record, activity bool) error {
	a := "0"
	if activity {
		a = "1"
	}
	_, err := fmt.Fprintf(w, "%s, %s, %s, %s, %s\n", number, rec.Last, rec.First, rec.Patronymic, a)
	if err != nil {
		return models.NewError(models.KindFileWrite, "recfile: write row: %v", err)
	}
	return nil
}

// ReadRows reads every line from r, parsing each with ParseLine. It
// fails with FileParse, naming the file, on the first malformed line.
func ReadRows(r io.Reader, fileName string) ([]Row, error) {
	var rows []Row
	scanner := bufio.NewScanner(r)
	// Name fields are free text; widen the scanner's line buffer past
	// bufio's 64KiB default so a pathological name doesn't truncate it.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}
		row, err := ParseLine(line)
		if err != nil {
			return nil, models.NewFileError(models.KindFileParse, fileName, "line %d: %v", lineNo, err)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, models.NewFileError(models.KindFileRead, fileName, "%v", err)
	}
	return rows, nil
}

// ParseLine parses one "8PPPPSSSSSS, LAST, FIRST, PATRONYMIC, A" line
// into a Row.
func ParseLine(line string) (Row, error) {
	fields := strings.Split(line, ", ")
	if len(fields) != 5 {
		return Row{}, fmt.Errorf("expected 5 fields, got %d", len(fields))
	}
	number := fields[0]
	activityField := strings.TrimSpace(fields[4])
	activity, err := strconv.Atoi(activityField)
	if err != nil || (activity != 0 && activity != 1) {
		return Row{}, fmt.Errorf("invalid activity field %q", fields[4])
	}
	return Row{
		Number:   number,
		Record:   models.NewRecord(fields[1], fields[2], fields[3]),
		Activity: activity == 1,
	}, nil
}

// WorkerFileName computes the per-worker file name for base name F and
// worker index i: i is inserted immediately before the final four
// characters of F (§6's multi-file naming). F must have an exactly
// four-character extension (including the dot).
func WorkerFileName(base string, index int) (string, error) {
	if len(base) < 4 {
		return "", models.NewError(models.KindBadArg, "base file name %q is shorter than a 4-character extension", base)
	}
	split := len(base) - 4
	return base[:split] + strconv.Itoa(index) + base[split:], nil
}
