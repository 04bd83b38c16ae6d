package store

import (
	"bufio"
	"io"
	"net/url"
	"strings"

	"github.com/aleister1102/pagewatch/internal/fingerprint"
)

// Header is the first line of every store file.
const Header = "# pagewatch fingerprints v1"

var idEscaper = strings.NewReplacer("%", "%25", "\t", "%09", "\n", "%0A", "\r", "%0D")

// EscapeID makes an ID safe to store on a single tab-separated line.
func EscapeID(id string) string {
	return idEscaper.Replace(id)
}

// UnescapeID reverses EscapeID.
func UnescapeID(s string) (string, error) {
	return url.PathUnescape(s)
}

// Encode writes the store in sorted, line-oriented form.
func Encode(w io.Writer, s *Store) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(Header + "\n"); err != nil {
		return err
	}
	snap := s.Snapshot()
	for _, id := range s.IDs() {
		fp, ok := snap[id]
		if !ok {
			continue
		}
		if _, err := bw.WriteString(EscapeID(id) + "\t" + fp.String() + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Decode parses a store file. path is only used in error messages.
func Decode(r io.Reader, path string) (*Store, error) {
	s := New()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSuffix(scanner.Text(), "\r")

		if lineNo == 1 {
			if line != Header {
				return nil, &StoreCorruptError{Path: path, Line: 1, Reason: "missing or unknown header"}
			}
			continue
		}
		if line == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) != 2 {
			return nil, &StoreCorruptError{Path: path, Line: lineNo, Reason: "expected <id>\\t<fingerprint>"}
		}
		id, err := UnescapeID(fields[0])
		if err != nil {
			return nil, &StoreCorruptError{Path: path, Line: lineNo, Reason: "bad id escape", Cause: err}
		}
		if id == "" {
			return nil, &StoreCorruptError{Path: path, Line: lineNo, Reason: "empty id"}
		}
		fp, err := fingerprint.Parse(fields[1])
		if err != nil {
			return nil, &StoreCorruptError{Path: path, Line: lineNo, Reason: "bad fingerprint", Cause: err}
		}
		if _, dup := s.Get(id); dup {
			return nil, &StoreCorruptError{Path: path, Line: lineNo, Reason: "duplicate id " + id}
		}
		s.Set(id, fp)
	}
	if err := scanner.Err(); err != nil {
		return nil, &StoreCorruptError{Path: path, Line: lineNo + 1, Reason: "unreadable line", Cause: err}
	}
	if lineNo == 0 {
		return nil, &StoreCorruptError{Path: path, Reason: "empty file"}
	}
	return s, nil
}
