// Package gpx reads the start time of GPX track files.
package gpx

import (
	"encoding/xml"
	"io"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/net/html/charset"

	"github.com/sidkik/gpxsync/pkg/errors"
)

// Namespace is the namespace of GPX 1.1 documents.
const Namespace = "http://www.topografix.com/GPX/1/1"

// timeLayouts are the ISO-8601 forms accepted for timestamps, tried in order.
// RFC3339 covers both `Z` and numeric offsets.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ExtractFile returns the earliest timestamp recorded in the GPX file at
// `path`. The second return value is false if the file couldn't be read or
// parsed, or if it doesn't contain any timestamps. Failures are logged rather
// than returned since the caller always has a fallback.
func ExtractFile(fs afero.Fs, path string) (time.Time, bool) {
	f, err := fs.Open(path)
	if err != nil {
		log.WithError(err).WithField("file", path).Warn("Failed to open GPX file")
		return time.Time{}, false
	}
	defer f.Close()

	raw, err := earliestRaw(f)
	if err != nil {
		log.WithError(err).WithField("file", path).Warn("Failed to extract timestamp")
		return time.Time{}, false
	}
	if raw == "" {
		log.WithField("file", path).Debug("No timestamp in GPX file")
		return time.Time{}, false
	}

	t, err := parseTime(raw)
	if err != nil {
		log.WithError(err).WithField("file", path).Warn("Failed to extract timestamp")
		return time.Time{}, false
	}
	return t, true
}

// EarliestTime returns the earliest timestamp in the GPX document read from
// `r`. The second return value is false if no timestamp could be found.
func EarliestTime(r io.Reader) (time.Time, bool) {
	raw, err := earliestRaw(r)
	if err != nil || raw == "" {
		return time.Time{}, false
	}

	t, err := parseTime(raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// earliestRaw returns the smallest timestamp string in the document, compared
// as text. Timestamps are looked up in three places: the `time` child of
// every track point, the `time` child of every waypoint, and the first
// `metadata/time`. The text of a `time` element is what precedes its first
// child, taken as is. An empty string means that no timestamp was found.
//
// Comparing the raw strings only orders timestamps chronologically when they
// share the same precision and offset. Identities uploaded by earlier runs
// were derived this way, so it must not be replaced with a comparison of the
// parsed times.
func earliestRaw(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	// Some devices declare a legacy encoding such as ISO-8859-1.
	dec.CharsetReader = charset.NewReaderLabel

	var namespace string
	var stack []xml.Name
	var earliest string
	var text strings.Builder

	// timeDepth is the depth of the timestamp element being read, or zero.
	timeDepth := 0
	textDone, sawMetadataTime, sawRoot := false, false, false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", errors.WithContext(err, "parse xml")
		}

		switch tok := tok.(type) {
		case xml.StartElement:
			if len(stack) == 0 {
				if sawRoot {
					return "", errors.New("content after the document element")
				}
				sawRoot = true
				namespace = rootNamespace(tok.Name)
			}
			stack = append(stack, tok.Name)

			if timeDepth != 0 {
				textDone = true
			} else if isTimestamp(stack, namespace) {
				timeDepth = len(stack)
				textDone = false
				text.Reset()
			}
		case xml.CharData:
			if len(stack) == 0 && len(strings.TrimSpace(string(tok))) != 0 {
				return "", errors.New("text outside of the document element")
			}
			if timeDepth != 0 && len(stack) == timeDepth && !textDone {
				text.Write(tok)
			}
		case xml.EndElement:
			if timeDepth != 0 && len(stack) == timeDepth {
				timeDepth = 0
				ts := text.String()
				if stack[len(stack)-2].Local == "metadata" {
					if sawMetadataTime {
						ts = ""
					}
					sawMetadataTime = true
				}
				if ts != "" && (earliest == "" || ts < earliest) {
					earliest = ts
				}
			}
			stack = stack[:len(stack)-1]
		}
	}

	if !sawRoot || len(stack) != 0 {
		return "", errors.New("unexpected end of document")
	}
	return earliest, nil
}

// rootNamespace returns the namespace that the elements of a document are
// expected in, based on its root element. A `gpx` root always means GPX 1.1,
// whatever namespace it declares. Other roots are read in their own
// namespace, or in the GPX 1.1 one if they have none.
func rootNamespace(root xml.Name) string {
	if strings.HasSuffix(root.Local, "gpx") {
		if root.Space != Namespace {
			log.WithField("namespace", root.Space).Debug(
				"GPX file isn't in the GPX 1.1 namespace")
		}
		return Namespace
	}

	log.WithField("root", root.Local).Debug("Unexpected root element in GPX file")
	if root.Space == "" {
		return Namespace
	}
	return root.Space
}

// isTimestamp returns whether the innermost element of `stack` is a `time`
// element in one of the locations that hold trace timestamps.
func isTimestamp(stack []xml.Name, namespace string) bool {
	// The root element itself can't be a timestamp.
	if len(stack) < 3 {
		return false
	}

	elem, parent := stack[len(stack)-1], stack[len(stack)-2]
	if elem.Local != "time" || elem.Space != namespace || parent.Space != namespace {
		return false
	}

	switch parent.Local {
	case "trkpt", "wpt", "metadata":
		return true
	default:
		return false
	}
}

// parseTime parses an ISO-8601 timestamp. Timestamps without an offset are
// kept in UTC so that they're formatted exactly as written.
func parseTime(raw string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("unrecognized timestamp %q", raw)
}
