package osm

import (
	"strings"

	"github.com/sidkik/gpxsync/pkg/errors"
)

// Visibility controls who can see an uploaded trace and its timestamps.
type Visibility string

const (
	// Public traces are listed anonymously, without timestamps.
	Public Visibility = "public"

	// Identifiable traces are listed with the uploader's name and
	// timestamps.
	Identifiable Visibility = "identifiable"

	// Trackable traces are anonymous, but keep their timestamps.
	Trackable Visibility = "trackable"

	// Private traces are anonymous and unordered.
	Private Visibility = "private"
)

// Visibilities are all the visibilities accepted by the server.
var Visibilities = []Visibility{Public, Identifiable, Trackable, Private}

// ParseVisibility converts `s` into a Visibility. The comparison ignores case
// and surrounding whitespace.
func ParseVisibility(s string) (Visibility, error) {
	normalized := Visibility(strings.ToLower(strings.TrimSpace(s)))
	for _, v := range Visibilities {
		if v == normalized {
			return v, nil
		}
	}
	return "", errors.New("unknown visibility %q (expected one of %s)", s, visibilityList())
}

func visibilityList() string {
	names := make([]string, len(Visibilities))
	for i, v := range Visibilities {
		names[i] = string(v)
	}
	return strings.Join(names, ", ")
}
