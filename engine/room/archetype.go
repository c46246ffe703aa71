package room

import (
	"fmt"
	"strings"
)

// Archetype is a procedural room template.
type Archetype int

const (
	Sanctuary Archetype = iota
	PrayerCircle
	Lounge
	Classroom
	RecordingBooth
	BanquetHall
	Courtyard
)

// Archetypes lists every archetype in catalog order.
var Archetypes = []Archetype{Sanctuary, PrayerCircle, Lounge, Classroom, RecordingBooth, BanquetHall, Courtyard}

var archetypeNames = map[Archetype]string{
	Sanctuary:      "sanctuary",
	PrayerCircle:   "prayer-circle",
	Lounge:         "lounge",
	Classroom:      "classroom",
	RecordingBooth: "recording-booth",
	BanquetHall:    "banquet-hall",
	Courtyard:      "courtyard",
}

func (a Archetype) String() string {
	if n, ok := archetypeNames[a]; ok {
		return n
	}
	return fmt.Sprintf("Archetype(%d)", int(a))
}

// ParseArchetype maps a canonical archetype name back to its value.
func ParseArchetype(s string) (Archetype, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for a, n := range archetypeNames {
		if n == s {
			return a, true
		}
	}
	return 0, false
}

// keywords is checked in order; the first archetype with a matching keyword wins.
var keywords = []struct {
	archetype Archetype
	words     []string
}{
	{RecordingBooth, []string{"booth", "recording", "studio", "podcast"}},
	{PrayerCircle, []string{"prayer", "circle", "meditation", "vigil"}},
	{Sanctuary, []string{"sanctuary", "chapel", "church", "worship", "temple"}},
	{Classroom, []string{"class", "school", "lecture", "study", "lesson"}},
	{BanquetHall, []string{"banquet", "dining", "feast", "hall", "dinner"}},
	{Courtyard, []string{"courtyard", "garden", "outdoor", "plaza", "park"}},
	{Lounge, []string{"lounge", "cafe", "hangout", "social", "lobby"}},
}

// Classify picks the archetype for a room. An archetype hint in the metadata takes
// precedence over keywords in the name; rooms matching nothing become lounges.
//
// Parameters:
//   - name: the room name
//   - meta: seed metadata, may be nil
//
// Returns:
//   - Archetype: the chosen archetype
func Classify(name string, meta *Metadata) Archetype {
	if meta != nil && meta.Archetype != "" {
		if a, ok := ParseArchetype(meta.Archetype); ok {
			return a
		}
	}
	lower := strings.ToLower(name)
	for _, k := range keywords {
		for _, w := range k.words {
			if strings.Contains(lower, w) {
				return k.archetype
			}
		}
	}
	return Lounge
}
