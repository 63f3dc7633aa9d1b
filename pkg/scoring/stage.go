package scoring

import "strings"

// Stage groups the target words of one developmental stage.
type Stage struct {
	Name  string   `yaml:"name"`
	Words []string `yaml:"words"`
}

// StageTable is an ordered list of stages. A word listed in several stages
// belongs to the first.
type StageTable []Stage

// DefaultStages returns the stage table of the picture-naming protocol.
func DefaultStages() StageTable {
	return StageTable{
		{Name: "stage3", Words: []string{"ba", "eye", "map", "um", "ham", "papa", "bob", "pam", "pup", "pie"}},
		{Name: "stage4", Words: []string{"boy", "b", "peep", "bush", "moon", "phone", "feet", "fish", "wash", "show"}},
		{Name: "stage5", Words: []string{"ten", "dig", "log", "owl", "cake", "sun", "snake", "juice", "clown", "crib", "grape"}},
		{Name: "stage6", Words: []string{"cupcake", "icecream", "toothbrush", "robot", "banana", "marshmallow", "umbrella", "hamburger", "watermelon", "rhinoceros"}},
	}
}

// Lookup returns the stage listing word.
func (t StageTable) Lookup(word string) (string, bool) {
	for _, s := range t {
		for _, w := range s.Words {
			if w == word {
				return s.Name, true
			}
		}
	}
	return "", false
}

// Names returns stage names in table order.
func (t StageTable) Names() []string {
	out := make([]string, len(t))
	for i, s := range t {
		out[i] = s.Name
	}
	return out
}

// index returns the position of the stage called name, or len(t).
func (t StageTable) index(name string) int {
	for i, s := range t {
		if s.Name == name {
			return i
		}
	}
	return len(t)
}

// Entry is one reference transcription.
type Entry struct {
	Word      string
	Phonemes  []string
	Structure []string
}

// Reference holds the expected transcription of every target word.
type Reference struct {
	entries map[string]Entry
	order   []string
}

// NewReference indexes entries by word. A repeated word keeps its first entry.
func NewReference(entries ...Entry) *Reference {
	r := &Reference{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		key := strings.TrimSpace(e.Word)
		if _, ok := r.entries[key]; ok {
			continue
		}
		r.entries[key] = e
		r.order = append(r.order, key)
	}
	return r
}

// Lookup returns the entry for word.
func (r *Reference) Lookup(word string) (Entry, bool) {
	if r == nil {
		return Entry{}, false
	}
	e, ok := r.entries[word]
	return e, ok
}

// Len returns the number of words.
func (r *Reference) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}
