package language

import "strings"

type entry struct {
	code2   string
	code3   []string
	display string
	words   []string
}

// languages covers the speech WhisperX's default alignment models handle
// well plus the regional languages clipcaster channels publish in.
var languages = []entry{
	{"id", []string{"ind"}, "Indonesian", []string{"indonesian", "bahasa", "bahasa indonesia"}},
	{"ms", []string{"msa", "may", "zsm"}, "Malay", []string{"malay", "bahasa melayu"}},
	{"jv", []string{"jav"}, "Javanese", []string{"javanese"}},
	{"su", []string{"sun"}, "Sundanese", []string{"sundanese"}},
	{"tl", []string{"tgl", "fil"}, "Tagalog", []string{"tagalog", "filipino"}},
	{"en", []string{"eng"}, "English", []string{"english"}},
	{"es", []string{"spa"}, "Spanish", []string{"spanish"}},
	{"fr", []string{"fra", "fre"}, "French", []string{"french"}},
	{"de", []string{"deu", "ger"}, "German", []string{"german"}},
	{"pt", []string{"por"}, "Portuguese", []string{"portuguese"}},
	{"ja", []string{"jpn"}, "Japanese", []string{"japanese"}},
	{"ko", []string{"kor"}, "Korean", []string{"korean"}},
	{"zh", []string{"zho", "chi"}, "Chinese", []string{"chinese", "mandarin"}},
	{"th", []string{"tha"}, "Thai", []string{"thai"}},
	{"vi", []string{"vie"}, "Vietnamese", []string{"vietnamese"}},
	{"hi", []string{"hin"}, "Hindi", []string{"hindi"}},
	{"ar", []string{"ara"}, "Arabic", []string{"arabic"}},
}

var index = func() map[string]*entry {
	m := make(map[string]*entry, len(languages)*4)
	for i := range languages {
		e := &languages[i]
		m[e.code2] = e
		for _, c := range e.code3 {
			m[c] = e
		}
		for _, w := range e.words {
			m[w] = e
		}
	}
	return m
}()

// Normalize returns the two-letter code for value. Empty input and "auto"
// mean detection and return "", true. Unknown values return false.
func Normalize(value string) (string, bool) {
	key := strings.Join(strings.Fields(strings.ToLower(value)), " ")
	switch key {
	case "", "auto":
		return "", true
	}
	if e, ok := index[key]; ok {
		return e.code2, true
	}
	return "", false
}

// DisplayName returns a readable name for a code or name, "Auto-detect"
// for empty input, or the upper-cased input when unknown.
func DisplayName(value string) string {
	code, ok := Normalize(value)
	switch {
	case ok && code == "":
		return "Auto-detect"
	case ok:
		return index[code].display
	default:
		return strings.ToUpper(strings.TrimSpace(value))
	}
}
