package domain

import "strings"

// subjectLabels maps stored subject codes to the localized labels shown
// in the directory. Search terms match against the label as well as the
// teacher's name and introduction.
var subjectLabels = map[string]string{
	"chinese":   "语文",
	"math":      "数学",
	"english":   "英语",
	"physics":   "物理",
	"chemistry": "化学",
	"biology":   "生物",
	"history":   "历史",
	"geography": "地理",
	"politics":  "政治",
}

// SubjectLabel returns the localized label for a subject code, falling
// back to the code itself for unknown subjects.
func SubjectLabel(code string) string {
	if label, ok := subjectLabels[code]; ok {
		return label
	}
	return code
}

// MatchTeacher is the directory filter predicate: the teacher matches
// when the selected grades intersect the taught grades (an empty
// selection matches all) and the search term is a case-insensitive
// substring of the name, any localized subject label, or the
// introduction (an empty term matches all).
func MatchTeacher(name string, profile TeacherProfile, grades []int, term string) bool {
	if len(grades) > 0 && !gradesIntersect(profile.Grades, grades) {
		return false
	}
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(name), term) {
		return true
	}
	for _, subject := range profile.Subjects {
		if strings.Contains(strings.ToLower(SubjectLabel(subject)), term) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(profile.Introduction), term)
}

func gradesIntersect(taught, selected []int) bool {
	for _, s := range selected {
		for _, t := range taught {
			if s == t {
				return true
			}
		}
	}
	return false
}
