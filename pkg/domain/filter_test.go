package domain

import "testing"

func TestSubjectLabel(t *testing.T) {
	if got := SubjectLabel("math"); got != "数学" {
		t.Fatalf("math label = %q", got)
	}
	if got := SubjectLabel("latin"); got != "latin" {
		t.Fatalf("unknown code should fall back, got %q", got)
	}
}

func TestMatchTeacherGrades(t *testing.T) {
	profile := TeacherProfile{Subjects: []string{"math"}, Grades: []int{7, 8, 9}}

	if !MatchTeacher("王老师", profile, nil, "") {
		t.Fatalf("empty filter should match")
	}
	if !MatchTeacher("王老师", profile, []int{9, 10}, "") {
		t.Fatalf("overlapping grades should match")
	}
	if MatchTeacher("王老师", profile, []int{1, 2}, "") {
		t.Fatalf("disjoint grades should not match")
	}
}

func TestMatchTeacherTerm(t *testing.T) {
	profile := TeacherProfile{
		Subjects:     []string{"math", "physics"},
		Grades:       []int{10, 11, 12},
		Introduction: "Ten years of olympiad coaching",
	}

	if !MatchTeacher("Li Lei", profile, nil, "li") {
		t.Fatalf("name substring should match case-insensitively")
	}
	if !MatchTeacher("Li Lei", profile, nil, "物理") {
		t.Fatalf("localized subject label should match")
	}
	if !MatchTeacher("Li Lei", profile, nil, "OLYMPIAD") {
		t.Fatalf("introduction substring should match case-insensitively")
	}
	if MatchTeacher("Li Lei", profile, nil, "chemistry") {
		t.Fatalf("term absent everywhere should not match")
	}
}

func TestMatchTeacherConjunctive(t *testing.T) {
	profile := TeacherProfile{Subjects: []string{"english"}, Grades: []int{3, 4}}

	// Both halves of the filter must hold at once.
	if MatchTeacher("Zhang", profile, []int{4}, "math") {
		t.Fatalf("grade match alone should not satisfy the filter")
	}
	if MatchTeacher("Zhang", profile, []int{8}, "英语") {
		t.Fatalf("term match alone should not satisfy the filter")
	}
	if !MatchTeacher("Zhang", profile, []int{4}, "英语") {
		t.Fatalf("grade and term together should match")
	}
}
