// Package catalog loads the current-term course catalog and answers
// identifier and attribute lookups against an in-memory copy.
package catalog

// GenEdSubject is the subject code carried by general-education courses.
const GenEdSubject = "GENED"

// Entry is one current-term course offering.
type Entry struct {
	CourseID     string  `json:"courseId"`
	Subject      string  `json:"subject"`
	CourseNumber string  `json:"courseNumber"`
	Title        string  `json:"title"`
	Department   string  `json:"department"`
	Term         string  `json:"term"`
	Credits      string  `json:"credits"`
	Meeting      Meeting `json:"meeting"`
	Instructors  string  `json:"instructors"`
	Distribution string  `json:"distribution"`
	Requirements string  `json:"requirements"`
	Description  string  `json:"description"`
}

// IsGenEd reports whether the entry's subject is exactly the GenEd sentinel.
func (e Entry) IsGenEd() bool {
	return e.Subject == GenEdSubject
}

// GenEdCategory derives the GenEd category from the distribution text.
func (e Entry) GenEdCategory() string {
	return DeriveGenEdCategory(e.Distribution)
}
