package staging

import "fmt"

// StagedChunk is a normalized, not-yet-submitted import entry in the
// wire shape the bulk-import endpoint expects. Optional fields are
// pointers without omitempty so absent values serialize as explicit
// nulls and the payload shape stays stable.
type StagedChunk struct {
	WorkAcronym        string   `json:"workAcronym"`
	Topics             []string `json:"topics"`
	ChapterTitle       *string  `json:"chapterTitle"`
	ChapterNumber      *int     `json:"chapterNumber"`
	SectionTitle       *string  `json:"sectionTitle"`
	SectionNumber      *int     `json:"sectionNumber"`
	SubsectionTitle    *string  `json:"subsectionTitle"`
	SubSubsectionTitle *string  `json:"subSubsectionTitle"`
	Question           *string  `json:"question"`
	Content            string   `json:"content"`
}

// rawChunk mirrors the snake_case field names of the uploaded file.
type rawChunk struct {
	ChapterTitle       *string `json:"chapter_title"`
	ChapterNumber      *int    `json:"chapter_number"`
	SectionTitle       *string `json:"section_title"`
	SectionNumber      *int    `json:"section_number"`
	SubsectionTitle    *string `json:"subsection_title"`
	SubSubsectionTitle *string `json:"sub_subsection_title"`
	Question           *string `json:"question"`
	Content            string  `json:"content"`
}

// ValidationError reports a missing precondition detected before any
// work is done (e.g. no target work selected).
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("staging: %s", e.Reason)
}

// FormatError reports a malformed uploaded file. The previously staged
// set is left untouched.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("staging: %s", e.Reason)
}
