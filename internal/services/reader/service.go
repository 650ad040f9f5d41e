package reader

import (
	"encoding/json"
	"fmt"

	"veritas-desktop/internal/api"
)

// Passage is one readable fragment of a work chapter.
type Passage struct {
	ID            int64   `json:"id"`
	ChapterNumber *int    `json:"chapterNumber"`
	SectionNumber *int    `json:"sectionNumber"`
	Question      *string `json:"question"`
	Content       string  `json:"content"`
}

// VerseNote is one study note anchored to a bible chapter.
type VerseNote struct {
	ID          int64  `json:"id"`
	Book        string `json:"book"`
	StartVerse  int    `json:"startVerse"`
	EndVerse    *int   `json:"endVerse"`
	NoteContent string `json:"noteContent"`
	Source      string `json:"source"`
}

// Service is the client of the public reading endpoints.
type Service struct {
	client *api.Client
}

// NewService creates a new reader service
func NewService(client *api.Client) *Service {
	return &Service{client: client}
}

// WorkChapter returns the passages of one chapter of a work.
func (s *Service) WorkChapter(workSlug string, chapter int) ([]Passage, error) {
	resp, err := s.client.Get(fmt.Sprintf("/v1/leitor/obras/%s/%d", workSlug, chapter), nil)
	if err != nil {
		return nil, err
	}
	var passages []Passage
	if err := json.Unmarshal(resp.Body(), &passages); err != nil {
		return nil, fmt.Errorf("reader: failed to parse chapter: %w", err)
	}
	return passages, nil
}

// BibleChapter returns the study notes of one bible chapter.
func (s *Service) BibleChapter(book string, chapter int) ([]VerseNote, error) {
	resp, err := s.client.Get(fmt.Sprintf("/v1/leitor/biblia/%s/%d", book, chapter), nil)
	if err != nil {
		return nil, err
	}
	var notes []VerseNote
	if err := json.Unmarshal(resp.Body(), &notes); err != nil {
		return nil, fmt.Errorf("reader: failed to parse chapter notes: %w", err)
	}
	return notes, nil
}
