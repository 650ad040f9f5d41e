package staging

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
)

// Engine parses a locally selected JSON file into a staged list of
// normalized import chunks. It never touches the network; the staged
// list lives here until the importer submits or the user cancels.
type Engine struct {
	mu     sync.RWMutex
	target string
	staged []StagedChunk
}

// NewEngine creates an empty staging engine with no target selected.
func NewEngine() *Engine {
	return &Engine{}
}

// SelectTarget sets the acronym of the work future chunks belong to.
func (e *Engine) SelectTarget(workAcronym string) {
	e.mu.Lock()
	e.target = workAcronym
	e.mu.Unlock()
}

// Target returns the currently selected work acronym, empty if none.
func (e *Engine) Target() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.target
}

// Staged returns a copy of the current staged list.
func (e *Engine) Staged() []StagedChunk {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]StagedChunk, len(e.staged))
	copy(out, e.staged)
	return out
}

// Count returns the number of staged chunks.
func (e *Engine) Count() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.staged)
}

// Clear discards the staged list but keeps the selected target.
func (e *Engine) Clear() {
	e.mu.Lock()
	e.staged = nil
	e.mu.Unlock()
}

// Reset discards the staged list and the selected target.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.staged = nil
	e.target = ""
	e.mu.Unlock()
}

// StageFile parses raw file bytes as a JSON array of chunk entries and
// replaces the staged list with the normalized result. Entries with
// blank content are dropped, not reported. Returns the retained count.
//
// A missing target fails before the file is read. A file whose top
// level is not an array leaves the previous staged list untouched; any
// other processing failure empties it.
func (e *Engine) StageFile(raw []byte) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.target == "" {
		return 0, &ValidationError{Reason: "selecione uma obra de destino primeiro"}
	}

	var entries []rawChunk
	if err := json.Unmarshal(raw, &entries); err != nil {
		if !looksLikeArray(raw) {
			return 0, &FormatError{Reason: "o JSON não é um array (lista)"}
		}
		e.staged = nil
		return 0, fmt.Errorf("staging: falha ao processar o arquivo: %w", err)
	}

	staged := make([]StagedChunk, 0, len(entries))
	for _, entry := range entries {
		if strings.TrimSpace(entry.Content) == "" {
			continue
		}
		staged = append(staged, StagedChunk{
			WorkAcronym:        e.target,
			Topics:             []string{},
			ChapterTitle:       normalizeString(entry.ChapterTitle),
			ChapterNumber:      normalizeNumber(entry.ChapterNumber),
			SectionTitle:       normalizeString(entry.SectionTitle),
			SectionNumber:      normalizeNumber(entry.SectionNumber),
			SubsectionTitle:    normalizeString(entry.SubsectionTitle),
			SubSubsectionTitle: normalizeString(entry.SubSubsectionTitle),
			Question:           normalizeString(entry.Question),
			Content:            entry.Content,
		})
	}

	e.staged = staged
	log.Printf("Staged %d of %d chunks for work %s", len(staged), len(entries), e.target)
	return len(staged), nil
}

// looksLikeArray checks the first non-whitespace byte so a wrong
// top-level shape can be told apart from a genuinely broken file.
func looksLikeArray(raw []byte) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '[':
			return true
		default:
			return false
		}
	}
	return false
}

// normalizeString turns absent or blank values into explicit nils.
func normalizeString(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

// normalizeNumber treats zero the same as absent, matching the
// uploaded file convention.
func normalizeNumber(n *int) *int {
	if n == nil || *n == 0 {
		return nil
	}
	return n
}
