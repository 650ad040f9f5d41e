package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"

	"veritas-desktop/internal/api"
)

// Service is the client of the back-office catalog endpoints: works,
// authors, topics, study notes, synonyms and chunks, plus the
// dashboard aggregates. It only issues requests; authorization is
// enforced by the backend and mirrored in the UI through role gating.
type Service struct {
	client *api.Client
}

// NewService creates a new catalog service
func NewService(client *api.Client) *Service {
	return &Service{client: client}
}

func itoa(v int) string { return strconv.Itoa(v) }

// listPage fetches one page of a listing endpoint.
func listPage[T any](client *api.Client, endpoint string, query ListQuery) (*Page[T], error) {
	resp, err := client.Get(endpoint, query.params())
	if err != nil {
		return nil, err
	}
	var page Page[T]
	if err := json.Unmarshal(resp.Body(), &page); err != nil {
		return nil, fmt.Errorf("catalog: failed to parse page: %w", err)
	}
	return &page, nil
}

// getJSON fetches a single entity.
func getJSON[T any](client *api.Client, endpoint string) (*T, error) {
	resp, err := client.Get(endpoint, nil)
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("catalog: failed to parse response: %w", err)
	}
	return &out, nil
}

// postJSON creates an entity and decodes the created representation.
func postJSON[T any](client *api.Client, endpoint string, payload interface{}) (*T, error) {
	resp, err := client.Post(endpoint, payload)
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("catalog: failed to parse response: %w", err)
	}
	return &out, nil
}

// Works

func (s *Service) ListWorks(query ListQuery) (*Page[Work], error) {
	return listPage[Work](s.client, "/admin/works", query)
}

func (s *Service) GetWork(id int64) (*Work, error) {
	return getJSON[Work](s.client, fmt.Sprintf("/admin/works/%d", id))
}

func (s *Service) CreateWork(input WorkInput) (*Work, error) {
	return postJSON[Work](s.client, "/admin/works", input)
}

func (s *Service) UpdateWork(id int64, input WorkInput) error {
	_, err := s.client.Put(fmt.Sprintf("/admin/works/%d", id), input)
	return err
}

func (s *Service) DeleteWork(id int64) error {
	_, err := s.client.Delete(fmt.Sprintf("/admin/works/%d", id), nil)
	return err
}

// Authors

func (s *Service) ListAuthors(query ListQuery) (*Page[Author], error) {
	return listPage[Author](s.client, "/admin/authors", query)
}

func (s *Service) CreateAuthor(input AuthorInput) (*Author, error) {
	return postJSON[Author](s.client, "/admin/authors", input)
}

func (s *Service) UpdateAuthor(id int64, input AuthorInput) error {
	_, err := s.client.Put(fmt.Sprintf("/admin/authors/%d", id), input)
	return err
}

func (s *Service) DeleteAuthor(id int64) error {
	_, err := s.client.Delete(fmt.Sprintf("/admin/authors/%d", id), nil)
	return err
}

// Topics

func (s *Service) ListTopics(query ListQuery) (*Page[Topic], error) {
	return listPage[Topic](s.client, "/admin/topics", query)
}

// ListAllTopics returns the unpaged topic list used by pickers.
func (s *Service) ListAllTopics() ([]Topic, error) {
	resp, err := s.client.Get("/admin/topics/all", nil)
	if err != nil {
		return nil, err
	}
	var topics []Topic
	if err := json.Unmarshal(resp.Body(), &topics); err != nil {
		return nil, fmt.Errorf("catalog: failed to parse topics: %w", err)
	}
	return topics, nil
}

func (s *Service) CreateTopic(input TopicInput) (*Topic, error) {
	return postJSON[Topic](s.client, "/admin/topics", input)
}

func (s *Service) UpdateTopic(id int64, input TopicInput) error {
	_, err := s.client.Put(fmt.Sprintf("/admin/topics/%d", id), input)
	return err
}

func (s *Service) DeleteTopic(id int64) error {
	_, err := s.client.Delete(fmt.Sprintf("/admin/topics/%d", id), nil)
	return err
}

// Study notes

func (s *Service) ListStudyNotes(query ListQuery) (*Page[StudyNote], error) {
	return listPage[StudyNote](s.client, "/admin/studynotes", query)
}

func (s *Service) GetStudyNote(id int64) (*StudyNote, error) {
	return getJSON[StudyNote](s.client, fmt.Sprintf("/admin/studynotes/%d", id))
}

// ListStudyNoteSources returns the distinct sources for the filter
// dropdown.
func (s *Service) ListStudyNoteSources() ([]string, error) {
	resp, err := s.client.Get("/admin/studynotes/sources", nil)
	if err != nil {
		return nil, err
	}
	var sources []string
	if err := json.Unmarshal(resp.Body(), &sources); err != nil {
		return nil, fmt.Errorf("catalog: failed to parse sources: %w", err)
	}
	return sources, nil
}

func (s *Service) CreateStudyNote(input StudyNoteInput) (*StudyNote, error) {
	return postJSON[StudyNote](s.client, "/admin/studynotes", input)
}

func (s *Service) UpdateStudyNote(id int64, input StudyNoteInput) error {
	_, err := s.client.Put(fmt.Sprintf("/admin/studynotes/%d", id), input)
	return err
}

func (s *Service) DeleteStudyNote(id int64) error {
	_, err := s.client.Delete(fmt.Sprintf("/admin/studynotes/%d", id), nil)
	return err
}

// Synonyms

func (s *Service) ListSynonyms(query ListQuery) (*Page[Synonym], error) {
	return listPage[Synonym](s.client, "/admin/synonyms", query)
}

func (s *Service) CreateSynonym(input SynonymInput) (*Synonym, error) {
	return postJSON[Synonym](s.client, "/admin/synonyms", input)
}

func (s *Service) DeleteSynonym(id int64) error {
	_, err := s.client.Delete(fmt.Sprintf("/admin/synonyms/%d", id), nil)
	return err
}

// Chunks

func (s *Service) ListWorkChunks(workID int64, query ListQuery) (*Page[Chunk], error) {
	return listPage[Chunk](s.client, fmt.Sprintf("/admin/works/%d/chunks", workID), query)
}

func (s *Service) GetChunk(id int64) (*Chunk, error) {
	return getJSON[Chunk](s.client, fmt.Sprintf("/admin/chunks/%d", id))
}

func (s *Service) CreateChunk(workID int64, input ChunkInput) (*Chunk, error) {
	return postJSON[Chunk](s.client, fmt.Sprintf("/admin/works/%d/chunks", workID), input)
}

func (s *Service) UpdateChunk(id int64, input ChunkInput) error {
	_, err := s.client.Put(fmt.Sprintf("/admin/chunks/%d", id), input)
	return err
}

func (s *Service) DeleteChunk(id int64) error {
	_, err := s.client.Delete(fmt.Sprintf("/admin/chunks/%d", id), nil)
	return err
}

// BulkDeleteChunks removes several chunks at once. Admin only.
func (s *Service) BulkDeleteChunks(ids []int64) error {
	_, err := s.client.Delete("/admin/chunks/bulk-delete", map[string][]int64{"ids": ids})
	return err
}

// BulkAddTopics tags several chunks with topics at once. Admin only.
func (s *Service) BulkAddTopics(chunkIDs, topicIDs []int64) error {
	_, err := s.client.Post("/admin/chunks/bulk-add-topics", map[string][]int64{
		"chunkIds": chunkIDs,
		"topicIds": topicIDs,
	})
	return err
}

// Dashboard

func (s *Service) DashboardStats() (*DashboardStats, error) {
	return getJSON[DashboardStats](s.client, "/admin/dashboard/stats")
}
