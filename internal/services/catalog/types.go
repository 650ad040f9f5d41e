package catalog

// Work is a source document (confession, catechism, study bible) in
// the backend catalog.
type Work struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	Acronym         string `json:"acronym"`
	Slug            string `json:"slug"`
	Type            string `json:"type"` // CONFISSAO, CATECISMO, BIBLIA
	PublicationYear int    `json:"publicationYear"`
	AuthorID        int64  `json:"authorId"`
	BoostPriority   int    `json:"boostPriority"`
}

// WorkInput is the create/update payload for a work.
type WorkInput struct {
	Title           string `json:"title"`
	Acronym         string `json:"acronym"`
	Type            string `json:"type"`
	PublicationYear int    `json:"publicationYear"`
	AuthorID        int64  `json:"authorId"`
	BoostPriority   int    `json:"boostPriority"`
}

// Author of one or more works.
type Author struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Biography string  `json:"biography"`
	Era       string  `json:"era"`
	BirthDate *string `json:"birthDate"`
	DeathDate *string `json:"deathDate"`
}

// AuthorInput is the create/update payload for an author.
type AuthorInput struct {
	Name      string  `json:"name"`
	Biography string  `json:"biography"`
	Era       string  `json:"era"`
	BirthDate *string `json:"birthDate"`
	DeathDate *string `json:"deathDate"`
}

// Topic tags chunks for retrieval.
type Topic struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// TopicInput is the create/update payload for a topic.
type TopicInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// StudyNote is a verse-anchored study-bible note.
type StudyNote struct {
	ID           int64  `json:"id"`
	Book         string `json:"book"`
	StartChapter int    `json:"startChapter"`
	StartVerse   int    `json:"startVerse"`
	EndChapter   *int   `json:"endChapter"`
	EndVerse     *int   `json:"endVerse"`
	NoteContent  string `json:"noteContent"`
	Source       string `json:"source"`
}

// StudyNoteInput is the create/update payload for a study note.
type StudyNoteInput struct {
	Book         string `json:"book"`
	StartChapter int    `json:"startChapter"`
	StartVerse   int    `json:"startVerse"`
	EndChapter   *int   `json:"endChapter"`
	EndVerse     *int   `json:"endVerse"`
	NoteContent  string `json:"noteContent"`
	Source       string `json:"source"`
}

// Synonym maps a search term to an expansion.
type Synonym struct {
	ID      int64  `json:"id"`
	Term    string `json:"term"`
	Synonym string `json:"synonym"`
}

// SynonymInput is the create payload for a synonym.
type SynonymInput struct {
	Term    string `json:"term"`
	Synonym string `json:"synonym"`
}

// Chunk is an indexed fragment of a work.
type Chunk struct {
	ID            int64   `json:"id"`
	WorkAcronym   string  `json:"workAcronym"`
	ChapterTitle  *string `json:"chapterTitle"`
	ChapterNumber *int    `json:"chapterNumber"`
	SectionTitle  *string `json:"sectionTitle"`
	SectionNumber *int    `json:"sectionNumber"`
	Question      *string `json:"question"`
	Content       string  `json:"content"`
	Topics        []Topic `json:"topics"`
}

// ChunkInput is the create/update payload for a chunk.
type ChunkInput struct {
	ChapterTitle  *string `json:"chapterTitle"`
	ChapterNumber *int    `json:"chapterNumber"`
	SectionTitle  *string `json:"sectionTitle"`
	SectionNumber *int    `json:"sectionNumber"`
	Question      *string `json:"question"`
	Content       string  `json:"content"`
	TopicIDs      []int64 `json:"topicIds"`
}

// Page is the backend's paged response envelope.
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	Number        int   `json:"number"`
}

// ListQuery carries the paging, sorting and filter parameters of the
// admin listing endpoints.
type ListQuery struct {
	Page      int
	Size      int
	SortField string
	SortAsc   bool
	Search    string
	Source    string // study notes only
}

func (q ListQuery) params() map[string]string {
	params := map[string]string{}
	params["page"] = itoa(q.Page)
	if q.Size > 0 {
		params["size"] = itoa(q.Size)
	}
	if q.SortField != "" {
		dir := "desc"
		if q.SortAsc {
			dir = "asc"
		}
		params["sort"] = q.SortField + "," + dir
	}
	if q.Search != "" {
		params["search"] = q.Search
	}
	if q.Source != "" {
		params["source"] = q.Source
	}
	return params
}

// DashboardStats are the aggregate counts shown on the admin dashboard.
type DashboardStats struct {
	TotalWorks          int              `json:"totalWorks"`
	TotalAuthors        int              `json:"totalAuthors"`
	TotalTopics         int              `json:"totalTopics"`
	TotalChunks         int              `json:"totalChunks"`
	ChunksWithoutVector int              `json:"chunksWithoutVector"`
	TotalStudyNotes     int              `json:"totalStudyNotes"`
	NotesWithoutVector  int              `json:"notesWithoutVector"`
	ChunksByWork        []WorkChunkCount `json:"chunksByWork"`
	NotesBySource       []SourceCount    `json:"notesBySource"`
}

// WorkChunkCount is one bar of the chunks-per-work chart.
type WorkChunkCount struct {
	WorkAcronym string `json:"workAcronym"`
	Count       int    `json:"count"`
}

// SourceCount is one slice of the notes-per-source chart.
type SourceCount struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}
