package main

import (
	"context"
	"errors"
	"log"
	"os"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/runtime"
	"gorm.io/gorm"

	"veritas-desktop/internal/api"
	"veritas-desktop/internal/auth"
	"veritas-desktop/internal/crypto"
	"veritas-desktop/internal/database"
	"veritas-desktop/internal/models"
	"veritas-desktop/internal/services/catalog"
	"veritas-desktop/internal/services/chat"
	"veritas-desktop/internal/services/importer"
	"veritas-desktop/internal/services/reader"
	"veritas-desktop/internal/services/scheduler"
	"veritas-desktop/internal/services/staging"
)

// App struct - main application state
type App struct {
	ctx context.Context
	db  *gorm.DB

	client        *api.Client
	sessionSource *storedSessionSource
	authProvider  *auth.Provider

	stagingEngine    *staging.Engine
	importService    *importer.Service
	catalogService   *catalog.Service
	chatService      *chat.Service
	readerService    *reader.Service
	schedulerService *scheduler.Service
}

// NewApp creates a new App application struct
func NewApp() *App {
	return &App{}
}

// startup is called when the app starts. The context is saved
// so we can call the runtime methods
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	log.Println("Application starting up...")

	// Initialize encryption (FATAL if this fails - we cannot keep tokens at rest without it)
	if err := crypto.InitEncryption(); err != nil {
		log.Fatalf("FATAL: Encryption initialization failed: %v\nSessions cannot be restored without encryption.", err)
	}
	log.Println("Encryption initialized successfully")

	// Initialize database
	db, err := database.Init()
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	a.db = db
	log.Println("Database initialized successfully")

	// Initialize the backend gateway
	baseURL := os.Getenv("VERITAS_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	a.client = api.NewClient(baseURL)
	log.Printf("API gateway initialized for %s", baseURL)

	// Initialize services
	a.stagingEngine = staging.NewEngine()

	a.importService = importer.NewService(a.client, a.stagingEngine)
	a.importService.SetDatabase(db)
	a.importService.SetEvents(func(event string, payload interface{}) {
		runtime.EventsEmit(a.ctx, event, payload)
	})
	log.Println("Import service initialized")

	a.catalogService = catalog.NewService(a.client)
	a.chatService = chat.NewService(a.client)
	a.readerService = reader.NewService(a.client)
	log.Println("Catalog, chat and reader services initialized")

	a.schedulerService = scheduler.NewService(db, a.catalogService)
	if err := a.schedulerService.Start(); err != nil {
		log.Printf("WARNING: Failed to start scheduler: %v", err)
	} else {
		log.Println("Scheduler service initialized and started")
	}

	// Restore the last session and follow auth changes pushed by the frontend
	a.sessionSource = &storedSessionSource{db: db}
	a.authProvider = auth.NewProvider(a.sessionSource)
	a.authProvider.Subscribe(func(session *auth.Session) {
		token := ""
		if session != nil {
			token = session.AccessToken
		}
		a.client.SetToken(token)
		runtime.EventsEmit(a.ctx, "auth:changed", a.GetSessionInfo())
	})
	go a.authProvider.Start(ctx)

	log.Println("Startup complete")
}

// shutdown is called when the app is closing
func (a *App) shutdown(ctx context.Context) {
	log.Println("Application shutting down...")

	// Stop the import monitor before anything it reports to
	if a.importService != nil {
		a.importService.Close()
	}

	if a.authProvider != nil {
		a.authProvider.Close()
	}

	// Stop scheduler
	if a.schedulerService != nil {
		a.schedulerService.Stop()
	}

	// Close database
	if err := database.Close(); err != nil {
		log.Printf("Error closing database: %v", err)
	}

	log.Println("Shutdown complete")
}

// ====================================================================================
// WAILS-BOUND METHODS - Exposed to Frontend
// ====================================================================================

// Session Methods

// SignIn accepts the bearer token obtained by the frontend and makes it
// the current session. The token is persisted encrypted so the session
// survives a restart.
func (a *App) SignIn(token string) (SessionInfo, error) {
	session := auth.SessionFromToken(token)
	if session == nil {
		return a.GetSessionInfo(), errors.New("token de acesso inválido")
	}

	if err := a.persistToken(token); err != nil {
		log.Printf("WARNING: Failed to persist session token: %v", err)
	}

	a.sessionSource.emit(session)
	return a.GetSessionInfo(), nil
}

// SignOut drops the current session and the stored token.
func (a *App) SignOut() SessionInfo {
	if err := a.persistToken(""); err != nil {
		log.Printf("WARNING: Failed to clear stored token: %v", err)
	}
	a.sessionSource.emit(nil)
	return a.GetSessionInfo()
}

// GetSessionInfo reports the session state the frontend renders from:
// loading flag, identity and derived permissions.
func (a *App) GetSessionInfo() SessionInfo {
	session := a.authProvider.Session()
	roles := auth.RolesFromSession(session)

	info := SessionInfo{
		Loading:     a.authProvider.Loading(),
		SignedIn:    session != nil,
		IsAdmin:     roles.IsAdmin(),
		CanModerate: roles.CanModerate(),
	}
	if session != nil {
		info.User = &session.User
	}
	for role := range roles {
		info.Roles = append(info.Roles, role)
	}
	return info
}

func (a *App) requireModerator() error {
	roles := auth.RolesFromSession(a.authProvider.Session())
	if !roles.CanModerate() {
		return errors.New("acesso negado: permissão de moderador necessária")
	}
	return nil
}

func (a *App) requireAdmin() error {
	roles := auth.RolesFromSession(a.authProvider.Session())
	if !roles.IsAdmin() {
		return errors.New("acesso negado: permissão de administrador necessária")
	}
	return nil
}

// Server Profile Methods

// ListServerProfiles returns all known backend profiles
func (a *App) ListServerProfiles() ([]models.ServerProfile, error) {
	var profiles []models.ServerProfile
	if err := a.db.Order("updated_at DESC").Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

// SaveServerProfile creates or updates a backend profile by name. The
// token, when given, is encrypted before it touches the database.
func (a *App) SaveServerProfile(req SaveProfileRequest) error {
	if !crypto.IsInitialized() {
		return errors.New("encryption system not initialized - cannot save profiles")
	}

	var profile models.ServerProfile
	err := a.db.Where("name = ?", req.Name).First(&profile).Error
	isNew := errors.Is(err, gorm.ErrRecordNotFound)
	if err != nil && !isNew {
		return err
	}

	profile.Name = req.Name
	profile.BaseURL = req.BaseURL
	if req.Token != "" {
		tokenEnc, err := crypto.EncryptToken(req.Token)
		if err != nil {
			return err
		}
		profile.TokenEnc = tokenEnc
	}

	if isNew {
		return a.db.Create(&profile).Error
	}
	return a.db.Save(&profile).Error
}

// DeleteServerProfile deletes a backend profile
func (a *App) DeleteServerProfile(profileID string) error {
	return a.db.Where("id = ?", profileID).Delete(&models.ServerProfile{}).Error
}

// SelectServerProfile points the gateway at the given profile's backend
// and restores its stored session, if any.
func (a *App) SelectServerProfile(profileID string) error {
	var profile models.ServerProfile
	if err := a.db.Where("id = ?", profileID).First(&profile).Error; err != nil {
		return err
	}

	a.client.SetBaseURL(profile.BaseURL)
	log.Printf("Selected server profile: %s (%s)", profile.Name, profile.BaseURL)

	// Touch the profile so session restore prefers it next launch
	if err := a.db.Save(&profile).Error; err != nil {
		log.Printf("WARNING: Failed to update profile: %v", err)
	}

	var session *auth.Session
	if profile.TokenEnc != "" {
		token, err := crypto.DecryptToken(profile.TokenEnc)
		if err != nil {
			log.Printf("WARNING: Failed to decrypt stored token: %v", err)
		} else {
			session = auth.SessionFromToken(token)
		}
	}
	a.sessionSource.emit(session)
	return nil
}

// Import Workflow Methods

// SelectWork sets the destination work for the next staged file
func (a *App) SelectWork(workAcronym string) {
	a.stagingEngine.SelectTarget(workAcronym)
}

// GetSelectedWork returns the current destination work acronym
func (a *App) GetSelectedWork() string {
	return a.stagingEngine.Target()
}

// StageImportFile parses a selected JSON file and stages its chunks for
// import, replacing anything staged before.
func (a *App) StageImportFile(content string) (StageResult, error) {
	count, err := a.stagingEngine.StageFile([]byte(content))
	if err != nil {
		return StageResult{}, err
	}
	return StageResult{Count: count}, nil
}

// GetStagedCount returns how many chunks are staged for import
func (a *App) GetStagedCount() int {
	return a.stagingEngine.Count()
}

// ClearStagedChunks discards the staged chunks but keeps the selected work
func (a *App) ClearStagedChunks() {
	a.stagingEngine.Clear()
}

// StartImport submits the staged chunks as a bulk-import job and begins
// monitoring it. Progress arrives via "import:task" events.
func (a *App) StartImport() (*importer.ImportTask, error) {
	if err := a.requireAdmin(); err != nil {
		return nil, err
	}
	return a.importService.Submit()
}

// GetImportState returns the importer's workflow position
func (a *App) GetImportState() string {
	return string(a.importService.State())
}

// GetImportTask returns the last observed task snapshot, or nil
func (a *App) GetImportTask() *importer.ImportTask {
	return a.importService.Task()
}

// GetImportView renders the progress screen state for the current task
func (a *App) GetImportView() importer.View {
	return importer.Present(a.importService.Task())
}

// ResetImport returns the importer to idle so another file can be sent
func (a *App) ResetImport() error {
	return a.importService.Reset()
}

// ListImportHistory retrieves recent import jobs from the local mirror
func (a *App) ListImportHistory(limit int) ([]models.ImportTaskRecord, error) {
	if limit <= 0 {
		limit = 10 // Default to 10 most recent jobs
	}

	var records []models.ImportTaskRecord
	if err := a.db.Order("submitted_at DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Catalog Methods

// ListWorks lists works with paging, sorting and search
func (a *App) ListWorks(query catalog.ListQuery) (*catalog.Page[catalog.Work], error) {
	return a.catalogService.ListWorks(query)
}

// GetWork retrieves a single work
func (a *App) GetWork(id int64) (*catalog.Work, error) {
	return a.catalogService.GetWork(id)
}

// CreateWork creates a work
func (a *App) CreateWork(input catalog.WorkInput) (*catalog.Work, error) {
	if err := a.requireAdmin(); err != nil {
		return nil, err
	}
	return a.catalogService.CreateWork(input)
}

// UpdateWork updates a work
func (a *App) UpdateWork(id int64, input catalog.WorkInput) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}
	return a.catalogService.UpdateWork(id, input)
}

// DeleteWork deletes a work
func (a *App) DeleteWork(id int64) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}
	return a.catalogService.DeleteWork(id)
}

// ListAuthors lists authors
func (a *App) ListAuthors(query catalog.ListQuery) (*catalog.Page[catalog.Author], error) {
	return a.catalogService.ListAuthors(query)
}

// CreateAuthor creates an author
func (a *App) CreateAuthor(input catalog.AuthorInput) (*catalog.Author, error) {
	if err := a.requireAdmin(); err != nil {
		return nil, err
	}
	return a.catalogService.CreateAuthor(input)
}

// UpdateAuthor updates an author
func (a *App) UpdateAuthor(id int64, input catalog.AuthorInput) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}
	return a.catalogService.UpdateAuthor(id, input)
}

// DeleteAuthor deletes an author
func (a *App) DeleteAuthor(id int64) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}
	return a.catalogService.DeleteAuthor(id)
}

// ListTopics lists topics with paging
func (a *App) ListTopics(query catalog.ListQuery) (*catalog.Page[catalog.Topic], error) {
	return a.catalogService.ListTopics(query)
}

// ListAllTopics lists every topic, for pickers
func (a *App) ListAllTopics() ([]catalog.Topic, error) {
	return a.catalogService.ListAllTopics()
}

// CreateTopic creates a topic
func (a *App) CreateTopic(input catalog.TopicInput) (*catalog.Topic, error) {
	if err := a.requireAdmin(); err != nil {
		return nil, err
	}
	return a.catalogService.CreateTopic(input)
}

// UpdateTopic updates a topic
func (a *App) UpdateTopic(id int64, input catalog.TopicInput) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}
	return a.catalogService.UpdateTopic(id, input)
}

// DeleteTopic deletes a topic
func (a *App) DeleteTopic(id int64) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}
	return a.catalogService.DeleteTopic(id)
}

// ListStudyNotes lists study notes, optionally filtered by source
func (a *App) ListStudyNotes(query catalog.ListQuery) (*catalog.Page[catalog.StudyNote], error) {
	return a.catalogService.ListStudyNotes(query)
}

// GetStudyNote retrieves a single study note
func (a *App) GetStudyNote(id int64) (*catalog.StudyNote, error) {
	return a.catalogService.GetStudyNote(id)
}

// ListStudyNoteSources lists the distinct note sources for filtering
func (a *App) ListStudyNoteSources() ([]string, error) {
	return a.catalogService.ListStudyNoteSources()
}

// CreateStudyNote creates a study note
func (a *App) CreateStudyNote(input catalog.StudyNoteInput) (*catalog.StudyNote, error) {
	if err := a.requireModerator(); err != nil {
		return nil, err
	}
	return a.catalogService.CreateStudyNote(input)
}

// UpdateStudyNote updates a study note
func (a *App) UpdateStudyNote(id int64, input catalog.StudyNoteInput) error {
	if err := a.requireModerator(); err != nil {
		return err
	}
	return a.catalogService.UpdateStudyNote(id, input)
}

// DeleteStudyNote deletes a study note
func (a *App) DeleteStudyNote(id int64) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}
	return a.catalogService.DeleteStudyNote(id)
}

// ListSynonyms lists search synonyms
func (a *App) ListSynonyms(query catalog.ListQuery) (*catalog.Page[catalog.Synonym], error) {
	return a.catalogService.ListSynonyms(query)
}

// CreateSynonym creates a search synonym
func (a *App) CreateSynonym(input catalog.SynonymInput) (*catalog.Synonym, error) {
	if err := a.requireAdmin(); err != nil {
		return nil, err
	}
	return a.catalogService.CreateSynonym(input)
}

// DeleteSynonym deletes a search synonym
func (a *App) DeleteSynonym(id int64) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}
	return a.catalogService.DeleteSynonym(id)
}

// ListWorkChunks lists the chunks of a work
func (a *App) ListWorkChunks(workID int64, query catalog.ListQuery) (*catalog.Page[catalog.Chunk], error) {
	return a.catalogService.ListWorkChunks(workID, query)
}

// GetChunk retrieves a single chunk
func (a *App) GetChunk(id int64) (*catalog.Chunk, error) {
	return a.catalogService.GetChunk(id)
}

// CreateChunk creates a chunk under a work
func (a *App) CreateChunk(workID int64, input catalog.ChunkInput) (*catalog.Chunk, error) {
	if err := a.requireModerator(); err != nil {
		return nil, err
	}
	return a.catalogService.CreateChunk(workID, input)
}

// UpdateChunk updates a chunk
func (a *App) UpdateChunk(id int64, input catalog.ChunkInput) error {
	if err := a.requireModerator(); err != nil {
		return err
	}
	return a.catalogService.UpdateChunk(id, input)
}

// DeleteChunk deletes a chunk
func (a *App) DeleteChunk(id int64) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}
	return a.catalogService.DeleteChunk(id)
}

// BulkDeleteChunks deletes a batch of chunks in one call
func (a *App) BulkDeleteChunks(ids []int64) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}
	return a.catalogService.BulkDeleteChunks(ids)
}

// BulkAddTopics tags a batch of chunks with topics in one call
func (a *App) BulkAddTopics(chunkIDs, topicIDs []int64) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}
	return a.catalogService.BulkAddTopics(chunkIDs, topicIDs)
}

// GetDashboardStats fetches the backend content counts
func (a *App) GetDashboardStats() (*catalog.DashboardStats, error) {
	return a.catalogService.DashboardStats()
}

// ListStatsSnapshots retrieves local snapshots for trend charts
func (a *App) ListStatsSnapshots(limit int) ([]models.StatsSnapshot, error) {
	if limit <= 0 {
		limit = 30
	}

	var snapshots []models.StatsSnapshot
	if err := a.db.Order("taken_at DESC").Limit(limit).Find(&snapshots).Error; err != nil {
		return nil, err
	}
	return snapshots, nil
}

// Chat Methods

// ListConversations lists the user's chat conversations
func (a *App) ListConversations() ([]chat.Conversation, error) {
	return a.chatService.ListConversations()
}

// GetChatHistory retrieves the messages of a conversation
func (a *App) GetChatHistory(chatID int64) ([]chat.Message, error) {
	return a.chatService.History(chatID)
}

// AskQuestion sends a question to the study assistant. A zero chatID
// starts a new conversation.
func (a *App) AskQuestion(question string, chatID int64) (*chat.Answer, error) {
	return a.chatService.Ask(question, chatID)
}

// Reader Methods

// GetWorkChapter retrieves a chapter of a confessional work for reading
func (a *App) GetWorkChapter(workSlug string, chapter int) ([]reader.Passage, error) {
	return a.readerService.WorkChapter(workSlug, chapter)
}

// GetBibleChapter retrieves a bible chapter with its study notes
func (a *App) GetBibleChapter(book string, chapter int) ([]reader.VerseNote, error) {
	return a.readerService.BibleChapter(book, chapter)
}

// ====================================================================================
// SCHEDULER SERVICE OPERATIONS
// ====================================================================================

// ListScheduledJobs retrieves all scheduled jobs
func (a *App) ListScheduledJobs() ([]scheduler.JobListResponse, error) {
	return a.schedulerService.ListJobs()
}

// UpsertScheduledJob creates or updates a scheduled job
func (a *App) UpsertScheduledJob(req scheduler.UpsertJobRequest) (string, error) {
	return a.schedulerService.UpsertJob(req)
}

// DeleteScheduledJob removes a scheduled job
func (a *App) DeleteScheduledJob(jobID string) error {
	return a.schedulerService.DeleteJob(jobID)
}

// ====================================================================================
// REQUEST/RESPONSE TYPES
// ====================================================================================

// SessionInfo is the session state the frontend renders from
type SessionInfo struct {
	Loading     bool               `json:"loading"`
	SignedIn    bool               `json:"signed_in"`
	User        *auth.UserIdentity `json:"user,omitempty"`
	Roles       []string           `json:"roles"`
	IsAdmin     bool               `json:"is_admin"`
	CanModerate bool               `json:"can_moderate"`
}

// SaveProfileRequest creates or updates a server profile. Token is
// plain text and will be encrypted before storage.
type SaveProfileRequest struct {
	Name    string `json:"name"`
	BaseURL string `json:"base_url"`
	Token   string `json:"token"`
}

// StageResult reports how many chunks a staged file yielded
type StageResult struct {
	Count int `json:"count"`
}

// persistToken stores the encrypted token on the most recently used
// profile so the session survives a restart. No profile, nothing saved.
func (a *App) persistToken(token string) error {
	var profile models.ServerProfile
	err := a.db.Order("updated_at DESC").First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	tokenEnc := ""
	if token != "" {
		tokenEnc, err = crypto.EncryptToken(token)
		if err != nil {
			return err
		}
	}
	profile.TokenEnc = tokenEnc
	return a.db.Save(&profile).Error
}

// storedSessionSource resolves the initial session from the encrypted
// token kept on the most recently used server profile, and relays the
// sign-in/sign-out changes the frontend pushes through the App methods.
type storedSessionSource struct {
	db *gorm.DB

	mu        sync.Mutex
	nextID    int
	listeners map[int]func(*auth.Session)
}

func (s *storedSessionSource) CurrentSession(ctx context.Context) (*auth.Session, error) {
	var profile models.ServerProfile
	err := s.db.WithContext(ctx).Order("updated_at DESC").First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if profile.TokenEnc == "" {
		return nil, nil
	}

	token, err := crypto.DecryptToken(profile.TokenEnc)
	if err != nil {
		return nil, err
	}
	return auth.SessionFromToken(token), nil
}

func (s *storedSessionSource) OnAuthChange(fn func(*auth.Session)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listeners == nil {
		s.listeners = make(map[int]func(*auth.Session))
	}
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *storedSessionSource) emit(session *auth.Session) {
	s.mu.Lock()
	listeners := make([]func(*auth.Session), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(session)
	}
}
