package services

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/anj-alii/learniverse-skillbridge-33/internal/models"
	"github.com/anj-alii/learniverse-skillbridge-33/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// memDB is an in-memory stand-in for the Postgres schema. Transactions are
// serialized and rolled back by restoring a snapshot, so concurrency tests
// against it cannot exercise row locking.
type memDB struct {
	txMu   sync.Mutex
	dataMu sync.Mutex

	users         map[uuid.UUID]models.User
	skills        map[uuid.UUID]models.Skill
	swaps         []models.SwapSession
	journal       []models.CreditTransaction
	conversations []models.Conversation
	messages      []models.ChatMessage

	consumeErr    error
	swapCreateErr error
	journalErr    error
	beginErr      error
	commits       int
	rollbacks     int
}

func newMemDB() *memDB {
	return &memDB{
		users:  make(map[uuid.UUID]models.User),
		skills: make(map[uuid.UUID]models.Skill),
	}
}

func (db *memDB) addUser(name string, credits int) uuid.UUID {
	db.dataMu.Lock()
	defer db.dataMu.Unlock()

	id := uuid.New()
	db.users[id] = models.User{ID: id, Name: name, Email: strings.ToLower(name) + "@example.com", Credits: credits}
	return id
}

func (db *memDB) addSkill(instructorID uuid.UUID, title, category, level string) models.Skill {
	db.dataMu.Lock()
	defer db.dataMu.Unlock()

	skill := models.Skill{
		ID:           uuid.New(),
		InstructorID: instructorID,
		Title:        title,
		Description:  title + " description",
		Category:     category,
		Level:        level,
		Format:       "live",
		Price:        1,
		IsActive:     true,
		CreatedAt:    time.Now().Add(time.Duration(len(db.skills)) * time.Second),
	}
	db.skills[skill.ID] = skill
	return skill
}

func (db *memDB) balance(userID uuid.UUID) int {
	db.dataMu.Lock()
	defer db.dataMu.Unlock()
	return db.users[userID].Credits
}

func (db *memDB) swapCount() int {
	db.dataMu.Lock()
	defer db.dataMu.Unlock()
	return len(db.swaps)
}

func (db *memDB) journalEntries() []models.CreditTransaction {
	db.dataMu.Lock()
	defer db.dataMu.Unlock()
	return slices.Clone(db.journal)
}

type memSnapshot struct {
	users         map[uuid.UUID]models.User
	skills        map[uuid.UUID]models.Skill
	swaps         []models.SwapSession
	journal       []models.CreditTransaction
	conversations []models.Conversation
	messages      []models.ChatMessage
}

func (db *memDB) snapshot() memSnapshot {
	db.dataMu.Lock()
	defer db.dataMu.Unlock()

	users := make(map[uuid.UUID]models.User, len(db.users))
	for id, user := range db.users {
		users[id] = user
	}
	skills := make(map[uuid.UUID]models.Skill, len(db.skills))
	for id, skill := range db.skills {
		skills[id] = skill
	}
	return memSnapshot{
		users:         users,
		skills:        skills,
		swaps:         slices.Clone(db.swaps),
		journal:       slices.Clone(db.journal),
		conversations: slices.Clone(db.conversations),
		messages:      slices.Clone(db.messages),
	}
}

func (db *memDB) restore(snap memSnapshot) {
	db.dataMu.Lock()
	defer db.dataMu.Unlock()

	db.users = snap.users
	db.skills = snap.skills
	db.swaps = snap.swaps
	db.journal = snap.journal
	db.conversations = snap.conversations
	db.messages = snap.messages
}

func (db *memDB) WithinTx(ctx context.Context, fn func(stores TxStores) error) error {
	if db.beginErr != nil {
		return db.beginErr
	}
	db.txMu.Lock()
	defer db.txMu.Unlock()

	snap := db.snapshot()
	err := fn(TxStores{
		Users:         memUsers{db},
		Credits:       memCredits{db},
		Skills:        memSkills{db},
		Swaps:         memSwaps{db},
		Conversations: memConversations{db},
		Messages:      memMessages{db},
	})
	if err != nil {
		db.restore(snap)
		db.rollbacks++
		return err
	}
	db.commits++
	return nil
}

func (v memCredits) ConsumeOne(_ context.Context, userID uuid.UUID) (int, error) {
	db := v.db
	db.dataMu.Lock()
	defer db.dataMu.Unlock()

	if db.consumeErr != nil {
		return 0, db.consumeErr
	}
	user, ok := db.users[userID]
	if !ok || user.Credits <= 0 {
		return 0, pgx.ErrNoRows
	}
	user.Credits--
	db.users[userID] = user
	return user.Credits, nil
}

func (v memCredits) Add(_ context.Context, userID uuid.UUID, amount int) (int, error) {
	db := v.db
	db.dataMu.Lock()
	defer db.dataMu.Unlock()

	user, ok := db.users[userID]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	user.Credits += amount
	db.users[userID] = user
	return user.Credits, nil
}

func (v memCredits) GetBalance(_ context.Context, userID uuid.UUID) (int, error) {
	db := v.db
	db.dataMu.Lock()
	defer db.dataMu.Unlock()

	user, ok := db.users[userID]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	return user.Credits, nil
}

func (v memCredits) RecordTransaction(
	_ context.Context,
	input repository.CreateCreditTransactionInput,
) (*models.CreditTransaction, error) {
	db := v.db
	db.dataMu.Lock()
	defer db.dataMu.Unlock()

	if db.journalErr != nil {
		return nil, db.journalErr
	}
	tx := models.CreditTransaction{
		ID:           int64(len(db.journal) + 1),
		UserID:       input.UserID,
		Delta:        input.Delta,
		Reason:       input.Reason,
		BalanceAfter: input.BalanceAfter,
		SessionID:    input.SessionID,
		SkillID:      input.SkillID,
		CreatedAt:    time.Now(),
	}
	db.journal = append(db.journal, tx)
	return &tx, nil
}

func (v memCredits) ListTransactions(
	_ context.Context,
	userID uuid.UUID,
	limit int,
	offset int,
) ([]models.CreditTransaction, int, error) {
	db := v.db
	db.dataMu.Lock()
	defer db.dataMu.Unlock()

	matching := make([]models.CreditTransaction, 0)
	for i := len(db.journal) - 1; i >= 0; i-- {
		if db.journal[i].UserID == userID {
			matching = append(matching, db.journal[i])
		}
	}
	return paginate(matching, limit, offset), len(matching), nil
}

func (v memSwaps) Create(_ context.Context, input repository.CreateSwapSessionInput) (*models.SwapSession, error) {
	db := v.db
	db.dataMu.Lock()
	defer db.dataMu.Unlock()

	if db.swapCreateErr != nil {
		return nil, db.swapCreateErr
	}
	for _, session := range db.swaps {
		if session.SkillID == input.SkillID && session.StudentID == input.StudentID && session.IsPending() {
			return nil, &pgconn.PgError{Code: pgUniqueViolation}
		}
	}
	session := models.SwapSession{
		ID:           uuid.New(),
		SkillID:      input.SkillID,
		InstructorID: input.InstructorID,
		StudentID:    input.StudentID,
		Status:       models.SwapStatusPending,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	db.swaps = append(db.swaps, session)
	return &session, nil
}

func (v memSwaps) HasPending(_ context.Context, skillID, studentID uuid.UUID) (bool, error) {
	db := v.db
	db.dataMu.Lock()
	defer db.dataMu.Unlock()

	for _, session := range db.swaps {
		if session.SkillID == skillID && session.StudentID == studentID && session.IsPending() {
			return true, nil
		}
	}
	return false, nil
}

func (v memSwaps) GetDetailByID(_ context.Context, sessionID uuid.UUID) (*models.SwapSessionDetail, error) {
	db := v.db
	db.dataMu.Lock()
	defer db.dataMu.Unlock()

	for _, session := range db.swaps {
		if session.ID == sessionID {
			detail := db.detailLocked(session)
			return &detail, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (v memSwaps) ListForParticipant(
	_ context.Context,
	filter repository.SwapListFilter,
) ([]models.SwapSessionDetail, error) {
	db := v.db
	db.dataMu.Lock()
	defer db.dataMu.Unlock()

	details := make([]models.SwapSessionDetail, 0)
	for i := len(db.swaps) - 1; i >= 0; i-- {
		session := db.swaps[i]
		switch filter.Role {
		case "student":
			if session.StudentID != filter.ParticipantID {
				continue
			}
		case "instructor":
			if session.InstructorID != filter.ParticipantID {
				continue
			}
		default:
			if !session.HasParticipant(filter.ParticipantID) {
				continue
			}
		}
		if filter.Status != "" && session.Status != filter.Status {
			continue
		}
		details = append(details, db.detailLocked(session))
	}
	return details, nil
}

func (db *memDB) detailLocked(session models.SwapSession) models.SwapSessionDetail {
	skill := db.skills[session.SkillID]
	return models.SwapSessionDetail{
		SwapSession:    session,
		SkillTitle:     skill.Title,
		SkillCategory:  skill.Category,
		SkillLevel:     skill.Level,
		InstructorName: db.users[session.InstructorID].Name,
		StudentName:    db.users[session.StudentID].Name,
	}
}

func (v memUsers) CreateUser(_ context.Context, user *models.User) error {
	db := v.db
	db.dataMu.Lock()
	defer db.dataMu.Unlock()

	for _, existing := range db.users {
		if existing.Email == user.Email {
			return &pgconn.PgError{Code: pgUniqueViolation}
		}
	}
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	db.users[user.ID] = *user
	return nil
}

func (v memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	db := v.db
	db.dataMu.Lock()
	defer db.dataMu.Unlock()

	for _, user := range db.users {
		if user.Email == email {
			found := user
			return &found, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (v memUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	db := v.db
	db.dataMu.Lock()
	defer db.dataMu.Unlock()

	user, ok := db.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (v memUsers) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	db := v.db
	db.dataMu.Lock()
	defer db.dataMu.Unlock()

	_, ok := db.users[id]
	return ok, nil
}

func (v memUsers) UpdatePartial(_ context.Context, id uuid.UUID, input repository.UpdateUserInput) (*models.User, error) {
	db := v.db
	db.dataMu.Lock()
	defer db.dataMu.Unlock()

	user, ok := db.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Interests != nil {
		user.Interests = *input.Interests
	}
	if input.AvatarURL != nil {
		user.AvatarURL = input.AvatarURL
	}
	db.users[id] = user
	return &user, nil
}

func (v memUsers) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	db := v.db
	db.dataMu.Lock()
	defer db.dataMu.Unlock()

	user, ok := db.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.PasswordHash = passwordHash
	db.users[id] = user
	return nil
}

func (v memUsers) ListMatchCandidates(_ context.Context, excludeID uuid.UUID, limit int) ([]models.ProfileMatch, error) {
	db := v.db
	db.dataMu.Lock()
	defer db.dataMu.Unlock()

	candidates := make([]models.ProfileMatch, 0)
	for _, user := range db.users {
		if user.ID == excludeID {
			continue
		}
		teach := make([]string, 0)
		for _, skill := range db.skills {
			if skill.InstructorID == user.ID && skill.IsActive {
				teach = append(teach, skill.Title)
			}
		}
		slices.Sort(teach)
		candidates = append(candidates, models.ProfileMatch{
			UserID:        user.ID,
			Name:          user.Name,
			SkillsToTeach: teach,
			SkillsToLearn: user.Interests,
		})
	}
	slices.SortFunc(candidates, func(a, b models.ProfileMatch) int {
		return strings.Compare(a.Name, b.Name)
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

type memCredits struct{ db *memDB }

type memSwaps struct{ db *memDB }

type memUsers struct{ db *memDB }

type memSkills struct{ db *memDB }

func (s memSkills) Create(_ context.Context, input repository.CreateSkillInput) (*models.Skill, error) {
	s.db.dataMu.Lock()
	defer s.db.dataMu.Unlock()

	if _, ok := s.db.users[input.InstructorID]; !ok {
		return nil, &pgconn.PgError{Code: "23503"}
	}
	skill := models.Skill{
		ID:           uuid.New(),
		InstructorID: input.InstructorID,
		Title:        input.Title,
		Description:  input.Description,
		Category:     input.Category,
		Level:        input.Level,
		Format:       input.Format,
		Duration:     input.Duration,
		Price:        input.Price,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	s.db.skills[skill.ID] = skill
	return &skill, nil
}

func (s memSkills) GetByID(_ context.Context, skillID uuid.UUID) (*models.Skill, error) {
	s.db.dataMu.Lock()
	defer s.db.dataMu.Unlock()

	skill, ok := s.db.skills[skillID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &skill, nil
}

func (s memSkills) GetListingByID(_ context.Context, skillID uuid.UUID) (*models.SkillListing, error) {
	s.db.dataMu.Lock()
	defer s.db.dataMu.Unlock()

	skill, ok := s.db.skills[skillID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &models.SkillListing{Skill: skill, InstructorName: s.db.users[skill.InstructorID].Name}, nil
}

func (s memSkills) List(_ context.Context, filter repository.SkillListFilter) ([]models.SkillListing, int, error) {
	s.db.dataMu.Lock()
	defer s.db.dataMu.Unlock()

	listings := make([]models.SkillListing, 0)
	for _, skill := range s.db.sortedSkillsLocked() {
		if !skill.IsActive {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(skill.Title), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.Level != "" && skill.Level != filter.Level {
			continue
		}
		listings = append(listings, models.SkillListing{Skill: skill, InstructorName: s.db.users[skill.InstructorID].Name})
	}
	return paginate(listings, filter.Limit, filter.Offset), len(listings), nil
}

func (s memSkills) ListByInstructor(_ context.Context, instructorID uuid.UUID) ([]models.Skill, error) {
	s.db.dataMu.Lock()
	defer s.db.dataMu.Unlock()

	skills := make([]models.Skill, 0)
	for _, skill := range s.db.sortedSkillsLocked() {
		if skill.InstructorID == instructorID {
			skills = append(skills, skill)
		}
	}
	return skills, nil
}

func (s memSkills) ListActive(_ context.Context, excludeInstructorID uuid.UUID, limit int) ([]models.SkillListing, error) {
	s.db.dataMu.Lock()
	defer s.db.dataMu.Unlock()

	listings := make([]models.SkillListing, 0)
	for _, skill := range s.db.sortedSkillsLocked() {
		if !skill.IsActive || skill.InstructorID == excludeInstructorID {
			continue
		}
		listings = append(listings, models.SkillListing{Skill: skill, InstructorName: s.db.users[skill.InstructorID].Name})
	}
	if len(listings) > limit {
		listings = listings[:limit]
	}
	return listings, nil
}

func (s memSkills) Facets(context.Context) (*models.SkillFacets, error) {
	return &models.SkillFacets{}, nil
}

func (s memSkills) UpdateImage(_ context.Context, skillID uuid.UUID, imageURL string) (*models.Skill, error) {
	s.db.dataMu.Lock()
	defer s.db.dataMu.Unlock()

	skill, ok := s.db.skills[skillID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	skill.ImageURL = &imageURL
	s.db.skills[skillID] = skill
	return &skill, nil
}

type memConversations struct{ db *memDB }

func (c memConversations) Open(_ context.Context, studentID, instructorID uuid.UUID) (*models.Conversation, error) {
	c.db.dataMu.Lock()
	defer c.db.dataMu.Unlock()

	for _, conversation := range c.db.conversations {
		if conversation.StudentID == studentID && conversation.InstructorID == instructorID {
			found := conversation
			return &found, nil
		}
	}
	conversation := models.Conversation{
		ID:           uuid.New(),
		StudentID:    studentID,
		InstructorID: instructorID,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	c.db.conversations = append(c.db.conversations, conversation)
	return &conversation, nil
}

func (c memConversations) GetForParticipant(
	_ context.Context,
	conversationID uuid.UUID,
	participantID uuid.UUID,
) (*models.Conversation, error) {
	c.db.dataMu.Lock()
	defer c.db.dataMu.Unlock()

	for _, conversation := range c.db.conversations {
		if conversation.ID == conversationID &&
			(conversation.StudentID == participantID || conversation.InstructorID == participantID) {
			found := conversation
			return &found, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (c memConversations) ListForParticipant(
	_ context.Context,
	participantID uuid.UUID,
) ([]models.ConversationSummary, error) {
	c.db.dataMu.Lock()
	defer c.db.dataMu.Unlock()

	summaries := make([]models.ConversationSummary, 0)
	for _, conversation := range c.db.conversations {
		if conversation.StudentID == participantID || conversation.InstructorID == participantID {
			summaries = append(summaries, models.ConversationSummary{Conversation: conversation})
		}
	}
	return summaries, nil
}

func (c memConversations) Touch(_ context.Context, conversationID uuid.UUID) error {
	c.db.dataMu.Lock()
	defer c.db.dataMu.Unlock()

	for i := range c.db.conversations {
		if c.db.conversations[i].ID == conversationID {
			c.db.conversations[i].UpdatedAt = time.Now()
		}
	}
	return nil
}

type memMessages struct{ db *memDB }

func (m memMessages) Create(
	_ context.Context,
	conversationID uuid.UUID,
	senderID uuid.UUID,
	content string,
) (*models.ChatMessage, error) {
	m.db.dataMu.Lock()
	defer m.db.dataMu.Unlock()

	message := models.ChatMessage{
		ID:             int64(len(m.db.messages) + 1),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      time.Now(),
	}
	m.db.messages = append(m.db.messages, message)
	return &message, nil
}

func (m memMessages) ListPage(
	_ context.Context,
	conversationID uuid.UUID,
	limit int,
	offset int,
) ([]models.ChatMessage, int, error) {
	m.db.dataMu.Lock()
	defer m.db.dataMu.Unlock()

	matching := make([]models.ChatMessage, 0)
	for i := len(m.db.messages) - 1; i >= 0; i-- {
		if m.db.messages[i].ConversationID == conversationID {
			matching = append(matching, m.db.messages[i])
		}
	}
	return slices.Clone(paginate(matching, limit, offset)), len(matching), nil
}

func (m memMessages) MarkRead(_ context.Context, messageIDs []int64, readerID uuid.UUID) error {
	m.db.dataMu.Lock()
	defer m.db.dataMu.Unlock()

	for i := range m.db.messages {
		if slices.Contains(messageIDs, m.db.messages[i].ID) && m.db.messages[i].SenderID != readerID {
			m.db.messages[i].IsRead = true
		}
	}
	return nil
}

// sortedSkillsLocked returns skills newest first.
func (db *memDB) sortedSkillsLocked() []models.Skill {
	skills := make([]models.Skill, 0, len(db.skills))
	for _, skill := range db.skills {
		skills = append(skills, skill)
	}
	slices.SortFunc(skills, func(a, b models.Skill) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return skills
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

var errStoreDown = errors.New("connection refused")
