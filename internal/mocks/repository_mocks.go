package mocks

import (
	"context"

	"ghostwriter-server/internal/models"
	"ghostwriter-server/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockWalletRepository is a mock type for the repository.WalletRepository type
type MockWalletRepository struct {
	mock.Mock
}

func (_m *MockWalletRepository) Get(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	ret := _m.Called(ctx, userID)

	var r0 *models.Wallet
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Wallet)
	}
	return r0, ret.Error(1)
}

func (_m *MockWalletRepository) CreateIfAbsent(ctx context.Context, userID uuid.UUID, initialBalance int) error {
	ret := _m.Called(ctx, userID, initialBalance)
	return ret.Error(0)
}

func (_m *MockWalletRepository) DebitIfSufficient(ctx context.Context, userID uuid.UUID, cost int) error {
	ret := _m.Called(ctx, userID, cost)
	return ret.Error(0)
}

func (_m *MockWalletRepository) Credit(ctx context.Context, userID uuid.UUID, amount int) error {
	ret := _m.Called(ctx, userID, amount)
	return ret.Error(0)
}

// NewMockWalletRepository creates a new instance of MockWalletRepository.
func NewMockWalletRepository(t interface {
	mock.TestingT
	Helper()
}) *MockWalletRepository {
	m := &MockWalletRepository{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ repository.WalletRepository = (*MockWalletRepository)(nil)

// MockCharacterRepository is a mock type for the repository.CharacterRepository type
type MockCharacterRepository struct {
	mock.Mock
}

func (_m *MockCharacterRepository) Create(ctx context.Context, character *models.Character) error {
	ret := _m.Called(ctx, character)
	return ret.Error(0)
}

func (_m *MockCharacterRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Character, error) {
	ret := _m.Called(ctx, ids)

	var r0 []models.Character
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]models.Character)
	}
	return r0, ret.Error(1)
}

func (_m *MockCharacterRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Character, error) {
	ret := _m.Called(ctx, userID)

	var r0 []models.Character
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]models.Character)
	}
	return r0, ret.Error(1)
}

func (_m *MockCharacterRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	ret := _m.Called(ctx, id, userID)
	return ret.Error(0)
}

// NewMockCharacterRepository creates a new instance of MockCharacterRepository.
func NewMockCharacterRepository(t interface {
	mock.TestingT
	Helper()
}) *MockCharacterRepository {
	m := &MockCharacterRepository{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ repository.CharacterRepository = (*MockCharacterRepository)(nil)

// MockScenarioRepository is a mock type for the repository.ScenarioRepository type
type MockScenarioRepository struct {
	mock.Mock
}

func (_m *MockScenarioRepository) Create(ctx context.Context, scenario *models.Scenario) error {
	ret := _m.Called(ctx, scenario)
	return ret.Error(0)
}

func (_m *MockScenarioRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Scenario, error) {
	ret := _m.Called(ctx, id)

	var r0 *models.Scenario
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Scenario)
	}
	return r0, ret.Error(1)
}

func (_m *MockScenarioRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Scenario, error) {
	ret := _m.Called(ctx, userID)

	var r0 []models.Scenario
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]models.Scenario)
	}
	return r0, ret.Error(1)
}

func (_m *MockScenarioRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	ret := _m.Called(ctx, id, userID)
	return ret.Error(0)
}

// NewMockScenarioRepository creates a new instance of MockScenarioRepository.
func NewMockScenarioRepository(t interface {
	mock.TestingT
	Helper()
}) *MockScenarioRepository {
	m := &MockScenarioRepository{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ repository.ScenarioRepository = (*MockScenarioRepository)(nil)

// MockStoryRepository is a mock type for the repository.StoryRepository type
type MockStoryRepository struct {
	mock.Mock
}

func (_m *MockStoryRepository) Create(ctx context.Context, story *models.Story) error {
	ret := _m.Called(ctx, story)
	return ret.Error(0)
}

func (_m *MockStoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	ret := _m.Called(ctx, id)

	var r0 *models.Story
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Story)
	}
	return r0, ret.Error(1)
}

func (_m *MockStoryRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Story, error) {
	ret := _m.Called(ctx, userID)

	var r0 []models.Story
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]models.Story)
	}
	return r0, ret.Error(1)
}

func (_m *MockStoryRepository) UpdateAfterEpisode(ctx context.Context, id uuid.UUID, summary string, nextOptions []string, plotNotes string, isFinished bool) error {
	ret := _m.Called(ctx, id, summary, nextOptions, plotNotes, isFinished)
	return ret.Error(0)
}

func (_m *MockStoryRepository) SetPublic(ctx context.Context, id, userID uuid.UUID, isPublic bool) error {
	ret := _m.Called(ctx, id, userID, isPublic)
	return ret.Error(0)
}

func (_m *MockStoryRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	ret := _m.Called(ctx, id, userID)
	return ret.Error(0)
}

// NewMockStoryRepository creates a new instance of MockStoryRepository.
func NewMockStoryRepository(t interface {
	mock.TestingT
	Helper()
}) *MockStoryRepository {
	m := &MockStoryRepository{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ repository.StoryRepository = (*MockStoryRepository)(nil)

// MockStoryContentRepository is a mock type for the repository.StoryContentRepository type
type MockStoryContentRepository struct {
	mock.Mock
}

func (_m *MockStoryContentRepository) Insert(ctx context.Context, content *models.StoryContent) error {
	ret := _m.Called(ctx, content)
	return ret.Error(0)
}

func (_m *MockStoryContentRepository) UpdateAt(ctx context.Context, storyID uuid.UUID, orderIndex int, content string) error {
	ret := _m.Called(ctx, storyID, orderIndex, content)
	return ret.Error(0)
}

func (_m *MockStoryContentRepository) ListByStory(ctx context.Context, storyID uuid.UUID) ([]models.StoryContent, error) {
	ret := _m.Called(ctx, storyID)

	var r0 []models.StoryContent
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]models.StoryContent)
	}
	return r0, ret.Error(1)
}

func (_m *MockStoryContentRepository) LatestIndex(ctx context.Context, storyID uuid.UUID) (int, error) {
	ret := _m.Called(ctx, storyID)
	return ret.Int(0), ret.Error(1)
}

// NewMockStoryContentRepository creates a new instance of MockStoryContentRepository.
func NewMockStoryContentRepository(t interface {
	mock.TestingT
	Helper()
}) *MockStoryContentRepository {
	m := &MockStoryContentRepository{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ repository.StoryContentRepository = (*MockStoryContentRepository)(nil)

// MockGenerationGuard is a mock type for the repository.GenerationGuard type
type MockGenerationGuard struct {
	mock.Mock
}

func (_m *MockGenerationGuard) Acquire(ctx context.Context, userID uuid.UUID) (func(), error) {
	ret := _m.Called(ctx, userID)

	var r0 func()
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(func())
	}
	return r0, ret.Error(1)
}

// NewMockGenerationGuard creates a new instance of MockGenerationGuard.
func NewMockGenerationGuard(t interface {
	mock.TestingT
	Helper()
}) *MockGenerationGuard {
	m := &MockGenerationGuard{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ repository.GenerationGuard = (*MockGenerationGuard)(nil)
