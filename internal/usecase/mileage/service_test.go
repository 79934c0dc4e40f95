package mileage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/frontandrew/fleettrack/internal/domain"
	"github.com/frontandrew/fleettrack/internal/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockVehicleRepo - мок репозитория транспортных средств
type MockVehicleRepo struct {
	mock.Mock
}

func (m *MockVehicleRepo) Create(ctx context.Context, vehicle *domain.Vehicle) error {
	args := m.Called(ctx, vehicle)
	return args.Error(0)
}

func (m *MockVehicleRepo) GetByID(ctx context.Context, id int64) (*domain.Vehicle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Vehicle), args.Error(1)
}

func (m *MockVehicleRepo) List(ctx context.Context) ([]*domain.Vehicle, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Vehicle), args.Error(1)
}

func (m *MockVehicleRepo) Update(ctx context.Context, vehicle *domain.Vehicle) error {
	args := m.Called(ctx, vehicle)
	return args.Error(0)
}

func (m *MockVehicleRepo) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockTokenRepo - мок репозитория одноразовых токенов
type MockTokenRepo struct {
	mock.Mock
}

func (m *MockTokenRepo) Create(ctx context.Context, token *domain.MileageToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockTokenRepo) GetByToken(ctx context.Context, token string) (*domain.MileageToken, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MileageToken), args.Error(1)
}

func (m *MockTokenRepo) GetLatestByVehicle(ctx context.Context, vehicleID int64) (*domain.MileageToken, error) {
	args := m.Called(ctx, vehicleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MileageToken), args.Error(1)
}

// MockEntryRepo - мок репозитория записей пробега
type MockEntryRepo struct {
	mock.Mock
}

func (m *MockEntryRepo) ListByVehicle(ctx context.Context, vehicleID int64, limit int) ([]*domain.MileageEntry, error) {
	args := m.Called(ctx, vehicleID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.MileageEntry), args.Error(1)
}

func (m *MockEntryRepo) GetLatestByVehicle(ctx context.Context, vehicleID int64) (*domain.MileageEntry, error) {
	args := m.Called(ctx, vehicleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MileageEntry), args.Error(1)
}

// MockSubmissionRepo - мок транзакционной записи пробега
type MockSubmissionRepo struct {
	mock.Mock
}

func (m *MockSubmissionRepo) Record(ctx context.Context, tokenID uuid.UUID, entry *domain.MileageEntry) error {
	args := m.Called(ctx, tokenID, entry)
	return args.Error(0)
}

// MockMaintenanceChecker - мок проверки порогов ТО
type MockMaintenanceChecker struct {
	mock.Mock
}

func (m *MockMaintenanceChecker) CheckVehicle(ctx context.Context, vehicle *domain.Vehicle) {
	m.Called(ctx, vehicle)
}

// MockMailer - мок почтового клиента
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, to, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

func (m *MockMailer) Health(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type serviceMocks struct {
	vehicleRepo    *MockVehicleRepo
	tokenRepo      *MockTokenRepo
	entryRepo      *MockEntryRepo
	submissionRepo *MockSubmissionRepo
	maintenance    *MockMaintenanceChecker
	mailer         *MockMailer
}

func newTestService() (*Service, *serviceMocks) {
	m := &serviceMocks{
		vehicleRepo:    new(MockVehicleRepo),
		tokenRepo:      new(MockTokenRepo),
		entryRepo:      new(MockEntryRepo),
		submissionRepo: new(MockSubmissionRepo),
		maintenance:    new(MockMaintenanceChecker),
		mailer:         new(MockMailer),
	}
	service := NewService(
		m.vehicleRepo,
		m.tokenRepo,
		m.entryRepo,
		m.submissionRepo,
		m.maintenance,
		m.mailer,
		"http://localhost:8080",
		logger.NewNoop(),
	)
	return service, m
}

func (m *serviceMocks) assertExpectations(t *testing.T) {
	m.vehicleRepo.AssertExpectations(t)
	m.tokenRepo.AssertExpectations(t)
	m.entryRepo.AssertExpectations(t)
	m.submissionRepo.AssertExpectations(t)
	m.maintenance.AssertExpectations(t)
	m.mailer.AssertExpectations(t)
}

// TestService_IssueToken тестирует выпуск одноразовой ссылки
func TestService_IssueToken(t *testing.T) {
	t.Run("успешный выпуск", func(t *testing.T) {
		service, m := newTestService()

		vehicle := &domain.Vehicle{ID: 7, LicensePlate: "HH-AB 123", Model: "VW Crafter", CurrentKM: 10000}
		m.vehicleRepo.On("GetByID", mock.Anything, int64(7)).Return(vehicle, nil)

		var created *domain.MileageToken
		m.tokenRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.MileageToken")).
			Run(func(args mock.Arguments) {
				created = args.Get(1).(*domain.MileageToken)
			}).
			Return(nil)

		link, err := service.IssueToken(context.Background(), 7, "")

		require.NoError(t, err)
		require.NotNil(t, created)
		assert.Equal(t, int64(7), created.VehicleID)
		// 32 байта в base64 без набивки - 43 символа
		assert.Len(t, created.Token, 43)
		assert.Equal(t, created.Token, link.Token)
		assert.Equal(t, "http://localhost:8080/km/eingabe/"+created.Token, link.URL)
		assert.Equal(t, vehicle, link.Vehicle)

		m.assertExpectations(t)
	})

	t.Run("транспортное средство не найдено", func(t *testing.T) {
		service, m := newTestService()

		m.vehicleRepo.On("GetByID", mock.Anything, int64(99)).
			Return(nil, domain.ErrVehicleNotFound)

		link, err := service.IssueToken(context.Background(), 99, "")

		assert.ErrorIs(t, err, domain.ErrVehicleNotFound)
		assert.Nil(t, link)
		m.assertExpectations(t)
	})

	t.Run("каждый выпуск дает новый токен", func(t *testing.T) {
		service, m := newTestService()

		vehicle := &domain.Vehicle{ID: 7, LicensePlate: "HH-AB 123", Model: "VW Crafter"}
		m.vehicleRepo.On("GetByID", mock.Anything, int64(7)).Return(vehicle, nil)
		m.tokenRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.MileageToken")).Return(nil)

		first, err := service.IssueToken(context.Background(), 7, "")
		require.NoError(t, err)
		second, err := service.IssueToken(context.Background(), 7, "")
		require.NoError(t, err)

		assert.NotEqual(t, first.Token, second.Token)
	})

	t.Run("ссылка уходит водителю письмом", func(t *testing.T) {
		service, m := newTestService()

		vehicle := &domain.Vehicle{ID: 7, LicensePlate: "HH-AB 123", Model: "VW Crafter"}
		m.vehicleRepo.On("GetByID", mock.Anything, int64(7)).Return(vehicle, nil)
		m.tokenRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.MileageToken")).Return(nil)

		var mailedBody string
		m.mailer.On("Send", mock.Anything, "fahrer@example.com",
			"Bitte Kilometerstand eintragen", mock.AnythingOfType("string")).
			Run(func(args mock.Arguments) {
				mailedBody = args.String(3)
			}).
			Return(nil)

		link, err := service.IssueToken(context.Background(), 7, "fahrer@example.com")

		require.NoError(t, err)
		assert.Contains(t, mailedBody, link.URL)
		assert.Equal(t, "fahrer@example.com", link.MailedTo)
		m.assertExpectations(t)
	})

	t.Run("сбой почты не отменяет выпуск", func(t *testing.T) {
		service, m := newTestService()

		vehicle := &domain.Vehicle{ID: 7, LicensePlate: "HH-AB 123", Model: "VW Crafter"}
		m.vehicleRepo.On("GetByID", mock.Anything, int64(7)).Return(vehicle, nil)
		m.tokenRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.MileageToken")).Return(nil)
		m.mailer.On("Send", mock.Anything, "fahrer@example.com",
			"Bitte Kilometerstand eintragen", mock.AnythingOfType("string")).
			Return(errors.New("smtp connection refused"))

		link, err := service.IssueToken(context.Background(), 7, "fahrer@example.com")

		require.NoError(t, err)
		assert.NotEmpty(t, link.URL)
		assert.Empty(t, link.MailedTo)
		m.assertExpectations(t)
	})
}

// TestService_Submit тестирует прием показаний одометра
func TestService_Submit(t *testing.T) {
	tokenID := uuid.New()

	openToken := func() *domain.MileageToken {
		return &domain.MileageToken{
			ID:        tokenID,
			VehicleID: 7,
			Token:     "abc123token",
			Consumed:  false,
			CreatedAt: time.Now(),
		}
	}
	testVehicle := func() *domain.Vehicle {
		return &domain.Vehicle{ID: 7, LicensePlate: "HH-AB 123", Model: "VW Crafter", CurrentKM: 10000}
	}

	t.Run("успешная запись", func(t *testing.T) {
		service, m := newTestService()

		m.tokenRepo.On("GetByToken", mock.Anything, "abc123token").Return(openToken(), nil)

		updated := &domain.Vehicle{ID: 7, LicensePlate: "HH-AB 123", Model: "VW Crafter", CurrentKM: 10250}
		m.vehicleRepo.On("GetByID", mock.Anything, int64(7)).Return(testVehicle(), nil).Once()
		m.vehicleRepo.On("GetByID", mock.Anything, int64(7)).Return(updated, nil).Once()

		m.submissionRepo.On("Record", mock.Anything, tokenID, mock.AnythingOfType("*domain.MileageEntry")).
			Return(nil)
		m.maintenance.On("CheckVehicle", mock.Anything, updated)

		entry, err := service.Submit(context.Background(), &SubmitRequest{
			Token:      "abc123token",
			DriverName: "Jürgen Müller",
			OdometerKM: 10250,
		})

		require.NoError(t, err)
		assert.Equal(t, int64(7), entry.VehicleID)
		assert.Equal(t, "Jürgen Müller", entry.DriverName)
		assert.Equal(t, int64(10250), entry.OdometerKM)
		assert.Equal(t, "abc123token", entry.Token)
		m.assertExpectations(t)
	})

	t.Run("показание равно текущему допускается", func(t *testing.T) {
		service, m := newTestService()

		m.tokenRepo.On("GetByToken", mock.Anything, "abc123token").Return(openToken(), nil)
		m.vehicleRepo.On("GetByID", mock.Anything, int64(7)).Return(testVehicle(), nil)
		m.submissionRepo.On("Record", mock.Anything, tokenID, mock.AnythingOfType("*domain.MileageEntry")).
			Return(nil)
		m.maintenance.On("CheckVehicle", mock.Anything, mock.AnythingOfType("*domain.Vehicle"))

		entry, err := service.Submit(context.Background(), &SubmitRequest{
			Token:      "abc123token",
			DriverName: "Jürgen Müller",
			OdometerKM: 10000,
		})

		require.NoError(t, err)
		assert.Equal(t, int64(10000), entry.OdometerKM)
	})

	t.Run("токен не найден", func(t *testing.T) {
		service, m := newTestService()

		m.tokenRepo.On("GetByToken", mock.Anything, "unknown").
			Return(nil, domain.ErrTokenNotFound)

		entry, err := service.Submit(context.Background(), &SubmitRequest{
			Token:      "unknown",
			DriverName: "Jürgen Müller",
			OdometerKM: 10250,
		})

		assert.ErrorIs(t, err, domain.ErrTokenNotFound)
		assert.Nil(t, entry)
		m.assertExpectations(t)
	})

	t.Run("токен уже использован", func(t *testing.T) {
		service, m := newTestService()

		consumed := openToken()
		consumed.Consumed = true
		m.tokenRepo.On("GetByToken", mock.Anything, "abc123token").Return(consumed, nil)

		entry, err := service.Submit(context.Background(), &SubmitRequest{
			Token:      "abc123token",
			DriverName: "Jürgen Müller",
			OdometerKM: 10250,
		})

		assert.ErrorIs(t, err, domain.ErrTokenConsumed)
		assert.Nil(t, entry)
		m.assertExpectations(t)
	})

	t.Run("гонка: токен погашен внутри транзакции", func(t *testing.T) {
		service, m := newTestService()

		m.tokenRepo.On("GetByToken", mock.Anything, "abc123token").Return(openToken(), nil)
		m.vehicleRepo.On("GetByID", mock.Anything, int64(7)).Return(testVehicle(), nil)
		m.submissionRepo.On("Record", mock.Anything, tokenID, mock.AnythingOfType("*domain.MileageEntry")).
			Return(domain.ErrTokenConsumed)

		entry, err := service.Submit(context.Background(), &SubmitRequest{
			Token:      "abc123token",
			DriverName: "Jürgen Müller",
			OdometerKM: 10250,
		})

		assert.ErrorIs(t, err, domain.ErrTokenConsumed)
		assert.Nil(t, entry)
		m.assertExpectations(t)
	})

	t.Run("показание меньше текущего", func(t *testing.T) {
		service, m := newTestService()

		m.tokenRepo.On("GetByToken", mock.Anything, "abc123token").Return(openToken(), nil)
		m.vehicleRepo.On("GetByID", mock.Anything, int64(7)).Return(testVehicle(), nil)

		entry, err := service.Submit(context.Background(), &SubmitRequest{
			Token:      "abc123token",
			DriverName: "Jürgen Müller",
			OdometerKM: 9999,
		})

		assert.ErrorIs(t, err, domain.ErrMileageTooLow)
		assert.Nil(t, entry)
		// Транзакция не запускалась
		m.submissionRepo.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("недопустимое имя водителя", func(t *testing.T) {
		service, m := newTestService()

		m.tokenRepo.On("GetByToken", mock.Anything, "abc123token").Return(openToken(), nil)
		m.vehicleRepo.On("GetByID", mock.Anything, int64(7)).Return(testVehicle(), nil)

		entry, err := service.Submit(context.Background(), &SubmitRequest{
			Token:      "abc123token",
			DriverName: "<script>alert(1)</script>",
			OdometerKM: 10250,
		})

		assert.ErrorIs(t, err, domain.ErrInvalidEntryData)
		assert.Nil(t, entry)
		m.submissionRepo.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("транспортное средство удалено", func(t *testing.T) {
		service, m := newTestService()

		m.tokenRepo.On("GetByToken", mock.Anything, "abc123token").Return(openToken(), nil)
		m.vehicleRepo.On("GetByID", mock.Anything, int64(7)).
			Return(nil, domain.ErrVehicleNotFound)

		entry, err := service.Submit(context.Background(), &SubmitRequest{
			Token:      "abc123token",
			DriverName: "Jürgen Müller",
			OdometerKM: 10250,
		})

		assert.ErrorIs(t, err, domain.ErrVehicleNotFound)
		assert.Nil(t, entry)
		m.assertExpectations(t)
	})

	t.Run("сбой хранилища оборачивается", func(t *testing.T) {
		service, m := newTestService()

		m.tokenRepo.On("GetByToken", mock.Anything, "abc123token").Return(openToken(), nil)
		m.vehicleRepo.On("GetByID", mock.Anything, int64(7)).Return(testVehicle(), nil)
		m.submissionRepo.On("Record", mock.Anything, tokenID, mock.AnythingOfType("*domain.MileageEntry")).
			Return(errors.New("connection lost"))

		entry, err := service.Submit(context.Background(), &SubmitRequest{
			Token:      "abc123token",
			DriverName: "Jürgen Müller",
			OdometerKM: 10250,
		})

		require.Error(t, err)
		assert.Nil(t, entry)
		assert.NotErrorIs(t, err, domain.ErrTokenConsumed)
		assert.Contains(t, err.Error(), "failed to record entry")
	})

	t.Run("сбой перезагрузки не ломает запись", func(t *testing.T) {
		service, m := newTestService()

		m.tokenRepo.On("GetByToken", mock.Anything, "abc123token").Return(openToken(), nil)
		m.vehicleRepo.On("GetByID", mock.Anything, int64(7)).Return(testVehicle(), nil).Once()
		m.vehicleRepo.On("GetByID", mock.Anything, int64(7)).
			Return(nil, errors.New("connection lost")).Once()
		m.submissionRepo.On("Record", mock.Anything, tokenID, mock.AnythingOfType("*domain.MileageEntry")).
			Return(nil)

		entry, err := service.Submit(context.Background(), &SubmitRequest{
			Token:      "abc123token",
			DriverName: "Jürgen Müller",
			OdometerKM: 10250,
		})

		// Запись принята, напоминания подождут до следующего ввода
		require.NoError(t, err)
		require.NotNil(t, entry)
		m.maintenance.AssertNotCalled(t, "CheckVehicle", mock.Anything, mock.Anything)
	})
}

// TestService_History тестирует страницу истории пробега
func TestService_History(t *testing.T) {
	t.Run("записи возвращаются новые первыми", func(t *testing.T) {
		service, m := newTestService()

		vehicle := &domain.Vehicle{ID: 7, LicensePlate: "HH-AB 123", Model: "VW Crafter", CurrentKM: 10500}
		entries := []*domain.MileageEntry{
			{ID: uuid.New(), VehicleID: 7, DriverName: "Jürgen Müller", OdometerKM: 10500},
			{ID: uuid.New(), VehicleID: 7, DriverName: "Anna Schmidt", OdometerKM: 10250},
		}

		m.vehicleRepo.On("GetByID", mock.Anything, int64(7)).Return(vehicle, nil)
		m.entryRepo.On("ListByVehicle", mock.Anything, int64(7), 50).Return(entries, nil)

		gotVehicle, gotEntries, err := service.History(context.Background(), 7)

		require.NoError(t, err)
		assert.Equal(t, vehicle, gotVehicle)
		assert.Len(t, gotEntries, 2)
		m.assertExpectations(t)
	})

	t.Run("транспортное средство не найдено", func(t *testing.T) {
		service, m := newTestService()

		m.vehicleRepo.On("GetByID", mock.Anything, int64(99)).
			Return(nil, domain.ErrVehicleNotFound)

		_, _, err := service.History(context.Background(), 99)

		assert.ErrorIs(t, err, domain.ErrVehicleNotFound)
		m.assertExpectations(t)
	})
}
