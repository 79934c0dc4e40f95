package maintenance

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/frontandrew/fleettrack/internal/domain"
	"github.com/frontandrew/fleettrack/internal/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockNoticeRepo - мок репозитория отметок о напоминаниях
type MockNoticeRepo struct {
	mock.Mock
}

func (m *MockNoticeRepo) Claim(ctx context.Context, mark *domain.NoticeMark) (bool, error) {
	args := m.Called(ctx, mark)
	if args.Bool(0) {
		mark.ID = uuid.New()
	}
	return args.Bool(0), args.Error(1)
}

func (m *MockNoticeRepo) Release(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
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

func testVehicle(currentKM int64, nextOil *int64, due *time.Time) *domain.Vehicle {
	return &domain.Vehicle{
		ID:              1,
		LicensePlate:    "HH-AB 123",
		Model:           "VW Crafter",
		CurrentKM:       currentKM,
		InspectionDue:   due,
		NextOilChangeKM: nextOil,
	}
}

func int64Ptr(v int64) *int64 { return &v }

// TestEvaluate_OilBands тестирует границы ступеней предупреждений о масле
func TestEvaluate_OilBands(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Следующая замена на 15000 - база отсчета на нуле,
	// пробег совпадает с километрами от последней замены
	nextOil := int64Ptr(15000)

	tests := []struct {
		name      string
		currentKM int64
		wantHint  string // Пустая строка - напоминания нет
	}{
		{"до первой ступени", 9999, ""},
		{"ровно первая ступень", 10000, "10.000 km seit letztem Ölwechsel"},
		{"верхний край первой ступени", 12999, "10.000 km seit letztem Ölwechsel"},
		{"ровно вторая ступень", 13000, "13.000 km seit letztem Ölwechsel"},
		{"верхний край второй ступени", 14999, "13.000 km seit letztem Ölwechsel"},
		{"ровно третья ступень", 15000, "15.000 km erreicht - Ölwechsel fällig"},
		{"далеко за третьей ступенью", 42000, "15.000 km erreicht - Ölwechsel fällig"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := testVehicle(tt.currentKM, nextOil, nil)
			notices := Evaluate(v, now)

			if tt.wantHint == "" {
				assert.Empty(t, notices)
				return
			}

			require.Len(t, notices, 1)
			assert.Equal(t, domain.CheckKindOilChange, notices[0].Kind)
			assert.Contains(t, notices[0].Body, tt.wantHint)
			assert.Contains(t, notices[0].Subject, "Ölwechsel-Hinweis")
			assert.Contains(t, notices[0].Subject, "HH-AB 123 - VW Crafter")
		})
	}
}

// TestEvaluate_OilThresholdKeys тестирует ключи дедупликации для масла
func TestEvaluate_OilThresholdKeys(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Следующая замена на 20000 - последняя была на 5000
	nextOil := int64Ptr(20000)

	tests := []struct {
		name          string
		currentKM     int64
		wantThreshold string
	}{
		{"10000 км после замены", 15000, "10000@20000"},
		{"14999 км после замены", 19999, "13000@20000"},
		{"порог замены превышен", 20001, "15000@20000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := testVehicle(tt.currentKM, nextOil, nil)
			notices := Evaluate(v, now)

			require.Len(t, notices, 1)
			assert.Equal(t, tt.wantThreshold, notices[0].Threshold)
		})
	}
}

// TestEvaluate_Inspection тестирует напоминания о техосмотре
func TestEvaluate_Inspection(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	datePtr := func(daysFromNow int) *time.Time {
		d := now.AddDate(0, 0, daysFromNow)
		return &d
	}

	tests := []struct {
		name       string
		due        *time.Time
		wantNotice bool
	}{
		{"срок сегодня", datePtr(0), true},
		{"ровно 90 дней до срока", datePtr(90), true},
		{"91 день до срока", datePtr(91), false},
		{"просрочен вчера", datePtr(-1), false},
		{"дата не задана", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := testVehicle(5000, nil, tt.due)
			notices := Evaluate(v, now)

			if !tt.wantNotice {
				assert.Empty(t, notices)
				return
			}

			require.Len(t, notices, 1)
			assert.Equal(t, domain.CheckKindInspection, notices[0].Kind)
			assert.Equal(t, tt.due.Format("2006-01-02"), notices[0].Threshold)
			assert.Contains(t, notices[0].Subject, "TÜV-Hinweis")
			assert.Contains(t, notices[0].Body, tt.due.Format("02.01.2006"))
		})
	}
}

// TestEvaluate_Combined тестирует одновременные напоминания TÜV и масла
func TestEvaluate_Combined(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	due := now.AddDate(0, 0, 30)

	v := testVehicle(16000, int64Ptr(15000), &due)
	notices := Evaluate(v, now)

	require.Len(t, notices, 2)
	assert.Equal(t, domain.CheckKindInspection, notices[0].Kind)
	assert.Equal(t, domain.CheckKindOilChange, notices[1].Kind)

	// Счетчик дней в теле письма
	assert.Contains(t, notices[0].Body, "Restlaufzeit: 30 Tage")
	// Километры с последней замены
	assert.Contains(t, notices[1].Body, fmt.Sprintf("ca. %d km", 16000))
}

// TestService_CheckVehicle тестирует отправку напоминаний с дедупликацией
func TestService_CheckVehicle(t *testing.T) {
	// Масляный порог не зависит от текущей даты -
	// им и проверяем сервис с настоящим time.Now()
	vehicle := testVehicle(16000, int64Ptr(15000), nil)

	tests := []struct {
		name      string
		mockSetup func(*MockNoticeRepo, *MockMailer)
	}{
		{
			name: "новое напоминание отправляется",
			mockSetup: func(repo *MockNoticeRepo, mailer *MockMailer) {
				repo.On("Claim", mock.Anything, mock.AnythingOfType("*domain.NoticeMark")).
					Return(true, nil)
				mailer.On("Send", mock.Anything, "dispo@example.com",
					mock.AnythingOfType("string"), mock.AnythingOfType("string")).
					Return(nil)
			},
		},
		{
			name: "повторное напоминание не отправляется",
			mockSetup: func(repo *MockNoticeRepo, mailer *MockMailer) {
				repo.On("Claim", mock.Anything, mock.AnythingOfType("*domain.NoticeMark")).
					Return(false, nil)
				// Send не вызывается - AssertExpectations это проверит
			},
		},
		{
			name: "при сбое почты отметка снимается",
			mockSetup: func(repo *MockNoticeRepo, mailer *MockMailer) {
				repo.On("Claim", mock.Anything, mock.AnythingOfType("*domain.NoticeMark")).
					Return(true, nil)
				mailer.On("Send", mock.Anything, "dispo@example.com",
					mock.AnythingOfType("string"), mock.AnythingOfType("string")).
					Return(errors.New("smtp connection refused"))
				repo.On("Release", mock.Anything, mock.AnythingOfType("uuid.UUID")).
					Return(nil)
			},
		},
		{
			name: "сбой хранилища не роняет проверку",
			mockSetup: func(repo *MockNoticeRepo, mailer *MockMailer) {
				repo.On("Claim", mock.Anything, mock.AnythingOfType("*domain.NoticeMark")).
					Return(false, errors.New("connection lost"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockNoticeRepo)
			mockMailer := new(MockMailer)
			tt.mockSetup(mockRepo, mockMailer)

			service := NewService(mockRepo, mockMailer, "dispo@example.com", logger.NewNoop())
			service.CheckVehicle(context.Background(), vehicle)

			mockRepo.AssertExpectations(t)
			mockMailer.AssertExpectations(t)
		})
	}
}
