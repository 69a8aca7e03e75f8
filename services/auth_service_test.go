package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"dutchthrift_server/database/memstore"
	"dutchthrift_server/lib"
	"dutchthrift_server/structs"
	"dutchthrift_server/structs/tables"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockMailer struct {
	mock.Mock
	tokens []string
}

func (m *mockMailer) SendPasswordSetup(ctx context.Context, customer *tables.Customer, token string) error {
	m.tokens = append(m.tokens, token)
	return m.Called(customer.Email).Error(0)
}

func (m *mockMailer) lastToken(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, m.tokens, "no set-password mail was sent")
	return m.tokens[len(m.tokens)-1]
}

// newAuthWithMailer returns services whose AuthService sends set-password
// mail through mailer.
func newAuthWithMailer(t *testing.T, mailer PasswordMailer) (*ServiceManager, *AuthService) {
	t.Helper()
	store := memstore.New()
	sm := newTestServices(t, store, nil)
	cfg := testConfig()
	return sm, NewAuthService(testLogger(), cfg.Auth, store, sm.CacheService, mailer)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	sm := newTestServices(t, nil, nil)
	_, err := sm.AuthService.CreateAdmin(ctx, "Admin", "admin@dutchthrift.nl", "correct-horse")
	require.NoError(t, err)

	customer, token, claims, err := sm.AuthService.Login(ctx, &structs.LoginRequest{Email: "admin@dutchthrift.nl", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, tables.RoleAdmin, customer.Role)
	assert.NotEmpty(t, token)
	assert.Equal(t, customer.Id, claims.Sub)

	_, _, _, err = sm.AuthService.Login(ctx, &structs.LoginRequest{Email: "admin@dutchthrift.nl", Password: "wrong-horse"})
	assert.ErrorIs(t, err, lib.ErrInvalidCredentials)

	_, _, _, err = sm.AuthService.Login(ctx, &structs.LoginRequest{Email: "nobody@dutchthrift.nl", Password: "correct-horse"})
	assert.ErrorIs(t, err, lib.ErrInvalidCredentials)
}

func TestCreateAdmin_PromotesExistingCustomer(t *testing.T) {
	ctx := context.Background()
	sm := newTestServices(t, nil, nil)
	result, err := sm.IntakeService.Submit(ctx, intakeRequest("jane@example.com", "Lamp"))
	require.NoError(t, err)

	admin, err := sm.AuthService.CreateAdmin(ctx, "", "jane@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, result.Customer.Id, admin.Id)
	assert.Equal(t, tables.RoleAdmin, admin.Role)
	assert.Equal(t, "Jane", admin.Name)

	_, err = sm.AuthService.CreateAdmin(ctx, "Admin", "admin@dutchthrift.nl", "short")
	var ve *lib.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestIntakeConsignorSetsPassword(t *testing.T) {
	ctx := context.Background()
	mailer := &mockMailer{}
	mailer.On("SendPasswordSetup", "jane@example.com").Return(nil)
	sm, auth := newAuthWithMailer(t, mailer)

	result, err := sm.IntakeService.Submit(ctx, intakeRequest("jane@example.com", "Lamp"))
	require.NoError(t, err)

	// intake accounts carry an unknown random password
	_, _, _, err = auth.Login(ctx, &structs.LoginRequest{Email: "jane@example.com", Password: "correct-horse"})
	require.ErrorIs(t, err, lib.ErrInvalidCredentials)

	require.NoError(t, auth.RequestPasswordSetup(ctx, "jane@example.com"))
	token := mailer.lastToken(t)

	customer, err := auth.SetPassword(ctx, &structs.SetPasswordRequest{Token: token, Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, result.Customer.Id, customer.Id)
	assert.Equal(t, tables.RoleCustomer, customer.Role)

	loggedIn, _, _, err := auth.Login(ctx, &structs.LoginRequest{Email: "jane@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, result.Customer.Id, loggedIn.Id)

	// tokens are single use
	_, err = auth.SetPassword(ctx, &structs.SetPasswordRequest{Token: token, Password: "another-horse"})
	assert.ErrorIs(t, err, lib.ErrInvalidToken)
	mailer.AssertExpectations(t)
}

func TestRequestPasswordSetup_UnknownEmailIsSilent(t *testing.T) {
	mailer := &mockMailer{}
	_, auth := newAuthWithMailer(t, mailer)

	require.NoError(t, auth.RequestPasswordSetup(context.Background(), "nobody@example.com"))
	mailer.AssertNotCalled(t, "SendPasswordSetup", mock.Anything)
}

func TestRequestPasswordSetup_Throttled(t *testing.T) {
	ctx := context.Background()
	mailer := &mockMailer{}
	mailer.On("SendPasswordSetup", "jane@example.com").Return(nil)
	sm, auth := newAuthWithMailer(t, mailer)
	_, err := sm.IntakeService.Submit(ctx, intakeRequest("jane@example.com", "Lamp"))
	require.NoError(t, err)

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	auth.now = func() time.Time { return now }

	require.NoError(t, auth.RequestPasswordSetup(ctx, "jane@example.com"))
	first := mailer.lastToken(t)

	now = now.Add(time.Minute)
	require.NoError(t, auth.RequestPasswordSetup(ctx, "jane@example.com"))
	mailer.AssertNumberOfCalls(t, "SendPasswordSetup", 1)

	now = now.Add(2 * time.Minute)
	require.NoError(t, auth.RequestPasswordSetup(ctx, "jane@example.com"))
	mailer.AssertNumberOfCalls(t, "SendPasswordSetup", 2)

	// a new link replaces the previous one
	_, err = auth.SetPassword(ctx, &structs.SetPasswordRequest{Token: first, Password: "correct-horse"})
	assert.ErrorIs(t, err, lib.ErrInvalidToken)
	_, err = auth.SetPassword(ctx, &structs.SetPasswordRequest{Token: mailer.lastToken(t), Password: "correct-horse"})
	assert.NoError(t, err)
}

func TestSetPassword_ExpiredToken(t *testing.T) {
	ctx := context.Background()
	mailer := &mockMailer{}
	mailer.On("SendPasswordSetup", "jane@example.com").Return(nil)
	sm, auth := newAuthWithMailer(t, mailer)
	_, err := sm.IntakeService.Submit(ctx, intakeRequest("jane@example.com", "Lamp"))
	require.NoError(t, err)

	now := time.Now()
	auth.now = func() time.Time { return now }
	require.NoError(t, auth.RequestPasswordSetup(ctx, "jane@example.com"))

	now = now.Add(testConfig().Auth.PasswordTokenTTL + time.Second)
	_, err = auth.SetPassword(ctx, &structs.SetPasswordRequest{Token: mailer.lastToken(t), Password: "correct-horse"})
	assert.ErrorIs(t, err, lib.ErrExpiredToken)

	_, err = auth.SetPassword(ctx, &structs.SetPasswordRequest{Token: "not-a-token", Password: "correct-horse"})
	assert.ErrorIs(t, err, lib.ErrInvalidToken)
}

func TestRequestPasswordSetup_MailFailure(t *testing.T) {
	ctx := context.Background()
	mailer := &mockMailer{}
	mailer.On("SendPasswordSetup", "jane@example.com").Return(errors.New("resend: 500"))
	sm, auth := newAuthWithMailer(t, mailer)
	_, err := sm.IntakeService.Submit(ctx, intakeRequest("jane@example.com", "Lamp"))
	require.NoError(t, err)

	err = auth.RequestPasswordSetup(ctx, "jane@example.com")
	assert.ErrorContains(t, err, "resend: 500")
}
