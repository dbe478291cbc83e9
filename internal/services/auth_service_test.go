package services

import (
	"testing"
	"time"

	"supplestore_backend/internal/models"
	"supplestore_backend/pkg/utils"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	utils.ConfigureJWT("auth-test-secret", time.Hour)
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	users := newFakeAuthRepo()
	stores := &fakeStoreRepo{stores: map[int64]*models.Store{
		1: {ID: 1, OwnerID: 99, Slug: "loja-fit"},
	}}
	svc := NewAuthService(users, stores, db, 7).(*authService)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	mock.ExpectBegin()
	mock.ExpectCommit()
	res, err := svc.Register(RegisterRequest{Email: " Ana@Example.com ", Password: "segredo123", FullName: "Ana", StoreName: "Loja Fit"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", res.User.Email)
	assert.Equal(t, models.RoleOwner, res.User.Role)
	assert.Empty(t, res.User.PasswordHash)
	assert.Equal(t, "loja-fit-2", res.Store.Slug, "taken slugs get a numeric suffix")
	assert.Equal(t, models.SubscriptionTrial, res.Store.SubscriptionStatus)
	assert.Equal(t, now.AddDate(0, 0, 7), *res.Store.TrialEndsAt)

	claims, err := utils.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.Store.ID, claims.StoreID)
	assert.NoError(t, mock.ExpectationsWereMet())

	login, err := svc.Login(LoginRequest{Email: "ANA@example.com", Password: "segredo123"})
	require.NoError(t, err)
	assert.Equal(t, res.Store.ID, login.Store.ID)

	_, err = svc.Login(LoginRequest{Email: "ana@example.com", Password: "errada123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(LoginRequest{Email: "bob@example.com", Password: "segredo123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	utils.ConfigureJWT("auth-test-secret", time.Hour)
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	users := newFakeAuthRepo()
	users.users["ana@example.com"] = &models.User{ID: 1, Email: "ana@example.com"}
	svc := NewAuthService(users, &fakeStoreRepo{stores: map[int64]*models.Store{}}, db, 7)

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err = svc.Register(RegisterRequest{Email: "ana@example.com", Password: "segredo123", FullName: "Ana", StoreName: "Loja"})
	assert.ErrorIs(t, err, ErrEmailExists)
	assert.NoError(t, mock.ExpectationsWereMet())

	_, err = svc.Register(RegisterRequest{Email: "novo@example.com", Password: "curta", FullName: "N", StoreName: "Loja"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateStaffAndLogin(t *testing.T) {
	utils.ConfigureJWT("auth-test-secret", time.Hour)
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	users := newFakeAuthRepo()
	stores := &fakeStoreRepo{stores: map[int64]*models.Store{
		4: {ID: 4, OwnerID: 1, Slug: "loja-fit"},
	}}
	svc := NewAuthService(users, stores, db, 7)

	staff, err := svc.CreateStaff(4, StaffRequest{Email: " Caixa@Example.com", Password: "balcao123", FullName: " Bruno "})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStaff, staff.Role)
	assert.Equal(t, "caixa@example.com", staff.Email)
	assert.Equal(t, "Bruno", staff.FullName)
	require.NotNil(t, staff.StoreID)
	assert.Equal(t, int64(4), *staff.StoreID)
	assert.Empty(t, staff.PasswordHash)

	login, err := svc.Login(LoginRequest{Email: "caixa@example.com", Password: "balcao123"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), login.Store.ID, "staff resolve the store they were added to")
	claims, err := utils.ValidateToken(login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, models.RoleStaff, claims.Role)
	assert.Equal(t, int64(4), claims.StoreID)

	list, err := svc.ListStaff(4)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, staff.ID, list[0].ID)
	empty, err := svc.ListStaff(9)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = svc.CreateStaff(4, StaffRequest{Email: "caixa@example.com", Password: "balcao123", FullName: "Outro"})
	assert.ErrorIs(t, err, ErrEmailExists)
	_, err = svc.CreateStaff(4, StaffRequest{Email: "novo@example.com", Password: "curta", FullName: "Novo"})
	assert.ErrorIs(t, err, ErrValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}
