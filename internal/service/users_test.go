package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jesses-code-adventures/tims/internal/models"
	"github.com/jesses-code-adventures/tims/internal/utils"
)

func TestPasswordStrength(t *testing.T) {
	for _, tc := range []struct {
		passwd string
		ok     bool
	}{
		{"Short1", false},
		{"alllowercase1", false},
		{"ALLUPPERCASE1", false},
		{"NoDigitsHere", false},
		{"Goodpass1", true},
	} {
		t.Run(tc.passwd, func(t *testing.T) {
			err := checkPasswordStrength(tc.passwd)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrPasswordStrength)
			}
		})
	}
}

func TestNewKey(t *testing.T) {
	k := newKey()
	assert.Len(t, k, keyLength)
	for _, r := range k {
		assert.Contains(t, keyAlphabet, string(r))
	}
	assert.NotEqual(t, k, newKey())
}

func TestUserSetupFlow(t *testing.T) {
	f := newFixture(t)
	manager, _ := f.user(t, models.UserManager)

	u, key, err := f.svc.CreateUser(manager, "  New.Person@Example.com ", "New Person", models.UserWorker)
	require.NoError(t, err)
	assert.Equal(t, "new.person@example.com", u.Email)
	assert.Equal(t, "en-US", u.Locale)
	assert.False(t, u.Verified)
	assert.Equal(t, models.KeySetup, key.Type)
	assert.Len(t, key.ID, keyLength)

	_, err = f.svc.SignIn(t.Context(), u.Email, "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.SetupAccount(t.Context(), key.ID, "", "weak")
	assert.ErrorIs(t, err, ErrPasswordStrength)

	_, err = f.svc.VerifyAccount(t.Context(), key.ID)
	assert.ErrorIs(t, err, ErrInvalidKey)

	set, err := f.svc.SetupAccount(t.Context(), key.ID, "", "Str0ngpass")
	require.NoError(t, err)
	assert.True(t, set.Verified)

	_, err = f.svc.SetupAccount(t.Context(), key.ID, "", "Str0ngpass")
	assert.ErrorIs(t, err, ErrInvalidKey)

	signed, err := f.svc.SignIn(t.Context(), "NEW.PERSON@example.com", "Str0ngpass")
	require.NoError(t, err)
	assert.Equal(t, u.ID, signed.ID)

	_, err = f.svc.SignIn(t.Context(), u.Email, "Wr0ngpass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	id, err := f.svc.ResolveUser(t.Context(), "New.Person@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)
}

func TestCreateUserRules(t *testing.T) {
	f := newFixture(t)
	manager, _ := f.user(t, models.UserManager)
	worker, _ := f.user(t, models.UserWorker)

	_, _, err := f.svc.CreateUser(worker, "a@example.com", "", models.UserWorker)
	assert.ErrorIs(t, err, ErrRights)

	_, _, err = f.svc.CreateUser(manager, "boss@example.com", "", models.UserAdmin)
	assert.ErrorIs(t, err, ErrRights)

	_, _, err = f.svc.CreateUser(manager, "not-an-email", "", models.UserWorker)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []models.FieldError{{Field: "email", Reason: "email"}}, verr.Fields)

	_, _, err = f.svc.CreateUser(manager, "a@example.com", "", models.UserWorker)
	require.NoError(t, err)
	_, _, err = f.svc.CreateUser(manager, "A@example.com", "", models.UserClient)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.EqualError(t, err, "user with email 'a@example.com' already exists")

	users, err := f.svc.ListUsers(manager, false)
	require.NoError(t, err)
	assert.Len(t, users, 4)
}

func TestKeyCollisionRetries(t *testing.T) {
	const taken = "XXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXX"
	f := newFixture(t, WithKeyGenerator(sequence(taken, taken, "YYYYYYYYYYYYYYYYYYYYYYYYYYYYYYYY")))

	_, first, err := f.svc.CreateUser(f.admin, "one@example.com", "", models.UserWorker)
	require.NoError(t, err)
	assert.Equal(t, taken, first.ID)

	_, second, err := f.svc.CreateUser(f.admin, "two@example.com", "", models.UserWorker)
	require.NoError(t, err)
	assert.Equal(t, "YYYYYYYYYYYYYYYYYYYYYYYYYYYYYYYY", second.ID)
}

func TestForgotPassword(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.svc.CreateUser(f.admin, "forgetful@example.com", "", models.UserWorker)
	require.NoError(t, err)

	key, err := f.svc.ForgotPassword(t.Context(), "Forgetful@example.com")
	require.NoError(t, err)
	again, err := f.svc.ForgotPassword(t.Context(), "forgetful@example.com")
	require.NoError(t, err)
	assert.Equal(t, key.ID, again.ID)

	_, err = f.svc.ForgotPassword(t.Context(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.ResetPassword(t.Context(), key.ID, "Newpassw0rd")
	require.NoError(t, err)
	_, err = f.svc.SignIn(t.Context(), "forgetful@example.com", "Newpassw0rd")
	require.NoError(t, err)
}

func TestUpdateUser(t *testing.T) {
	f := newFixture(t)
	selfCtx, self := f.user(t, models.UserWorker)
	otherCtx, _ := f.user(t, models.UserWorker)

	_, _, err := f.svc.UpdateUser(otherCtx, self.ID, UserUpdate{Name: utils.ToPtr("Mallory")})
	assert.ErrorIs(t, err, ErrRights)

	_, _, err = f.svc.UpdateUser(selfCtx, self.ID, UserUpdate{Type: utils.ToPtr(models.UserManager)})
	assert.ErrorIs(t, err, ErrRights)

	u, key, err := f.svc.UpdateUser(selfCtx, self.ID, UserUpdate{Name: utils.ToPtr("Renamed")})
	require.NoError(t, err)
	assert.Nil(t, key)
	assert.Equal(t, "Renamed", u.Name)

	cached, err := f.svc.users.CachedUser(t.Context(), self.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", cached.Name)

	u, key, err = f.svc.UpdateUser(selfCtx, self.ID, UserUpdate{Email: utils.ToPtr("Moved@example.com")})
	require.NoError(t, err)
	require.NotNil(t, key)
	assert.Equal(t, models.KeyVerify, key.Type)
	assert.Equal(t, "moved@example.com", u.Email)
	assert.False(t, u.Verified)

	verified, err := f.svc.VerifyAccount(t.Context(), key.ID)
	require.NoError(t, err)
	assert.True(t, verified.Verified)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	manager, _ := f.user(t, models.UserManager)
	u, key, err := f.svc.CreateUser(manager, "pw@example.com", "", models.UserWorker)
	require.NoError(t, err)
	_, err = f.svc.SetupAccount(t.Context(), key.ID, "Pat", "Firstpass1")
	require.NoError(t, err)
	self := WithUser(t.Context(), u.ID)

	assert.ErrorIs(t, f.svc.ChangePassword(self, u.ID, "wrong", "Secondpass2"), ErrInvalidCredentials)
	require.NoError(t, f.svc.ChangePassword(self, u.ID, "Firstpass1", "Secondpass2"))
	require.NoError(t, f.svc.ChangePassword(manager, u.ID, "", "Thirdpass3"))

	_, err = f.svc.SignIn(t.Context(), "pw@example.com", "Thirdpass3")
	require.NoError(t, err)
}

func TestArchivedUsersLoseAccess(t *testing.T) {
	f := newFixture(t)
	manager, managerUser := f.user(t, models.UserManager)
	workerCtx, worker := f.user(t, models.UserWorker)

	_, err := f.svc.AccountClients(workerCtx)
	require.NoError(t, err)

	var verr *ValidationError
	require.ErrorAs(t, f.svc.ArchiveUser(manager, managerUser.ID), &verr)

	require.NoError(t, f.svc.ArchiveUser(manager, worker.ID))
	_, err = f.svc.AccountClients(workerCtx)
	assert.ErrorIs(t, err, ErrRights)
}

func TestAccessChangesAreSeenImmediately(t *testing.T) {
	f := newFixture(t)
	acme := f.client(t, "Acme", "100", 1, 0, true)
	other := f.client(t, "Other", "100", 1, 0, true)
	manager, _ := f.user(t, models.UserManager)
	clientCtx, clientUser := f.user(t, models.UserClient)

	clients, err := f.svc.AccountClients(clientCtx)
	require.NoError(t, err)
	assert.Empty(t, clients)

	a, err := f.svc.AddAccess(manager, clientUser.ID, acme.ID)
	require.NoError(t, err)
	again, err := f.svc.AddAccess(manager, clientUser.ID, acme.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, again.ID)

	clients, err = f.svc.AccountClients(clientCtx)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, "Acme", clients[0].Name)

	_, err = f.svc.GetClient(clientCtx, other.ID)
	assert.ErrorIs(t, err, ErrRights)

	access, err := f.svc.ListAccess(clientCtx, clientUser.ID)
	require.NoError(t, err)
	require.Len(t, access, 1)

	require.NoError(t, f.svc.RemoveAccessByID(manager, a.ID))
	clients, err = f.svc.AccountClients(clientCtx)
	require.NoError(t, err)
	assert.Empty(t, clients)

	assert.ErrorIs(t, f.svc.RemoveAccess(manager, clientUser.ID, acme.ID), ErrNotFound)
}

func TestInstall(t *testing.T) {
	f := newEmptyFixture(t)

	_, err := f.svc.Install(t.Context(), "root@example.com", "weak", "Tims")
	assert.ErrorIs(t, err, ErrPasswordStrength)

	admin, err := f.svc.Install(t.Context(), "Root@example.com", "Rootpass1", "Tims")
	require.NoError(t, err)
	assert.Equal(t, models.UserAdmin, admin.Type)

	_, err = f.svc.SignIn(t.Context(), "root@example.com", "Rootpass1")
	require.NoError(t, err)

	company, err := f.svc.GetCompany(WithUser(t.Context(), admin.ID))
	require.NoError(t, err)
	assert.Equal(t, "Tims", company.Name)
	assert.Empty(t, company.Taxes)

	_, err = f.svc.Install(t.Context(), "other@example.com", "Rootpass1", "Again")
	assert.ErrorIs(t, err, ErrAlreadyInstalled)
}

func TestCompanyWithoutInstall(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GetCompany(f.admin)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManagersCannotTakeOverAdmins(t *testing.T) {
	f := newFixture(t)
	manager, _ := f.user(t, models.UserManager)
	adminCtx, admin := f.user(t, models.UserAdmin)

	_, _, err := f.svc.UpdateUser(manager, admin.ID, UserUpdate{Email: utils.ToPtr("taken@example.com")})
	assert.ErrorIs(t, err, ErrRights)
	_, _, err = f.svc.UpdateUser(manager, admin.ID, UserUpdate{Name: utils.ToPtr("Renamed")})
	assert.ErrorIs(t, err, ErrRights)
	assert.ErrorIs(t, f.svc.ChangePassword(manager, admin.ID, "", "Takeover1"), ErrRights)

	u, err := f.svc.GetUser(adminCtx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, admin.Email, u.Email)

	u, key, err := f.svc.UpdateUser(f.admin, admin.ID, UserUpdate{Email: utils.ToPtr("moved-admin@example.com")})
	require.NoError(t, err)
	assert.Equal(t, "moved-admin@example.com", u.Email)
	assert.NotNil(t, key)
}
