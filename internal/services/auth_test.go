package services_test

import (
	"context"
	"testing"
	"time"

	"whereat-backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin_OneUserPerPhone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.auth()

	first, err := svc.Login(ctx, "+911234567890", "000000")
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.False(t, first.ProfileComplete)
	assert.NotEmpty(t, first.Token)

	second, err := svc.Login(ctx, "  +911234567890 ", "000000")
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.User.ID, second.User.ID)
}

func TestLogin_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.auth()

	_, err := svc.Login(ctx, "", "000000")
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	_, err = svc.Login(ctx, "+911234567890", "123456")
	assert.ErrorIs(t, err, services.ErrUnauthorized)
	assert.EqualError(t, err, "Invalid OTP")

	assert.Equal(t, "000000", svc.MockOTP())
}

func TestLogin_ProfileComplete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.auth()

	res, err := svc.Login(ctx, "+911234567890", "000000")
	require.NoError(t, err)

	profiles := f.profiles()
	_, err = profiles.Upsert(ctx, res.User.ID, services.ProfileInput{
		Name:      "Alice",
		City:      "Mumbai",
		Interests: []string{"Coffee", "Tech", "Live Music"},
	})
	require.NoError(t, err)

	res, err = svc.Login(ctx, "+911234567890", "000000")
	require.NoError(t, err)
	assert.True(t, res.ProfileComplete)

	me, err := svc.Me(ctx, res.User.ID)
	require.NoError(t, err)
	require.NotNil(t, me.Profile)
	assert.Equal(t, "Alice", me.Profile.Name)
}

func TestValidateToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.auth()

	res, err := svc.Login(ctx, "+911234567890", "000000")
	require.NoError(t, err)

	userID, err := svc.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, userID)

	other := services.NewAuthService(f.db.Users(), f.db.Profiles(), "other-secret", time.Hour, "000000", f.clock.Now)
	_, err = other.ValidateToken(res.Token)
	assert.Error(t, err)

	_, err = svc.ValidateToken("not-a-token")
	assert.Error(t, err)

	f.clock.Advance(2 * time.Hour)
	_, err = svc.ValidateToken(res.Token)
	assert.Error(t, err)
}

func TestMe_UnknownUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.auth().Me(context.Background(), "ghost")
	assert.ErrorIs(t, err, services.ErrUnauthorized)
}

func TestUpdatePushToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", "Alice")
	svc := f.auth()

	require.NoError(t, svc.UpdatePushToken(ctx, alice.ID, "device-1"))
	u, err := f.db.Users().GetByID(ctx, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, u.PushToken)
	assert.Equal(t, "device-1", *u.PushToken)

	require.NoError(t, svc.UpdatePushToken(ctx, alice.ID, " "))
	u, err = f.db.Users().GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Nil(t, u.PushToken)

	assert.ErrorIs(t, svc.UpdatePushToken(ctx, "ghost", "x"), services.ErrUnauthorized)
}

func TestProfileUpsert_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", "Alice")
	svc := f.profiles()

	age := func(n int) *int { return &n }
	tests := []struct {
		name string
		in   services.ProfileInput
	}{
		{name: "missing name", in: services.ProfileInput{City: "Mumbai", Interests: []string{"Art", "Food", "Tech"}}},
		{name: "missing city", in: services.ProfileInput{Name: "Alice", Interests: []string{"Art", "Food", "Tech"}}},
		{name: "too young", in: services.ProfileInput{Name: "Alice", City: "Mumbai", Age: age(17), Interests: []string{"Art", "Food", "Tech"}}},
		{name: "two interests", in: services.ProfileInput{Name: "Alice", City: "Mumbai", Interests: []string{"Art", "Food"}}},
		{name: "four interests", in: services.ProfileInput{Name: "Alice", City: "Mumbai", Interests: []string{"Art", "Food", "Tech", "Coffee"}}},
		{name: "duplicate interests", in: services.ProfileInput{Name: "Alice", City: "Mumbai", Interests: []string{"Art", "art", "Tech"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upsert(ctx, alice.ID, tt.in)
			assert.ErrorIs(t, err, services.ErrInvalidInput)
		})
	}

	p, err := svc.Upsert(ctx, alice.ID, services.ProfileInput{
		Name:      " Alice ",
		City:      "Pune",
		Age:       age(28),
		Interests: []string{"Art", "Food", "Tech"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice", p.Name)

	got, err := svc.Get(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pune", got.City)
	assert.Equal(t, []string{"Art", "Food", "Tech"}, got.Interests)

	_, err = svc.Get(ctx, "ghost")
	assert.ErrorIs(t, err, services.ErrNotFound)

	assert.Len(t, svc.Interests(), 8)
}
