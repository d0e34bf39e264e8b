package staff_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/escolado/escolado/core"
	"github.com/escolado/escolado/core/staff"
	emailsvc "github.com/escolado/escolado/services/email"
	dummydb "github.com/escolado/escolado/storage/database/dummy"
)

func setup(t *testing.T) *staff.Service {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	emailsvc.ClearSentMessages()
	return staff.NewService(dummydb.NewStaffRepository(db), emailsvc.NewConsoleServiceMock())
}

func TestNewStaff_Validate(t *testing.T) {
	svc := setup(t)

	tests := []struct {
		name    string
		ns      staff.NewStaff
		wantErr bool
	}{
		{
			name: "ok",
			ns:   staff.NewStaff{Name: "Test Admin", Username: "admin", Password: "G00d#Pa55word", PasswordConfirm: "G00d#Pa55word"},
		},
		{
			name:    "no username nor email",
			ns:      staff.NewStaff{Name: "Test Admin", Password: "G00d#Pa55word", PasswordConfirm: "G00d#Pa55word"},
			wantErr: true,
		},
		{
			name:    "password mismatch",
			ns:      staff.NewStaff{Name: "Test Admin", Username: "admin", Password: "G00d#Pa55word", PasswordConfirm: "other"},
			wantErr: true,
		},
		{
			name:    "password too short",
			ns:      staff.NewStaff{Name: "Test Admin", Username: "admin", Password: "G0#d", PasswordConfirm: "G0#d"},
			wantErr: true,
		},
		{
			name:    "password all numeric",
			ns:      staff.NewStaff{Name: "Test Admin", Username: "admin", Password: "12345678", PasswordConfirm: "12345678"},
			wantErr: true,
		},
		{
			name:    "password lacks complexity",
			ns:      staff.NewStaff{Name: "Test Admin", Username: "admin", Password: "goodpassword", PasswordConfirm: "goodpassword"},
			wantErr: true,
		},
		{
			name:    "password contains whitespace",
			ns:      staff.NewStaff{Name: "Test Admin", Username: "admin", Password: "G00d #Pa55word", PasswordConfirm: "G00d #Pa55word"},
			wantErr: true,
		},
		{
			name:    "password similar to username",
			ns:      staff.NewStaff{Name: "Test Admin", Username: "administrator1", Password: "Administrator1!", PasswordConfirm: "Administrator1!"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ns.Validate(svc)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestService_CheckUniqueness(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	stf, err := svc.Create(ctx, staff.NewStaff{
		Name:     "Test Admin",
		Username: "admin",
		Email:    "admin@escolado.test",
		Password: "G00d#Pa55word",
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	var vErr *core.ValidationError
	err = svc.CheckUniqueness("admin", "")
	if assert.True(t, errors.As(err, &vErr)) {
		assert.Equal(t, "username", vErr.Fields[0].Field)
	}
	err = svc.CheckUniqueness("other", "admin@escolado.test")
	if assert.True(t, errors.As(err, &vErr)) {
		assert.Equal(t, "email", vErr.Fields[0].Field)
	}

	// the account itself is excluded when updating
	assert.NoError(t, svc.CheckUniqueness("admin", "admin@escolado.test", stf))
	assert.NoError(t, svc.CheckUniqueness("other", "other@escolado.test"))
}

func TestService_Create_SendsWelcomeEmail(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	stf, err := svc.Create(ctx, staff.NewStaff{
		Name:     "Test Admin",
		Username: "admin",
		Email:    "admin@escolado.test",
		Password: "G00d#Pa55word",
	})
	assert.NoError(t, err)
	assert.True(t, stf.IsActive)
	assert.NoError(t, stf.CheckPassword("G00d#Pa55word"))
	assert.Error(t, stf.CheckPassword("wrong"))

	if assert.Len(t, emailsvc.SentMessages, 1) {
		msg := emailsvc.SentMessages[0]
		assert.Equal(t, "admin@escolado.test", msg.To[0].Address)
		assert.Equal(t, "Welcome!", msg.Subject)
		assert.True(t, strings.Contains(msg.TextContent, "admin"))
	}

	// no email address, no welcome message
	_, err = svc.Create(ctx, staff.NewStaff{Name: "No Mail", Username: "nomail", Password: "G00d#Pa55word"})
	assert.NoError(t, err)
	assert.Len(t, emailsvc.SentMessages, 1)
}

func TestService_GetByUsernameOrEmail(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, staff.NewStaff{
		Name:     "Test Admin",
		Username: "admin",
		Email:    "admin@escolado.test",
		Password: "G00d#Pa55word",
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	stf, err := svc.GetByUsernameOrEmail(ctx, "admin")
	assert.NoError(t, err)
	assert.Equal(t, created.ID, stf.ID)

	// lookup is case-insensitive on input
	stf, err = svc.GetByUsernameOrEmail(ctx, " Admin@Escolado.test ")
	assert.NoError(t, err)
	assert.Equal(t, created.ID, stf.ID)

	_, err = svc.GetByUsernameOrEmail(ctx, "ghost")
	assert.Equal(t, staff.ErrNotFound, err)
}
