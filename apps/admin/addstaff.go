package main

import (
	"context"
	"time"

	"github.com/escolado/escolado/core"
	"github.com/escolado/escolado/core/staff"
)

// addStaff updates or creates a staff.Staff account, matching on username or
// email.
func (cli *commandLine) addStaff(uname, email, name, pwd string) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	now := time.Now().UTC()
	stf := staff.Staff{
		Name:      core.CleanString(name),
		Username:  uname,
		Email:     email,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := stf.SetPassword(pwd); err != nil {
		return err
	}

	_, err := cli.staffRepo.UpdateOrCreateStaff(ctx, stf)
	return err
}
