package school_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/escolado/escolado/core"
	"github.com/escolado/escolado/core/school"
	dummydb "github.com/escolado/escolado/storage/database/dummy"
)

func setup(t *testing.T) *school.Service {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	return school.NewService(dummydb.NewSchoolRepository(db))
}

func TestService_CreateStudent(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	gdn, err := svc.CreateGuardian(ctx, school.NewGuardian{Name: "Maria Souza"})
	if err != nil {
		t.Fatalf("CreateGuardian() failed: %v", err)
	}
	sec, err := svc.CreateSection(ctx, school.NewClassSection{Name: "3A"})
	if err != nil {
		t.Fatalf("CreateSection() failed: %v", err)
	}

	stu, err := svc.CreateStudent(ctx, school.NewStudent{Name: "Ana Souza", GuardianID: gdn.ID, SectionID: sec.ID})
	assert.NoError(t, err)
	assert.Equal(t, gdn.ID, stu.GuardianID.String)
	assert.Equal(t, sec.ID, stu.SectionID.String)

	// links are checked before the student is written
	var vErr *core.ValidationError
	_, err = svc.CreateStudent(ctx, school.NewStudent{Name: "Bruno Dias", GuardianID: "nope"})
	if assert.True(t, errors.As(err, &vErr)) {
		assert.Equal(t, "guardian_id", vErr.Fields[0].Field)
	}
	_, err = svc.CreateStudent(ctx, school.NewStudent{Name: "Bruno Dias", SectionID: "nope"})
	if assert.True(t, errors.As(err, &vErr)) {
		assert.Equal(t, "section_id", vErr.Fields[0].Field)
	}

	_, err = svc.CreateStudent(ctx, school.NewStudent{Name: "  "})
	assert.Error(t, err)
}

func TestService_UpdateStudent(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	gdn, err := svc.CreateGuardian(ctx, school.NewGuardian{Name: "Maria Souza"})
	if err != nil {
		t.Fatalf("CreateGuardian() failed: %v", err)
	}
	stu, err := svc.CreateStudent(ctx, school.NewStudent{Name: "Ana Souza", GuardianID: gdn.ID})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}

	// an update without a guardian clears the link
	updated, err := svc.UpdateStudent(ctx, stu.ID, school.NewStudent{Name: "Ana S. Souza"})
	assert.NoError(t, err)
	assert.Equal(t, "Ana S. Souza", updated.Name)
	assert.False(t, updated.GuardianID.Valid)

	_, err = svc.UpdateStudent(ctx, "nope", school.NewStudent{Name: "Ana"})
	assert.Equal(t, school.ErrNotFound, err)

	// unknown links are field errors on update too, and nothing is written
	_, err = svc.UpdateStudent(ctx, stu.ID, school.NewStudent{Name: "Ana", GuardianID: "nope"})
	var vErr *core.ValidationError
	if assert.True(t, errors.As(err, &vErr)) {
		assert.Equal(t, []core.FieldError{{Field: "guardian_id", Error: "unknown guardian"}}, vErr.Fields)
	}
	_, err = svc.UpdateStudent(ctx, stu.ID, school.NewStudent{Name: "Ana", SectionID: "nope"})
	if assert.True(t, errors.As(err, &vErr)) {
		assert.Equal(t, []core.FieldError{{Field: "section_id", Error: "unknown class section"}}, vErr.Fields)
	}
	kept, err := svc.GetStudent(ctx, stu.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Ana S. Souza", kept.Name)
}

func TestService_QueryStudents(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	sec, err := svc.CreateSection(ctx, school.NewClassSection{Name: "3A"})
	if err != nil {
		t.Fatalf("CreateSection() failed: %v", err)
	}
	if _, err := svc.CreateStudent(ctx, school.NewStudent{Name: "Ana Souza", SectionID: sec.ID}); err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	if _, err := svc.CreateStudent(ctx, school.NewStudent{Name: "Bruno Dias"}); err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}

	students, err := svc.QueryStudents(ctx, school.StudentFilter{SectionID: sec.ID})
	assert.NoError(t, err)
	assert.Len(t, students, 1)

	// name search is case-insensitive
	students, err = svc.QueryStudents(ctx, school.StudentFilter{Search: "souza"})
	assert.NoError(t, err)
	if assert.Len(t, students, 1) {
		assert.Equal(t, "Ana Souza", students[0].Name)
	}
}

func TestService_Contracts(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	stu, err := svc.CreateStudent(ctx, school.NewStudent{Name: "Ana Souza"})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}

	con, err := svc.CreateContract(ctx, stu.ID)
	assert.NoError(t, err)
	assert.False(t, con.Signed)

	_, err = svc.CreateContract(ctx, "nope")
	assert.Equal(t, school.ErrNotFound, err)

	// attaching the countersigned copy flips the flag once
	signed, err := svc.AttachSignedContract(ctx, con.ID, "contracts/2026/ana-souza.pdf")
	assert.NoError(t, err)
	assert.True(t, signed.Signed)
	assert.Equal(t, "contracts/2026/ana-souza.pdf", signed.SignedFile.String)

	var vErr *core.ValidationError
	_, err = svc.AttachSignedContract(ctx, con.ID, "  ")
	if assert.True(t, errors.As(err, &vErr)) {
		assert.Equal(t, "path", vErr.Fields[0].Field)
	}

	contracts, err := svc.QueryContracts(ctx, stu.ID)
	assert.NoError(t, err)
	assert.Len(t, contracts, 1)
}

func TestService_ContractDocument(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	gdn, err := svc.CreateGuardian(ctx, school.NewGuardian{Name: "Maria Souza", NationalID: "123.456.789-00"})
	if err != nil {
		t.Fatalf("CreateGuardian() failed: %v", err)
	}
	sec, err := svc.CreateSection(ctx, school.NewClassSection{Name: "3A"})
	if err != nil {
		t.Fatalf("CreateSection() failed: %v", err)
	}
	stu, err := svc.CreateStudent(ctx, school.NewStudent{Name: "Ana Souza", GuardianID: gdn.ID, SectionID: sec.ID})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}

	doc, err := svc.ContractDocument(ctx, stu.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Enrollment Contract", doc.Title)
	assert.Equal(t, "Ana Souza", doc.Subtitle)

	byLabel := make(map[string]string, len(doc.Meta))
	for _, fld := range doc.Meta {
		byLabel[fld.Label] = fld.Value
	}
	assert.Equal(t, "3A", byLabel["Class"])
	assert.Equal(t, "Maria Souza", byLabel["Guardian"])
	assert.Equal(t, "123.456.789-00", byLabel["Guardian ID"])
}

func TestService_Subjects(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	sub, err := svc.CreateSubject(ctx, school.NewSubject{Name: "Mathematics"})
	assert.NoError(t, err)

	subjects, err := svc.QuerySubjects(ctx)
	assert.NoError(t, err)
	assert.Len(t, subjects, 1)

	assert.NoError(t, svc.DeleteSubject(ctx, sub.ID))
	assert.Equal(t, school.ErrNotFound, svc.DeleteSubject(ctx, sub.ID))
}
