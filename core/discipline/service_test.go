package discipline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/escolado/escolado/core"
	"github.com/escolado/escolado/core/discipline"
	"github.com/escolado/escolado/core/school"
	emailsvc "github.com/escolado/escolado/services/email"
	pdfsvc "github.com/escolado/escolado/services/pdf"
	dummydb "github.com/escolado/escolado/storage/database/dummy"
)

type testDeps struct {
	svc       *discipline.Service
	schoolSvc *school.Service
	docSvc    *pdfsvc.DummyService
}

func setup(t *testing.T) testDeps {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	schoolSvc := school.NewService(dummydb.NewSchoolRepository(db))
	docSvc := pdfsvc.NewDummyService()
	svc := discipline.NewService(dummydb.NewDisciplineRepository(db), schoolSvc, docSvc, emailsvc.NewConsoleServiceMock())
	emailsvc.ClearSentMessages()
	return testDeps{svc: svc, schoolSvc: schoolSvc, docSvc: docSvc}
}

func createStudent(t *testing.T, svc *school.Service, ns school.NewStudent) school.Student {
	stu, err := svc.CreateStudent(context.Background(), ns)
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return stu
}

func createWarning(t *testing.T, svc *discipline.Service, studentID string) discipline.Warning {
	wrn, err := svc.CreateWarning(context.Background(), discipline.NewWarning{
		StudentID: studentID,
		Date:      "2026-04-10",
		Reason:    "Repeated tardiness",
	})
	if err != nil {
		t.Fatalf("CreateWarning() failed: %v", err)
	}
	return wrn
}

func TestService_CreateSuspension(t *testing.T) {
	deps := setup(t)
	ctx := context.Background()

	sus, err := deps.svc.CreateSuspension(ctx, discipline.NewSuspension{
		StudentID: "stu-1",
		SectionID: "sec-1",
		StartDate: "2026-04-01",
		EndDate:   "2026-04-03",
		Reason:    "Fighting",
	}, "staff-1")
	assert.NoError(t, err)
	assert.Equal(t, "staff-1", sus.CreatedBy)
	assert.True(t, sus.EndDate.Valid)

	// inverted range is rejected
	_, err = deps.svc.CreateSuspension(ctx, discipline.NewSuspension{
		StudentID: "stu-1",
		SectionID: "sec-1",
		StartDate: "2026-04-10",
		EndDate:   "2026-04-03",
		Reason:    "Fighting",
	}, "staff-1")
	var vErr *core.ValidationError
	if assert.True(t, errors.As(err, &vErr)) {
		assert.Equal(t, discipline.ErrInvalidDateRange, vErr.Err)
	}

	// open-ended suspension is fine
	sus, err = deps.svc.CreateSuspension(ctx, discipline.NewSuspension{
		StudentID: "stu-2",
		SectionID: "sec-1",
		StartDate: "2026-04-01",
		Reason:    "Pending review",
	}, "staff-1")
	assert.NoError(t, err)
	assert.False(t, sus.EndDate.Valid)
}

func TestService_ListActive(t *testing.T) {
	deps := setup(t)
	ctx := context.Background()

	today := core.Today().Format(core.DateFormat)
	lastWeek := core.Today().AddDate(0, 0, -7).Format(core.DateFormat)
	yesterday := core.Today().AddDate(0, 0, -1).Format(core.DateFormat)
	tomorrow := core.Today().AddDate(0, 0, 1).Format(core.DateFormat)

	create := func(studentID, sectionID, start, end string) discipline.Suspension {
		sus, err := deps.svc.CreateSuspension(ctx, discipline.NewSuspension{
			StudentID: studentID,
			SectionID: sectionID,
			StartDate: start,
			EndDate:   end,
			Reason:    "misconduct",
		}, "staff-1")
		if err != nil {
			t.Fatalf("CreateSuspension() failed: %v", err)
		}
		return sus
	}

	current := create("stu-1", "sec-1", yesterday, tomorrow)
	openEnded := create("stu-2", "sec-1", yesterday, "")
	create("stu-3", "sec-1", lastWeek, yesterday) // expired
	create("stu-4", "sec-1", tomorrow, "")        // not started
	other := create("stu-5", "sec-2", today, "")

	active, err := deps.svc.ListActive(ctx, "")
	assert.NoError(t, err)
	ids := make([]string, 0, len(active))
	for _, sus := range active {
		ids = append(ids, sus.ID)
	}
	assert.ElementsMatch(t, []string{current.ID, openEnded.ID, other.ID}, ids)

	active, err = deps.svc.ListActive(ctx, "sec-2")
	assert.NoError(t, err)
	if assert.Len(t, active, 1) {
		assert.Equal(t, other.ID, active[0].ID)
	}

	all, err := deps.svc.ListAll(ctx, "")
	assert.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestService_WarningDocument(t *testing.T) {
	deps := setup(t)
	ctx := context.Background()

	gdn, err := deps.schoolSvc.CreateGuardian(ctx, school.NewGuardian{Name: "Maria Souza", Email: "maria@example.com"})
	if err != nil {
		t.Fatalf("CreateGuardian() failed: %v", err)
	}
	stu := createStudent(t, deps.schoolSvc, school.NewStudent{Name: "Ana Souza", GuardianID: gdn.ID})
	wrn := createWarning(t, deps.svc, stu.ID)

	doc, err := deps.svc.WarningDocument(ctx, wrn.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Disciplinary Warning", doc.Title)
	assert.Equal(t, "Ana Souza", doc.Subtitle)
	labels := make([]string, 0, len(doc.Meta))
	for _, fld := range doc.Meta {
		labels = append(labels, fld.Label)
	}
	assert.Contains(t, labels, "Guardian")

	_, err = deps.svc.WarningDocument(ctx, "nope")
	assert.Equal(t, discipline.ErrWarningNotFound, err)
}

func TestService_IssueDocuments(t *testing.T) {
	deps := setup(t)
	ctx := context.Background()

	gdn, err := deps.schoolSvc.CreateGuardian(ctx, school.NewGuardian{Name: "Maria Souza", Email: "maria@example.com"})
	if err != nil {
		t.Fatalf("CreateGuardian() failed: %v", err)
	}
	noMail, err := deps.schoolSvc.CreateGuardian(ctx, school.NewGuardian{Name: "Jose Lima"})
	if err != nil {
		t.Fatalf("CreateGuardian() failed: %v", err)
	}

	reachable := createStudent(t, deps.schoolSvc, school.NewStudent{Name: "Ana Souza", GuardianID: gdn.ID})
	orphaned := createStudent(t, deps.schoolSvc, school.NewStudent{Name: "Bruno Dias"})
	unreachable := createStudent(t, deps.schoolSvc, school.NewStudent{Name: "Carla Lima", GuardianID: noMail.ID})

	okWrn := createWarning(t, deps.svc, reachable.ID)
	orphanWrn := createWarning(t, deps.svc, orphaned.ID)
	noMailWrn := createWarning(t, deps.svc, unreachable.ID)

	failures, err := deps.svc.IssueDocuments(ctx, []string{okWrn.ID, orphanWrn.ID, noMailWrn.ID, "missing"})
	assert.NoError(t, err)

	// the deliverable one went out with the notice attached
	if assert.Len(t, emailsvc.SentMessages, 1) {
		msg := emailsvc.SentMessages[0]
		assert.Equal(t, "maria@example.com", msg.To[0].Address)
		if assert.Len(t, msg.Attachments, 1) {
			assert.Equal(t, "warning.pdf", msg.Attachments[0].Filename)
		}
	}
	assert.Len(t, deps.docSvc.RenderedDocuments, 1)

	// the rest are reported, not fatal
	if assert.Len(t, failures, 3) {
		byID := make(map[string]string, len(failures))
		for _, f := range failures {
			byID[f.WarningID] = f.Reason
		}
		assert.Contains(t, byID[orphanWrn.ID], "no guardian on file")
		assert.Contains(t, byID[noMailWrn.ID], "no guardian e-mail on file")
		assert.Equal(t, "warning not found", byID["missing"])
	}
}

func TestService_IssueDocuments_RenderFailure(t *testing.T) {
	deps := setup(t)
	ctx := context.Background()

	gdn, err := deps.schoolSvc.CreateGuardian(ctx, school.NewGuardian{Name: "Maria Souza", Email: "maria@example.com"})
	if err != nil {
		t.Fatalf("CreateGuardian() failed: %v", err)
	}
	stu := createStudent(t, deps.schoolSvc, school.NewStudent{Name: "Ana Souza", GuardianID: gdn.ID})
	wrn := createWarning(t, deps.svc, stu.ID)

	deps.docSvc.Err = errors.New("out of ink")

	failures, err := deps.svc.IssueDocuments(ctx, []string{wrn.ID})
	assert.NoError(t, err)
	if assert.Len(t, failures, 1) {
		assert.Contains(t, failures[0].Reason, "rendering document")
	}
	assert.Empty(t, emailsvc.SentMessages)
}
