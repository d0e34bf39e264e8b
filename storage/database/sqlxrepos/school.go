package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/escolado/escolado/core"
	"github.com/escolado/escolado/core/school"
)

type schoolRepository struct {
	db core.DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db core.DB) *schoolRepository {
	return &schoolRepository{db: db}
}

func (repo schoolRepository) exec(ctx context.Context, qb sq.Sqlizer, msg string) error {
	q, args, err := qb.ToSql()
	if err != nil {
		return errors.Wrapf(err, "building query: %s", msg)
	}
	if _, err = repo.db.ExecContext(ctx, q, args...); err != nil {
		return errors.Wrap(err, msg)
	}
	return nil
}

func (repo schoolRepository) execExisting(ctx context.Context, qb sq.Sqlizer, msg string) error {
	q, args, err := qb.ToSql()
	if err != nil {
		return errors.Wrapf(err, "building query: %s", msg)
	}
	res, err := repo.db.ExecContext(ctx, q, args...)
	if err != nil {
		return errors.Wrap(err, msg)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return school.ErrNotFound
	}
	return nil
}

// ---------------------------------------------------------------- students

func (repo schoolRepository) CreateStudent(ctx context.Context, stu school.Student) (school.Student, error) {
	stu.ID = uuid.New().String()
	qb := psql.Insert("students").
		Columns("id", "name", "guardian_id", "section_id", "created_at", "updated_at").
		Values(stu.ID, stu.Name, stu.GuardianID, stu.SectionID, stu.CreatedAt, stu.UpdatedAt)
	if err := repo.exec(ctx, qb, "inserting student"); err != nil {
		return school.Student{}, err
	}
	return stu, nil
}

func (repo schoolRepository) FilterStudents(ctx context.Context, filter school.StudentFilter) ([]school.Student, error) {
	qb := psql.Select("*").From("students").OrderBy("name")
	if filter.SectionID != "" {
		qb = qb.Where(sq.Eq{"section_id": filter.SectionID})
	}
	if filter.GuardianID != "" {
		qb = qb.Where(sq.Eq{"guardian_id": filter.GuardianID})
	}
	if filter.Search != "" {
		qb = qb.Where(sq.ILike{"name": "%" + filter.Search + "%"})
	}
	q, args, err := qb.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building student query")
	}

	students := make([]school.Student, 0)
	if err = repo.db.SelectContext(ctx, &students, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return students, nil
}

func (repo schoolRepository) GetStudentByID(ctx context.Context, id string) (school.Student, error) {
	q, args, err := psql.Select("*").From("students").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return school.Student{}, errors.Wrap(err, "building student query")
	}
	var stu school.Student
	if err = repo.db.GetContext(ctx, &stu, q, args...); err != nil {
		return school.Student{}, trapNoRowsErr(err, school.ErrNotFound, "getting student")
	}
	return stu, nil
}

func (repo schoolRepository) UpdateStudent(ctx context.Context, stu school.Student) (school.Student, error) {
	qb := psql.Update("students").
		Set("name", stu.Name).
		Set("guardian_id", stu.GuardianID).
		Set("section_id", stu.SectionID).
		Set("updated_at", stu.UpdatedAt).
		Where(sq.Eq{"id": stu.ID})
	if err := repo.execExisting(ctx, qb, "updating student"); err != nil {
		return school.Student{}, err
	}
	return stu, nil
}

func (repo schoolRepository) DeleteStudent(ctx context.Context, id string) error {
	return repo.execExisting(ctx, psql.Delete("students").Where(sq.Eq{"id": id}), "deleting student")
}

// --------------------------------------------------------------- guardians

func (repo schoolRepository) CreateGuardian(ctx context.Context, gdn school.Guardian) (school.Guardian, error) {
	gdn.ID = uuid.New().String()
	qb := psql.Insert("guardians").
		Columns("id", "name", "phone", "email", "national_id", "birthday", "address", "created_at", "updated_at").
		Values(gdn.ID, gdn.Name, gdn.Phone, gdn.Email, gdn.NationalID, gdn.Birthday, gdn.Address, gdn.CreatedAt, gdn.UpdatedAt)
	if err := repo.exec(ctx, qb, "inserting guardian"); err != nil {
		return school.Guardian{}, err
	}
	return gdn, nil
}

func (repo schoolRepository) QueryAllGuardians(ctx context.Context) ([]school.Guardian, error) {
	q, args, err := psql.Select("*").From("guardians").OrderBy("name").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building guardian query")
	}
	guardians := make([]school.Guardian, 0)
	if err = repo.db.SelectContext(ctx, &guardians, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying guardians")
	}
	return guardians, nil
}

func (repo schoolRepository) GetGuardianByID(ctx context.Context, id string) (school.Guardian, error) {
	q, args, err := psql.Select("*").From("guardians").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return school.Guardian{}, errors.Wrap(err, "building guardian query")
	}
	var gdn school.Guardian
	if err = repo.db.GetContext(ctx, &gdn, q, args...); err != nil {
		return school.Guardian{}, trapNoRowsErr(err, school.ErrNotFound, "getting guardian")
	}
	return gdn, nil
}

func (repo schoolRepository) UpdateGuardian(ctx context.Context, gdn school.Guardian) (school.Guardian, error) {
	qb := psql.Update("guardians").
		Set("name", gdn.Name).
		Set("phone", gdn.Phone).
		Set("email", gdn.Email).
		Set("national_id", gdn.NationalID).
		Set("birthday", gdn.Birthday).
		Set("address", gdn.Address).
		Set("updated_at", gdn.UpdatedAt).
		Where(sq.Eq{"id": gdn.ID})
	if err := repo.execExisting(ctx, qb, "updating guardian"); err != nil {
		return school.Guardian{}, err
	}
	return gdn, nil
}

func (repo schoolRepository) DeleteGuardian(ctx context.Context, id string) error {
	return repo.execExisting(ctx, psql.Delete("guardians").Where(sq.Eq{"id": id}), "deleting guardian")
}

// ---------------------------------------------------------------- teachers

func (repo schoolRepository) CreateTeacher(ctx context.Context, tch school.Teacher) (school.Teacher, error) {
	tch.ID = uuid.New().String()
	qb := psql.Insert("teachers").
		Columns("id", "name", "phone", "email", "national_id", "birthday", "created_at", "updated_at").
		Values(tch.ID, tch.Name, tch.Phone, tch.Email, tch.NationalID, tch.Birthday, tch.CreatedAt, tch.UpdatedAt)
	if err := repo.exec(ctx, qb, "inserting teacher"); err != nil {
		return school.Teacher{}, err
	}
	return tch, nil
}

func (repo schoolRepository) QueryAllTeachers(ctx context.Context) ([]school.Teacher, error) {
	q, args, err := psql.Select("*").From("teachers").OrderBy("name").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building teacher query")
	}
	teachers := make([]school.Teacher, 0)
	if err = repo.db.SelectContext(ctx, &teachers, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying teachers")
	}
	return teachers, nil
}

func (repo schoolRepository) GetTeacherByID(ctx context.Context, id string) (school.Teacher, error) {
	q, args, err := psql.Select("*").From("teachers").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return school.Teacher{}, errors.Wrap(err, "building teacher query")
	}
	var tch school.Teacher
	if err = repo.db.GetContext(ctx, &tch, q, args...); err != nil {
		return school.Teacher{}, trapNoRowsErr(err, school.ErrNotFound, "getting teacher")
	}
	return tch, nil
}

func (repo schoolRepository) UpdateTeacher(ctx context.Context, tch school.Teacher) (school.Teacher, error) {
	qb := psql.Update("teachers").
		Set("name", tch.Name).
		Set("phone", tch.Phone).
		Set("email", tch.Email).
		Set("national_id", tch.NationalID).
		Set("birthday", tch.Birthday).
		Set("updated_at", tch.UpdatedAt).
		Where(sq.Eq{"id": tch.ID})
	if err := repo.execExisting(ctx, qb, "updating teacher"); err != nil {
		return school.Teacher{}, err
	}
	return tch, nil
}

func (repo schoolRepository) DeleteTeacher(ctx context.Context, id string) error {
	return repo.execExisting(ctx, psql.Delete("teachers").Where(sq.Eq{"id": id}), "deleting teacher")
}

// ---------------------------------------------------------------- sections

func (repo schoolRepository) CreateSection(ctx context.Context, sec school.ClassSection) (school.ClassSection, error) {
	sec.ID = uuid.New().String()
	qb := psql.Insert("class_sections").
		Columns("id", "name", "itinerary", "created_at", "updated_at").
		Values(sec.ID, sec.Name, sec.Itinerary, sec.CreatedAt, sec.UpdatedAt)
	if err := repo.exec(ctx, qb, "inserting class section"); err != nil {
		return school.ClassSection{}, err
	}
	return sec, nil
}

func (repo schoolRepository) QueryAllSections(ctx context.Context) ([]school.ClassSection, error) {
	q, args, err := psql.Select("*").From("class_sections").OrderBy("name").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building class section query")
	}
	sections := make([]school.ClassSection, 0)
	if err = repo.db.SelectContext(ctx, &sections, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying class sections")
	}
	return sections, nil
}

func (repo schoolRepository) GetSectionByID(ctx context.Context, id string) (school.ClassSection, error) {
	q, args, err := psql.Select("*").From("class_sections").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return school.ClassSection{}, errors.Wrap(err, "building class section query")
	}
	var sec school.ClassSection
	if err = repo.db.GetContext(ctx, &sec, q, args...); err != nil {
		return school.ClassSection{}, trapNoRowsErr(err, school.ErrNotFound, "getting class section")
	}
	return sec, nil
}

func (repo schoolRepository) UpdateSection(ctx context.Context, sec school.ClassSection) (school.ClassSection, error) {
	qb := psql.Update("class_sections").
		Set("name", sec.Name).
		Set("itinerary", sec.Itinerary).
		Set("updated_at", sec.UpdatedAt).
		Where(sq.Eq{"id": sec.ID})
	if err := repo.execExisting(ctx, qb, "updating class section"); err != nil {
		return school.ClassSection{}, err
	}
	return sec, nil
}

func (repo schoolRepository) DeleteSection(ctx context.Context, id string) error {
	return repo.execExisting(ctx, psql.Delete("class_sections").Where(sq.Eq{"id": id}), "deleting class section")
}

// ---------------------------------------------------------------- subjects

func (repo schoolRepository) CreateSubject(ctx context.Context, sub school.Subject) (school.Subject, error) {
	sub.ID = uuid.New().String()
	qb := psql.Insert("subjects").
		Columns("id", "name", "created_at", "updated_at").
		Values(sub.ID, sub.Name, sub.CreatedAt, sub.UpdatedAt)
	if err := repo.exec(ctx, qb, "inserting subject"); err != nil {
		return school.Subject{}, err
	}
	return sub, nil
}

func (repo schoolRepository) QueryAllSubjects(ctx context.Context) ([]school.Subject, error) {
	q, args, err := psql.Select("*").From("subjects").OrderBy("name").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building subject query")
	}
	subjects := make([]school.Subject, 0)
	if err = repo.db.SelectContext(ctx, &subjects, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}
	return subjects, nil
}

func (repo schoolRepository) GetSubjectByID(ctx context.Context, id string) (school.Subject, error) {
	q, args, err := psql.Select("*").From("subjects").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return school.Subject{}, errors.Wrap(err, "building subject query")
	}
	var sub school.Subject
	if err = repo.db.GetContext(ctx, &sub, q, args...); err != nil {
		return school.Subject{}, trapNoRowsErr(err, school.ErrNotFound, "getting subject")
	}
	return sub, nil
}

func (repo schoolRepository) DeleteSubject(ctx context.Context, id string) error {
	return repo.execExisting(ctx, psql.Delete("subjects").Where(sq.Eq{"id": id}), "deleting subject")
}

// --------------------------------------------------------------- contracts

func (repo schoolRepository) CreateContract(ctx context.Context, con school.Contract) (school.Contract, error) {
	con.ID = uuid.New().String()
	qb := psql.Insert("contracts").
		Columns("id", "student_id", "signed", "signed_file", "created_at").
		Values(con.ID, con.StudentID, con.Signed, con.SignedFile, con.CreatedAt)
	if err := repo.exec(ctx, qb, "inserting contract"); err != nil {
		return school.Contract{}, err
	}
	return con, nil
}

func (repo schoolRepository) GetContractByID(ctx context.Context, id string) (school.Contract, error) {
	q, args, err := psql.Select("*").From("contracts").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return school.Contract{}, errors.Wrap(err, "building contract query")
	}
	var con school.Contract
	if err = repo.db.GetContext(ctx, &con, q, args...); err != nil {
		return school.Contract{}, trapNoRowsErr(err, school.ErrNotFound, "getting contract")
	}
	return con, nil
}

func (repo schoolRepository) QueryContractsByStudent(ctx context.Context, studentID string) ([]school.Contract, error) {
	q, args, err := psql.Select("*").From("contracts").
		Where(sq.Eq{"student_id": studentID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building contract query")
	}
	contracts := make([]school.Contract, 0)
	if err = repo.db.SelectContext(ctx, &contracts, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying contracts")
	}
	return contracts, nil
}

func (repo schoolRepository) SetContractSigned(ctx context.Context, id, path string) (school.Contract, error) {
	qb := psql.Update("contracts").
		Set("signed", true).
		Set("signed_file", path).
		Where(sq.Eq{"id": id})
	if err := repo.execExisting(ctx, qb, "signing contract"); err != nil {
		return school.Contract{}, err
	}
	return repo.GetContractByID(ctx, id)
}
