package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/escolado/escolado/core/school"
)

type schoolApi struct {
	svc *school.Service
}

func registerSchoolAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *school.Service) {
	api := schoolApi{svc: svc}

	sg := g.Group("/school", jwt)

	sg.POST("/students", api.createStudent)
	sg.GET("/students", api.queryStudents)
	sg.GET("/students/:id", api.retrieveStudent)
	sg.PUT("/students/:id", api.updateStudent)
	sg.DELETE("/students/:id", api.destroyStudent)

	sg.POST("/guardians", api.createGuardian)
	sg.GET("/guardians", api.queryGuardians)
	sg.GET("/guardians/:id", api.retrieveGuardian)
	sg.PUT("/guardians/:id", api.updateGuardian)
	sg.DELETE("/guardians/:id", api.destroyGuardian)

	sg.POST("/teachers", api.createTeacher)
	sg.GET("/teachers", api.queryTeachers)
	sg.GET("/teachers/:id", api.retrieveTeacher)
	sg.PUT("/teachers/:id", api.updateTeacher)
	sg.DELETE("/teachers/:id", api.destroyTeacher)

	sg.POST("/sections", api.createSection)
	sg.GET("/sections", api.querySections)
	sg.GET("/sections/:id", api.retrieveSection)
	sg.PUT("/sections/:id", api.updateSection)
	sg.DELETE("/sections/:id", api.destroySection)

	sg.POST("/subjects", api.createSubject)
	sg.GET("/subjects", api.querySubjects)
	sg.GET("/subjects/:id", api.retrieveSubject)
	sg.DELETE("/subjects/:id", api.destroySubject)

	sg.POST("/students/:id/contracts", api.createContract)
	sg.GET("/students/:id/contracts", api.queryContracts)
	sg.GET("/contracts/:id", api.retrieveContract)
	sg.POST("/contracts/:id/signed", api.attachSignedContract)
}

// Students

func (api *schoolApi) createStudent(ctx echo.Context) error {
	var data school.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	stu, err := api.svc.CreateStudent(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, stu)
}

func (api *schoolApi) queryStudents(ctx echo.Context) error {
	filter := school.StudentFilter{
		SectionID:  ctx.QueryParam("section_id"),
		GuardianID: ctx.QueryParam("guardian_id"),
		Search:     ctx.QueryParam("search"),
	}
	students, err := api.svc.QueryStudents(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []school.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *schoolApi) retrieveStudent(ctx echo.Context) error {
	stu, err := api.svc.GetStudent(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stu)
}

func (api *schoolApi) updateStudent(ctx echo.Context) error {
	var data school.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	stu, err := api.svc.UpdateStudent(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stu)
}

func (api *schoolApi) destroyStudent(ctx echo.Context) error {
	if err := api.svc.DeleteStudent(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Guardians

func (api *schoolApi) createGuardian(ctx echo.Context) error {
	var data school.NewGuardian
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGuardian")
	}
	gdn, err := api.svc.CreateGuardian(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, gdn)
}

func (api *schoolApi) queryGuardians(ctx echo.Context) error {
	guardians, err := api.svc.QueryGuardians(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying guardians")
	}
	if guardians == nil {
		guardians = []school.Guardian{}
	}
	return ctx.JSON(http.StatusOK, guardians)
}

func (api *schoolApi) retrieveGuardian(ctx echo.Context) error {
	gdn, err := api.svc.GetGuardian(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, gdn)
}

func (api *schoolApi) updateGuardian(ctx echo.Context) error {
	var data school.NewGuardian
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGuardian")
	}
	gdn, err := api.svc.UpdateGuardian(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, gdn)
}

func (api *schoolApi) destroyGuardian(ctx echo.Context) error {
	if err := api.svc.DeleteGuardian(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Teachers

func (api *schoolApi) createTeacher(ctx echo.Context) error {
	var data school.NewTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTeacher")
	}
	tch, err := api.svc.CreateTeacher(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, tch)
}

func (api *schoolApi) queryTeachers(ctx echo.Context) error {
	teachers, err := api.svc.QueryTeachers(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying teachers")
	}
	if teachers == nil {
		teachers = []school.Teacher{}
	}
	return ctx.JSON(http.StatusOK, teachers)
}

func (api *schoolApi) retrieveTeacher(ctx echo.Context) error {
	tch, err := api.svc.GetTeacher(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, tch)
}

func (api *schoolApi) updateTeacher(ctx echo.Context) error {
	var data school.NewTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTeacher")
	}
	tch, err := api.svc.UpdateTeacher(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, tch)
}

func (api *schoolApi) destroyTeacher(ctx echo.Context) error {
	if err := api.svc.DeleteTeacher(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Class sections

func (api *schoolApi) createSection(ctx echo.Context) error {
	var data school.NewClassSection
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClassSection")
	}
	sec, err := api.svc.CreateSection(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sec)
}

func (api *schoolApi) querySections(ctx echo.Context) error {
	sections, err := api.svc.QuerySections(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying class sections")
	}
	if sections == nil {
		sections = []school.ClassSection{}
	}
	return ctx.JSON(http.StatusOK, sections)
}

func (api *schoolApi) retrieveSection(ctx echo.Context) error {
	sec, err := api.svc.GetSection(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sec)
}

func (api *schoolApi) updateSection(ctx echo.Context) error {
	var data school.NewClassSection
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClassSection")
	}
	sec, err := api.svc.UpdateSection(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sec)
}

func (api *schoolApi) destroySection(ctx echo.Context) error {
	if err := api.svc.DeleteSection(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Subjects

func (api *schoolApi) createSubject(ctx echo.Context) error {
	var data school.NewSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubject")
	}
	sub, err := api.svc.CreateSubject(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *schoolApi) querySubjects(ctx echo.Context) error {
	subjects, err := api.svc.QuerySubjects(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	if subjects == nil {
		subjects = []school.Subject{}
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *schoolApi) retrieveSubject(ctx echo.Context) error {
	sub, err := api.svc.GetSubject(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *schoolApi) destroySubject(ctx echo.Context) error {
	if err := api.svc.DeleteSubject(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Contracts

func (api *schoolApi) createContract(ctx echo.Context) error {
	con, err := api.svc.CreateContract(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, con)
}

func (api *schoolApi) queryContracts(ctx echo.Context) error {
	contracts, err := api.svc.QueryContracts(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying contracts")
	}
	if contracts == nil {
		contracts = []school.Contract{}
	}
	return ctx.JSON(http.StatusOK, contracts)
}

func (api *schoolApi) retrieveContract(ctx echo.Context) error {
	con, err := api.svc.GetContract(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, con)
}

func (api *schoolApi) attachSignedContract(ctx echo.Context) error {
	var data SignedContractRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SignedContractRequest")
	}
	con, err := api.svc.AttachSignedContract(ctx.Request().Context(), ctx.Param("id"), data.Path)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, con)
}

type SignedContractRequest struct {
	Path string `json:"path"`
}
