// Package dummydb provides in-memory repository implementations for tests.
// Each domain's tables share one mutex, which stands in for the production
// repos' transactions.
package dummydb

import (
	"sync"

	"github.com/escolado/escolado/core/attendance"
	"github.com/escolado/escolado/core/calendar"
	"github.com/escolado/escolado/core/discipline"
	"github.com/escolado/escolado/core/gradebook"
	"github.com/escolado/escolado/core/inventory"
	"github.com/escolado/escolado/core/school"
	"github.com/escolado/escolado/core/staff"
)

type (
	DB struct {
		staff      *staffTable
		school     *schoolTables
		inventory  *inventoryTables
		attendance *attendanceTable
		discipline *disciplineTables
		gradebook  *gradeTable
		calendar   *calendarTables
	}

	staffTable struct {
		sync.RWMutex
		table map[string]*staff.Staff
	}

	schoolTables struct {
		sync.RWMutex
		students  map[string]*school.Student
		guardians map[string]*school.Guardian
		teachers  map[string]*school.Teacher
		sections  map[string]*school.ClassSection
		subjects  map[string]*school.Subject
		contracts map[string]*school.Contract
	}

	inventoryTables struct {
		sync.RWMutex
		resources map[string]*inventory.Resource
		loans     map[string]*inventory.Loan
	}

	attendanceTable struct {
		sync.RWMutex
		table map[string]*attendance.Record
	}

	disciplineTables struct {
		sync.RWMutex
		suspensions map[string]*discipline.Suspension
		warnings    map[string]*discipline.Warning
	}

	gradeTable struct {
		sync.RWMutex
		table map[string]*gradebook.Grade
	}

	calendarTables struct {
		sync.RWMutex
		events        map[string]*calendar.CalendarEvent
		activities    map[string]*calendar.AgendaActivity
		notifications map[string]*calendar.Notification
	}
)

func Open() (*DB, error) {
	db := &DB{
		staff: &staffTable{table: make(map[string]*staff.Staff)},
		school: &schoolTables{
			students:  make(map[string]*school.Student),
			guardians: make(map[string]*school.Guardian),
			teachers:  make(map[string]*school.Teacher),
			sections:  make(map[string]*school.ClassSection),
			subjects:  make(map[string]*school.Subject),
			contracts: make(map[string]*school.Contract),
		},
		inventory: &inventoryTables{
			resources: make(map[string]*inventory.Resource),
			loans:     make(map[string]*inventory.Loan),
		},
		attendance: &attendanceTable{table: make(map[string]*attendance.Record)},
		discipline: &disciplineTables{
			suspensions: make(map[string]*discipline.Suspension),
			warnings:    make(map[string]*discipline.Warning),
		},
		gradebook: &gradeTable{table: make(map[string]*gradebook.Grade)},
		calendar: &calendarTables{
			events:        make(map[string]*calendar.CalendarEvent),
			activities:    make(map[string]*calendar.AgendaActivity),
			notifications: make(map[string]*calendar.Notification),
		},
	}
	return db, nil
}
