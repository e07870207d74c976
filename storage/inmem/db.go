package inmemdb

import (
	"sync"

	"github.com/ozolsdev/examticket/core/brake"
	"github.com/ozolsdev/examticket/core/exam"
)

// DB is an in-memory document store for DEV mode and tests. All repositories
// share one mutex; documents are deep-copied on the way in and out so callers
// never alias table state.
type DB struct {
	mu sync.RWMutex

	exams     map[string]*exam.Document // by document id
	brakes    map[string]*brake.Record  // by brake id
	selection *exam.Selection
	dropdown  *exam.DropdownSelection
	userState *exam.UserState

	pkCount int
}

func NewDB() *DB {
	return &DB{
		exams:  make(map[string]*exam.Document),
		brakes: make(map[string]*brake.Record),
	}
}

func copyDocument(doc exam.Document) exam.Document {
	cp := doc
	cp.Classes = make(map[string]exam.Class, len(doc.Classes))
	for name, cls := range doc.Classes {
		cp.Classes[name] = copyClass(cls)
	}
	return cp
}

func copyClass(cls exam.Class) exam.Class {
	cp := cls
	cp.Students = append([]exam.Student(nil), cls.Students...)
	return cp
}
