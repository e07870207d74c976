package tests

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ozolsdev/examticket/core"
	"github.com/ozolsdev/examticket/core/exam"
	testutil "github.com/ozolsdev/examticket/tests"
)

func Test_examApi_examCreate(t *testing.T) {
	te := setup(t)

	body := marshalObj(t, exam.NewExam{
		ExamName:      "Maths",
		ExamClass:     "5A",
		StudentsText:  "Alice,Bob,Charlie",
		ExamStartTime: "09:00",
		ExamDuration:  "30",
	})
	rec := do(t, te.app, http.MethodPost, "/api/exams", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var doc exam.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	require.NotEmpty(t, doc.ID)
	students := doc.Classes["5A"].Students
	require.Len(t, students, 3)
	require.Equal(t, "09:30", students[1].ExamStartTime)
	require.Equal(t, "10:00", students[1].ExamEndTime)

	tests := []httpTest{
		{
			name: "missing fields", method: http.MethodPost, path: "/api/exams",
			body:     marshalObj(t, map[string]string{"examName": "Maths"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "malformed start time", method: http.MethodPost, path: "/api/exams",
			body: marshalObj(t, map[string]string{
				"examName": "Maths", "examClass": "5A", "studentsText": "Dan",
				"examStartTime": "9 o'clock", "examDuration": "30",
			}),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"examStartTime": "must be a valid HH:MM time"}),
		},
		{
			name: "non-numeric duration", method: http.MethodPost, path: "/api/exams",
			body: marshalObj(t, map[string]string{
				"examName": "Maths", "examClass": "5A", "studentsText": "Dan",
				"examStartTime": "09:00", "examDuration": "half an hour",
			}),
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, te.app, tt.method, tt.path, tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_examApi_examQueryNames(t *testing.T) {
	te := setup(t)
	testutil.CreateExam(t, te.examRepo, "Maths", "5A", testutil.NewChainedStudents("09:00", "30", "Alice"))
	testutil.CreateExam(t, te.examRepo, "Physics", "5B", testutil.NewChainedStudents("10:00", "20", "Bob"))

	rec := do(t, te.app, http.MethodGet, "/api/exams/names")
	require.Equal(t, http.StatusOK, rec.Code)

	var names []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &names))
	require.ElementsMatch(t, []string{"Maths", "Physics"}, names)
}

func Test_examApi_examRetrieve(t *testing.T) {
	te := setup(t)
	doc := testutil.CreateExam(t, te.examRepo, "Maths", "5A", testutil.NewChainedStudents("09:00", "30", "Alice", "Bob"))

	tests := []httpTest{
		{name: "found", method: http.MethodGet, path: "/api/exams/" + doc.ID, wantCode: http.StatusOK},
		{
			name: "not found", method: http.MethodGet, path: "/api/exams/ghost",
			wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: "exam not found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, te.app, tt.method, tt.path)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("class record", func(t *testing.T) {
		rec := do(t, te.app, http.MethodGet, "/api/exams/"+doc.ID+"/classes?className=5A")
		require.Equal(t, http.StatusOK, rec.Code)

		var cr exam.ClassRecord
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cr))
		require.Equal(t, "Maths", cr.ExamName)
		require.Equal(t, doc.ID, cr.DocumentID)
		require.Len(t, cr.Students, 2)
	})

	t.Run("unknown class", func(t *testing.T) {
		rec := do(t, te.app, http.MethodGet, "/api/exams/"+doc.ID+"/classes?className=9Z")
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func Test_examApi_selection(t *testing.T) {
	te := setup(t)
	doc := testutil.CreateExam(t, te.examRepo, "Maths", "5A", testutil.NewChainedStudents("09:00", "30", "Alice"))

	t.Run("no selection yet", func(t *testing.T) {
		rec := do(t, te.app, http.MethodGet, "/api/exams/current-selection")
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("select then refetch", func(t *testing.T) {
		body := marshalObj(t, map[string]string{"documentId": doc.ID, "selectedClass": "5A"})
		rec := do(t, te.app, http.MethodPost, "/api/exams/select", body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		// the change event is out before any client can refetch
		events := te.broadcaster.Published()
		require.NotEmpty(t, events)
		last := events[len(events)-1]
		require.Equal(t, core.ChannelExamUpdates, last.Channel)
		require.Equal(t, core.EventExamChanged, last.Event)

		// a viewer reacting to the event sees the same state
		rec = do(t, te.app, http.MethodGet, "/api/exams/current-selection")
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, fmt.Sprintf(`{"documentId":%q,"selectedClass":"5A","examName":"Maths"}`, doc.ID), rec.Body.String())
	})

	t.Run("unknown document rejected", func(t *testing.T) {
		body := marshalObj(t, map[string]string{"documentId": "ghost", "selectedClass": "5A"})
		rec := do(t, te.app, http.MethodPost, "/api/exams/select", body)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func Test_examApi_dropdown(t *testing.T) {
	te := setup(t)

	t.Run("unset", func(t *testing.T) {
		rec := do(t, te.app, http.MethodGet, "/api/settings/dropdown")
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("save then fetch", func(t *testing.T) {
		body := marshalObj(t, map[string]string{"selectedExam": "Maths", "selectedClass": "5A"})
		rec := do(t, te.app, http.MethodPost, "/api/settings/dropdown", body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = do(t, te.app, http.MethodGet, "/api/settings/dropdown")
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"selectedExam":"Maths","selectedClass":"5A"}`, rec.Body.String())
	})

	t.Run("second save carries old values in the event", func(t *testing.T) {
		body := marshalObj(t, map[string]string{"selectedExam": "Physics", "selectedClass": "5B"})
		rec := do(t, te.app, http.MethodPost, "/api/settings/dropdown", body)
		require.Equal(t, http.StatusOK, rec.Code)

		events := te.broadcaster.Published()
		ev, ok := events[len(events)-1].Payload.(core.DropdownChangeEvent)
		require.True(t, ok, "payload type %T", events[len(events)-1].Payload)
		require.Equal(t, "Maths", ev.OldSelectedExam)
		require.Equal(t, "Physics", ev.SelectedExam)
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := do(t, te.app, http.MethodPost, "/api/settings/dropdown", marshalObj(t, map[string]string{}))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func Test_examApi_students(t *testing.T) {
	te := setup(t)
	doc := testutil.CreateExam(t, te.examRepo, "Maths", "5A", testutil.NewChainedStudents("09:00", "30", "Alice", "Bob"))
	alice := doc.Classes["5A"].Students[0]

	path := func(docID, class, student string) string {
		v := make(url.Values)
		v.Add("documentId", docID)
		v.Add("className", class)
		v.Add("studentId", student)
		return "/api/students?" + v.Encode()
	}

	t.Run("fetch one", func(t *testing.T) {
		rec := do(t, te.app, http.MethodGet, path(doc.ID, "5A", alice.ID))
		require.Equal(t, http.StatusOK, rec.Code)

		var st exam.Student
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
		require.Equal(t, "Alice", st.Name)
		require.Equal(t, "09:00", st.ExamStartTime)
	})

	t.Run("unknown student", func(t *testing.T) {
		rec := do(t, te.app, http.MethodGet, path(doc.ID, "5A", "ghost"))
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("missing params", func(t *testing.T) {
		rec := do(t, te.app, http.MethodGet, "/api/students")
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("select student syncs user state", func(t *testing.T) {
		body := marshalObj(t, map[string]string{
			"lastSelectedStudentId": alice.ID,
			"documentId":            doc.ID,
			"className":             "5A",
		})
		rec := do(t, te.app, http.MethodPost, "/api/students/select", body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		events := te.broadcaster.Published()
		last := events[len(events)-1]
		require.Equal(t, core.ChannelStudentUpdates, last.Channel)
		require.Equal(t, core.EventStudentChanged, last.Event)

		rec = do(t, te.app, http.MethodGet, "/api/settings/user-state")
		require.Equal(t, http.StatusOK, rec.Code)

		var st exam.UserState
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
		require.Equal(t, alice.ID, st.LastSelectedStudentID)
	})
}

// a subscriber bound before a change always observes state at least as new as
// the event it reacts to
func Test_broadcastThenRefetch(t *testing.T) {
	te := setup(t)
	doc := testutil.CreateExam(t, te.examRepo, "Maths", "5A", testutil.NewChainedStudents("09:00", "30", "Alice"))

	type seen struct {
		docID string
		class string
	}
	var got []seen
	sub := te.broadcaster.Subscribe(core.ChannelExamUpdates)
	sub.Bind(core.EventExamChanged, func(payload interface{}) {
		ev := payload.(core.ExamChangedEvent)
		// refetch on event, as the monitor screens do
		sel, err := te.examSvc.CurrentSelection(context.Background())
		require.NoError(t, err)
		require.Equal(t, ev.DocumentID, sel.DocumentID)
		got = append(got, seen{docID: sel.DocumentID, class: sel.SelectedClass})
	})
	defer sub.Unsubscribe()

	body := marshalObj(t, map[string]string{"documentId": doc.ID, "selectedClass": "5A"})
	rec := do(t, te.app, http.MethodPost, "/api/exams/select", body)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Equal(t, []seen{{docID: doc.ID, class: "5A"}}, got)
}
