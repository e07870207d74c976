package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	. "github.com/ozolsdev/examticket/apps/api/echo"
	"github.com/ozolsdev/examticket/core"
	"github.com/ozolsdev/examticket/core/brake"
	"github.com/ozolsdev/examticket/core/exam"
	"github.com/ozolsdev/examticket/core/timer"
	broadcastsvc "github.com/ozolsdev/examticket/services/broadcast"
	inmemdb "github.com/ozolsdev/examticket/storage/inmem"
	testutil "github.com/ozolsdev/examticket/tests"
)

// env is one fully wired API stack on volatile storage.
type env struct {
	app         Server
	examRepo    exam.Repository
	brakeRepo   brake.Repository
	examSvc     exam.ServiceInterface
	brakeSvc    brake.ServiceInterface
	broadcaster *broadcastsvc.InmemService
}

func setup(t *testing.T) *env {
	t.Helper()

	db := inmemdb.NewDB()
	examRepo := inmemdb.NewExamRepository(db)
	brakeRepo := inmemdb.NewBrakeRepository(db)
	settingsRepo := inmemdb.NewSettingsRepository(db)

	bc := broadcastsvc.NewInmemServiceMock()
	logger := testutil.NoopLogger{}

	examSvc := exam.NewService(examRepo, settingsRepo, bc, logger)
	brakeSvc := brake.NewService(brakeRepo, examSvc, bc, logger)
	t.Cleanup(brakeSvc.Close)
	timerSvc := timer.NewService(examRepo, examSvc, brakeSvc, bc, logger)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)

	app := NewServer(ServerDeps{
		Conf:        &core.Config{TestMode: true},
		Logger:      logger,
		ExamSvc:     examSvc,
		TimerSvc:    timerSvc,
		BrakeSvc:    brakeSvc,
		Broadcaster: bc,
		Validate:    validate,
		Translator:  translator,
	})

	return &env{
		app:         app,
		examRepo:    examRepo,
		brakeRepo:   brakeRepo,
		examSvc:     examSvc,
		brakeSvc:    brakeSvc,
		broadcaster: bc,
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	wantCode int
	wantData []byte
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	return req, rec
}

func do(t *testing.T, app Server, method, path string, data ...[]byte) *httptest.ResponseRecorder {
	t.Helper()
	req, rec := newRequest(method, path, data...)
	app.ServeHTTP(rec, req)
	return rec
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	require.NoError(t, err, "marshalObj()")
	return data
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	require.Equal(t, tt.wantCode, rec.Code, "status code; body: %s", rec.Body.String())
	if tt.wantData != nil {
		require.JSONEq(t, string(tt.wantData), rec.Body.String())
	}
}
