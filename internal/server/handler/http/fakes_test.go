package http

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/atinyakov/PassKeeper/internal/models"
	"github.com/atinyakov/PassKeeper/internal/service"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type fakeSecretService struct {
	view    *models.SecretView
	views   []models.SecretView
	outcome service.HistoryOutcome
	err     error

	gotOwner int64
	gotLabel string
	gotPlain string
	gotID    int64
	gotUpd   models.SecretUpdate
}

func (f *fakeSecretService) Create(_ context.Context, ownerID int64, label, plaintext string) (*models.SecretView, error) {
	f.gotOwner, f.gotLabel, f.gotPlain = ownerID, label, plaintext
	return f.view, f.err
}
func (f *fakeSecretService) Read(_ context.Context, id int64) (*models.SecretView, error) {
	f.gotID = id
	return f.view, f.err
}
func (f *fakeSecretService) Update(_ context.Context, id int64, upd models.SecretUpdate) (*models.SecretView, service.HistoryOutcome, error) {
	f.gotID, f.gotUpd = id, upd
	return f.view, f.outcome, f.err
}
func (f *fakeSecretService) Delete(_ context.Context, id int64) (service.HistoryOutcome, error) {
	f.gotID = id
	return f.outcome, f.err
}
func (f *fakeSecretService) ListByOwner(_ context.Context, ownerID int64) ([]models.SecretView, error) {
	f.gotOwner = ownerID
	return f.views, f.err
}
func (f *fakeSecretService) List(context.Context) ([]models.SecretView, error) {
	return f.views, f.err
}

type fakeHistoryService struct {
	entry   *models.HistoryEntry
	entries []models.HistoryEntry
	top     *models.LabelChanges
	err     error
	gotID   int64
}

func (f *fakeHistoryService) Record(_ context.Context, secretID int64, _ string) (*models.HistoryEntry, error) {
	f.gotID = secretID
	return f.entry, f.err
}
func (f *fakeHistoryService) ForSecret(_ context.Context, secretID int64) ([]models.HistoryEntry, error) {
	f.gotID = secretID
	return f.entries, f.err
}
func (f *fakeHistoryService) All(context.Context) ([]models.HistoryEntry, error) {
	return f.entries, f.err
}
func (f *fakeHistoryService) MostChangedLabel(context.Context) (*models.LabelChanges, error) {
	return f.top, f.err
}

type fakeUserService struct {
	user  *models.User
	users []models.User
	err   error

	gotMin    int
	gotSuffix string
	gotFrom   time.Time
	gotTo     time.Time
}

func (f *fakeUserService) Register(context.Context, models.NewUser) (*models.User, error) {
	return f.user, f.err
}
func (f *fakeUserService) Login(context.Context, string, string) (*models.User, error) {
	return f.user, f.err
}
func (f *fakeUserService) Get(context.Context, int64) (*models.User, error) { return f.user, f.err }
func (f *fakeUserService) List(context.Context) ([]models.User, error)      { return f.users, f.err }
func (f *fakeUserService) Update(context.Context, int64, models.UserUpdate) (*models.User, error) {
	return f.user, f.err
}
func (f *fakeUserService) Delete(context.Context, int64) error { return f.err }
func (f *fakeUserService) CreatedBetween(_ context.Context, from, to time.Time) ([]models.User, error) {
	f.gotFrom, f.gotTo = from, to
	return f.users, f.err
}
func (f *fakeUserService) WithMinSecrets(_ context.Context, n int) ([]models.User, error) {
	f.gotMin = n
	return f.users, f.err
}
func (f *fakeUserService) WithLabelSuffix(_ context.Context, suffix string) ([]models.User, error) {
	f.gotSuffix = suffix
	return f.users, f.err
}

type fakeCategoryService struct {
	category   *models.Category
	categories []models.Category
	links      []models.SecretCategory
	err        error

	gotKeyword string
	gotName    *string
	gotLink    models.SecretCategory
}

func (f *fakeCategoryService) Create(_ context.Context, name string) (*models.Category, error) {
	f.gotName = &name
	return f.category, f.err
}
func (f *fakeCategoryService) Get(context.Context, int64) (*models.Category, error) {
	return f.category, f.err
}
func (f *fakeCategoryService) List(context.Context) ([]models.Category, error) {
	return f.categories, f.err
}
func (f *fakeCategoryService) Search(_ context.Context, keyword string) ([]models.Category, error) {
	f.gotKeyword = keyword
	return f.categories, f.err
}
func (f *fakeCategoryService) Update(_ context.Context, _ int64, name *string) (*models.Category, error) {
	f.gotName = name
	return f.category, f.err
}
func (f *fakeCategoryService) Delete(context.Context, int64) error { return f.err }
func (f *fakeCategoryService) Link(_ context.Context, link models.SecretCategory) error {
	f.gotLink = link
	return f.err
}
func (f *fakeCategoryService) Unlink(_ context.Context, link models.SecretCategory) error {
	f.gotLink = link
	return f.err
}
func (f *fakeCategoryService) Links(context.Context) ([]models.SecretCategory, error) {
	return f.links, f.err
}
func (f *fakeCategoryService) ForSecret(context.Context, int64) ([]models.Category, error) {
	return f.categories, f.err
}

type testServer struct {
	secrets    *fakeSecretService
	history    *fakeHistoryService
	users      *fakeUserService
	categories *fakeCategoryService
	logs       *bytes.Buffer
	handler    http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	s := &testServer{
		secrets:    &fakeSecretService{},
		history:    &fakeHistoryService{},
		users:      &fakeUserService{},
		categories: &fakeCategoryService{},
		logs:       &bytes.Buffer{},
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), zapcore.AddSync(s.logs), zap.DebugLevel)
	log := zap.New(core)
	s.handler = NewRouter(Handlers{
		Users:      &UserHandler{UserService: s.users, Logger: log},
		Secrets:    &SecretHandler{SecretService: s.secrets, Logger: log},
		History:    &HistoryHandler{HistoryService: s.history, Logger: log},
		Categories: &CategoryHandler{CategoryService: s.categories, Logger: log},
	}, log)
	return s
}

func (s *testServer) do(method, target, body string) *httptest.ResponseRecorder {
	return s.doRaw(method, target, "application/json", body)
}

func (s *testServer) doRaw(method, target, contentType, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}
