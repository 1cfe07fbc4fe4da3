package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"example.com/fieldwork/services/workorders/config"
	"example.com/fieldwork/services/workorders/internal/api/handlers"
	"example.com/fieldwork/services/workorders/internal/auth"
	"example.com/fieldwork/services/workorders/internal/metrics"
	"example.com/fieldwork/services/workorders/internal/models"
	"example.com/fieldwork/services/workorders/internal/repositories"
	"example.com/fieldwork/services/workorders/internal/services"
	"example.com/fieldwork/services/workorders/internal/storage"
	"example.com/fieldwork/services/workorders/internal/tracing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// stubRepo overrides just the repository methods a test exercises;
// calling anything else panics via the nil embedded interface.
type stubRepo struct {
	repositories.Repository

	createWorkOrder      func(wo *models.WorkOrder) error
	findByNumber         func(number string) (*models.WorkOrderRow, error)
	resolveNumber        func(number string) (uint, error)
	updateStatusByNumber func(number, status string) error
	findUserByEmail      func(email string) (*models.User, error)
	listNotes            func(workOrderID uint, limit int) ([]models.NoteRow, error)
	createNote           func(note *models.Note) error
	createAttachment     func(att *models.FileAttachment) error
}

func (s *stubRepo) CreateWorkOrder(_ context.Context, wo *models.WorkOrder) error {
	return s.createWorkOrder(wo)
}

func (s *stubRepo) FindWorkOrderByNumber(_ context.Context, number string) (*models.WorkOrderRow, error) {
	return s.findByNumber(number)
}

func (s *stubRepo) ResolveWorkOrderNumber(_ context.Context, number string) (uint, error) {
	return s.resolveNumber(number)
}

func (s *stubRepo) UpdateStatusByNumber(_ context.Context, number, status string) error {
	return s.updateStatusByNumber(number, status)
}

func (s *stubRepo) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	return s.findUserByEmail(email)
}

func (s *stubRepo) ListNotes(_ context.Context, workOrderID uint, limit int) ([]models.NoteRow, error) {
	return s.listNotes(workOrderID, limit)
}

func (s *stubRepo) CreateNote(_ context.Context, note *models.Note) error {
	return s.createNote(note)
}

func (s *stubRepo) CreateAttachment(_ context.Context, att *models.FileAttachment) error {
	return s.createAttachment(att)
}

type testEnv struct {
	server   *Server
	sessions auth.Store
}

func newTestEnv(t *testing.T, repo repositories.Repository) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Environment:   "test",
		ServerAddress: "127.0.0.1:0",
		ServerTimeout: 5 * time.Second,
		Session:       config.SessionConfig{CookieName: "fwd_session", TTL: time.Hour},
		Uploads:       config.UploadConfig{Dir: t.TempDir(), PublicPrefix: "/uploads"},
	}

	sessions := auth.NewMemoryStore(cfg.Session.TTL)
	tracer, err := tracing.NewTracer(config.TracingConfig{})
	require.NoError(t, err)

	uploads := storage.NewUploadStore(cfg.Uploads)
	workOrderService := services.NewWorkOrderService(repo, uploads, nil, nil, tracer)
	authService := services.NewAuthService(repo, sessions)
	referenceService := services.NewReferenceService(repo, nil)
	technicianService := services.NewTechnicianService(repo)

	server := NewServer(&cfg, sessions, metrics.NewMetrics(), Handlers{
		Auth:        handlers.NewAuthHandler(authService, cfg.Session.CookieName, cfg.Session.TTL, cfg.Session.Secure),
		WorkOrders:  handlers.NewWorkOrderHandler(workOrderService, cfg.Uploads.PublicPrefix),
		Reference:   handlers.NewReferenceHandler(referenceService),
		Technicians: handlers.NewTechnicianHandler(technicianService),
		System:      handlers.NewSystemHandler(nil, nil, metrics.NewMetrics()),
	})

	return &testEnv{server: server, sessions: sessions}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, role string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	if role != "" {
		token, err := e.sessions.Create(context.Background(), auth.Identity{UserID: 7, FullName: "Dana Fields", Role: role})
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: "fwd_session", Value: token})
	}

	w := httptest.NewRecorder()
	e.server.router.ServeHTTP(w, req)
	return w
}

func TestLivenessRoute(t *testing.T) {
	env := newTestEnv(t, &stubRepo{})

	w := env.do(t, http.MethodGet, "/", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAdminCreateRequiresSession(t *testing.T) {
	env := newTestEnv(t, &stubRepo{})

	w := env.do(t, http.MethodPost, "/admin/work-orders", gin.H{}, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "Not logged in")
}

func TestAdminCreateRejectsDispatcherRole(t *testing.T) {
	env := newTestEnv(t, &stubRepo{})

	w := env.do(t, http.MethodPost, "/admin/work-orders", gin.H{}, models.RoleDispatcher)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminCreateWorkOrder(t *testing.T) {
	repo := &stubRepo{
		createWorkOrder: func(wo *models.WorkOrder) error {
			wo.ID = 1
			return nil
		},
	}
	env := newTestEnv(t, repo)

	body := gin.H{
		"work_order_number":   "WO-1001",
		"store_id":            5,
		"address_line":        "1 Main St",
		"assigned_dispatcher": 7,
	}

	w := env.do(t, http.MethodPost, "/admin/work-orders", body, models.RoleAdmin)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, float64(1), resp["work_order_id"])
	require.Equal(t, "WO-1001", resp["work_order_number"])
	require.Equal(t, models.DefaultStatus, resp["current_status"])
}

func TestAdminCreateDuplicateNumber(t *testing.T) {
	repo := &stubRepo{
		createWorkOrder: func(wo *models.WorkOrder) error {
			return repositories.ErrDuplicateKey
		},
	}
	env := newTestEnv(t, repo)

	body := gin.H{
		"work_order_number":   "WO-1001",
		"store_id":            5,
		"address_line":        "1 Main St",
		"assigned_dispatcher": 7,
	}

	w := env.do(t, http.MethodPost, "/admin/work-orders", body, models.RoleAdmin)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Contains(t, w.Body.String(), "already exists")
}

func TestPlainCreateIsAdminGuarded(t *testing.T) {
	env := newTestEnv(t, &stubRepo{})

	w := env.do(t, http.MethodPost, "/work-orders", gin.H{}, models.RoleTeamLeader)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestStatusUpdateByNumber(t *testing.T) {
	var gotNumber, gotStatus string
	repo := &stubRepo{
		updateStatusByNumber: func(number, status string) error {
			gotNumber, gotStatus = number, status
			return nil
		},
	}
	env := newTestEnv(t, repo)

	w := env.do(t, http.MethodPut, "/work-orders/by-number/WO-1001/status",
		gin.H{"status": "Onsite"}, models.RoleDispatcher)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "WO-1001", gotNumber)
	require.Equal(t, "Onsite", gotStatus)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "WO-1001", resp["work_order_number"])
	require.Equal(t, "Onsite", resp["current_status"])
}

func TestAddNoteReadsNoteField(t *testing.T) {
	var gotText string
	repo := &stubRepo{
		createNote: func(note *models.Note) error {
			gotText = note.Text
			note.ID = 9
			return nil
		},
	}
	env := newTestEnv(t, repo)

	w := env.do(t, http.MethodPost, "/work-orders/42/notes",
		gin.H{"note": "ETA confirmed"}, models.RoleDispatcher)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "ETA confirmed", gotText)
}

func TestUploadResponseIncludesURL(t *testing.T) {
	repo := &stubRepo{
		createAttachment: func(att *models.FileAttachment) error {
			att.ID = 3
			return nil
		},
	}
	env := newTestEnv(t, repo)

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	require.NoError(t, form.WriteField("file_type", "before"))
	part, err := form.CreateFormFile("file", "site.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("image-bytes"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/work-orders/42/files", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())

	token, err := env.sessions.Create(context.Background(), auth.Identity{UserID: 7, Role: models.RoleDispatcher})
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: "fwd_session", Value: token})

	w := httptest.NewRecorder()
	env.server.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, float64(3), resp["file_id"])

	url, ok := resp["url"].(string)
	require.True(t, ok)
	require.True(t, strings.HasPrefix(url, "/uploads/work-orders/42/before/"))
	require.Equal(t, "/uploads/"+resp["file_name"].(string), url)
}

func TestStatusUpdateRejectsUnknownStatus(t *testing.T) {
	env := newTestEnv(t, &stubRepo{})

	w := env.do(t, http.MethodPut, "/work-orders/by-number/WO-1001/status",
		gin.H{"status": "Teleporting"}, models.RoleDispatcher)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp["allowed"], len(models.AllowedStatuses))
}

func TestDetailsUnknownWorkOrder(t *testing.T) {
	repo := &stubRepo{
		findByNumber: func(number string) (*models.WorkOrderRow, error) {
			return nil, repositories.ErrNotFound
		},
	}
	env := newTestEnv(t, repo)

	w := env.do(t, http.MethodGet, "/work-orders/by-number/WO-NOPE/details", nil, models.RoleDispatcher)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "Work order not found")
}

func TestLoginSetsSessionCookie(t *testing.T) {
	repo := &stubRepo{
		findUserByEmail: func(email string) (*models.User, error) {
			return &models.User{
				ID:           7,
				FullName:     "Dana Fields",
				Email:        email,
				PasswordHash: "letmein",
				Role:         models.Role{Name: models.RoleDispatcher},
			}, nil
		},
	}
	env := newTestEnv(t, repo)

	w := env.do(t, http.MethodPost, "/auth/login",
		gin.H{"email": "dana@example.com", "password": "letmein"}, "")

	require.Equal(t, http.StatusOK, w.Code)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	require.Equal(t, "fwd_session", cookies[0].Name)
	require.NotEmpty(t, cookies[0].Value)

	identity, err := env.sessions.Get(context.Background(), cookies[0].Value)
	require.NoError(t, err)
	require.Equal(t, models.RoleDispatcher, identity.Role)
}

func TestLoginBadPassword(t *testing.T) {
	repo := &stubRepo{
		findUserByEmail: func(email string) (*models.User, error) {
			return &models.User{ID: 7, PasswordHash: "letmein"}, nil
		},
	}
	env := newTestEnv(t, repo)

	w := env.do(t, http.MethodPost, "/auth/login",
		gin.H{"email": "dana@example.com", "password": "wrong"}, "")

	require.Equal(t, http.StatusUnauthorized, w.Code)
}
