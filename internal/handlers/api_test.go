// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"pagecraft/internal/ai"
	"pagecraft/internal/lifecycle"
	"pagecraft/internal/middleware"
	"pagecraft/internal/models"
	"pagecraft/internal/projects"
)

// stubService returns err from every call and records what it was given.
type stubService struct {
	err       error
	project   *models.Project
	gotOwner  string
	gotEvent  lifecycle.Event
	gotFilter models.ProjectFilter
	gotPage   models.Page
	gotReport models.DeploymentOutcome
}

func (s *stubService) CreateProject(_ context.Context, owner string, in projects.CreateInput) (*models.Project, error) {
	s.gotOwner = owner
	return s.project, s.err
}

func (s *stubService) GetProject(_ context.Context, owner string, _ uuid.UUID) (*models.Project, error) {
	s.gotOwner = owner
	return s.project, s.err
}

func (s *stubService) ListProjects(_ context.Context, owner string, f models.ProjectFilter, pg models.Page) ([]models.Project, error) {
	s.gotOwner, s.gotFilter, s.gotPage = owner, f, pg
	return nil, s.err
}

func (s *stubService) DeleteProject(_ context.Context, owner string, _ uuid.UUID) error {
	s.gotOwner = owner
	return s.err
}

func (s *stubService) ApplyEvent(_ context.Context, owner string, _ uuid.UUID, ev lifecycle.Event, _ lifecycle.Payload) (*models.Project, error) {
	s.gotOwner, s.gotEvent = owner, ev
	return s.project, s.err
}

func (s *stubService) ReportDeploymentResult(_ context.Context, _ uuid.UUID, _ string, o models.DeploymentOutcome) (*models.Project, error) {
	s.gotReport = o
	return s.project, s.err
}

func (s *stubService) RenderPageContent(context.Context, models.PageContent, string) ([]byte, error) {
	return []byte("<html></html>"), s.err
}

func (s *stubService) Preview(context.Context, string, uuid.UUID, string) ([]byte, error) {
	return []byte("<html></html>"), s.err
}

func (s *stubService) Predict(context.Context, string, uuid.UUID, ai.SampleInput) ([]ai.Prediction, error) {
	return nil, s.err
}

type noTemplates struct{}

func (noTemplates) List(context.Context) ([]models.Template, error) { return nil, nil }
func (noTemplates) FindByID(context.Context, uuid.UUID) (*models.Template, error) {
	return nil, models.ErrNotFound
}

func newTestRouter(svc ProjectService) http.Handler {
	api := New(svc, noTemplates{})
	r := chi.NewRouter()
	r.Post("/callbacks/deployments", api.DeploymentCallback)
	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				if o := req.Header.Get("X-Test-Owner"); o != "" {
					req = req.WithContext(middleware.WithOwner(req.Context(), o))
				}
				next.ServeHTTP(w, req)
			})
		})
		r.Get("/templates", api.ListTemplates)
		r.Get("/templates/{id}", api.GetTemplate)
		r.Post("/projects", api.CreateProject)
		r.Get("/projects", api.ListProjects)
		r.Get("/projects/{id}", api.GetProject)
		r.Post("/projects/{id}/events", api.ApplyEvent)
		r.Post("/projects/{id}/predict", api.Predict)
	})
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, middleware.ErrorBody) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("X-Test-Owner", "user-1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	var eb middleware.ErrorBody
	if rr.Code >= 400 {
		if err := json.Unmarshal(rr.Body.Bytes(), &eb); err != nil {
			t.Fatalf("error body is not JSON: %q", rr.Body.String())
		}
	}
	return rr, eb
}

func TestServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", &models.ValidationError{Kind: models.KindInvalidProject, Field: "name", Message: "is required"}, http.StatusUnprocessableEntity, "validation_failed"},
		{"wrapped validation", fmt.Errorf("create: %w", &models.ValidationError{Kind: models.KindInvalidProject, Field: "name"}), http.StatusUnprocessableEntity, "validation_failed"},
		{"transition", &models.TransitionError{From: models.ProjectStatusDraft, Event: "start_deployment"}, http.StatusConflict, "invalid_transition"},
		{"bare transition sentinel", models.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
		{"concurrent modification", fmt.Errorf("update: %w", models.ErrConcurrentModification), http.StatusConflict, "concurrent_modification"},
		{"adapter", &models.AdapterError{Provider: "vercel", Op: "deploy", Reason: "quota exceeded", Temporary: true}, http.StatusBadGateway, "adapter_failed"},
		{"not found", fmt.Errorf("get: %w", models.ErrNotFound), http.StatusNotFound, "not_found"},
		{"internal", errors.New("connection reset"), http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(&stubService{err: tt.err})
			rr, body := do(t, h, http.MethodGet, "/projects/"+uuid.NewString(), "")
			if rr.Code != tt.status || body.Error.Code != tt.code {
				t.Fatalf("got %d %q, want %d %q", rr.Code, body.Error.Code, tt.status, tt.code)
			}
			if tt.code == "internal" && strings.Contains(body.Error.Message, "connection reset") {
				t.Error("internal error details leaked to the client")
			}
		})
	}
}

func TestValidationErrorDetails(t *testing.T) {
	h := newTestRouter(&stubService{err: &models.ValidationError{Kind: models.KindInvalidModelConfig, Field: "modelUrl", Message: "must use https"}})
	rr, body := do(t, h, http.MethodPost, "/projects/"+uuid.NewString()+"/events",
		`{"event":"attach_ai_model","payload":{"type":"huggingface","modelUrl":"http://huggingface.co/a/b"}}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status %d", rr.Code)
	}
	details, _ := body.Error.Details.(map[string]any)
	if details["kind"] != string(models.KindInvalidModelConfig) || details["field"] != "modelUrl" {
		t.Errorf("details %v", body.Error.Details)
	}
}

func TestDecodeJSONRejections(t *testing.T) {
	svc := &stubService{project: &models.Project{ID: uuid.New()}}
	h := newTestRouter(svc)
	for name, body := range map[string]string{
		"malformed":     `{"name":`,
		"unknown field": `{"name":"x","projectType":"NO_CODE","status":"deployed"}`,
		"trailing data": `{"name":"x","projectType":"NO_CODE"} {"name":"y"}`,
		"too large":     `{"name":"` + strings.Repeat("a", maxBodyBytes) + `"}`,
	} {
		t.Run(name, func(t *testing.T) {
			rr, eb := do(t, h, http.MethodPost, "/projects", body)
			if rr.Code != http.StatusUnprocessableEntity || eb.Error.Code != "validation_failed" {
				t.Errorf("got %d %q", rr.Code, eb.Error.Code)
			}
		})
	}
	if svc.gotOwner != "" {
		t.Error("service called with a rejected body")
	}
}

func TestApplyEventRejectsOutcomes(t *testing.T) {
	svc := &stubService{project: &models.Project{ID: uuid.New()}}
	h := newTestRouter(svc)
	for _, ev := range []lifecycle.Event{lifecycle.EventDeploymentSucceeded, lifecycle.EventDeploymentFailed} {
		rr, body := do(t, h, http.MethodPost, "/projects/"+uuid.NewString()+"/events",
			`{"event":"`+string(ev)+`","payload":{"deploymentId":"dpl-1","success":true}}`)
		if rr.Code != http.StatusForbidden || body.Error.Code != "forbidden" {
			t.Errorf("%s: got %d %q", ev, rr.Code, body.Error.Code)
		}
	}
	if svc.gotEvent != "" {
		t.Errorf("service saw %q", svc.gotEvent)
	}

	rr, _ := do(t, h, http.MethodPost, "/projects/"+uuid.NewString()+"/events", `{"event":"archive"}`)
	if rr.Code != http.StatusOK || svc.gotEvent != lifecycle.EventArchive || svc.gotOwner != "user-1" {
		t.Errorf("archive: %d %q %q", rr.Code, svc.gotEvent, svc.gotOwner)
	}
}

func TestListProjectsPaging(t *testing.T) {
	svc := &stubService{}
	h := newTestRouter(svc)
	rr, _ := do(t, h, http.MethodGet, "/projects?limit=500&offset=40&status=deployed", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	var list projectList
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if list.Projects == nil || len(list.Projects) != 0 {
		t.Errorf("projects should be an empty array, got %s", rr.Body.String())
	}
	if list.Limit != models.MaxPageLimit || list.Offset != 40 || svc.gotPage != (models.Page{Limit: models.MaxPageLimit, Offset: 40}) {
		t.Errorf("page %+v / %+v", list, svc.gotPage)
	}
	if svc.gotFilter.Status != models.ProjectStatusDeployed {
		t.Errorf("filter %+v", svc.gotFilter)
	}
}

func TestMissingOwnerIsUnauthorized(t *testing.T) {
	h := newTestRouter(&stubService{})
	req := httptest.NewRequest(http.MethodGet, "/projects", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("got %d", rr.Code)
	}
}

func TestDeploymentCallback(t *testing.T) {
	id := uuid.New()
	svc := &stubService{project: &models.Project{
		ID:      id,
		OwnerID: "user-1",
		Status:  models.ProjectStatusDeployed,
		Deployment: &models.DeploymentConfig{
			Platform:     models.PlatformNetlify,
			DeploymentID: "dpl-7",
			Status:       models.DeploymentStatusSucceeded,
		},
	}}
	h := newTestRouter(svc)

	rr, _ := do(t, h, http.MethodPost, "/callbacks/deployments",
		`{"projectId":"`+id.String()+`","deploymentId":"dpl-7","success":true,"url":"https://demo.netlify.app"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	if svc.gotReport != (models.DeploymentOutcome{Success: true, URL: "https://demo.netlify.app"}) {
		t.Errorf("outcome %+v", svc.gotReport)
	}
	var ack callbackAck
	if err := json.Unmarshal(rr.Body.Bytes(), &ack); err != nil {
		t.Fatal(err)
	}
	if ack.ProjectID != id || ack.Status != models.ProjectStatusDeployed || ack.DeploymentStatus != models.DeploymentStatusSucceeded {
		t.Errorf("ack %+v", ack)
	}
	if strings.Contains(rr.Body.String(), "user-1") {
		t.Error("ack exposes the owner")
	}

	for name, body := range map[string]string{
		"no project":    `{"deploymentId":"dpl-7","success":true}`,
		"no deployment": `{"projectId":"` + id.String() + `","success":true}`,
	} {
		rr, eb := do(t, h, http.MethodPost, "/callbacks/deployments", body)
		if rr.Code != http.StatusUnprocessableEntity || eb.Error.Code != "validation_failed" {
			t.Errorf("%s: got %d %q", name, rr.Code, eb.Error.Code)
		}
	}
}

func TestTemplateNotFound(t *testing.T) {
	h := newTestRouter(&stubService{})
	rr, body := do(t, h, http.MethodGet, "/templates/"+uuid.NewString(), "")
	if rr.Code != http.StatusNotFound || body.Error.Code != "not_found" {
		t.Errorf("got %d %q", rr.Code, body.Error.Code)
	}
	rr, _ = do(t, h, http.MethodGet, "/templates", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"templates":[]`) {
		t.Errorf("list: %d %s", rr.Code, rr.Body.String())
	}
}
