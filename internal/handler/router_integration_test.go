package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	internalmiddleware "github.com/reformcases/portfolio-api/internal/middleware"
	"github.com/reformcases/portfolio-api/internal/models"
	"github.com/reformcases/portfolio-api/internal/repository"
	"github.com/reformcases/portfolio-api/internal/service"
	"github.com/reformcases/portfolio-api/pkg/export"
)

type routerFixture struct {
	router        *gin.Engine
	notifications *service.NotificationService
}

func buildCaseRouter(t *testing.T) *routerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cases := repository.NewMemoryCaseRepository()
	companies := repository.NewMemoryCompanyRepository()
	users := repository.NewMemoryUserRepository()
	require.NoError(t, repository.SeedDemoData(context.Background(), cases, companies, users))

	logr := zap.NewNop()
	validate := validator.New()
	cacheSvc := service.NewCacheService(nil, nil, 0, logr, false)

	caseSvc := service.NewCaseService(cases, companies, validate, logr, service.CaseServiceConfig{RequireAfterImage: true})
	dashboardSvc := service.NewDashboardService(cases, cacheSvc, time.Minute, logr)
	portalSvc := service.NewPortalService(cases, companies, cacheSvc, time.Minute, logr)
	exportSvc := service.NewExportService(cases, service.ExportConfig{}, logr, export.NewCSVExporter(), export.NewPDFExporter())
	notificationSvc := service.NewNotificationService(logr)

	caseHandler := NewCaseHandler(caseSvc, exportSvc, dashboardSvc, portalSvc)
	dashboardHandler := NewDashboardHandler(dashboardSvc)
	portalHandler := NewPortalHandler(portalSvc)
	notificationHandler := NewNotificationHandler(notificationSvc)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if company := c.GetHeader("X-Test-Company"); company != "" {
			c.Set(internalmiddleware.ContextUserKey, &models.JWTClaims{
				UserID:      "test-user",
				Email:       repository.DemoUserEmail,
				CompanyName: "東京リフォーム株式会社",
				CompanyID:   company,
			})
		}
		c.Next()
	})

	router.GET("/portal/cases", portalHandler.ListCases)
	router.GET("/portal/cases/:id", portalHandler.GetCase)
	router.GET("/portal/companies", portalHandler.ListCompanies)
	router.GET("/dashboard", dashboardHandler.Overview)
	router.GET("/cases", caseHandler.List)
	router.POST("/cases", caseHandler.Create)
	router.GET("/cases/export", caseHandler.Export)
	router.POST("/cases/wizard/validate", caseHandler.ValidateWizard)
	router.POST("/cases/:id/publish", caseHandler.Publish)
	router.GET("/notifications", notificationHandler.List)

	return &routerFixture{router: router, notifications: notificationSvc}
}

func doRequest(router *gin.Engine, method, path string, body []byte, company string) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != nil {
		reader = bytes.NewBuffer(body)
	} else {
		reader = bytes.NewBuffer(nil)
	}
	req, _ := http.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if company != "" {
		req.Header.Set("X-Test-Company", company)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestPortalRoutes(t *testing.T) {
	fix := buildCaseRouter(t)

	t.Run("lists only published cases", func(t *testing.T) {
		resp := doRequest(fix.router, http.MethodGet, "/portal/cases", nil, "")
		require.Equal(t, http.StatusOK, resp.Code)

		var body struct {
			Data struct {
				Cases      []map[string]interface{} `json:"cases"`
				Categories []string                 `json:"categories"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		require.Len(t, body.Data.Cases, 1)
		require.Equal(t, "キッチン", body.Data.Cases[0]["category"])
		require.Contains(t, body.Data.Categories, "浴室")
	})

	t.Run("category filter excludes other work", func(t *testing.T) {
		resp := doRequest(fix.router, http.MethodGet, "/portal/cases?category=浴室", nil, "")
		require.Equal(t, http.StatusOK, resp.Code)
		require.Contains(t, resp.Body.String(), `"cases":[]`)
	})

	t.Run("draft case is hidden", func(t *testing.T) {
		resp := doRequest(fix.router, http.MethodGet, "/portal/cases/3", nil, "")
		require.Equal(t, http.StatusNotFound, resp.Code)
		require.Contains(t, resp.Body.String(), "NOT_FOUND")
	})

	t.Run("company directory is public", func(t *testing.T) {
		resp := doRequest(fix.router, http.MethodGet, "/portal/companies", nil, "")
		require.Equal(t, http.StatusOK, resp.Code)
		require.Contains(t, resp.Body.String(), "山田工務店")
	})
}

func TestDashboardRoute(t *testing.T) {
	fix := buildCaseRouter(t)

	t.Run("requires authentication", func(t *testing.T) {
		resp := doRequest(fix.router, http.MethodGet, "/dashboard", nil, "")
		require.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("returns per-status buckets", func(t *testing.T) {
		resp := doRequest(fix.router, http.MethodGet, "/dashboard", nil, repository.DemoCompanyID)
		require.Equal(t, http.StatusOK, resp.Code)

		var body struct {
			Data struct {
				Counts    map[string]int           `json:"counts"`
				Published []map[string]interface{} `json:"published"`
				Drafts    []map[string]interface{} `json:"drafts"`
				Scheduled []map[string]interface{} `json:"scheduled"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		require.Len(t, body.Data.Published, 1)
		require.Len(t, body.Data.Drafts, 1)
		require.Len(t, body.Data.Scheduled, 1)
	})
}

func TestCaseRoutes(t *testing.T) {
	fix := buildCaseRouter(t)

	t.Run("create draft", func(t *testing.T) {
		payload := []byte(`{"title":"外壁塗装","category":"外壁","before_images":["/files/photo/a.jpg"]}`)
		resp := doRequest(fix.router, http.MethodPost, "/cases", payload, repository.DemoCompanyID)
		require.Equal(t, http.StatusCreated, resp.Code)
		require.Contains(t, resp.Body.String(), `"status":"draft"`)
	})

	t.Run("publish without after photo is blocked", func(t *testing.T) {
		payload := []byte(`{"title":"外壁塗装","category":"外壁","before_images":["/files/photo/a.jpg"],"publish_now":true}`)
		resp := doRequest(fix.router, http.MethodPost, "/cases", payload, repository.DemoCompanyID)
		require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
		require.Contains(t, resp.Body.String(), "PUBLISH_BLOCKED")
	})

	t.Run("publish endpoint promotes a draft", func(t *testing.T) {
		resp := doRequest(fix.router, http.MethodPost, "/cases/3/publish", nil, repository.DemoCompanyID)
		require.Equal(t, http.StatusOK, resp.Code)
		require.Contains(t, resp.Body.String(), `"status":"published"`)
	})

	t.Run("foreign company cannot publish", func(t *testing.T) {
		resp := doRequest(fix.router, http.MethodPost, "/cases/1/publish", nil, "another-company")
		require.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("wizard guard reports missing photos", func(t *testing.T) {
		payload := []byte(`{"step":"before_photos","category":"キッチン"}`)
		resp := doRequest(fix.router, http.MethodPost, "/cases/wizard/validate", payload, repository.DemoCompanyID)
		require.Equal(t, http.StatusOK, resp.Code)
		require.Contains(t, resp.Body.String(), `"allowed":false`)
		require.Contains(t, resp.Body.String(), "before_images")
	})

	t.Run("csv export downloads own portfolio", func(t *testing.T) {
		resp := doRequest(fix.router, http.MethodGet, "/cases/export?format=csv", nil, repository.DemoCompanyID)
		require.Equal(t, http.StatusOK, resp.Code)
		require.Contains(t, resp.Header().Get("Content-Disposition"), "attachment")
		require.Contains(t, resp.Body.String(), "キッチン")
	})
}

func TestNotificationRoute(t *testing.T) {
	fix := buildCaseRouter(t)

	caseID := int64(2)
	_, err := fix.notifications.Enqueue(context.Background(), models.Notification{
		UserID: "test-user",
		Title:  "アフター写真を撮影する時間です！",
		CaseID: &caseID,
	})
	require.NoError(t, err)

	resp := doRequest(fix.router, http.MethodGet, "/notifications", nil, repository.DemoCompanyID)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), "アフター写真を撮影する時間です！")
}
