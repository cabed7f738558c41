package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yosefanaliza/black-coordinates-list/internal/config"
	"github.com/yosefanaliza/black-coordinates-list/internal/core/model"
	"github.com/yosefanaliza/black-coordinates-list/internal/core/web"
	"github.com/yosefanaliza/black-coordinates-list/internal/resolver/service"
)

// stubService 返回固定结果并记录收到的IP
type stubService struct {
	outcome service.Outcome
	ips     []string
}

func (s *stubService) Resolve(ctx context.Context, ip string) service.Outcome {
	s.ips = append(s.ips, ip)
	outcome := s.outcome
	outcome.IP = ip
	return outcome
}

type stubLister struct {
	resp *model.AllCoordinatesResponse
	err  error
}

func (l *stubLister) FetchAll(ctx context.Context) (*model.AllCoordinatesResponse, error) {
	return l.resp, l.err
}

func newTestEcho(svc service.ResolutionService, lister CoordinateLister) *echo.Echo {
	e := web.NewEcho(config.NewNopLogger())
	NewCoordinatesHandler(svc, lister, config.NewNopLogger()).RegisterRoutes(e)
	return e
}

func postResolve(e *echo.Echo, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/coordinates/resolve", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestResolveStatusMapping(t *testing.T) {
	coords := &model.GeoCoordinates{Lat: 10, Lon: 20, City: "X"}

	cases := []struct {
		name    string
		outcome service.Outcome
		status  int
		body    string
	}{
		{
			name:    "成功",
			outcome: service.Outcome{Status: service.OutcomeSuccess, Coordinates: coords},
			status:  http.StatusOK,
			body:    `{"success":true,"message":"IP resolved and coordinates stored successfully","ip":"1.2.3.4","coordinates":{"lat":10,"lon":20}}`,
		},
		{
			name:    "查询失败",
			outcome: service.Outcome{Status: service.OutcomeLookupFailed},
			status:  http.StatusBadGateway,
			body:    `{"success":false,"message":"Failed to resolve IP address from external service","ip":"1.2.3.4"}`,
		},
		{
			name:    "保存失败",
			outcome: service.Outcome{Status: service.OutcomeStorageFailed, Coordinates: coords},
			status:  http.StatusServiceUnavailable,
			body:    `{"success":false,"message":"IP resolved but failed to store coordinates","ip":"1.2.3.4","coordinates":{"lat":10,"lon":20}}`,
		},
		{
			name:    "未知结果",
			outcome: service.Outcome{},
			status:  http.StatusInternalServerError,
			body:    `{"success":false,"message":"Internal server error","ip":"1.2.3.4"}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEcho(&stubService{outcome: tc.outcome}, &stubLister{})

			rec := postResolve(e, `{"ip":"1.2.3.4"}`)
			assert.Equal(t, tc.status, rec.Code)
			assert.JSONEq(t, tc.body, rec.Body.String())
		})
	}
}

func TestResolveRejectsInvalidIP(t *testing.T) {
	svc := &stubService{outcome: service.Outcome{Status: service.OutcomeSuccess}}
	e := newTestEcho(svc, &stubLister{})

	for _, body := range []string{`{"ip":"256.1.1.1"}`, `{"ip":"1.2.3"}`, `{"ip":"a.b.c.d"}`, `{"ip":""}`, `{}`} {
		rec := postResolve(e, body)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, body)
	}
	assert.Empty(t, svc.ips, "校验失败时不应调用解析服务")
}

func TestListCoordinatesProxy(t *testing.T) {
	lister := &stubLister{resp: &model.AllCoordinatesResponse{
		Count:       1,
		Coordinates: []model.CoordinateItem{{IP: "8.8.8.8", Lat: 37.386, Lon: -122.0838}},
	}}
	e := newTestEcho(&stubService{}, lister)

	for _, path := range []string{"/coordinates", "/coordinates/"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code, path)

		var resp model.AllCoordinatesResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, *lister.resp, resp)
	}
}

func TestListCoordinatesStorageDown(t *testing.T) {
	e := newTestEcho(&stubService{}, &stubLister{err: errors.New("connection refused")})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/coordinates/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"code":503,"message":"Failed to fetch coordinates from storage service"}`, rec.Body.String())
}

func TestHealthAndRoot(t *testing.T) {
	e := newTestEcho(&stubService{}, &stubLister{err: errors.New("down")})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "健康检查不依赖存储服务")
	assert.JSONEq(t, `{"status":"healthy","service":"`+ServiceName+`"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"running"`)
}
