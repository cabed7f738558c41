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
	"go.uber.org/zap/zapcore"

	"github.com/yosefanaliza/black-coordinates-list/internal/config"
	"github.com/yosefanaliza/black-coordinates-list/internal/core/model"
	"github.com/yosefanaliza/black-coordinates-list/internal/core/web"
	"github.com/yosefanaliza/black-coordinates-list/internal/storage/service"
	"github.com/yosefanaliza/black-coordinates-list/internal/store/memory"
)

// MockLogger 实现config.Logger接口，用于测试
type MockLogger struct{}

func (l *MockLogger) Debug(msg string, fields ...zapcore.Field) {}
func (l *MockLogger) Info(msg string, fields ...zapcore.Field)  {}
func (l *MockLogger) Warn(msg string, fields ...zapcore.Field)  {}
func (l *MockLogger) Error(msg string, fields ...zapcore.Field) {}
func (l *MockLogger) Fatal(msg string, fields ...zapcore.Field) {}
func (l *MockLogger) With(fields ...zapcore.Field) config.Logger {
	return l
}
func (l *MockLogger) Sync() error { return nil }

// failingStore 列表总是失败，可达性可配置
type failingStore struct {
	service.CoordinateStore
	reachable bool
}

func (s *failingStore) ListAllCoordinates(ctx context.Context) ([]model.CoordinateRecord, error) {
	return nil, errors.New("列表失败")
}

func (s *failingStore) SaveCoordinate(ctx context.Context, ip string, coords model.GeoCoordinates) error {
	return errors.New("写入失败")
}

func (s *failingStore) IsReachable(ctx context.Context) bool {
	return s.reachable
}

func (s *failingStore) EngineName() string {
	return "Redis"
}

func newTestServer(store service.CoordinateStore) *echo.Echo {
	e := web.NewEcho(&MockLogger{})
	NewCoordinatesHandler(store, &MockLogger{}).RegisterRoutes(e)
	return e
}

func newMemoryServer() (*memory.Client, *echo.Echo) {
	engine := memory.NewClient()
	store := service.NewCoordinateStore(engine, "", &MockLogger{})
	return engine, newTestServer(store)
}

func request(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestStoreAndListCoordinates(t *testing.T) {
	_, e := newMemoryServer()

	rec := request(e, http.MethodPost, "/coordinates/", `{"ip":"8.8.8.8","lat":37.386,"lon":-122.0838,"city":"Mountain View","country":"United States"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var stored model.StoreResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stored))
	assert.Equal(t, model.StoreResponse{Success: true, Message: "Coordinates stored successfully", IP: "8.8.8.8"}, stored)

	// 不带斜杠的路径同样可用
	rec = request(e, http.MethodPost, "/coordinates", `{"ip":"1.1.1.1","lat":-33.494,"lon":143.2104}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = request(e, http.MethodGet, "/coordinates/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var list model.AllCoordinatesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 2, list.Count)
	assert.Equal(t, []model.CoordinateItem{
		{IP: "1.1.1.1", Lat: -33.494, Lon: 143.2104},
		{IP: "8.8.8.8", Lat: 37.386, Lon: -122.0838, City: "Mountain View", Country: "United States"},
	}, list.Coordinates)
}

func TestListEmpty(t *testing.T) {
	_, e := newMemoryServer()

	rec := request(e, http.MethodGet, "/coordinates", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":0,"coordinates":[]}`, rec.Body.String())
}

func TestStoreOverwrite(t *testing.T) {
	_, e := newMemoryServer()

	request(e, http.MethodPost, "/coordinates/", `{"ip":"8.8.8.8","lat":1,"lon":2}`)
	request(e, http.MethodPost, "/coordinates/", `{"ip":"8.8.8.8","lat":3,"lon":4}`)

	rec := request(e, http.MethodGet, "/coordinates/", "")
	var list model.AllCoordinatesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, 3.0, list.Coordinates[0].Lat)
}

func TestStoreValidation(t *testing.T) {
	_, e := newMemoryServer()

	bodies := []string{
		`{"ip":"8.8.8.8","lat":100,"lon":0}`,
		`{"ip":"8.8.8.8","lat":0}`,
		`{"ip":"8.8.8","lat":0,"lon":0}`,
		`{"lat":0,"lon":0}`,
	}
	for _, body := range bodies {
		rec := request(e, http.MethodPost, "/coordinates/", body)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, body)
	}
}

func TestStoreWriteFailure(t *testing.T) {
	e := newTestServer(&failingStore{reachable: true})

	rec := request(e, http.MethodPost, "/coordinates/", `{"ip":"8.8.8.8","lat":1,"lon":2}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"code":500,"message":"Failed to store coordinates"}`, rec.Body.String())
}

func TestListFailureStatus(t *testing.T) {
	// 存储不可达时返回503
	rec := request(newTestServer(&failingStore{reachable: false}), http.MethodGet, "/coordinates/", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "Redis is not connected")

	// 存储可达但列表失败时返回500
	rec = request(newTestServer(&failingStore{reachable: true}), http.MethodGet, "/coordinates/", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealthFollowsPing(t *testing.T) {
	engine, e := newMemoryServer()

	rec := request(e, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"`+ServiceName+`","redis_connected":true}`, rec.Body.String())

	engine.SetAvailable(false)
	rec = request(e, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"code":503,"message":"memory is not connected"}`, rec.Body.String())

	// 恢复后立即健康，结果不缓存
	engine.SetAvailable(true)
	rec = request(e, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRoot(t *testing.T) {
	_, e := newMemoryServer()

	rec := request(e, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"service":"`+ServiceName+`","status":"running","version":"1.0.0"}`, rec.Body.String())
}
