package web

import (
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
)

func newTestEcho() *echo.Echo {
	e := NewEcho(config.NewNopLogger())
	e.POST("/resolve", func(c echo.Context) error {
		req := new(model.ResolveRequest)
		if err := BindAndValidate(c, req); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, req)
	})
	e.POST("/store", func(c echo.Context) error {
		req := new(model.CoordinatePayload)
		if err := BindAndValidate(c, req); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, req.Record().Coordinates)
	})
	e.GET("/panic", func(c echo.Context) error {
		panic("boom")
	})
	e.GET("/fail", func(c echo.Context) error {
		return errors.New("数据库连接细节")
	})
	return e
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) model.ErrorResponse {
	t.Helper()
	var resp model.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestResolveRequestValidation(t *testing.T) {
	e := newTestEcho()

	accepted := []string{"8.8.8.8", "0.0.0.0", "255.255.255.255"}
	for _, ip := range accepted {
		rec := doJSON(e, http.MethodPost, "/resolve", `{"ip":"`+ip+`"}`)
		assert.Equal(t, http.StatusOK, rec.Code, "应接受: %s", ip)
	}

	rejected := []string{
		`{"ip":"256.1.1.1"}`,
		`{"ip":"1.2.3"}`,
		`{"ip":"a.b.c.d"}`,
		`{"ip":""}`,
		`{"ip":"::ffff:1.2.3.4"}`,
		`{"ip":" 8.8.8.8"}`,
		`{}`,
		`{"ip":123}`,
		`not json`,
	}
	for _, body := range rejected {
		rec := doJSON(e, http.MethodPost, "/resolve", body)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "应拒绝: %s", body)
		resp := decodeError(t, rec)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
		assert.NotEmpty(t, resp.Message)
	}

	rec := doJSON(e, http.MethodPost, "/resolve", `{"ip":"256.1.1.1"}`)
	assert.Contains(t, decodeError(t, rec).Message, "ip: invalid IPv4 address")
}

func TestCoordinatePayloadValidation(t *testing.T) {
	e := newTestEcho()

	rec := doJSON(e, http.MethodPost, "/store", `{"ip":"8.8.8.8","lat":0,"lon":0}`)
	assert.Equal(t, http.StatusOK, rec.Code, "0经纬度是合法值")

	rec = doJSON(e, http.MethodPost, "/store", `{"ip":"8.8.8.8","lat":-90,"lon":180,"city":"X","country":"Y"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	cases := map[string]string{
		`{"ip":"8.8.8.8","lon":1}`:           "lat: field required",
		`{"ip":"8.8.8.8","lat":91,"lon":1}`:  "lat: must be less than or equal to 90",
		`{"ip":"8.8.8.8","lat":1,"lon":-181}`: "lon: must be greater than or equal to -180",
		`{"ip":"1.2.3","lat":1,"lon":1}`:      "ip: invalid IPv4 address",
	}
	for body, message := range cases {
		rec := doJSON(e, http.MethodPost, "/store", body)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, body)
		assert.Contains(t, decodeError(t, rec).Message, message, body)
	}
}

func TestErrorHandlerRendersJSON(t *testing.T) {
	e := newTestEcho()

	rec := doJSON(e, http.MethodGet, "/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, http.StatusNotFound, decodeError(t, rec).Code)

	rec = doJSON(e, http.MethodGet, "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code, "panic应被恢复为500")
	assert.Equal(t, http.StatusInternalServerError, decodeError(t, rec).Code)

	rec = doJSON(e, http.MethodGet, "/fail", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "数据库连接细节", "内部错误细节不应返回给客户端")
}

func TestRequestIDAndMetrics(t *testing.T) {
	e := newTestEcho()

	rec := doJSON(e, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID), "响应应带请求ID")
}

func TestRootHandler(t *testing.T) {
	e := echo.New()
	e.GET("/", RootHandler("Service A - IP Resolution"))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp model.RootResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, model.RootResponse{Service: "Service A - IP Resolution", Status: "running", Version: Version}, resp)
}
