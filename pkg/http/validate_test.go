package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

type batchReq struct {
	Symbols []string `json:"symbols" validate:"required,min=1,max=2"`
	Mode    string   `json:"mode" default:"full" validate:"oneof=quick full"`
}

func bindJSON(t *testing.T, body string, req interface{}) []ValidationError {
	t.Helper()
	e := echo.New()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return ReadAndValidateRequest(e.NewContext(r, httptest.NewRecorder()), req)
}

func TestReadAndValidateRequestAppliesDefaults(t *testing.T) {
	req := &batchReq{}
	if errs := bindJSON(t, `{"symbols":["AAPL"]}`, req); errs != nil {
		t.Fatalf("unexpected errors %+v", errs)
	}
	if req.Mode != "full" {
		t.Fatalf("Mode = %q, want default full", req.Mode)
	}
}

func TestReadAndValidateRequestReportsFields(t *testing.T) {
	errs := bindJSON(t, `{"symbols":["A","B","C"],"mode":"deep"}`, &batchReq{})
	if len(errs) != 2 {
		t.Fatalf("got %d errors, want 2: %+v", len(errs), errs)
	}
	if errs[0].Code != "ERR_MAX" || errs[0].Message != "Symbols must contain at most 2 items" {
		t.Fatalf("unexpected first error %+v", errs[0])
	}
	if errs[1].Code != "ERR_ONEOF" || errs[1].Message != "Mode must be one of: quick, full" {
		t.Fatalf("unexpected second error %+v", errs[1])
	}
}

func TestReadAndValidateRequestMalformedBody(t *testing.T) {
	errs := bindJSON(t, `{"symbols":`, &batchReq{})
	if len(errs) != 1 || errs[0].Code != "ERR_MALFORMED_REQUEST" {
		t.Fatalf("unexpected errors %+v", errs)
	}
}
