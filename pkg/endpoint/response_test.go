package endpoint

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTextResponse(t *testing.T) {
	res := Text(http.StatusNotFound, "Not Found")
	if res.Status != http.StatusNotFound {
		t.Errorf("Status = %d", res.Status)
	}
	if res.Header.Get("Content-Type") != "text/plain; charset=utf-8" {
		t.Errorf("Content-Type = %q", res.Header.Get("Content-Type"))
	}
	if res.Header.Get("Content-Length") != "9" {
		t.Errorf("Content-Length = %q", res.Header.Get("Content-Length"))
	}
}

func TestJSONResponse(t *testing.T) {
	res, err := JSON(http.StatusOK, map[string]int{"n": 1})
	if err != nil {
		t.Fatal(err)
	}
	if string(res.Body) != `{"n":1}` {
		t.Errorf("Body = %s", res.Body)
	}
	if res.Header.Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", res.Header.Get("Content-Type"))
	}

	if _, err := JSON(http.StatusOK, make(chan int)); err == nil {
		t.Error("expected an encoding error")
	}
}

func TestResponseWriteTo(t *testing.T) {
	res := HTML(http.StatusCreated, "<p>hi</p>")
	res.Header.Add("Set-Cookie", "a=1")
	res.Header.Add("Set-Cookie", "b=2")

	rec := httptest.NewRecorder()
	if err := res.WriteTo(rec); err != nil {
		t.Fatal(err)
	}

	if rec.Code != http.StatusCreated {
		t.Errorf("Code = %d", rec.Code)
	}
	if rec.Body.String() != "<p>hi</p>" {
		t.Errorf("Body = %q", rec.Body.String())
	}
	if got := rec.Header().Values("Set-Cookie"); len(got) != 2 {
		t.Errorf("Set-Cookie = %v", got)
	}
}

func TestResponseWriteToDefaultStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := (&Response{}).WriteTo(rec); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("Code = %d, want 200", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("Body = %q, want empty", rec.Body.String())
	}
}
