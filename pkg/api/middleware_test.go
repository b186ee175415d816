package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testRequest() *http.Request {
	return httptest.NewRequest(http.MethodGet, "/api/users/get", nil)
}

func TestEvaluateAllowValues(t *testing.T) {
	allowing := map[string]any{
		"true":        func(*http.Request) any { return true },
		"nil":         func(*http.Request) any { return nil },
		"allow field": func(*http.Request) any { return Decision{Allow: true} },
		"nil mw":      nil,
	}

	for name, mw := range allowing {
		decision, err := Evaluate(testRequest(), mw)
		if err != nil {
			t.Fatalf("%s: Evaluate failed: %v", name, err)
		}
		if !decision.Allow {
			t.Errorf("%s: Allow = false, want true", name)
		}
	}
}

func TestEvaluateFalse(t *testing.T) {
	decision, err := Evaluate(testRequest(), func(*http.Request) any { return false })
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if decision != DefaultDeny() {
		t.Errorf("decision = %+v, want default deny", decision)
	}
}

func TestEvaluateString(t *testing.T) {
	decision, err := Evaluate(testRequest(), func(*http.Request) any { return "nope" })
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	want := Decision{Allow: false, Code: 401, Message: "nope", ContentType: "text/plain"}
	if decision != want {
		t.Errorf("decision = %+v, want %+v", decision, want)
	}
}

func TestEvaluatePartialDecision(t *testing.T) {
	decision, err := Evaluate(testRequest(), func(*http.Request) any {
		return Decision{Code: 403}
	})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if decision.Code != 403 {
		t.Errorf("Code = %d, want 403", decision.Code)
	}
	if decision.Message != "This action is not allowed." {
		t.Errorf("Message = %q, want default", decision.Message)
	}
	if decision.ContentType != "text/plain" {
		t.Errorf("ContentType = %q", decision.ContentType)
	}
}

func TestEvaluateMapDecision(t *testing.T) {
	decision, err := Evaluate(testRequest(), func(*http.Request) any {
		return map[string]any{"code": 403, "message": "forbidden", "contentType": "application/json"}
	})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	want := Decision{Allow: false, Code: 403, Message: "forbidden", ContentType: "application/json"}
	if decision != want {
		t.Errorf("decision = %+v, want %+v", decision, want)
	}
}

func TestEvaluateUnknownValue(t *testing.T) {
	decision, err := Evaluate(testRequest(), func(*http.Request) any { return 3.14 })
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if decision != DefaultDeny() {
		t.Errorf("decision = %+v, want default deny", decision)
	}
}

func TestEvaluateDeferredValue(t *testing.T) {
	// A middleware handing back a thunk is resolved before
	// normalization.
	decision, err := Evaluate(testRequest(), func(*http.Request) any {
		return func() any { return "later" }
	})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if decision.Allow || decision.Message != "later" {
		t.Errorf("decision = %+v", decision)
	}
}

func TestEvaluateErrorIsFault(t *testing.T) {
	_, err := Evaluate(testRequest(), func(*http.Request) (any, error) {
		return nil, errors.New("db down")
	})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestEvaluatePanicIsFault(t *testing.T) {
	_, err := Evaluate(testRequest(), func(*http.Request) any {
		panic("mw exploded")
	})
	if err == nil {
		t.Fatal("expected error from panicking middleware")
	}
}

func TestEvaluateUnsupportedType(t *testing.T) {
	_, err := Evaluate(testRequest(), 42)
	if err == nil {
		t.Fatal("expected error for non-function middleware")
	}
}

func TestEvaluateIdempotentNormalization(t *testing.T) {
	// Evaluating the normalized forms again produces the same
	// decisions.
	first, err := Evaluate(testRequest(), func(*http.Request) any { return "nope" })
	if err != nil {
		t.Fatal(err)
	}
	second, err := Evaluate(testRequest(), func(*http.Request) any { return first })
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("first = %+v, second = %+v", first, second)
	}
}
