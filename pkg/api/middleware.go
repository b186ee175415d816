package api

import (
	"fmt"
	"net/http"
)

// Decision is the normalized outcome of evaluating a middleware
// function. When Allow is true the remaining fields are not inspected.
type Decision struct {
	Allow       bool
	Code        int
	Message     string
	ContentType string
}

// DefaultDeny returns the deny decision used when middleware rejects a
// request without further detail.
func DefaultDeny() Decision {
	return Decision{
		Allow:       false,
		Code:        http.StatusUnauthorized,
		Message:     "This action is not allowed.",
		ContentType: "text/plain",
	}
}

// Middleware is the plain middleware convention. The returned value is
// normalized into a Decision by Evaluate.
type Middleware func(*http.Request) any

// FallibleMiddleware is the middleware convention with an explicit
// error return. A non-nil error is a middleware fault, not a denial.
type FallibleMiddleware func(*http.Request) (any, error)

// Evaluate invokes a middleware function and normalizes its return
// value into a Decision.
//
// Normalization rules:
//   - true or nil            → allow
//   - false                  → default deny
//   - string s               → default deny with Message = s
//   - Decision / *Decision   → merged over the default deny
//   - map with allow/code/message/contentType keys → merged likewise
//   - anything else          → default deny
//
// A deferred func() any return is resolved before normalization. A
// returned error or a panic is reported as an error, which callers must
// treat as a server fault distinct from a denial.
func Evaluate(r *http.Request, mw any) (decision Decision, err error) {
	if mw == nil {
		return Decision{Allow: true}, nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			decision = Decision{}
			err = fmt.Errorf("middleware panicked: %v", rec)
		}
	}()

	var value any
	switch fn := mw.(type) {
	case func(*http.Request) any:
		value = fn(r)
	case Middleware:
		value = fn(r)
	case func(*http.Request) (any, error):
		value, err = fn(r)
	case FallibleMiddleware:
		value, err = fn(r)
	default:
		return Decision{}, fmt.Errorf("middleware has unsupported type %T", mw)
	}
	if err != nil {
		return Decision{}, err
	}

	return normalize(value), nil
}

func normalize(value any) Decision {
	// Resolve a deferred result before inspecting it; middleware built
	// on top of asynchronous helpers hands back a thunk.
	if thunk, ok := value.(func() any); ok {
		value = thunk()
	}

	switch v := value.(type) {
	case nil:
		return Decision{Allow: true}

	case bool:
		if v {
			return Decision{Allow: true}
		}
		return DefaultDeny()

	case string:
		d := DefaultDeny()
		d.Message = v
		return d

	case Decision:
		return mergeDecision(v)

	case *Decision:
		if v == nil {
			return DefaultDeny()
		}
		return mergeDecision(*v)

	case map[string]any:
		return mergeMap(v)

	default:
		return DefaultDeny()
	}
}

// mergeDecision overlays the fields a middleware set onto the default
// deny, so a partial decision like {Code: 403} keeps the generic
// message.
func mergeDecision(v Decision) Decision {
	d := DefaultDeny()
	d.Allow = v.Allow
	if v.Code != 0 {
		d.Code = v.Code
	}
	if v.Message != "" {
		d.Message = v.Message
	}
	if v.ContentType != "" {
		d.ContentType = v.ContentType
	}
	return d
}

func mergeMap(v map[string]any) Decision {
	d := DefaultDeny()
	if allow, ok := v["allow"].(bool); ok {
		d.Allow = allow
	}
	switch code := v["code"].(type) {
	case int:
		d.Code = code
	case float64:
		d.Code = int(code)
	}
	if message, ok := v["message"].(string); ok {
		d.Message = message
	}
	if contentType, ok := v["contentType"].(string); ok {
		d.ContentType = contentType
	}
	return d
}
