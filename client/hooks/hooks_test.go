package hooks_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/adamwoolhether/fetchkit/client/hooks"
)

func TestHooks_NilSafe(t *testing.T) {
	var h hooks.Hooks

	h.Data("x")
	h.Success(nil)
	h.Failure(nil)
	h.End(nil)

	if h.Error(errors.New("boom")) {
		t.Error("error must be unhandled without OnError")
	}
}

func TestHooks_Merge(t *testing.T) {
	var calls []string
	record := func(name string) func(*http.Response) {
		return func(*http.Response) { calls = append(calls, name) }
	}

	a := hooks.Hooks{
		OnData: func(item any) { calls = append(calls, "a.data:"+item.(string)) },
		OnEnd:  record("a.end"),
	}
	b := hooks.Hooks{
		OnData:    func(item any) { calls = append(calls, "b.data:"+item.(string)) },
		OnError:   func(error) { calls = append(calls, "b.error") },
		OnSuccess: record("b.success"),
		OnEnd:     record("b.end"),
	}

	h := a.Merge(b)
	h.Data("1")
	handled := h.Error(errors.New("boom"))
	h.Success(nil)
	h.Failure(nil)
	h.End(nil)

	if !handled {
		t.Error("expected error to be handled by the right-hand hooks")
	}

	exp := []string{"a.data:1", "b.data:1", "b.error", "b.success", "a.end", "b.end"}
	if diff := cmp.Diff(exp, calls); diff != "" {
		t.Errorf("call order mismatch (-want +got):\n%s", diff)
	}
}
