package fetchkit_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/adamwoolhether/fetchkit"
	"github.com/adamwoolhether/fetchkit/client"
)

func ExampleNewClient() {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"msg":"hello"}`)
	}))
	defer ts.Close()

	c, err := fetchkit.NewClient(
		client.WithTimeout(5*time.Second),
		client.WithBaseURL(ts.URL),
	)
	if err != nil {
		fmt.Println("build error:", err)
		return
	}

	req, err := c.Request(context.Background(), "GET /greeting")
	if err != nil {
		fmt.Println("request error:", err)
		return
	}

	var resp struct{ Msg string }
	if err := c.Do(req, client.WithDestination(&resp)); err != nil {
		fmt.Println("do error:", err)
		return
	}

	fmt.Println(resp.Msg)
	// Output: hello
}
