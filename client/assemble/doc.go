// Package assemble turns a route descriptor plus structured [Options] into
// a transport-ready request.
//
// Assembly runs as a fixed pipeline over a single owned [Context]:
//
//	URL resolution -> path parameters -> query -> body -> headers -> token
//
// Each stage only reads what earlier stages resolved and may be re-run on
// the same Context without changing the outcome. [Assemble] runs all of
// them in order:
//
//	rc, err := assemble.Assemble("GET /users/:id", assemble.Options{
//		BaseURL: "https://api.example.com",
//		Data:    map[string]any{"id": "123", "expand": []string{"teams", "roles"}},
//	})
//	// rc.URL: https://api.example.com/users/123?expand=teams&expand=roles
//
// Call [Context.Request] to obtain an [net/http.Request].
package assemble
