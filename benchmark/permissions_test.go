// Package benchmark hammers a locally running server. Start one with
// permhubctl server, log in as admin, and paste the token below before
// running with -bench.
package benchmark

import (
	"net/http"
	"testing"
)

const (
	baseURL = "http://localhost:8000"
	token   = ""
)

func do(b *testing.B, req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		b.Fatal(err)
	}
	resp.Body.Close()
}

func BenchmarkListEndpoints(b *testing.B) {
	if token == "" {
		b.Skip("no token configured")
	}

	b.Run("GET /api/v1/table-permissions", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			r, _ := http.NewRequest("GET", baseURL+"/api/v1/table-permissions?page=1&size=50", nil)
			do(b, r)
		}
	})

	b.Run("GET /api/v1/hdfs-quotas", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			r, _ := http.NewRequest("GET", baseURL+"/api/v1/hdfs-quotas", nil)
			do(b, r)
		}
	})

	b.Run("GET /status", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			r, _ := http.NewRequest("GET", baseURL+"/status", nil)
			do(b, r)
		}
	})
}
