package api

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// WithSPA serves the single-page front end from webDir and hands /api/
// paths to apiHandler. Unknown paths fall back to index.html so client
// routes such as /stock/NSE/TCS survive a reload.
func WithSPA(apiHandler http.Handler, webDir string) http.Handler {
	files := http.FileServer(http.Dir(webDir))
	index := filepath.Join(webDir, "index.html")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			apiHandler.ServeHTTP(w, r)
			return
		}

		rel := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		if rel != "" && rel != "index.html" {
			if info, err := os.Stat(filepath.Join(webDir, filepath.FromSlash(rel))); err == nil && !info.IsDir() {
				w.Header().Set("Cache-Control", assetCacheControl(rel))
				files.ServeHTTP(w, r)
				return
			}
		}

		if _, err := os.Stat(index); err != nil {
			http.Error(w, "index.html not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		http.ServeFile(w, r, index)
	})
}

// assetCacheControl lets fingerprinted bundle output under assets/ be
// cached; everything else is revalidated.
func assetCacheControl(rel string) string {
	if strings.HasPrefix(rel, "assets/") {
		return "public, max-age=31536000, immutable"
	}
	return "no-store"
}
