// Package web holds the pages of the monitoring tool.
package web

import (
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
)

// DevEnv names the variable that, when true, serves the pages from the
// source tree so they can be edited without rebuilding.
const DevEnv = "TILESTREAM_MONITOR_DEV"

//go:embed dist/*
var dist embed.FS

// Assets returns the pages to serve.
func Assets() http.FileSystem {
	if dev, _ := strconv.ParseBool(os.Getenv(DevEnv)); dev {
		if _, file, _, ok := runtime.Caller(0); ok {
			dir := filepath.Join(filepath.Dir(file), "dist")
			slog.Info("serving monitoring pages from source", "dir", dir)

			return http.Dir(dir)
		}
	}

	pages, err := fs.Sub(dist, "dist")
	if err != nil {
		panic(err)
	}

	return http.FS(pages)
}
