package server

import (
	"net/http"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"taleweaver/pkg/utils"
)

func (s *Server) handleGetRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"service": "Taleweaver Narrative API",
		"status":  "ok",
	})
}

// GET /images/:file
func (s *Server) handleGetImage(c echo.Context) error {
	name := utils.SanitizeFilename(c.Param("file"))
	if name == "" || filepath.Ext(name) != ".webp" {
		return echo.NewHTTPError(http.StatusNotFound, "image not found")
	}
	path := filepath.Join(s.ImageDir, filepath.Base(name))
	if !utils.Exists(path) {
		return echo.NewHTTPError(http.StatusNotFound, "image not found")
	}
	c.Response().Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	return c.File(path)
}
