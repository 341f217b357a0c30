package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"audioconv/ffmpeg"
	"audioconv/formats"
	"audioconv/jobs"
	"audioconv/sources"
	"audioconv/transcode"
)

func homeHandler(c echo.Context) error {
	return c.Render(http.StatusOK, "index.html", map[string]interface{}{
		"formats": formats.All(),
		"presets": cfg.Presets,
	})
}

func loginHandler(c echo.Context) error {
	return c.Render(http.StatusOK, "login.html", nil)
}

func loginPostHandler(c echo.Context) error {
	username := c.FormValue("username")
	password := c.FormValue("password")

	var user User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		return c.String(http.StatusUnauthorized, "Invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return c.String(http.StatusUnauthorized, "Invalid credentials")
	}

	session, err := store.Get(c.Request(), "session")
	if err != nil {
		return c.String(http.StatusInternalServerError, "Unable to retrieve session")
	}
	session.Values["user_id"] = user.ID
	if err := session.Save(c.Request(), c.Response().Writer); err != nil {
		return c.String(http.StatusInternalServerError, "Unable to save session")
	}

	return c.Redirect(http.StatusSeeOther, "/")
}

func logoutHandler(c echo.Context) error {
	session, _ := store.Get(c.Request(), "session")
	delete(session.Values, "user_id")
	session.Save(c.Request(), c.Response().Writer)
	return c.Redirect(http.StatusSeeOther, "/login")
}

// uploadHandler saves an intake file under a uuid-prefixed name so two
// uploads sharing a filename can never collide, and records it so a later
// convert request can reference it.
func uploadHandler(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "No file provided"})
	}
	if fileHeader.Filename == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "No file selected"})
	}
	if fileHeader.Size > cfg.MaxUploadMB*1024*1024 {
		return c.JSON(http.StatusRequestEntityTooLarge, map[string]string{"error": "File too large"})
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to read upload"})
	}
	defer src.Close()

	filename := sanitizeFilename(fileHeader.Filename)
	token := newUploadToken()
	storedPath := filepath.Join(cfg.UploadDir, fmt.Sprintf("%s_%s", token, filename))

	dst, err := os.Create(storedPath)
	if err != nil {
		log.Errorln(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save upload"})
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(storedPath)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save upload"})
	}

	if err := recordUpload(token, filename, storedPath); err != nil {
		os.Remove(storedPath)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to record upload"})
	}

	resp := map[string]interface{}{
		"path": storedPath,
		"name": filename,
	}
	// probe is best-effort; an unreadable file still fails later with a
	// proper job error
	if seconds, err := ffmpeg.Duration(c.Request().Context(), storedPath); err == nil {
		resp["duration"] = seconds
	}
	if rate, err := ffmpeg.SampleRate(c.Request().Context(), storedPath); err == nil {
		resp["sampleRate"] = rate
	}

	return c.JSON(http.StatusOK, resp)
}

// sanitizeFilename strips any path components from a client filename.
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	if name == "." || name == "/" || name == "" {
		return "upload"
	}
	return name
}

type convertSource struct {
	Type string `json:"type"` // "youtube" or "file"
	URL  string `json:"url"`
	Path string `json:"path"`
	Name string `json:"name"`
}

type convertRequest struct {
	Format     string          `json:"format"`
	SampleRate int             `json:"sampleRate"`
	Bitrate    string          `json:"bitrate"`
	Channels   int             `json:"channels"`
	Preset     string          `json:"preset"`
	Sources    []convertSource `json:"sources"`
}

func convertHandler(c echo.Context) error {
	var body convertRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if len(body.Sources) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "No sources provided"})
	}
	if len(body.Sources) > cfg.MaxSourcesPerBatch {
		return c.JSON(http.StatusBadRequest,
			map[string]string{"error": fmt.Sprintf("At most %d sources per request", cfg.MaxSourcesPerBatch)})
	}

	req := transcode.Request{
		Format:     body.Format,
		SampleRate: body.SampleRate,
		Bitrate:    body.Bitrate,
		Channels:   body.Channels,
	}
	if req.Format == "" {
		req.Format = "ogg"
	}
	if body.Preset != "" {
		preset, ok := cfg.Presets[body.Preset]
		if !ok {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unknown preset: " + body.Preset})
		}
		req.Format = preset.Format
		req.SampleRate = preset.SampleRate
		req.Bitrate = preset.Bitrate
	}

	jobIDs := make([]string, 0, len(body.Sources))
	for _, src := range body.Sources {
		var raw string
		switch src.Type {
		case "youtube":
			if sources.Classify(src.URL).Kind != sources.KindRemoteURL {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unrecognized video URL: " + src.URL})
			}
			raw = src.URL
		case "file":
			if !isRecordedUpload(src.Path) {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unknown upload: " + src.Path})
			}
			raw = src.Path
		default:
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unknown source type: " + src.Type})
		}

		jobID, err := runner.Submit(raw, src.Name, req)
		if err != nil {
			var ufe *formats.UnsupportedFormatError
			if errors.As(err, &ufe) {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
			}
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		jobIDs = append(jobIDs, jobID)
	}

	return c.JSON(http.StatusOK, map[string][]string{"jobIds": jobIDs})
}

func statusHandler(c echo.Context) error {
	snap, err := registry.Get(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Job not found"})
	}
	return c.JSON(http.StatusOK, snap)
}

func downloadConvertedHandler(c echo.Context) error {
	id := c.Param("id")
	path, name, err := registry.Artifact(id)
	if err != nil {
		var gone *jobs.ArtifactGoneError
		switch {
		case errors.Is(err, jobs.ErrJobNotFound):
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Job not found"})
		case errors.As(err, &gone):
			return c.JSON(http.StatusGone, map[string]string{"error": "Output file no longer exists"})
		default:
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "File not ready"})
		}
	}
	return c.Attachment(path, name)
}

func formatsHandler(c echo.Context) error {
	details := map[string]map[string]string{}
	for _, spec := range formats.All() {
		details[spec.ID] = map[string]string{
			"name":        spec.Name,
			"description": spec.Description,
		}
	}
	return c.JSON(http.StatusOK, details)
}

func presetsHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, cfg.Presets)
}

func historyHandler(c echo.Context) error {
	convs, err := recentConversions(50)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load history"})
	}
	return c.JSON(http.StatusOK, convs)
}
