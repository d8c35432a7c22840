package handlers

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/noteduco342/OMCalendar-backend/internal/httpx"
	"github.com/noteduco342/OMCalendar-backend/internal/service"
	"github.com/noteduco342/OMCalendar-backend/internal/storage"
	"go.uber.org/zap"
)

type MediaHandler struct {
	logoService *service.LogoService
}

func NewMediaHandler(logoService *service.LogoService) *MediaHandler {
	return &MediaHandler{logoService: logoService}
}

func normalizeETag(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "W/")
	v = strings.Trim(v, "\"")
	return v
}

// GetLogo streams logos/* from object storage.
func (h *MediaHandler) GetLogo(c *fiber.Ctx) error {
	keyParam := strings.TrimSpace(c.Params("*"))
	log := zap.L().With(zap.String("key", keyParam))

	obj, st, err := h.logoService.Open(c.Context(), keyParam)
	if err != nil {
		if errors.Is(err, storage.ErrNotConfigured) {
			return httpx.Error(c, fiber.StatusServiceUnavailable, "storage_not_configured", "Storage not configured")
		}
		if storage.IsNotFound(err) || errors.Is(err, storage.ErrInvalidKey) {
			return httpx.NotFound(c, "not_found", "Not found")
		}
		log.Warn("logo fetch failed", zap.Error(err))
		return httpx.Internal(c, "media_fetch_failed")
	}

	if st.ETag != "" {
		c.Set("ETag", "\""+st.ETag+"\"")
		if inm := normalizeETag(c.Get("If-None-Match")); inm != "" && inm == normalizeETag(st.ETag) {
			_ = obj.Close()
			return c.SendStatus(fiber.StatusNotModified)
		}
	}
	if !st.LastModified.IsZero() {
		c.Set("Last-Modified", st.LastModified.UTC().Format(time.RFC1123))
	}

	c.Set("Cache-Control", "private, max-age=31536000, immutable")
	if st.ContentType != "" {
		c.Type(st.ContentType)
	} else {
		c.Type(storage.ContentTypeJPEG)
	}
	if st.Size > 0 {
		c.Set("Content-Length", strconv.FormatInt(st.Size, 10))
	}

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer func() {
			_ = obj.Close()
		}()

		n, copyErr := io.Copy(w, obj)
		if copyErr != nil {
			log.Warn("logo stream failed", zap.Int64("copied", n), zap.Error(copyErr))
			return
		}
		if err := w.Flush(); err != nil {
			log.Warn("logo stream flush failed", zap.Int64("copied", n), zap.Error(err))
		}
	})
	return nil
}
