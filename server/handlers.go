package server

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chaos-io/rembg/inference"
	"github.com/chaos-io/rembg/rembg"
	"github.com/chaos-io/rembg/store"
)

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"model_loaded": s.handle.Ready(),
	})
}

func (s *Server) removeBackgroundHandler(c *gin.Context) {
	data, ok := s.readUpload(c)
	if !ok {
		return
	}

	var opts []rembg.Option
	switch c.Query("crop") {
	case "square":
		opts = append(opts, rembg.WithCrop(true))
	case "true", "1":
		opts = append(opts, rembg.WithCrop(false))
	}

	out, err := s.pipeline.RemoveBackground(c.Request.Context(), data, opts...)
	if err != nil {
		s.abortWithError(c, statusFor(err), err)
		return
	}

	if save, _ := strconv.ParseBool(c.Query("save")); save {
		name := store.NewName(".png")
		if _, err := s.store.Save(name, out); err != nil {
			s.abortWithError(c, http.StatusInternalServerError, err)
			return
		}
		c.Header(HeaderImageName, name)
	}

	c.Data(http.StatusOK, "image/png", out)
}

// readUpload returns the image bytes from the multipart field "image" or,
// for any other content type, the raw body.
func (s *Server) readUpload(c *gin.Context) ([]byte, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload)

	mediaType, _, _ := mime.ParseMediaType(c.GetHeader("Content-Type"))
	var (
		data []byte
		err  error
	)
	if mediaType == "multipart/form-data" {
		data, err = readFormFile(c, "image")
	} else {
		data, err = io.ReadAll(c.Request.Body)
	}

	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		s.abortWithError(c, http.StatusRequestEntityTooLarge, err)
		return nil, false
	case err != nil:
		s.abortWithError(c, http.StatusBadRequest, err)
		return nil, false
	case len(data) == 0:
		s.abortWithError(c, http.StatusBadRequest, errors.New("image is required"))
		return nil, false
	}
	return data, true
}

func readFormFile(c *gin.Context, field string) ([]byte, error) {
	file, err := c.FormFile(field)
	if err != nil {
		return nil, err
	}
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = src.Close()
	}()
	return io.ReadAll(src)
}

func (s *Server) listImagesHandler(c *gin.Context) {
	infos, err := s.store.List()
	if err != nil {
		s.abortWithError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"images": infos})
}

func (s *Server) getImageHandler(c *gin.Context) {
	data, err := s.store.Get(c.Param("name"))
	if err != nil {
		s.abortWithError(c, statusFor(err), err)
		return
	}
	c.Data(http.StatusOK, http.DetectContentType(data), data)
}

func (s *Server) putImageHandler(c *gin.Context) {
	data, ok := s.readUpload(c)
	if !ok {
		return
	}
	if _, _, err := rembg.Decode(data); err != nil {
		s.abortWithError(c, http.StatusBadRequest, err)
		return
	}

	name := c.Param("name")
	if _, err := s.store.Save(name, data); err != nil {
		s.abortWithError(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"name": name, "size": len(data)})
}

func (s *Server) deleteImageHandler(c *gin.Context) {
	if err := s.store.Remove(c.Param("name")); err != nil {
		s.abortWithError(c, statusFor(err), err)
		return
	}
	c.Status(http.StatusNoContent)
}

// statusFor maps error kinds to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, rembg.ErrDecode), errors.Is(err, store.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, inference.ErrModelNotInitialized):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) abortWithError(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("request_id", c.GetString(requestIDKey)), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, gin.H{
		"error":      err.Error(),
		"request_id": c.GetString(requestIDKey),
	})
}
