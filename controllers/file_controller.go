package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Odiedo123/Tenacity/middleware"
	"github.com/Odiedo123/Tenacity/services"
	"github.com/Odiedo123/Tenacity/utils"
)

// FileController exposes the per-user file index over HTTP.
type FileController struct {
	uploader *services.Uploader
	files    *services.FileService
}

// NewFileController creates a FileController.
func NewFileController(uploader *services.Uploader, files *services.FileService) *FileController {
	return &FileController{uploader: uploader, files: files}
}

func getUserID(ctx *gin.Context) (uint, bool) {
	v, ok := ctx.Get(middleware.ContextUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// Upload stores every file of a multipart batch and commits their metadata
// together. Per-file failures are collected and reported in one response.
func (f *FileController) Upload(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	form, err := ctx.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.Error(ctx, http.StatusRequestEntityTooLarge, 41310, "upload exceeds the size limit")
			return
		}
		utils.Error(ctx, http.StatusBadRequest, 40010, "no files provided")
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40010, "no files provided")
		return
	}

	incoming := make([]services.IncomingFile, 0, len(headers))
	for _, h := range headers {
		incoming = append(incoming, services.IncomingFile{
			Name:        h.Filename,
			Size:        h.Size,
			ContentType: h.Header.Get("Content-Type"),
			Open: func() (io.ReadCloser, error) {
				return h.Open()
			},
		})
	}

	result, err := f.uploader.UploadBatch(ctx.Request.Context(), userID, incoming)
	if err != nil {
		utils.Sugar.Errorw("upload batch failed", "user", userID, "err", err)
		utils.Error(ctx, http.StatusInternalServerError, 50010, "upload failed")
		return
	}
	if len(result.Failed) > 0 {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"message": "some files failed to upload",
			"errors":  result.Failed,
		})
		return
	}

	files := result.Uploaded
	if files == nil {
		files = []string{}
	}
	ctx.JSON(http.StatusOK, gin.H{
		"message": "Files uploaded successfully",
		"files":   files,
	})
}

// List returns the user's files enriched with object metadata.
func (f *FileController) List(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	entries, err := f.files.List(ctx.Request.Context(), userID)
	if err != nil {
		f.respondError(ctx, userID, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"files": entries})
}

// SortFiles returns the listing ordered by the "by" and "order" query
// parameters (name/size/date, asc/desc).
func (f *FileController) SortFiles(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	by := ctx.DefaultQuery("by", "name")
	order := ctx.DefaultQuery("order", "asc")

	entries, err := f.files.Sort(ctx.Request.Context(), userID, by, order)
	if err != nil {
		f.respondError(ctx, userID, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"files": entries})
}

// Delete removes a file and its metadata row.
func (f *FileController) Delete(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	if err := f.files.Delete(ctx.Request.Context(), userID, ctx.Param("filename")); err != nil {
		f.respondError(ctx, userID, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "File deleted successfully"})
}

// Rename moves a file to the new name provided in the form.
func (f *FileController) Rename(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	newName := ctx.PostForm("new_filename")
	if err := f.files.Rename(ctx.Request.Context(), userID, ctx.Param("filename"), newName); err != nil {
		f.respondError(ctx, userID, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "File renamed successfully"})
}

// Download redirects to a time-limited signed URL for the file's bytes.
func (f *FileController) Download(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	url, err := f.files.DownloadURL(ctx.Request.Context(), userID, ctx.Param("filename"))
	if err != nil {
		f.respondError(ctx, userID, err)
		return
	}
	ctx.Redirect(http.StatusFound, url)
}

// Storage returns the user's quota usage report.
func (f *FileController) Storage(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	report, err := f.files.Usage(ctx.Request.Context(), userID)
	if err != nil {
		f.respondError(ctx, userID, err)
		return
	}
	ctx.JSON(http.StatusOK, report)
}

// respondError maps service errors to HTTP statuses. Upstream failures are
// logged in full but answered with a generic message.
func (f *FileController) respondError(ctx *gin.Context, userID uint, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, 40410, "File not found")
	case errors.Is(err, services.ErrNoInput):
		utils.Error(ctx, http.StatusBadRequest, 40011, "No new filename provided")
	case errors.Is(err, services.ErrInvalidName):
		utils.Error(ctx, http.StatusBadRequest, 40012, "Invalid filename")
	case errors.Is(err, services.ErrConflict):
		utils.Error(ctx, http.StatusConflict, 40910, "File changed concurrently, please retry")
	default:
		utils.Sugar.Errorw("file operation failed", "user", userID, "path", ctx.Request.URL.Path, "err", err)
		utils.Error(ctx, http.StatusInternalServerError, 50011, "storage backend error")
	}
}
