package upload

import (
	"context"
	"io"
	"net/http"

	"github.com/inkwell-app/inkwell/internal/telemetry/tracing"
	"github.com/inkwell-app/inkwell/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const maxUploadSize = 10 << 20 // 10 MiB

type uploader interface {
	Upload(ctx context.Context, fileName string, file io.Reader) (*Result, error)
}

type Handler struct {
	uploader uploader
}

func NewHandler(uploader uploader) *Handler {
	return &Handler{
		uploader: uploader,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	uploadRouter := router.PathPrefix("/upload").Subrouter()
	uploadRouter.HandleFunc("/image", handler.handleUploadImage).Methods("POST", "OPTIONS").Name("upload-image")
}

func (handler *Handler) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "uploadHandler.image")
	defer span.End()

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		log.Tracef("upload image, parse multipart form: %s", err)
		pkg.WriteError(w, "No image file provided", http.StatusBadRequest, "Missing image file")
		return
	}

	file, fileHeader, err := r.FormFile("coverImage")
	if err != nil {
		pkg.WriteError(w, "No image file provided", http.StatusBadRequest, "Missing image file")
		return
	}
	defer file.Close()

	result, err := handler.uploader.Upload(ctx, fileHeader.Filename, file)
	if err != nil {
		log.Errorf("upload image [%s]: %s", fileHeader.Filename, err)
		pkg.WriteError(w, "Image upload failed", http.StatusBadGateway, "Image host error")
		return
	}

	log.Tracef("image [%s] uploaded: %s", fileHeader.Filename, result.SecureURL)

	pkg.WriteSuccess(w, "Image uploaded successfully", http.StatusOK, map[string]any{
		"coverImageUrl": result.SecureURL,
		"width":         result.Width,
		"height":        result.Height,
		"format":        result.Format,
		"resource_type": result.ResourceType,
		"created_at":    result.CreatedAt,
	})
}
