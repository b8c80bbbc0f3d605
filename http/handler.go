package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/mkells/galleria"
)

// GalleryService is the folder/image surface the handler needs.
type GalleryService interface {
	ListFolders(ctx context.Context) ([]string, error)
	ListImages(ctx context.Context, folder string) ([]galleria.ImageDescriptor, error)
	DeleteFolder(ctx context.Context, folder string) (int, error)
	DeleteImage(ctx context.Context, folder, image string) error
	Upload(ctx context.Context, folder, filename, contentType string, content io.Reader, size int64) (string, error)
}

// UserService is the user-directory surface the handler needs.
type UserService interface {
	AddUser(ctx context.Context, nu galleria.NewUser) (galleria.User, error)
	Authenticate(ctx context.Context, username, password string) (string, error)
	ListUsers(ctx context.Context) ([]galleria.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
	ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type HandlerConfig struct {
	CORS CORSConfig
	// MaxUploadSize bounds multipart memory and body size in bytes.
	// Zero means the 32 MiB default.
	MaxUploadSize int64
}

const defaultMaxUploadSize = 32 << 20

// Handler provides the HTTP surface over the gallery and user services.
type Handler struct {
	config  HandlerConfig
	gallery GalleryService
	users   UserService
}

// NewHandler creates a new Handler with the given configuration and services.
func NewHandler(config *HandlerConfig, gallery GalleryService, users UserService) *Handler {
	return &Handler{
		config:  *config,
		gallery: gallery,
		users:   users,
	}
}

// Router returns the configured http.Handler.
// DELETE is accepted on both /folders/{name} and /folder/{name}; clients in
// the field use both spellings.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestLogger)

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.Post("/add-user", h.handleAddUser)
	r.Post("/login", h.handleLogin)
	r.Get("/get-users", h.handleGetUsers)
	r.Delete("/delete-user/{id}", h.handleDeleteUser)
	r.Put("/change-password", h.handleChangePassword)

	r.Get("/folders", h.handleListFolders)
	r.Get("/folders/{folderName}", h.handleListImages)
	r.Delete("/folders/{folderName}", h.handleDeleteFolder)
	r.Delete("/folder/{folderName}", h.handleDeleteFolder)
	r.Delete("/image/{folderName}/{imageName}", h.handleDeleteImage)
	r.Post("/upload", h.handleUpload)

	return r
}

func (h *Handler) handleAddUser(w http.ResponseWriter, r *http.Request) {
	var nu galleria.NewUser
	if err := DecodeJSON(r, &nu); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_body", "Request body must be valid JSON")
		return
	}

	user, err := h.users.AddUser(r.Context(), nu)
	if err != nil {
		switch {
		case errors.Is(err, galleria.ErrInvalidInput):
			WriteError(w, http.StatusBadRequest, "missing_fields", "All fields are required: name, username, password, role")
		case errors.Is(err, galleria.ErrConflict):
			WriteError(w, http.StatusConflict, "duplicate_username", "Username already exists")
		default:
			HandleError(w, err)
		}
		return
	}

	_ = WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "User added successfully",
		"user":    user,
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := DecodeJSON(r, &creds); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_body", "Request body must be valid JSON")
		return
	}

	role, err := h.users.Authenticate(r.Context(), creds.Username, creds.Password)
	if err != nil {
		switch {
		case errors.Is(err, galleria.ErrInvalidInput):
			WriteError(w, http.StatusBadRequest, "missing_fields", "Username and password are required")
		case errors.Is(err, galleria.ErrUnauthorized):
			// Same body for unknown username and wrong password.
			WriteError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid username or password")
		default:
			HandleError(w, err)
		}
		return
	}

	_ = WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"role":    role,
	})
}

func (h *Handler) handleGetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Users fetched successfully",
		"users":   users,
	})
}

func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", "Invalid user id")
		return
	}

	if err := h.users.DeleteUser(r.Context(), id); err != nil {
		if errors.Is(err, galleria.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "not_found", "User not found")
			return
		}
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, map[string]any{
		"message": "User deleted successfully",
	})
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username    string `json:"username"`
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_body", "Request body must be valid JSON")
		return
	}

	err := h.users.ChangePassword(r.Context(), req.Username, req.OldPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, galleria.ErrInvalidInput):
			WriteError(w, http.StatusBadRequest, "missing_fields", "All fields are required: username, oldPassword, newPassword")
		case errors.Is(err, galleria.ErrNotFound):
			WriteError(w, http.StatusNotFound, "not_found", "User not found")
		case errors.Is(err, galleria.ErrUnauthorized):
			WriteError(w, http.StatusUnauthorized, "invalid_credentials", "Incorrect old password")
		default:
			HandleError(w, err)
		}
		return
	}

	_ = WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Password changed successfully",
	})
}

func (h *Handler) handleListFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := h.gallery.ListFolders(r.Context())
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, map[string]any{
		"folders": folders,
	})
}

func (h *Handler) handleListImages(w http.ResponseWriter, r *http.Request) {
	folder := chi.URLParam(r, "folderName")

	images, err := h.gallery.ListImages(r.Context(), folder)
	if err != nil {
		switch {
		case errors.Is(err, galleria.ErrInvalidInput):
			WriteError(w, http.StatusBadRequest, "invalid_folder", "Invalid folder name")
		case errors.Is(err, galleria.ErrNotFound):
			WriteError(w, http.StatusNotFound, "not_found", "Folder not found or empty")
		default:
			HandleError(w, err)
		}
		return
	}

	_ = WriteJSON(w, http.StatusOK, map[string]any{
		"images": images,
	})
}

func (h *Handler) handleDeleteFolder(w http.ResponseWriter, r *http.Request) {
	folder := chi.URLParam(r, "folderName")

	removed, err := h.gallery.DeleteFolder(r.Context(), folder)
	if err != nil {
		var bulkErr *galleria.BulkRemoveError
		switch {
		case errors.Is(err, galleria.ErrInvalidInput):
			WriteError(w, http.StatusBadRequest, "invalid_folder", "Invalid folder name")
		case errors.Is(err, galleria.ErrNotFound):
			WriteError(w, http.StatusNotFound, "not_found", "Folder not found or already empty")
		case errors.As(err, &bulkErr):
			// Partial failure is reported, not collapsed into a generic 500.
			WriteError(w, http.StatusInternalServerError, "partial_delete",
				fmt.Sprintf("Folder '%s': removed %d object(s), %d failed", folder, bulkErr.Removed, len(bulkErr.Failures)))
		default:
			HandleError(w, err)
		}
		return
	}

	_ = WriteJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Folder '%s' deleted successfully.", folder),
		"removed": removed,
	})
}

func (h *Handler) handleDeleteImage(w http.ResponseWriter, r *http.Request) {
	folder := chi.URLParam(r, "folderName")
	image := chi.URLParam(r, "imageName")

	if err := h.gallery.DeleteImage(r.Context(), folder, image); err != nil {
		if errors.Is(err, galleria.ErrInvalidInput) {
			WriteError(w, http.StatusBadRequest, "invalid_name", "Invalid folder or image name")
			return
		}
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Image deleted successfully",
	})
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxSize := h.config.MaxUploadSize
	if maxSize <= 0 {
		maxSize = defaultMaxUploadSize
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxSize)
	if err := r.ParseMultipartForm(maxSize); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_body", "Request must be multipart form data")
		return
	}

	folder := r.FormValue("folder")
	file, header, err := r.FormFile("image")
	if folder == "" || err != nil {
		WriteError(w, http.StatusBadRequest, "missing_fields", "Folder and image are required")
		return
	}
	defer func() { _ = file.Close() }()

	contentType := header.Header.Get("Content-Type")

	url, err := h.gallery.Upload(r.Context(), folder, header.Filename, contentType, file, header.Size)
	if err != nil {
		if errors.Is(err, galleria.ErrInvalidInput) {
			WriteError(w, http.StatusBadRequest, "invalid_name", "Invalid folder or file name")
			return
		}
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Image uploaded successfully",
		"url":     url,
	})
}
