package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/mkells/galleria"
	gallhttp "github.com/mkells/galleria/http"
)

// MockGalleryService is a mock implementation of http.GalleryService
type MockGalleryService struct {
	mock.Mock
}

func (m *MockGalleryService) ListFolders(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockGalleryService) ListImages(ctx context.Context, folder string) ([]galleria.ImageDescriptor, error) {
	args := m.Called(ctx, folder)
	return args.Get(0).([]galleria.ImageDescriptor), args.Error(1)
}

func (m *MockGalleryService) DeleteFolder(ctx context.Context, folder string) (int, error) {
	args := m.Called(ctx, folder)
	return args.Int(0), args.Error(1)
}

func (m *MockGalleryService) DeleteImage(ctx context.Context, folder, image string) error {
	args := m.Called(ctx, folder, image)
	return args.Error(0)
}

func (m *MockGalleryService) Upload(ctx context.Context, folder, filename, contentType string, content io.Reader, size int64) (string, error) {
	args := m.Called(ctx, folder, filename, contentType, content, size)
	return args.String(0), args.Error(1)
}

// MockUserService is a mock implementation of http.UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) AddUser(ctx context.Context, nu galleria.NewUser) (galleria.User, error) {
	args := m.Called(ctx, nu)
	return args.Get(0).(galleria.User), args.Error(1)
}

func (m *MockUserService) Authenticate(ctx context.Context, username, password string) (string, error) {
	args := m.Called(ctx, username, password)
	return args.String(0), args.Error(1)
}

func (m *MockUserService) ListUsers(ctx context.Context) ([]galleria.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]galleria.User), args.Error(1)
}

func (m *MockUserService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserService) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	args := m.Called(ctx, username, oldPassword, newPassword)
	return args.Error(0)
}

func newTestRouter(gallery *MockGalleryService, users *MockUserService) http.Handler {
	config := &gallhttp.HandlerConfig{}
	return gallhttp.NewHandler(config, gallery, users).Router()
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestHandler_AddUser_Success(t *testing.T) {
	gallery := new(MockGalleryService)
	users := new(MockUserService)
	router := newTestRouter(gallery, users)

	created := galleria.User{
		ID:        uuid.New(),
		Name:      "Mira Kovacs",
		Username:  "mira",
		Role:      "editor",
		CreatedAt: time.Now(),
	}
	users.On("AddUser", mock.Anything, galleria.NewUser{
		Name:     "Mira Kovacs",
		Username: "mira",
		Password: "s3cret-pass",
		Role:     "editor",
	}).Return(created, nil)

	req := httptest.NewRequest("POST", "/add-user",
		strings.NewReader(`{"name":"Mira Kovacs","username":"mira","password":"s3cret-pass","role":"editor"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "User added successfully", body["message"])
	assert.NotContains(t, rec.Body.String(), "s3cret-pass")

	users.AssertExpectations(t)
}

func TestHandler_AddUser_MissingFields(t *testing.T) {
	gallery := new(MockGalleryService)
	users := new(MockUserService)
	router := newTestRouter(gallery, users)

	users.On("AddUser", mock.Anything, mock.Anything).
		Return(galleria.User{}, galleria.ErrInvalidInput)

	req := httptest.NewRequest("POST", "/add-user", strings.NewReader(`{"username":"mira"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing_fields")
}

func TestHandler_AddUser_DuplicateUsername(t *testing.T) {
	gallery := new(MockGalleryService)
	users := new(MockUserService)
	router := newTestRouter(gallery, users)

	users.On("AddUser", mock.Anything, mock.Anything).
		Return(galleria.User{}, fmt.Errorf("add user mira: %w", galleria.ErrConflict))

	req := httptest.NewRequest("POST", "/add-user",
		strings.NewReader(`{"name":"Mira","username":"mira","password":"x","role":"editor"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "duplicate_username")
}

func TestHandler_AddUser_MalformedJSON(t *testing.T) {
	gallery := new(MockGalleryService)
	users := new(MockUserService)
	router := newTestRouter(gallery, users)

	req := httptest.NewRequest("POST", "/add-user", strings.NewReader(`{"name":`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_body")
	users.AssertNotCalled(t, "AddUser")
}

func TestHandler_Login_Success(t *testing.T) {
	gallery := new(MockGalleryService)
	users := new(MockUserService)
	router := newTestRouter(gallery, users)

	users.On("Authenticate", mock.Anything, "mira", "s3cret-pass").Return("editor", nil)

	req := httptest.NewRequest("POST", "/login",
		strings.NewReader(`{"username":"mira","password":"s3cret-pass"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Login successful", body["message"])
	assert.Equal(t, "editor", body["role"])
}

func TestHandler_Login_InvalidCredentials(t *testing.T) {
	gallery := new(MockGalleryService)
	users := new(MockUserService)
	router := newTestRouter(gallery, users)

	authErr := fmt.Errorf("authenticate: %w", galleria.ErrUnauthorized)
	users.On("Authenticate", mock.Anything, "ghost", "x").Return("", authErr)
	users.On("Authenticate", mock.Anything, "mira", "wrong").Return("", authErr)

	// Unknown username and wrong password produce byte-identical bodies.
	var bodies []string
	for _, payload := range []string{
		`{"username":"ghost","password":"x"}`,
		`{"username":"mira","password":"wrong"}`,
	} {
		req := httptest.NewRequest("POST", "/login", strings.NewReader(payload))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		bodies = append(bodies, rec.Body.String())
	}
	assert.Equal(t, bodies[0], bodies[1])
	assert.Contains(t, bodies[0], "Invalid username or password")
}

func TestHandler_Login_MissingFields(t *testing.T) {
	gallery := new(MockGalleryService)
	users := new(MockUserService)
	router := newTestRouter(gallery, users)

	users.On("Authenticate", mock.Anything, "", "").
		Return("", fmt.Errorf("authenticate: %w", galleria.ErrInvalidInput))

	req := httptest.NewRequest("POST", "/login", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing_fields")
}

func TestHandler_GetUsers(t *testing.T) {
	gallery := new(MockGalleryService)
	users := new(MockUserService)
	router := newTestRouter(gallery, users)

	list := []galleria.User{
		{ID: uuid.New(), Name: "Mira", Username: "mira", Role: "editor"},
		{ID: uuid.New(), Name: "Tomas", Username: "tomas", Role: "viewer"},
	}
	users.On("ListUsers", mock.Anything).Return(list, nil)

	req := httptest.NewRequest("GET", "/get-users", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Users fetched successfully", body["message"])
	assert.Len(t, body["users"], 2)
}

func TestHandler_DeleteUser_Success(t *testing.T) {
	gallery := new(MockGalleryService)
	users := new(MockUserService)
	router := newTestRouter(gallery, users)

	id := uuid.New()
	users.On("DeleteUser", mock.Anything, id).Return(nil)

	req := httptest.NewRequest("DELETE", "/delete-user/"+id.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "User deleted successfully")
	users.AssertExpectations(t)
}

func TestHandler_DeleteUser_InvalidID(t *testing.T) {
	gallery := new(MockGalleryService)
	users := new(MockUserService)
	router := newTestRouter(gallery, users)

	req := httptest.NewRequest("DELETE", "/delete-user/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_id")
	users.AssertNotCalled(t, "DeleteUser")
}

func TestHandler_DeleteUser_NotFound(t *testing.T) {
	gallery := new(MockGalleryService)
	users := new(MockUserService)
	router := newTestRouter(gallery, users)

	id := uuid.New()
	users.On("DeleteUser", mock.Anything, id).
		Return(fmt.Errorf("delete user %s: %w", id, galleria.ErrNotFound))

	req := httptest.NewRequest("DELETE", "/delete-user/"+id.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_found")
}

func TestHandler_ChangePassword_Success(t *testing.T) {
	gallery := new(MockGalleryService)
	users := new(MockUserService)
	router := newTestRouter(gallery, users)

	users.On("ChangePassword", mock.Anything, "mira", "old-pass", "new-pass").Return(nil)

	req := httptest.NewRequest("PUT", "/change-password",
		strings.NewReader(`{"username":"mira","oldPassword":"old-pass","newPassword":"new-pass"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Password changed successfully")
	users.AssertExpectations(t)
}

func TestHandler_ChangePassword_WrongOldPassword(t *testing.T) {
	gallery := new(MockGalleryService)
	users := new(MockUserService)
	router := newTestRouter(gallery, users)

	users.On("ChangePassword", mock.Anything, "mira", "wrong", "new-pass").
		Return(fmt.Errorf("change password: %w", galleria.ErrUnauthorized))

	req := httptest.NewRequest("PUT", "/change-password",
		strings.NewReader(`{"username":"mira","oldPassword":"wrong","newPassword":"new-pass"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Incorrect old password")
}

func TestHandler_ChangePassword_UnknownUser(t *testing.T) {
	gallery := new(MockGalleryService)
	users := new(MockUserService)
	router := newTestRouter(gallery, users)

	users.On("ChangePassword", mock.Anything, "ghost", "old", "new").
		Return(fmt.Errorf("change password: %w", galleria.ErrNotFound))

	req := httptest.NewRequest("PUT", "/change-password",
		strings.NewReader(`{"username":"ghost","oldPassword":"old","newPassword":"new"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_found")
}

func TestHandler_ListFolders(t *testing.T) {
	gallery := new(MockGalleryService)
	users := new(MockUserService)
	router := newTestRouter(gallery, users)

	gallery.On("ListFolders", mock.Anything).Return([]string{"trip-photos", "docs"}, nil)

	req := httptest.NewRequest("GET", "/folders", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"folders":["trip-photos","docs"]}`, rec.Body.String())
}

func TestHandler_ListFolders_EmptyBucket(t *testing.T) {
	gallery := new(MockGalleryService)
	users := new(MockUserService)
	router := newTestRouter(gallery, users)

	gallery.On("ListFolders", mock.Anything).Return([]string{}, nil)

	req := httptest.NewRequest("GET", "/folders", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"folders":[]}`, rec.Body.String())
}

func TestHandler_ListImages(t *testing.T) {
	gallery := new(MockGalleryService)
	users := new(MockUserService)
	router := newTestRouter(gallery, users)

	images := []galleria.ImageDescriptor{
		{Name: "1716312000000-a.png", URL: "https://store.example.com/images/trip-photos/1716312000000-a.png"},
	}
	gallery.On("ListImages", mock.Anything, "trip-photos").Return(images, nil)

	req := httptest.NewRequest("GET", "/folders/trip-photos", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Len(t, body["images"], 1)
}

func TestHandler_ListImages_NotFound(t *testing.T) {
	gallery := new(MockGalleryService)
	users := new(MockUserService)
	router := newTestRouter(gallery, users)

	gallery.On("ListImages", mock.Anything, "ghost").
		Return([]galleria.ImageDescriptor{}, fmt.Errorf("list images ghost: %w", galleria.ErrNotFound))

	req := httptest.NewRequest("GET", "/folders/ghost", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_found")
}

func TestHandler_ListImages_InvalidFolder(t *testing.T) {
	gallery := new(MockGalleryService)
	users := new(MockUserService)
	router := newTestRouter(gallery, users)

	gallery.On("ListImages", mock.Anything, mock.Anything).
		Return([]galleria.ImageDescriptor{}, fmt.Errorf("list images: %w", galleria.ErrInvalidInput))

	req := httptest.NewRequest("GET", "/folders/bad%20name", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_folder")
}

func TestHandler_DeleteFolder_BothSpellings(t *testing.T) {
	for _, path := range []string{"/folders/trip-photos", "/folder/trip-photos"} {
		gallery := new(MockGalleryService)
		users := new(MockUserService)
		router := newTestRouter(gallery, users)

		gallery.On("DeleteFolder", mock.Anything, "trip-photos").Return(3, nil)

		req := httptest.NewRequest("DELETE", path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, "path %s", path)
		body := decodeBody(t, rec)
		assert.Equal(t, "Folder 'trip-photos' deleted successfully.", body["message"])
		assert.Equal(t, float64(3), body["removed"])

		gallery.AssertExpectations(t)
	}
}

func TestHandler_DeleteFolder_NotFound(t *testing.T) {
	gallery := new(MockGalleryService)
	users := new(MockUserService)
	router := newTestRouter(gallery, users)

	gallery.On("DeleteFolder", mock.Anything, "ghost").
		Return(0, fmt.Errorf("delete folder ghost: %w", galleria.ErrNotFound))

	req := httptest.NewRequest("DELETE", "/folders/ghost", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_found")
}

func TestHandler_DeleteFolder_PartialFailure(t *testing.T) {
	gallery := new(MockGalleryService)
	users := new(MockUserService)
	router := newTestRouter(gallery, users)

	gallery.On("DeleteFolder", mock.Anything, "trip-photos").Return(2, &galleria.BulkRemoveError{
		Folder:   "trip-photos",
		Removed:  2,
		Failures: []galleria.RemoveFailure{{Path: "trip-photos/b.png", Message: "access denied"}},
	})

	req := httptest.NewRequest("DELETE", "/folders/trip-photos", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "partial_delete")
	assert.Contains(t, rec.Body.String(), "removed 2 object(s), 1 failed")
}

func TestHandler_DeleteImage_Success(t *testing.T) {
	gallery := new(MockGalleryService)
	users := new(MockUserService)
	router := newTestRouter(gallery, users)

	gallery.On("DeleteImage", mock.Anything, "trip-photos", "1716312000000-a.png").Return(nil)

	req := httptest.NewRequest("DELETE", "/image/trip-photos/1716312000000-a.png", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Image deleted successfully")
	gallery.AssertExpectations(t)
}

func TestHandler_DeleteImage_InvalidName(t *testing.T) {
	gallery := new(MockGalleryService)
	users := new(MockUserService)
	router := newTestRouter(gallery, users)

	gallery.On("DeleteImage", mock.Anything, "trip-photos", mock.Anything).
		Return(fmt.Errorf("delete image: %w", galleria.ErrInvalidInput))

	req := httptest.NewRequest("DELETE", "/image/trip-photos/bad%20name.png", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_name")
}

func multipartBody(t *testing.T, folder, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if folder != "" {
		assert.NoError(t, writer.WriteField("folder", folder))
	}
	if filename != "" {
		part, err := writer.CreateFormFile("image", filename)
		assert.NoError(t, err)
		_, err = part.Write([]byte(content))
		assert.NoError(t, err)
	}
	assert.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestHandler_Upload_Success(t *testing.T) {
	gallery := new(MockGalleryService)
	users := new(MockUserService)
	router := newTestRouter(gallery, users)

	gallery.On("Upload", mock.Anything, "trip-photos", "a.png", mock.Anything, mock.Anything, int64(8)).
		Return("https://store.example.com/images/trip-photos/1716312000000-a.png", nil)

	body, contentType := multipartBody(t, "trip-photos", "a.png", "png-data")
	req := httptest.NewRequest("POST", "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	respBody := decodeBody(t, rec)
	assert.Equal(t, "Image uploaded successfully", respBody["message"])
	assert.Equal(t, "https://store.example.com/images/trip-photos/1716312000000-a.png", respBody["url"])

	gallery.AssertExpectations(t)
}

func TestHandler_Upload_MissingFolder(t *testing.T) {
	gallery := new(MockGalleryService)
	users := new(MockUserService)
	router := newTestRouter(gallery, users)

	body, contentType := multipartBody(t, "", "a.png", "png-data")
	req := httptest.NewRequest("POST", "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Folder and image are required")
	gallery.AssertNotCalled(t, "Upload")
}

func TestHandler_Upload_MissingFile(t *testing.T) {
	gallery := new(MockGalleryService)
	users := new(MockUserService)
	router := newTestRouter(gallery, users)

	body, contentType := multipartBody(t, "trip-photos", "", "")
	req := httptest.NewRequest("POST", "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing_fields")
	gallery.AssertNotCalled(t, "Upload")
}

func TestHandler_Upload_NotMultipart(t *testing.T) {
	gallery := new(MockGalleryService)
	users := new(MockUserService)
	router := newTestRouter(gallery, users)

	req := httptest.NewRequest("POST", "/upload", strings.NewReader(`{"folder":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_body")
	gallery.AssertNotCalled(t, "Upload")
}

func TestHandler_UpstreamTimeout(t *testing.T) {
	gallery := new(MockGalleryService)
	users := new(MockUserService)
	router := newTestRouter(gallery, users)

	gallery.On("ListFolders", mock.Anything).
		Return([]string{}, fmt.Errorf("list folders: %w", galleria.ErrTimeout))

	req := httptest.NewRequest("GET", "/folders", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Contains(t, rec.Body.String(), "upstream_timeout")
}

func TestHandler_UpstreamFailure(t *testing.T) {
	gallery := new(MockGalleryService)
	users := new(MockUserService)
	router := newTestRouter(gallery, users)

	gallery.On("ListFolders", mock.Anything).
		Return([]string{}, fmt.Errorf("list folders: %w: connection refused", galleria.ErrUpstream))

	req := httptest.NewRequest("GET", "/folders", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.NotContains(t, body["message"], "connection refused")
}
