package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/polymorphisma/userhub/internal/usecase/user"
	pkgerrors "github.com/polymorphisma/userhub/pkg/errors"
)

// MockUsecase is a mock implementation of user.Usecase
type MockUsecase struct {
	mock.Mock
}

func (m *MockUsecase) CreateUser(ctx context.Context, in user.CreateUserRequest) (*user.CreateUserResponse, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.CreateUserResponse), args.Error(1)
}

func (m *MockUsecase) UpdateUser(ctx context.Context, in user.UpdateUserRequest) (*user.UpdateUserResponse, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.UpdateUserResponse), args.Error(1)
}

func (m *MockUsecase) DeleteUser(ctx context.Context, in user.DeleteUserRequest) (*user.DeleteUserResponse, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.DeleteUserResponse), args.Error(1)
}

func (m *MockUsecase) GetUser(ctx context.Context, in user.GetUserRequest) (*user.GetUserResponse, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.GetUserResponse), args.Error(1)
}

func (m *MockUsecase) ListUsers(ctx context.Context, in user.ListUsersRequest) (*user.ListUsersResponse, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.ListUsersResponse), args.Error(1)
}

func setupHandler(t *testing.T) (*MockUsecase, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	uc := new(MockUsecase)
	h := NewUserHandler(uc, zaptest.NewLogger(t))

	r := gin.New()
	v1 := r.Group("/v1")
	{
		v1.POST("/users", h.CreateUser)
		v1.GET("/users", h.ListUsers)
		v1.GET("/users/:id", h.GetUser)
		v1.PUT("/users/:id", h.UpdateUser)
		v1.DELETE("/users/:id", h.DeleteUser)
	}
	return uc, r
}

func performJSON(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateUser_Success(t *testing.T) {
	uc, r := setupHandler(t)

	uc.On("CreateUser", mock.Anything, mock.MatchedBy(func(in user.CreateUserRequest) bool {
		return in.Name == "John Doe" && in.Email == "john@example.com" && in.Age != nil && *in.Age == 30
	})).Return(&user.CreateUserResponse{ID: 1}, nil)

	w := performJSON(r, http.MethodPost, "/v1/users", gin.H{
		"name":     "John Doe",
		"email":    "john@example.com",
		"password": "secret-password",
		"age":      30,
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":1}`, w.Body.String())
	uc.AssertExpectations(t)
}

func TestCreateUser_BindingError(t *testing.T) {
	uc, r := setupHandler(t)

	w := performJSON(r, http.MethodPost, "/v1/users", gin.H{
		"name":  "John Doe",
		"email": "not-an-email",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation_error")
	uc.AssertNotCalled(t, "CreateUser")
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	uc, r := setupHandler(t)

	uc.On("CreateUser", mock.Anything, mock.Anything).
		Return(nil, pkgerrors.NewAlreadyExistsError("user", "email already exists"))

	w := performJSON(r, http.MethodPost, "/v1/users", gin.H{
		"name":     "John Doe",
		"email":    "john@example.com",
		"password": "secret-password",
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already_exists")
}

func TestGetUser_Success(t *testing.T) {
	uc, r := setupHandler(t)

	age := int32(42)
	uc.On("GetUser", mock.Anything, user.GetUserRequest{ID: 7}).
		Return(&user.GetUserResponse{ID: 7, Name: "Jane", Email: "jane@example.com", Age: &age}, nil)

	w := performJSON(r, http.MethodGet, "/v1/users/7", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(7), resp.ID)
	assert.Equal(t, "Jane", resp.Name)
	require.NotNil(t, resp.Age)
	assert.Equal(t, int32(42), *resp.Age)
}

func TestGetUser_OmitsNilAge(t *testing.T) {
	uc, r := setupHandler(t)

	uc.On("GetUser", mock.Anything, user.GetUserRequest{ID: 7}).
		Return(&user.GetUserResponse{ID: 7, Name: "Jane", Email: "jane@example.com"}, nil)

	w := performJSON(r, http.MethodGet, "/v1/users/7", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "age")
}

func TestGetUser_NotFound(t *testing.T) {
	uc, r := setupHandler(t)

	uc.On("GetUser", mock.Anything, user.GetUserRequest{ID: 999}).
		Return(nil, pkgerrors.NewNotFoundError("user", "user with id 999 not found"))

	w := performJSON(r, http.MethodGet, "/v1/users/999", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not_found")
}

func TestGetUser_InvalidID(t *testing.T) {
	uc, r := setupHandler(t)

	for _, id := range []string{"abc", "0", "-5"} {
		w := performJSON(r, http.MethodGet, "/v1/users/"+id, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, "id %q", id)
	}
	uc.AssertNotCalled(t, "GetUser")
}

func TestUpdateUser_Success(t *testing.T) {
	uc, r := setupHandler(t)

	uc.On("UpdateUser", mock.Anything, mock.MatchedBy(func(in user.UpdateUserRequest) bool {
		return in.ID == 3 && in.Name == "New Name" && in.Email == ""
	})).Return(&user.UpdateUserResponse{ID: 3}, nil)

	w := performJSON(r, http.MethodPut, "/v1/users/3", gin.H{"name": "New Name"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":3}`, w.Body.String())
}

func TestDeleteUser_Success(t *testing.T) {
	uc, r := setupHandler(t)

	uc.On("DeleteUser", mock.Anything, user.DeleteUserRequest{ID: 3}).
		Return(&user.DeleteUserResponse{ID: 3}, nil)

	w := performJSON(r, http.MethodDelete, "/v1/users/3", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":3}`, w.Body.String())
}

func TestListUsers_Success(t *testing.T) {
	uc, r := setupHandler(t)

	uc.On("ListUsers", mock.Anything, user.ListUsersRequest{Query: "john", Page: 2, Limit: 5}).
		Return(&user.ListUsersResponse{
			Users: []user.User{
				{ID: 1, Name: "John", Email: "john@example.com"},
			},
			Pagination: &user.Pagination{Total: 11, Page: 2, Limit: 5, TotalPages: 3},
		}, nil)

	w := performJSON(r, http.MethodGet, "/v1/users?query=john&page=2&limit=5", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp ListUsersResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Users, 1)
	assert.Equal(t, "John", resp.Users[0].Name)
	require.NotNil(t, resp.Pagination)
	assert.Equal(t, int64(3), resp.Pagination.TotalPages)
}

func TestListUsers_DefaultsAppliedForBadParams(t *testing.T) {
	uc, r := setupHandler(t)

	uc.On("ListUsers", mock.Anything, user.ListUsersRequest{Query: "", Page: 1, Limit: 10}).
		Return(&user.ListUsersResponse{Users: []user.User{}}, nil)

	w := performJSON(r, http.MethodGet, "/v1/users?page=zero&limit=-4", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	uc.AssertExpectations(t)
}

func TestListUsers_InvalidQueryRejected(t *testing.T) {
	uc, r := setupHandler(t)

	uc.On("ListUsers", mock.Anything, mock.Anything).
		Return(nil, pkgerrors.NewValidationError("query", "invalid search query"))

	w := performJSON(r, http.MethodGet, "/v1/users?query=%27%3B+DROP+TABLE+users%3B--", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation_error")
}

func TestHandleError_UnknownErrorIs500(t *testing.T) {
	uc, r := setupHandler(t)

	uc.On("GetUser", mock.Anything, user.GetUserRequest{ID: 5}).
		Return(nil, assert.AnError)

	w := performJSON(r, http.MethodGet, "/v1/users/5", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal_error")
}
