package controllers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kendall-kelly/freelance-market-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateService(t *testing.T) {
	env := setupTestEnv(t)
	client := env.createUser(t, models.RoleClient, "client@example.com")
	freelancer := env.createUser(t, models.RoleFreelancer, "freelancer@example.com")

	tests := []struct {
		name           string
		user           *models.User
		requestBody    map[string]interface{}
		expectedStatus int
		expectedError  string
	}{
		{
			name: "Freelancer publishes a service",
			user: freelancer,
			requestBody: map[string]interface{}{
				"title":        "Logo design",
				"category":     "design",
				"price":        "75.50",
				"deliveryTime": 3,
				"tags":         []string{"logo", "branding"},
				"plans":        []map[string]interface{}{{"name": "basic", "price": "75.50", "delivery": 3}},
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Client cannot publish",
			user:           client,
			requestBody:    map[string]interface{}{"title": "x", "category": "design", "price": 1, "deliveryTime": 1},
			expectedStatus: http.StatusForbidden,
			expectedError:  "FORBIDDEN",
		},
		{
			name:           "Missing title",
			user:           freelancer,
			requestBody:    map[string]interface{}{"category": "design", "price": 1, "deliveryTime": 1},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
		{
			name:           "Zero delivery time",
			user:           freelancer,
			requestBody:    map[string]interface{}{"title": "x", "category": "design", "price": 1, "deliveryTime": 0},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
		{
			name:           "Negative price",
			user:           freelancer,
			requestBody:    map[string]interface{}{"title": "x", "category": "design", "price": -5, "deliveryTime": 1},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter()
			router.POST("/services", asUser(tt.user), CreateService)

			w, response := doJSON(t, router, http.MethodPost, "/services", tt.requestBody)
			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, errorCode(response))
				return
			}

			data := response["data"].(map[string]interface{})
			assert.Equal(t, freelancer.ID, data["freelancerId"])
			assert.Equal(t, "75.5", data["price"])
			assert.Equal(t, true, data["isActive"])
			assert.Equal(t, []interface{}{}, data["images"])
			assert.Len(t, data["plans"], 1)
		})
	}
}

func TestListServices(t *testing.T) {
	env := setupTestEnv(t)
	freelancer := env.createUser(t, models.RoleFreelancer, "freelancer@example.com")
	cheap := env.createService(t, freelancer, 20)
	env.createService(t, freelancer, 200)
	hidden := env.createService(t, freelancer, 50)
	require.NoError(t, env.db.Model(hidden).Update("is_active", false).Error)
	require.NoError(t, env.db.Model(cheap).Updates(map[string]interface{}{"title": "Quick Fix", "category": "support"}).Error)

	router := setupTestRouter()
	router.GET("/services", ListServices)

	tests := []struct {
		name      string
		query     string
		wantCode  int
		wantCount int
	}{
		{"active only", "", http.StatusOK, 2},
		{"by category", "?category=support", http.StatusOK, 1},
		{"price range", "?minPrice=10&maxPrice=100", http.StatusOK, 1},
		{"search is case-insensitive", "?search=quick", http.StatusOK, 1},
		{"search matches description", "?search=RESPONSIVE", http.StatusOK, 2},
		{"by freelancer", "?freelancerId=" + freelancer.ID, http.StatusOK, 2},
		{"limit", "?limit=1", http.StatusOK, 1},
		{"bad price", "?minPrice=cheap", http.StatusBadRequest, 0},
		{"inverted range", "?minPrice=100&maxPrice=10", http.StatusBadRequest, 0},
		{"bad limit", "?limit=-1", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, response := doJSON(t, router, http.MethodGet, "/services"+tt.query, nil)
			require.Equal(t, tt.wantCode, w.Code, w.Body.String())
			if tt.wantCode == http.StatusOK {
				assert.Len(t, response["data"], tt.wantCount)
			}
		})
	}
}

func TestUpdateService(t *testing.T) {
	env := setupTestEnv(t)
	owner := env.createUser(t, models.RoleFreelancer, "owner@example.com")
	other := env.createUser(t, models.RoleFreelancer, "other@example.com")
	service := env.createService(t, owner, 30)

	tests := []struct {
		name      string
		user      *models.User
		body      map[string]interface{}
		wantCode  int
		wantError string
	}{
		{"owner edits", owner, map[string]interface{}{"title": "Renamed", "price": 45}, http.StatusOK, ""},
		{"not the owner", other, map[string]interface{}{"title": "Mine now"}, http.StatusForbidden, "FORBIDDEN"},
		{"unknown field", owner, map[string]interface{}{"colour": "blue"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"read-only field", owner, map[string]interface{}{"freelancerId": other.ID}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"negative price", owner, map[string]interface{}{"price": -1}, http.StatusBadRequest, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter()
			router.PATCH("/services/:id", asUser(tt.user), UpdateService)

			w, response := doJSON(t, router, http.MethodPatch, "/services/"+service.ID, tt.body)
			require.Equal(t, tt.wantCode, w.Code, w.Body.String())
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, errorCode(response))
				return
			}
			data := response["data"].(map[string]interface{})
			assert.Equal(t, "Renamed", data["title"])
			assert.Equal(t, "45", data["price"])
		})
	}
}

func TestDeleteService(t *testing.T) {
	env := setupTestEnv(t)
	owner := env.createUser(t, models.RoleFreelancer, "owner@example.com")
	other := env.createUser(t, models.RoleFreelancer, "other@example.com")
	service := env.createService(t, owner, 30)

	router := setupTestRouter()
	router.DELETE("/other/services/:id", asUser(other), DeleteService)
	router.DELETE("/owner/services/:id", asUser(owner), DeleteService)

	w, _ := doJSON(t, router, http.MethodDelete, "/other/services/"+service.ID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = doJSON(t, router, http.MethodDelete, "/owner/services/"+service.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, router, http.MethodDelete, "/owner/services/"+service.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadServiceImage(t *testing.T) {
	env := setupTestEnv(t)
	owner := env.createUser(t, models.RoleFreelancer, "owner@example.com")
	other := env.createUser(t, models.RoleFreelancer, "other@example.com")
	service := env.createService(t, owner, 30)

	upload := func(user *models.User, filename string) (*httptest.ResponseRecorder, map[string]interface{}) {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		part, err := writer.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte("fake image bytes"))
		require.NoError(t, err)
		require.NoError(t, writer.Close())

		router := setupTestRouter()
		router.POST("/services/:id/images", asUser(user), UploadServiceImage)

		req := httptest.NewRequest(http.MethodPost, "/services/"+service.ID+"/images", body)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		return w, response
	}

	w, response := upload(other, "cover.png")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(response))

	w, response = upload(owner, "cover.gif")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_FILE_FORMAT", errorCode(response))

	w, response = upload(owner, "cover.png")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data := response["data"].(map[string]interface{})
	assert.Equal(t, true, data["imagesUploaded"])
	images := data["images"].([]interface{})
	require.Len(t, images, 1)
	assert.True(t, strings.HasPrefix(images[0].(string), "https://"), "keys are resolved to URLs")
	assert.Equal(t, images[0], data["imageUrl"])

	// Uploaded media is no longer replaceable through a plain update
	router := setupTestRouter()
	router.PATCH("/services/:id", asUser(owner), UpdateService)
	w, response = doJSON(t, router, http.MethodPatch, "/services/"+service.ID, map[string]interface{}{
		"images": []string{"https://elsewhere.example.com/x.png"},
		"title":  "With photos",
	})
	require.Equal(t, http.StatusOK, w.Code)
	data = response["data"].(map[string]interface{})
	assert.Equal(t, "With photos", data["title"])
	assert.Len(t, data["images"], 1)
	assert.True(t, strings.HasPrefix(data["images"].([]interface{})[0].(string), "https://test-bucket"))
}

func TestGetService(t *testing.T) {
	env := setupTestEnv(t)
	service := env.createService(t, env.createUser(t, models.RoleFreelancer, "owner@example.com"), 30)

	router := setupTestRouter()
	router.GET("/services/:id", GetService)

	w, response := doJSON(t, router, http.MethodGet, "/services/"+service.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.ID, response["data"].(map[string]interface{})["id"])

	w, response = doJSON(t, router, http.MethodGet, "/services/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(response))
}
