package Controllers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/marior032001/jwt-pizza-service/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateUser(t *testing.T) {
	app := newTestApp(t, nil)
	diner := app.register(t, "pizza diner", "d@jwt.com")
	other := app.register(t, "other diner", "o@jwt.com")

	path := fmt.Sprintf("/api/user/%d", diner.User.ID)

	w := app.do(http.MethodPut, path, diner.Token, map[string]string{"name": "renamed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated authBody
	decode(t, w, &updated)
	assert.Equal(t, "renamed", updated.User.Name)
	assert.Equal(t, "d@jwt.com", updated.User.Email)
	assert.NotEmpty(t, updated.Token)
	assert.Equal(t, http.StatusOK, app.do(http.MethodGet, "/api/user/me", updated.Token, nil).Code)

	w = app.do(http.MethodPut, path, other.Token, map[string]string{"name": "hijacked"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "unauthorized", message(t, w))

	w = app.do(http.MethodPut, path, app.adminToken(t), map[string]string{"password": "changed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	app.login(t, "d@jwt.com", "changed")
}

func TestUpdateUserRequiresToken(t *testing.T) {
	app := newTestApp(t, nil)

	w := app.do(http.MethodPut, "/api/user/1", "", map[string]string{"name": "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListUsersRequiresAdmin(t *testing.T) {
	app := newTestApp(t, nil)
	diner := app.register(t, "pizza diner", "d@jwt.com")

	w := app.do(http.MethodGet, "/api/user", diner.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(http.MethodGet, "/api/user?page=1&limit=10&name=pizza*", app.adminToken(t), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		Users []models.User `json:"users"`
		More  bool          `json:"more"`
	}
	decode(t, w, &body)
	require.Len(t, body.Users, 1)
	assert.Equal(t, "d@jwt.com", body.Users[0].Email)
	assert.False(t, body.More)
}

func TestDeleteUserIsNotImplemented(t *testing.T) {
	app := newTestApp(t, nil)
	diner := app.register(t, "pizza diner", "d@jwt.com")

	w := app.do(http.MethodDelete, fmt.Sprintf("/api/user/%d", diner.User.ID), diner.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "not implemented", message(t, w))
	assert.Equal(t, http.StatusOK, app.do(http.MethodGet, "/api/user/me", diner.Token, nil).Code)
}
