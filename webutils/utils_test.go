package webutils

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, errors.New("no such frame"), http.StatusNotFound)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"no such frame"}`, rec.Body.String())
}

func TestWriteJsonFile(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJsonFile(rec, map[string]int{"a": 1}, "tree")
	assert.Equal(t, `attachment; filename="tree.json"`, rec.Header().Get("Content-Disposition"))
	assert.JSONEq(t, `{"a":1}`, rec.Body.String())
}

func TestReadJsonBody(t *testing.T) {
	var v struct{ Name string }
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"Name":"arm"}`))
	require.NoError(t, ReadJsonBody(r, &v))
	assert.Equal(t, "arm", v.Name)

	r = httptest.NewRequest("GET", "/", strings.NewReader(`{}`))
	assert.Error(t, ReadJsonBody(r, &v))
}

func TestReadJsonFile(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("data", "tree.json")
	require.NoError(t, err)
	fw.Write([]byte(`{"Name":"world"}`))
	require.NoError(t, mw.Close())

	r := httptest.NewRequest("POST", "/upload", &body)
	r.Header.Set("Content-Type", mw.FormDataContentType())

	var v struct{ Name string }
	require.NoError(t, ReadJsonFile(r, "data", &v))
	assert.Equal(t, "world", v.Name)
}
