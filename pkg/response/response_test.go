package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func TestSuccess(t *testing.T) {
	c, w := newContext()
	Success(c, gin.H{"order_id": 1})

	resp := decode(t, w)
	assert.Equal(t, 0, resp.Code)
	assert.Equal(t, "success", resp.Message)
}

func TestError_AppError(t *testing.T) {
	c, w := newContext()
	Error(c, apperrors.New(apperrors.ErrCodeInsufficientCredits, "积分不足"))

	resp := decode(t, w)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, apperrors.ErrCodeInsufficientCredits, resp.Code)
	assert.Equal(t, "积分不足", resp.Message)
	assert.Nil(t, resp.Data)
}

func TestError_PlainErrorHidesDetail(t *testing.T) {
	c, w := newContext()
	Error(c, errors.New("dial tcp 10.0.0.1:3306: connection refused"))

	resp := decode(t, w)
	assert.Equal(t, apperrors.ErrCodeInternal, resp.Code)
	assert.NotContains(t, resp.Message, "10.0.0.1")
}

func TestErrorWithData(t *testing.T) {
	c, w := newContext()
	ErrorWithData(c, apperrors.New(apperrors.ErrCodeItemUnavailable, "图书不可购买"), gin.H{"book_id": 7})

	resp := decode(t, w)
	assert.Equal(t, apperrors.ErrCodeItemUnavailable, resp.Code)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 7, data["book_id"])
}

func TestAbort(t *testing.T) {
	c, _ := newContext()
	Abort(c, apperrors.ErrUnauthorized)
	assert.True(t, c.IsAborted())
}

func TestNewPageData(t *testing.T) {
	p := NewPageData([]int{1, 2}, 21, 1, 10)
	assert.Equal(t, 3, p.TotalPages)

	assert.Equal(t, 0, NewPageData(nil, 0, 1, 10).TotalPages)
	assert.Equal(t, 0, NewPageData(nil, 5, 1, 0).TotalPages)
}
