package testutil

import (
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMockDB(t *testing.T) {
	mdb := NewMockDB(t)
	defer mdb.Close()

	mdb.Mock.ExpectQuery(`SELECT 1`).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	var n int
	require.NoError(t, mdb.DB.Raw("SELECT 1").Scan(&n).Error)
	assert.Equal(t, 1, n)

	mdb.ExpectationsWereMet(t)
}

func TestNewTestContext(t *testing.T) {
	tc := NewTestContext(t)

	require.NotNil(t, tc.Context)
	require.NotNil(t, tc.Context.Request)
	assert.Equal(t, http.MethodGet, tc.Context.Request.Method)
}

func TestTestContext_SetRequestID(t *testing.T) {
	tc := NewTestContext(t)
	tc.SetRequestID("req-lot-7")

	assert.Equal(t, "req-lot-7", tc.Context.GetString("request_id"))
}

func TestTestContext_ResponseHelpers(t *testing.T) {
	tc := NewTestContext(t)
	tc.Context.JSON(http.StatusCreated, gin.H{"success": true})

	assert.Equal(t, http.StatusCreated, tc.ResponseCode())
	assert.Contains(t, string(tc.ResponseBody()), `"success":true`)
}

func TestNewTestUUID_Deterministic(t *testing.T) {
	assert.Equal(t, NewTestUUID("warehouse-main"), NewTestUUID("warehouse-main"))
	assert.NotEqual(t, NewTestUUID("warehouse-main"), NewTestUUID("warehouse-spare"))
}

func TestAssertErrorResponse(t *testing.T) {
	tc := NewTestContext(t)
	tc.Context.JSON(http.StatusUnprocessableEntity, gin.H{
		"success": false,
		"error":   gin.H{"code": "ERR_INSUFFICIENT_STOCK"},
	})

	AssertErrorResponse(t, tc, "ERR_INSUFFICIENT_STOCK")
}

func TestAssertSuccessResponse(t *testing.T) {
	tc := NewTestContext(t)
	tc.Context.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{}})

	AssertSuccessResponse(t, tc)
}

func TestRunHTTPTestCase(t *testing.T) {
	handler := func(c *gin.Context) {
		var req struct {
			Quantity int `json:"quantity"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Quantity <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}

	RunHTTPTestCases(t, handler, []HTTPTestCase{
		{
			Name:           "accepts positive quantity",
			Method:         http.MethodPost,
			Path:           "/stock/entries",
			Body:           map[string]int{"quantity": 5},
			ExpectedStatus: http.StatusOK,
			ExpectedBody:   map[string]interface{}{"success": true},
		},
		{
			Name:           "rejects zero quantity",
			Method:         http.MethodPost,
			Path:           "/stock/entries",
			Body:           map[string]int{"quantity": 0},
			ExpectedStatus: http.StatusBadRequest,
		},
	})
}
