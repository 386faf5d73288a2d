package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMarshalMap(t *testing.T) {
	assert.Nil(t, marshalMap(nil))
	assert.JSONEq(t, `{"taskId":"T1"}`, string(marshalMap(map[string]string{"taskId": "T1"})))
}

func TestMarshalInts(t *testing.T) {
	assert.Equal(t, "[]", string(marshalInts(nil)))
	assert.Equal(t, "[200,100,200]", string(marshalInts([]int{200, 100, 200})))
}

func TestNullTime(t *testing.T) {
	assert.Nil(t, nullTime(time.Time{}))
	now := time.Now()
	assert.Equal(t, now, nullTime(now))
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 100, clampLimit(0))
	assert.Equal(t, 100, clampLimit(500))
	assert.Equal(t, 10, clampLimit(10))
}
