package value_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/davide125/wzsh/value"
)

func TestValueIsNone(t *testing.T) {
	assert.True(t, value.None.IsNone())
	assert.False(t, value.String("").IsNone())
}

func TestValueIsNoneOrEmptyString(t *testing.T) {
	assert.True(t, value.None.IsNoneOrEmptyString())
	assert.True(t, value.String("").IsNoneOrEmptyString())
	assert.False(t, value.String("x").IsNoneOrEmptyString())
	assert.False(t, value.Integer(0).IsNoneOrEmptyString())
}

func TestValueAsString(t *testing.T) {
	assert.Equal(t, "", value.None.AsString())
	assert.Equal(t, "hi", value.String("hi").AsString())
	assert.Equal(t, "a b", value.List([]string{"a", "b"}).AsString())
	assert.Equal(t, "42", value.Integer(42).AsString())
}

func TestValueLen(t *testing.T) {
	assert.Equal(t, 0, value.None.Len())
	assert.Equal(t, 3, value.String("foo").Len())
	assert.Equal(t, 2, value.List([]string{"a", "b"}).Len())
	assert.Equal(t, 3, value.Integer(-12).Len())
}

func TestValueEqual(t *testing.T) {
	assert.True(t, value.String("a").Equal(value.String("a")))
	assert.False(t, value.String("a").Equal(value.String("b")))
	assert.True(t, value.List([]string{"a"}).Equal(value.List([]string{"a"})))
	assert.False(t, value.List([]string{"a"}).Equal(value.List([]string{"a", "b"})))
	assert.True(t, value.None.Equal(value.Value{}))
}

func TestWaitableStatusRoundTrip(t *testing.T) {
	ws := value.Completed(3)
	st, final := ws.Poll()
	assert.True(t, final)
	assert.Equal(t, value.CompleteStatus(3), st)
	assert.Equal(t, value.CompleteStatus(3), ws.Wait())
}
