package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormEncodePreservesInsertionOrder(t *testing.T) {
	f := NewForm()
	f.Set("wizardForm:transition", "next2")
	f.Set("javax.faces.ViewState", "vs-1")
	f.Set("wizardForm:lastName", "Muster")

	assert.Equal(t,
		"wizardForm%3Atransition=next2&javax.faces.ViewState=vs-1&wizardForm%3AlastName=Muster",
		f.Encode())
}

func TestFormEncodeDeterministic(t *testing.T) {
	build := func() string {
		f := NewForm()
		f.Set("a", "1")
		f.Set("b", "")
		f.Set("c", "x y")
		return f.Encode()
	}
	first := build()
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, build())
	}
}

func TestFormSetReplacesInPlace(t *testing.T) {
	f := NewForm()
	f.Set("a", "1")
	f.Set("b", "2")
	f.Set("a", "3")

	require.Equal(t, 2, f.Len())
	pairs := f.Pairs()
	assert.Equal(t, FormPair{Name: "a", Value: "3"}, pairs[0])
	assert.Equal(t, FormPair{Name: "b", Value: "2"}, pairs[1])
}

func TestFormEmptyValueStaysPresent(t *testing.T) {
	f := NewForm()
	f.Set("wizardForm:middleName", "")

	assert.True(t, f.Has("wizardForm:middleName"))
	assert.Equal(t, "wizardForm%3AmiddleName=", f.Encode())
}

func TestFormCloneIsIndependent(t *testing.T) {
	f := NewForm()
	f.Set("a", "1")

	c := f.Clone()
	c.Set("a", "2")
	c.Set("b", "3")

	assert.Equal(t, "1", f.Get("a"))
	assert.False(t, f.Has("b"))
	assert.Equal(t, "2", c.Get("a"))
}

func TestFormAddAndMerge(t *testing.T) {
	f := NewForm()
	f.Add("x", "1")
	f.Add("x", "2")
	assert.Equal(t, 2, f.Len())
	assert.Equal(t, "1", f.Get("x"))

	other := NewForm()
	other.Set("y", "3")
	f.Merge(other)
	f.Merge(nil)

	assert.Equal(t, 3, f.Len())
	assert.Equal(t, "3", f.Get("y"))
}
