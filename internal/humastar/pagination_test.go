package humastar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPage(t *testing.T) {
	items := []int{0, 1, 2, 3, 4, 5, 6}

	p := NewPage(items, 2, 3)
	assert.Equal(t, []int{2, 3, 4}, p.Data)
	assert.Equal(t, 7, p.Total)

	p = NewPage(items, 6, 3)
	assert.Equal(t, []int{6}, p.Data)

	p = NewPage(items, 40, 3)
	assert.Empty(t, p.Data)
	assert.NotNil(t, p.Data)

	p = NewPage(items, -1, 0)
	assert.Equal(t, 0, p.Offset)
	assert.Equal(t, 1, p.Limit)
	assert.Equal(t, []int{0}, p.Data)
}

func TestNewPageCopies(t *testing.T) {
	items := []string{"a", "b"}
	p := NewPage(items, 0, 2)
	p.Data[0] = "z"
	assert.Equal(t, "a", items[0])
}

func TestPaginationLinks(t *testing.T) {
	p := PageBody[int]{Total: 25, Offset: 10, Limit: 10}
	assert.Equal(t, []string{
		`</m?offset=0&limit=10>; rel="first"`,
		`</m?offset=0&limit=10>; rel="prev"`,
		`</m?offset=20&limit=10>; rel="next"`,
		`</m?offset=20&limit=10>; rel="last"`,
	}, p.PaginationLinks("/m"))

	first := PageBody[int]{Total: 5, Offset: 0, Limit: 10}
	assert.Equal(t, []string{
		`</m?offset=0&limit=10>; rel="first"`,
		`</m?offset=0&limit=10>; rel="last"`,
	}, first.PaginationLinks("/m"))

	empty := PageBody[int]{Total: 0, Offset: 0, Limit: 10}
	assert.Contains(t, empty.PaginationLinks("/m"), `</m?offset=0&limit=10>; rel="last"`)
}
