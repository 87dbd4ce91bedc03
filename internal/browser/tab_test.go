package browser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJSString(t *testing.T) {
	assert.Equal(t, `"#reviewMoreBtn"`, jsString("#reviewMoreBtn"))
	assert.Equal(t, `"#divReviewList li[data-review-id]"`, jsString("#divReviewList li[data-review-id]"))
	assert.Equal(t, `"a[title=\"x\"]"`, jsString(`a[title="x"]`))
}

func TestTabRunHonoursCallerContext(t *testing.T) {
	tab := &Tab{ctx: context.Background(), selectors: Selectors{Item: "li", More: "#more", Count: "#count"}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tab.CountItems(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	_, _, err = tab.LocateMore(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
