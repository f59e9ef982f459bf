package htmltext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVisibleText_DropsScriptsAndStyles(t *testing.T) {
	page := `<html><head><title>Opt out</title></head>
<body>
    <div id="main">Thank you,   your request
    has been received.</div>
    <script>var msg = "error";</script>
    <style>.x {}</style>
</body></html>`

	out := VisibleText(page, nil)

	assert.Equal(t, "Thank you, your request has been received.", out)
}

func TestVisibleText_SkipsHiddenAndComments(t *testing.T) {
	page := `<body>
    <!-- success -->
    <p hidden>hidden success</p>
    <p style="display: none">also hidden</p>
    <span aria-hidden="true">icon</span>
    <p>Visible</p>
</body>`

	out := VisibleText(page, nil)

	assert.Equal(t, "Visible", out)
}

func TestVisibleText_WithoutBody(t *testing.T) {
	out := VisibleText(`plain fragment`, nil)
	assert.Equal(t, "plain fragment", out)
}

func TestVisibleText_Truncates(t *testing.T) {
	cfg := DefaultConfig
	cfg.MaxOutputSize = 5

	out := VisibleText(`<body><p>abcdefghij</p></body>`, &cfg)

	assert.Equal(t, "abcde", out)
}

func TestContainsAny(t *testing.T) {
	phrase, ok := ContainsAny("Your Request Has Been Received", "thank you", "request has been received")
	assert.True(t, ok)
	assert.Equal(t, "request has been received", phrase)

	_, ok = ContainsAny("Nothing here", "", "success")
	assert.False(t, ok)
}

func TestContainsAny_WordBoundaries(t *testing.T) {
	_, ok := ContainsAny("Showing 10 results", "0 results")
	assert.False(t, ok)

	_, ok = ContainsAny("Unsubscribed", "subscribe")
	assert.False(t, ok)

	phrase, ok := ContainsAny("0 results.", "0 results")
	assert.True(t, ok)
	assert.Equal(t, "0 results", phrase)

	_, ok = ContainsAny("Your opt-out request received!", "opt-out request received")
	assert.True(t, ok)
}
