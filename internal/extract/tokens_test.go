package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hiddenInputPage = `
<html><body>
<form id="wizardForm" method="post">
	<input type="hidden" name="javax.faces.ViewState" value="vs-42" />
	<input type="hidden" name="javax.faces.ClientWindow" value="w1:3" />
	<input type="hidden" name="wizardForm:requestToken" value="nonce-7" />
</form>
</body></html>`

const updateBlockPage = `<?xml version='1.0' encoding='UTF-8'?>
<partial-response><changes>
<update id="j_id1:javax.faces.ViewState:0"><![CDATA[vs-42]]></update>
<update id="j_id1:javax.faces.ClientWindow:0"><![CDATA[w1:3]]></update>
<update id="wizardForm:requestToken"><![CDATA[nonce-7]]></update>
</changes></partial-response>`

const idSuffixPage = `
<html><body>
<div>
	<input type="hidden" id="formA:token:ViewState" value="vs-42" />
	<input type="hidden" value="w1:3" id="formA:token:ClientWindow" />
	<input type="hidden" id="formA:requestToken" value="nonce-7" />
</div>
</body></html>`

const scriptLiteralPage = `
<html><head><script>
window.portalState = {"javax.faces.ViewState":"vs-42","javax.faces.ClientWindow":"w1:3"};
var requestToken = 'nonce-7';
</script></head><body></body></html>`

// Whatever shape carries the tokens, the extracted bundle is identical.
func TestTokensShapeIndependence(t *testing.T) {
	e := New()
	pages := map[string]string{
		"hidden_input":   hiddenInputPage,
		"update_block":   updateBlockPage,
		"id_suffix":      idSuffixPage,
		"script_literal": scriptLiteralPage,
	}

	for name, page := range pages {
		t.Run(name, func(t *testing.T) {
			tokens, err := e.RequireTokens(page, "")
			require.NoError(t, err)
			assert.Equal(t, "vs-42", tokens.ViewState)
			assert.Equal(t, "w1:3", tokens.ClientWindow)
			assert.Equal(t, "nonce-7", tokens.Nonce)
		})
	}
}

func TestTokensPartialBody(t *testing.T) {
	e := New()
	partial := `<?xml version='1.0' encoding='UTF-8'?>
<partial-response><changes>
<update id="j_id1:javax.faces.ViewState:0"><![CDATA[vs-43]]></update>
</changes></partial-response>`

	tokens := e.Tokens(partial)
	assert.Equal(t, "vs-43", tokens.ViewState)
	assert.Empty(t, tokens.ClientWindow)
	assert.Empty(t, tokens.Nonce)
}

func TestRequireTokensNamesMissingToken(t *testing.T) {
	e := New()

	_, err := e.RequireTokens(`<html><body>nothing here</body></html>`, "")
	var tokenErr *TokenError
	require.ErrorAs(t, err, &tokenErr)
	assert.Equal(t, "viewState", tokenErr.Which)

	onlyViewState := `<html><body>
<input type="hidden" name="javax.faces.ViewState" value="vs-1" />
</body></html>`
	_, err = e.RequireTokens(onlyViewState, "")
	require.ErrorAs(t, err, &tokenErr)
	assert.Equal(t, "clientWindow", tokenErr.Which)
}

func TestRequireTokensFallbackWindow(t *testing.T) {
	e := New()
	page := `<html><body>
<input type="hidden" name="javax.faces.ViewState" value="vs-1" />
<input type="hidden" name="wizardForm:requestToken" value="n-1" />
</body></html>`

	tokens, err := e.RequireTokens(page, "w9:0")
	require.NoError(t, err)
	assert.Equal(t, "w9:0", tokens.ClientWindow)
}
