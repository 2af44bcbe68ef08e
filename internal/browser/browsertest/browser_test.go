package browsertest

import (
	"context"
	"errors"
	"testing"

	"github.com/jonathan/apply-agent/internal/browser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const formPage = `<html><body>
	<label for="email">Email address</label>
	<input id="email" name="email" type="text">
	<input id="secret" type="hidden" value="x">
	<button id="go" disabled>Go</button>
	<div style="display:none"><input id="ghost" name="ghost"></div>
	<label><input id="terms" type="checkbox"> I agree to the terms</label>
	<select id="exp"><option value="">Select...</option><option value="5">5 years</option></select>
	<textarea id="cover"></textarea>
	<button id="next" aria-label="Continue to next step">Next</button>
</body></html>`

func first(t *testing.T, b *Browser, css string) browser.Handle {
	t.Helper()
	hs, err := b.QueryAll(context.Background(), browser.CSS(css))
	require.NoError(t, err)
	require.NotEmpty(t, hs, css)
	return hs[0]
}

func TestBrowser_StateAndDescribe(t *testing.T) {
	ctx := context.Background()
	b := New().AddPage("https://example.com/form", formPage)
	require.NoError(t, b.Navigate(ctx, "https://example.com/form"))

	st, err := b.State(ctx, first(t, b, "#email"))
	require.NoError(t, err)
	assert.True(t, st.Visible)
	assert.True(t, st.Enabled)
	assert.Equal(t, -1, st.SelectedIndex)

	st, _ = b.State(ctx, first(t, b, "#secret"))
	assert.False(t, st.Visible)

	st, _ = b.State(ctx, first(t, b, "#go"))
	assert.False(t, st.Enabled)

	st, _ = b.State(ctx, first(t, b, "#ghost"))
	assert.False(t, st.Visible)

	el, err := b.Describe(ctx, first(t, b, "#email"))
	require.NoError(t, err)
	assert.Equal(t, "input", el.Tag)
	assert.Equal(t, "Email address", el.Label)

	el, _ = b.Describe(ctx, first(t, b, "#terms"))
	assert.Equal(t, "I agree to the terms", el.Label)

	el, _ = b.Describe(ctx, first(t, b, "#exp"))
	assert.Equal(t, []browser.Option{{Text: "Select...", Value: ""}, {Text: "5 years", Value: "5"}}, el.Options)
}

func TestBrowser_Actions(t *testing.T) {
	ctx := context.Background()
	b := New().AddPage("u", formPage)
	require.NoError(t, b.Navigate(ctx, "u"))

	email := first(t, b, "#email")
	require.NoError(t, b.Act(ctx, email, browser.Type("a@b.c")))
	assert.Equal(t, "a@b.c", b.Value("#email"))
	require.NoError(t, b.Act(ctx, email, browser.Clear()))
	assert.Equal(t, "", b.Value("#email"))

	require.NoError(t, b.Act(ctx, first(t, b, "#terms"), browser.Click()))
	st, _ := b.State(ctx, first(t, b, "#terms"))
	assert.True(t, st.Checked)

	require.NoError(t, b.Act(ctx, first(t, b, "#exp"), browser.SelectIndex(1)))
	st, _ = b.State(ctx, first(t, b, "#exp"))
	assert.Equal(t, 1, st.SelectedIndex)
	assert.Equal(t, "5", st.Value)

	require.NoError(t, b.Act(ctx, first(t, b, "#cover"), browser.Type("hello")))
	assert.Equal(t, "hello", b.Value("#cover"))

	err := b.Act(ctx, first(t, b, "#go"), browser.Click())
	assert.True(t, errors.Is(err, browser.ErrNotInteractable))

	assert.Contains(t, b.Actions, `#email type("a@b.c")`)
}

func TestBrowser_HooksAndDetach(t *testing.T) {
	ctx := context.Background()
	b := New().AddPage("u", formPage)
	require.NoError(t, b.Navigate(ctx, "u"))
	b.OnClick("next", func(b *Browser) error {
		b.SetHTML(`<html><body><h2>Application submitted</h2></body></html>`)
		return nil
	})

	next := first(t, b, "#next")
	require.NoError(t, b.Act(ctx, next, browser.Click()))

	text, err := b.PageText(ctx)
	require.NoError(t, err)
	assert.Contains(t, text, "Application submitted")

	_, err = b.State(ctx, next)
	assert.True(t, errors.Is(err, browser.ErrDetached))
}

func TestBrowser_Windows(t *testing.T) {
	ctx := context.Background()
	b := New()
	id := b.OpenWindow("https://ats.example.com/apply", `<html><body><p>External</p></body></html>`)

	handles, _ := b.WindowHandles(ctx)
	assert.Equal(t, []string{"main", id}, handles)

	require.NoError(t, b.SwitchWindow(ctx, id))
	u, _ := b.CurrentURL(ctx)
	assert.Equal(t, "https://ats.example.com/apply", u)

	require.NoError(t, b.CloseWindow(ctx, id))
	cur, _ := b.CurrentWindow(ctx)
	assert.Equal(t, "main", cur)
	assert.Error(t, b.SwitchWindow(ctx, id))
	assert.Error(t, b.CloseWindow(ctx, "main"))
}

func TestBrowser_Navigation(t *testing.T) {
	ctx := context.Background()
	b := New().FailNavigation("bad", errors.New("net::ERR_NAME_NOT_RESOLVED"))

	var navErr *browser.NavigationError
	assert.ErrorAs(t, b.Navigate(ctx, "bad"), &navErr)
	assert.ErrorAs(t, b.Navigate(ctx, "missing"), &navErr)

	_, err := b.QueryAll(ctx, browser.XPath("//a"))
	assert.ErrorIs(t, err, browser.ErrUnsupportedLocator)
}
