package browser

import (
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"
)

// Locator identifies elements on a page. Stable ids and attributes are
// preferred; text locators exist only where the application renders no
// stable hook and break when its copy changes.
type Locator struct {
	name  string
	query string
	xpath bool
}

// ByID locates an element by id
func ByID(id string) Locator {
	return Locator{name: "#" + id, query: "#" + id}
}

// ByCSS locates elements with a CSS selector
func ByCSS(selector string) Locator {
	return Locator{name: selector, query: selector}
}

// ByText locates elements of tag (any tag when empty) whose normalized text
// contains text.
func ByText(tag, text string) Locator {
	if tag == "" {
		tag = "*"
	}
	expr := fmt.Sprintf(`//%s[contains(normalize-space(.), %s)]`, tag, xpathLiteral(text))
	if tag == "*" {
		// Innermost match only, so a text locator does not also hit <html>/<body>
		expr = fmt.Sprintf(`//*[contains(normalize-space(.), %[1]s) and not(*[contains(normalize-space(.), %[1]s)])]`, xpathLiteral(text))
	}
	name := fmt.Sprintf(`%s %q`, tag, text)
	return Locator{name: name, query: expr, xpath: true}
}

// ByXPath locates elements with an XPath expression. name is how the locator
// appears in logs and errors.
func ByXPath(name, expr string) Locator {
	return Locator{name: name, query: expr, xpath: true}
}

// String returns the locator's display name
func (l Locator) String() string {
	return l.name
}

// Query returns the raw CSS selector or XPath expression
func (l Locator) Query() string {
	return l.query
}

// IsXPath reports whether Query is an XPath expression
func (l Locator) IsXPath() bool {
	return l.xpath
}

// Within scopes a locator to descendants of parent. Both must be the same kind.
func (l Locator) Within(parent Locator) Locator {
	if l.xpath != parent.xpath {
		panic(fmt.Sprintf("cannot scope %s under %s: mixed locator kinds", l, parent))
	}
	if l.xpath {
		return Locator{
			name:  parent.name + " " + l.name,
			query: parent.query + "//" + strings.TrimLeft(l.query, "/"),
			xpath: true,
		}
	}
	return Locator{name: parent.name + " " + l.name, query: parent.query + " " + l.query}
}

func (l Locator) queryOptions() []chromedp.QueryOption {
	if l.xpath {
		return []chromedp.QueryOption{chromedp.BySearch}
	}
	return []chromedp.QueryOption{chromedp.ByQuery}
}

// jsElements returns a JavaScript expression evaluating to an array of the
// elements the locator matches.
func (l Locator) jsElements() string {
	if l.xpath {
		return fmt.Sprintf(`(() => {
			const snap = document.evaluate(%s, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
			const out = [];
			for (let i = 0; i < snap.snapshotLength; i++) out.push(snap.snapshotItem(i));
			return out;
		})()`, jsString(l.query))
	}
	return fmt.Sprintf(`Array.from(document.querySelectorAll(%s))`, jsString(l.query))
}

// xpathLiteral quotes s for XPath 1.0, which has no escape sequences
func xpathLiteral(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, `'`) {
		return `'` + s + `'`
	}
	parts := strings.Split(s, `"`)
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `'"'`)
		}
		quoted = append(quoted, `"`+p+`"`)
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

func jsString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "`", "\\`", "\n", `\n`, "\r", `\r`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}
