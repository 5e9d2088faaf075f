package browser

import (
	"context"
	"errors"
	"strings"

	"github.com/go-rod/rod/lib/proto"

	"ccr-registry-scraper/internal/scraper"
)

var errNotFound = errors.New("element not found")

// element is the part of *rod.Element the next-page strategies use.
type element interface {
	Attribute(name string) (*string, error)
	Visible() (bool, error)
	Text() (string, error)
	Click(button proto.InputMouseButton, clickCount int) error
}

// dom is the part of the rendered page the next-page strategies query.
type dom interface {
	ElementByID(ctx context.Context, id string) (element, error)
	Elements(ctx context.Context, selector string) ([]element, error)
	EvalBool(ctx context.Context, js string, args ...interface{}) (bool, error)
}

// labelCandidates are the elements the label strategy inspects.
const labelCandidates = `a, [title], [aria-label], [role="button"]`

// nextPageJS clicks the first enabled anchor inside the candidate containers
// whose text contains an affix or whose title/aria-label is a next label.
const nextPageJS = `(containerSelector, nextID, affixes, labels, markers) => {
	const disabled = (el) => {
		for (const node of [el, el.parentElement]) {
			if (!node) continue;
			if (node.getAttribute('aria-disabled') === 'true' || node.hasAttribute('disabled')) return true;
			const cls = typeof node.className === 'string' ? node.className : '';
			for (const m of markers) {
				if (cls.toLowerCase().includes(m.toLowerCase())) return true;
			}
		}
		return false;
	};
	const byID = nextID ? document.getElementById(nextID) : null;
	if (byID && !disabled(byID)) {
		byID.click();
		return true;
	}
	for (const container of document.querySelectorAll(containerSelector)) {
		for (const a of container.querySelectorAll('a')) {
			const text = a.innerText || '';
			const label = a.getAttribute('title') || a.getAttribute('aria-label') || '';
			const match = affixes.some((x) => text.includes(x)) || labels.some((l) => label === l);
			if (match && !disabled(a)) {
				a.click();
				return true;
			}
		}
	}
	return false;
}`

// nextStrategies returns the ordered fallback chain for advancing the
// results table: the known control by ID, then a label/affix search, then an
// in-page script.
func nextStrategies(d dom, sel *scraper.Selectors) []scraper.NextStrategy {
	return []scraper.NextStrategy{
		{
			Name: "direct",
			Attempt: func(ctx context.Context) (bool, error) {
				if sel.NextButtonID == "" {
					return false, nil
				}
				el, err := d.ElementByID(ctx, sel.NextButtonID)
				if err != nil {
					return false, err
				}
				return clickIfEnabled(el, sel.DisabledMarkers)
			},
		},
		{
			Name: "label",
			Attempt: func(ctx context.Context) (bool, error) {
				els, err := d.Elements(ctx, labelCandidates)
				if err != nil {
					return false, err
				}
				for _, el := range els {
					if !matchesNext(el, sel) {
						continue
					}
					clicked, err := clickIfEnabled(el, sel.DisabledMarkers)
					if err != nil {
						return false, err
					}
					if clicked {
						return true, nil
					}
				}
				return false, nil
			},
		},
		{
			Name: "script",
			Attempt: func(ctx context.Context) (bool, error) {
				return d.EvalBool(ctx, nextPageJS,
					sel.ContainerSelector,
					sel.NextButtonID,
					nonNil(sel.NextAffixes),
					nonNil(sel.NextLabels),
					nonNil(sel.DisabledMarkers),
				)
			},
		},
	}
}

// matchesNext reports whether el is labelled as the next-page control.
func matchesNext(el element, sel *scraper.Selectors) bool {
	for _, attr := range []string{"title", "aria-label"} {
		v, err := el.Attribute(attr)
		if err != nil || v == nil {
			continue
		}
		for _, label := range sel.NextLabels {
			if strings.TrimSpace(*v) == label {
				return true
			}
		}
	}

	text, err := el.Text()
	if err != nil {
		return false
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	for _, affix := range sel.NextAffixes {
		if strings.Contains(text, affix) {
			return true
		}
	}
	return false
}

// clickIfEnabled clicks el unless it is hidden or carries a disabled marker.
func clickIfEnabled(el element, markers []string) (bool, error) {
	visible, err := el.Visible()
	if err != nil {
		return false, err
	}
	if !visible {
		return false, nil
	}

	disabled, err := isDisabled(el, markers)
	if err != nil {
		return false, err
	}
	if disabled {
		return false, nil
	}

	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return false, err
	}
	return true, nil
}

func isDisabled(el element, markers []string) (bool, error) {
	class, err := el.Attribute("class")
	if err != nil {
		return false, err
	}
	if class != nil {
		lower := strings.ToLower(*class)
		for _, m := range markers {
			if strings.Contains(lower, strings.ToLower(m)) {
				return true, nil
			}
		}
	}

	aria, err := el.Attribute("aria-disabled")
	if err != nil {
		return false, err
	}
	if aria != nil && strings.EqualFold(*aria, "true") {
		return true, nil
	}

	attr, err := el.Attribute("disabled")
	if err != nil {
		return false, err
	}
	return attr != nil, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
