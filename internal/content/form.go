package content

import (
	"encoding/json"
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// FromForm converts submitted form values into a record for res. It returns
// per-field messages for values that cannot be sent.
func FromForm(res Resource, form url.Values) (Record, map[string]string) {
	rec := Record{}
	problems := map[string]string{}

	for _, f := range res.Fields {
		raw := strings.TrimSpace(form.Get(f.Name))

		if f.Kind == KindBool {
			rec[f.Name] = raw == "on" || raw == "true" || raw == "1"
			continue
		}

		if raw == "" {
			if f.Required {
				problems[f.Name] = fmt.Sprintf("%s is required", f.Label)
			}
			continue
		}

		switch f.Kind {
		case KindNumber:
			n := json.Number(raw)
			if _, err := n.Float64(); err != nil {
				problems[f.Name] = fmt.Sprintf("%s must be a number", f.Label)
				continue
			}
			rec[f.Name] = n
		case KindSelect:
			if len(f.Options) > 0 && !slices.Contains(f.Options, raw) {
				problems[f.Name] = fmt.Sprintf("%s must be one of %s", f.Label, strings.Join(f.Options, ", "))
				continue
			}
			rec[f.Name] = raw
		case KindURL:
			if !safeURL(raw) {
				problems[f.Name] = fmt.Sprintf("%s must be a URL", f.Label)
				continue
			}
			rec[f.Name] = raw
		default:
			rec[f.Name] = raw
		}
	}

	if len(problems) == 0 {
		return rec, nil
	}
	return rec, problems
}

// safeURL accepts absolute http(s) links and site-relative paths.
func safeURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.Host != ""
	case "":
		return strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//")
	}
	return false
}
