package devbackend

import (
	"strings"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/loganlanou/course-admin/internal/content"
)

// fakeRecord fills every field and column of res with plausible values.
func fakeRecord(f *gofakeit.Faker, res content.Resource) map[string]any {
	rec := map[string]any{}

	for _, field := range res.Fields {
		rec[field.Name] = fakeValue(f, field.Name, field.Kind, field.Options)
	}
	for _, col := range res.Columns {
		if _, ok := rec[col.Field]; ok || col.Kind == content.ColTime {
			continue
		}
		kind := content.KindText
		if col.Kind == content.ColBool {
			kind = content.KindBool
		}
		rec[col.Field] = fakeValue(f, col.Field, kind, nil)
	}

	if title, ok := rec["title"].(string); ok {
		if _, hasSlug := rec["slug"]; hasSlug {
			rec["slug"] = slugify(title)
		}
	}

	return rec
}

func fakeValue(f *gofakeit.Faker, name string, kind content.FieldKind, options []string) any {
	switch kind {
	case content.KindBool:
		return f.Bool()
	case content.KindNumber:
		if name == "price" {
			return float64(f.Number(19, 499))
		}
		return f.Number(1, 20)
	case content.KindSelect:
		if len(options) > 0 {
			return f.RandomString(options)
		}
	case content.KindURL:
		return f.URL()
	case content.KindTextArea:
		return words(f, 24)
	}

	switch {
	case name == "email":
		return f.Email()
	case name == "phone":
		return f.Phone()
	case name == "name" || name == "author":
		return f.Name()
	case strings.HasSuffix(name, "title"):
		return capitalize(words(f, 4))
	default:
		return words(f, 3)
	}
}

func words(f *gofakeit.Faker, n int) string {
	out := make([]string, n)
	for i := range out {
		out[i] = f.Word()
	}
	return strings.Join(out, " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), "-")
}
